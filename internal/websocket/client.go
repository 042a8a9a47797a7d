package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pasteldream/pastel-backend/internal/session"
	"github.com/pasteldream/pastel-backend/internal/watcher"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

const (
	maxMessagesPerSecond = 10
	sendBufferSize       = 256
	actionTimeout        = 10 * time.Second
)

// Client message types.
const (
	MessageSignOut  = "sign_out"
	MessageRefresh  = "refresh"
	MessageResume   = "resume"
	MessageMarkSeen = "mark_seen"
	MessagePing     = "ping"
)

// Server message types.
const (
	MessageAuthState       = "auth_state"
	MessageBadge           = "notification_badge"
	MessageNewNotification = "new_notification"
	MessagePong            = "pong"
	MessageError           = "error"
)

type ClientMessage struct {
	Type         string `json:"type"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type authStateMessage struct {
	Type string `json:"type"`
	session.Snapshot
}

type badgeMessage struct {
	Type      string `json:"type"`
	HasUnread bool   `json:"has_unread"`
}

type notificationMessage struct {
	Type         string          `json:"type"`
	Notification json.RawMessage `json:"notification"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Request string `json:"request"`
	Message string `json:"message"`
}

// Client is one socket. It owns a session provider and a notification
// watcher bound to it, and closes both when the socket goes away.
type Client struct {
	Hub      *Hub
	Conn     *Conn
	Send     chan []byte
	Provider *session.Provider
	Watcher  *watcher.Watcher

	mu     sync.Mutex
	closed bool
	once   sync.Once
	unbind func()

	messageCount  int
	lastResetTime time.Time
	rateMu        sync.Mutex
}

// NewClient wires provider and watcher events to the socket. Call it before
// the provider loads so the first auth_state is not missed.
func NewClient(hub *Hub, conn *Conn, provider *session.Provider, w *watcher.Watcher) *Client {
	c := &Client{
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan []byte, sendBufferSize),
		Provider:      provider,
		Watcher:       w,
		lastResetTime: time.Now(),
	}

	provider.Subscribe(func(s session.Snapshot) {
		c.write(authStateMessage{Type: MessageAuthState, Snapshot: s})
	})
	w.OnChange(func(u watcher.Update) {
		if u.Notification != nil {
			c.write(notificationMessage{Type: MessageNewNotification, Notification: u.Notification})
		}
		c.write(badgeMessage{Type: MessageBadge, HasUnread: u.HasUnread})
	})
	c.unbind = w.Bind(provider)
	return c
}

func (c *Client) UserID() string {
	return c.Provider.Snapshot().UserID()
}

// HandleClientMessage runs one client request.
func (c *Client) HandleClientMessage(message []byte) {
	if !c.allow() {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": c.UserID(),
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": c.UserID(),
			"error":   err.Error(),
		})
		c.write(errorMessage{Type: MessageError, Message: "invalid message"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MessagePing:
		c.write(map[string]string{"type": MessagePong})
	case MessageMarkSeen:
		c.Watcher.MarkSeen()
	case MessageSignOut:
		err = c.Provider.SignOut(ctx)
	case MessageRefresh:
		err = c.Provider.Refresh(ctx)
	case MessageResume:
		err = c.Provider.Resume(ctx, msg.AccessToken, msg.RefreshToken)
	default:
		c.write(errorMessage{Type: MessageError, Request: msg.Type, Message: "unknown message type"})
		return
	}
	if err != nil {
		logger.Warn("WebSocket request failed", map[string]interface{}{
			"user_id": c.UserID(),
			"request": msg.Type,
			"error":   err.Error(),
		})
		c.write(errorMessage{Type: MessageError, Request: msg.Type, Message: err.Error()})
	}
}

func (c *Client) allow() bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	now := time.Now()
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= maxMessagesPerSecond
}

func (c *Client) write(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return
	}
	c.enqueue(data)
}

// enqueue never blocks. A full buffer drops the message.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		logger.Warn("Client send buffer full, message dropped", map[string]interface{}{
			"buffered": len(c.Send),
		})
		return false
	}
}

// shutdown closes the watcher and provider, then the send channel, which
// makes WritePump close the socket.
func (c *Client) shutdown() {
	c.once.Do(func() {
		if c.unbind != nil {
			c.unbind()
		}
		c.Watcher.Close()
		if err := c.Provider.Close(); err != nil {
			logger.Warn("Failed to close session provider", map[string]interface{}{
				"error": err.Error(),
			})
		}

		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()
	})
}
