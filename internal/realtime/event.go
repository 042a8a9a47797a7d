// Package realtime carries change events between the database layer and
// live subscribers. Feeds can be in-process, Redis pub/sub or NATS.
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

// Row change events.
const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Auth events published by the identity service.
const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
	UserUpdated    EventType = "USER_UPDATED"
)

// Channels.
const (
	ChannelDB   = "db"
	ChannelAuth = "auth"
)

type Event struct {
	Channel   string          `json:"channel"`
	Type      EventType       `json:"type"`
	Table     string          `json:"table,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
	At        time.Time       `json:"at"`
}

// Filter selects events. Empty fields match anything.
type Filter struct {
	Channel string
	Type    EventType
	Table   string
	UserID  string
}

func (f Filter) Match(e Event) bool {
	if f.Channel != "" && f.Channel != e.Channel {
		return false
	}
	if f.Type != "" && f.Type != e.Type {
		return false
	}
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if f.UserID != "" && f.UserID != e.UserID {
		return false
	}
	return true
}

// Handler receives matching events. It runs on the feed's delivery
// goroutine and must not block.
type Handler func(Event)

type Subscription interface {
	Unsubscribe() error
}

type Feed interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(f Filter, h Handler) (Subscription, error)
	Close() error
}

// RowEvent builds a db channel event for a row owned by userID.
func RowEvent(typ EventType, table, userID string, record interface{}) (Event, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Channel: ChannelDB,
		Type:    typ,
		Table:   table,
		UserID:  userID,
		Record:  raw,
		At:      time.Now(),
	}, nil
}

// AuthEvent builds an auth channel event.
func AuthEvent(typ EventType, userID, sessionID string) Event {
	return Event{
		Channel:   ChannelAuth,
		Type:      typ,
		UserID:    userID,
		SessionID: sessionID,
		At:        time.Now(),
	}
}
