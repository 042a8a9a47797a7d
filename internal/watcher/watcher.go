// Package watcher keeps the unread notification badge for one identity in
// step with the notifications table.
package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/internal/session"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

const NotificationsTable = "notifications"

var ErrMissingUserID = errors.New("user id is required")

type UnreadChecker interface {
	HasUnread(ctx context.Context, userID string) (bool, error)
}

// IdentitySource is satisfied by *session.Provider.
type IdentitySource interface {
	Snapshot() session.Snapshot
	Subscribe(fn session.Listener) (unsubscribe func())
}

// Update is sent to OnChange listeners. Notification holds the inserted row
// when the change came from the feed and is nil otherwise.
type Update struct {
	UserID       string          `json:"user_id"`
	HasUnread    bool            `json:"has_unread"`
	Notification json.RawMessage `json:"notification,omitempty"`
}

type listener func(Update)

type Watcher struct {
	feed   realtime.Feed
	unread UnreadChecker

	mu        sync.Mutex
	userID    string
	gen       uint64
	sub       realtime.Subscription
	hasUnread bool
	listeners []listener
	unbind    func()
}

func New(feed realtime.Feed, unread UnreadChecker) *Watcher {
	return &Watcher{feed: feed, unread: unread}
}

// OnChange registers fn for every badge change. fn runs on the goroutine
// that caused the change and must not block.
func (w *Watcher) OnChange(fn func(Update)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

func (w *Watcher) HasUnread() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasUnread
}

func (w *Watcher) UserID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.userID
}

// Watch drops any previous subscription and starts following userID. The
// feed subscription is opened before the unread query so no insert between
// the two is missed.
func (w *Watcher) Watch(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	w.mu.Lock()
	prev := w.detachLocked()
	w.gen++
	gen := w.gen
	w.userID = userID
	was := w.hasUnread
	w.hasUnread = false
	w.mu.Unlock()
	unsubscribe(prev)

	sub, err := w.feed.Subscribe(realtime.Filter{
		Channel: realtime.ChannelDB,
		Type:    realtime.Insert,
		Table:   NotificationsTable,
		UserID:  userID,
	}, func(e realtime.Event) { w.onInsert(gen, e) })
	if err != nil {
		w.reset(gen)
		return err
	}

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		unsubscribe(sub)
		return nil
	}
	w.sub = sub
	w.mu.Unlock()

	unread, err := w.unread.HasUnread(ctx, userID)
	w.settle(gen, unread, was)
	if err != nil {
		logger.Error("Failed to check unread notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Debug("Watching notifications", map[string]interface{}{
		"user_id":    userID,
		"has_unread": unread,
	})
	return nil
}

// Stop tears down the subscription and clears the badge.
func (w *Watcher) Stop() {
	w.mu.Lock()
	prev := w.detachLocked()
	w.gen++
	w.userID = ""
	changed := w.hasUnread
	w.hasUnread = false
	listeners := append([]listener(nil), w.listeners...)
	w.mu.Unlock()

	unsubscribe(prev)
	if changed {
		notify(listeners, Update{})
	}
}

// MarkSeen clears the badge locally. Marking the rows read is the
// notification service's job.
func (w *Watcher) MarkSeen() {
	w.mu.Lock()
	if !w.hasUnread {
		w.mu.Unlock()
		return
	}
	w.hasUnread = false
	u := Update{UserID: w.userID}
	listeners := append([]listener(nil), w.listeners...)
	w.mu.Unlock()

	notify(listeners, u)
}

// Bind makes the watcher follow the identity held by src: it watches the
// signed-in user and stops on sign out. The returned function unbinds.
func (w *Watcher) Bind(src IdentitySource) (unbind func()) {
	follow := func(s session.Snapshot) {
		userID := s.UserID()
		if userID == w.UserID() {
			return
		}
		if userID == "" {
			w.Stop()
			return
		}
		if err := w.Watch(context.Background(), userID); err != nil {
			logger.Warn("Notification watcher could not follow identity", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	stop := src.Subscribe(follow)
	w.mu.Lock()
	if w.unbind != nil {
		w.unbind()
	}
	w.unbind = stop
	w.mu.Unlock()

	follow(src.Snapshot())
	return stop
}

// Close unbinds and stops the watcher.
func (w *Watcher) Close() {
	w.mu.Lock()
	stop := w.unbind
	w.unbind = nil
	w.mu.Unlock()
	if stop != nil {
		stop()
	}
	w.Stop()
}

func (w *Watcher) onInsert(gen uint64, e realtime.Event) {
	w.set(gen, e.Record)
}

func (w *Watcher) set(gen uint64, record json.RawMessage) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	changed := !w.hasUnread
	w.hasUnread = true
	u := Update{UserID: w.userID, HasUnread: true, Notification: record}
	listeners := append([]listener(nil), w.listeners...)
	w.mu.Unlock()

	if changed || record != nil {
		notify(listeners, u)
	}
}

// settle applies the initial query result. Inserts seen since the
// subscription opened keep the badge set.
func (w *Watcher) settle(gen uint64, unread, was bool) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	if unread {
		w.hasUnread = true
	}
	u := Update{UserID: w.userID, HasUnread: w.hasUnread}
	listeners := append([]listener(nil), w.listeners...)
	w.mu.Unlock()

	if u.HasUnread != was {
		notify(listeners, u)
	}
}

func (w *Watcher) reset(gen uint64) {
	w.mu.Lock()
	if gen == w.gen {
		w.userID = ""
	}
	w.mu.Unlock()
}

func (w *Watcher) detachLocked() realtime.Subscription {
	sub := w.sub
	w.sub = nil
	return sub
}

func unsubscribe(sub realtime.Subscription) {
	if sub == nil {
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		logger.Warn("Failed to unsubscribe from notifications", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func notify(listeners []listener, u Update) {
	for _, fn := range listeners {
		fn(u)
	}
}
