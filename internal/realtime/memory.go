package realtime

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("realtime feed is closed")

// MemoryFeed delivers events synchronously inside one process.
type MemoryFeed struct {
	d *dispatcher
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{d: newDispatcher()}
}

func (m *MemoryFeed) Publish(_ context.Context, e Event) error {
	m.d.mu.RLock()
	closed := m.d.closed
	m.d.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	m.d.dispatch(e)
	return nil
}

func (m *MemoryFeed) Subscribe(f Filter, h Handler) (Subscription, error) {
	s, err := m.d.add(f, h)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (m *MemoryFeed) Close() error {
	m.d.close()
	return nil
}

// Subscribers returns the number of live subscriptions.
func (m *MemoryFeed) Subscribers() int {
	return m.d.count()
}
