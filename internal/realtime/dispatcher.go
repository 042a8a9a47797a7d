package realtime

import (
	"sync"
)

// dispatcher fans events out to local handlers. Every feed uses one,
// whatever transport delivers the events to this process.
type dispatcher struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool
}

type subscription struct {
	id      uint64
	filter  Filter
	handler Handler
	d       *dispatcher
	once    sync.Once
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[uint64]*subscription)}
}

func (d *dispatcher) add(f Filter, h Handler) (*subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	d.nextID++
	s := &subscription{id: d.nextID, filter: f, handler: h, d: d}
	d.subs[s.id] = s
	return s, nil
}

func (d *dispatcher) remove(id uint64) {
	d.mu.Lock()
	delete(d.subs, id)
	d.mu.Unlock()
}

// dispatch calls matching handlers outside the lock so handlers may
// subscribe or unsubscribe.
func (d *dispatcher) dispatch(e Event) {
	d.mu.RLock()
	matched := make([]*subscription, 0, len(d.subs))
	for _, s := range d.subs {
		if s.filter.Match(e) {
			matched = append(matched, s)
		}
	}
	d.mu.RUnlock()

	for _, s := range matched {
		if s.active() {
			s.handler(e)
		}
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.subs = make(map[uint64]*subscription)
	d.mu.Unlock()
}

func (d *dispatcher) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

func (s *subscription) active() bool {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	_, ok := s.d.subs[s.id]
	return ok
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() { s.d.remove(s.id) })
	return nil
}
