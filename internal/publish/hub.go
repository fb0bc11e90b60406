package publish

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber queue length used when Subscribe is
// given a non-positive size.
const DefaultBuffer = 256

// Hub broadcasts events to a dynamic set of subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	closed  bool
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription is one consumer's view of the hub.
type Subscription struct {
	hub  *Hub
	ch   chan Event
	once sync.Once
}

// C returns the event stream. It is closed when the subscription or the
// hub is closed.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.hub.subs, s)
		close(s.ch)
	})
}

// Subscribe registers a new consumer with the given buffer size.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscription{hub: h, ch: make(chan Event, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.closeLocked()
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

func (h *Hub) Publish(ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close closes every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		s.closeLocked()
	}
}
