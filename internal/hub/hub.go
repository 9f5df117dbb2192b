// Package hub implements the broadcast bus that fans clipboard envelopes out
// to many independent subscribers.
//
// The bus is the only state shared across tasks. Any task may publish; each
// subscriber owns its own cursor (a bounded channel). Publishing never
// blocks: a subscriber that falls behind its buffer capacity loses its
// oldest undelivered envelopes and keeps receiving the newest — sync is
// eventually consistent, newest-wins, not every-intermediate-state.
package hub

import (
	"sync"

	"github.com/clipflow/clipflow/internal/content"
)

// DefaultCapacity is the per-subscriber buffer size before lag kicks in.
const DefaultCapacity = 100

// Bus is a bounded multi-subscriber broadcast of envelopes.
type Bus struct {
	capacity int

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// New returns a Bus with the given per-subscriber capacity.
// capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Publish delivers env to every current subscriber without blocking. For a
// subscriber whose buffer is full, the oldest buffered envelope is dropped
// to make room (lagged-reader policy).
func (b *Bus) Publish(env content.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.ch <- env:
			continue
		default:
		}
		// Buffer full: evict the oldest, then retry once. Both operations
		// happen under b.mu, so no other sender can interleave.
		select {
		case <-s.ch:
			s.lagged++
		default:
		}
		select {
		case s.ch <- env:
		default:
		}
	}
}

// Subscribe registers a new subscriber starting from the next published
// envelope. Previously published envelopes are never replayed.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{
		bus: b,
		ch:  make(chan content.Envelope, b.capacity),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Subscription is one subscriber's cursor into the bus.
type Subscription struct {
	bus    *Bus
	ch     chan content.Envelope
	lagged uint64
}

// C returns the receive channel. It is closed by Cancel.
func (s *Subscription) C() <-chan content.Envelope { return s.ch }

// Lagged returns how many envelopes this subscriber has missed so far.
func (s *Subscription) Lagged() uint64 {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.lagged
}

// Cancel unregisters the subscription and closes its channel. Safe to call
// concurrently with Publish; must be called exactly once.
func (s *Subscription) Cancel() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()
	close(s.ch)
}
