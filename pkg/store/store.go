// Package store provides a generic, thread-safe, in-memory collection and a
// simulated clock. The development backend keeps all of its state in these;
// the clock offset lets tests drive QR expiry and redemption transitions
// without sleeping.
package store

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Store is an insertion-ordered, thread-safe map of T keyed by string ID.
type Store[T any] struct {
	mu      sync.RWMutex
	items   map[string]T
	order   []string
	prefix  string
	counter atomic.Uint64
}

// New creates a Store whose generated IDs carry the given prefix
// (e.g. "qr", "rdm", "txn").
func New[T any](prefix string) *Store[T] {
	return &Store[T]{
		items:  make(map[string]T),
		prefix: prefix,
	}
}

// NextID returns a deterministic ID of the form "{prefix}_{n}".
func (s *Store[T]) NextID() string {
	return fmt.Sprintf("%s_%06d", s.prefix, s.counter.Add(1))
}

// Set inserts or replaces an item. A replaced item keeps its position in
// the insertion order.
func (s *Store[T]) Set(id string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

// Get returns the item for id, if present.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Delete removes an item, reporting whether it existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all items in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Filter returns the items matching pred, in insertion order.
func (s *Store[T]) Filter(pred func(id string, item T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, id := range s.order {
		if pred(id, s.items[id]) {
			out = append(out, s.items[id])
		}
	}
	return out
}

// Count returns the number of stored items.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Reset drops all items and restarts the ID counter.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = nil
	s.counter.Store(0)
}

// Snapshot returns a copy of the contents keyed by ID.
func (s *Store[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// LoadSnapshot replaces the contents. IDs are sorted so reloads are
// deterministic.
func (s *Store[T]) LoadSnapshot(snapshot map[string]T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(snapshot))
	s.order = make([]string, 0, len(snapshot))
	for k, v := range snapshot {
		s.items[k] = v
		s.order = append(s.order, k)
	}
	sort.Strings(s.order)
}

// Clock is real time plus an adjustable offset.
type Clock struct {
	mu     sync.RWMutex
	offset time.Duration
}

// NewClock creates a Clock with zero offset.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().Add(c.offset)
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

// Reset clears the offset.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
}
