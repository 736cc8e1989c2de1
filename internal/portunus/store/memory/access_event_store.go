package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/store"
)

// DefaultEventCapacity bounds the in-memory audit log.
const DefaultEventCapacity = 1024

// AccessEventStore keeps the most recent access decisions in a ring. Once
// full, each new record overwrites the oldest one.
type AccessEventStore struct {
	mu      sync.Mutex
	ring    []store.AccessEventRecord
	next    int
	full    bool
	dropped uint64
}

func NewAccessEventStore() *AccessEventStore {
	return NewAccessEventStoreSize(DefaultEventCapacity)
}

func NewAccessEventStoreSize(capacity int) *AccessEventStore {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &AccessEventStore{ring: make([]store.AccessEventRecord, capacity)}
}

func (s *AccessEventStore) RecordEvent(_ context.Context, rec store.AccessEventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.full {
		s.dropped++
	}
	s.ring[s.next] = rec
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Events returns the retained records, oldest first.
func (s *AccessEventStore) Events() []store.AccessEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		return append([]store.AccessEventRecord(nil), s.ring[:s.next]...)
	}
	out := make([]store.AccessEventRecord, 0, len(s.ring))
	out = append(out, s.ring[s.next:]...)
	return append(out, s.ring[:s.next]...)
}

// Overwritten counts records lost to the capacity bound.
func (s *AccessEventStore) Overwritten() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
