package config

import (
	"sync"
	"sync/atomic"
)

// Store publishes configuration snapshots to concurrent readers.
// There is a single logical writer (the control surface); the detection loop
// reads the current snapshot once per cycle with Load, which never blocks.
type Store struct {
	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex // serializes writers
	seq uint64
}

// NewStore returns a Store holding a validated copy of initial (defaults when nil).
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	s.Publish(initial)
	return s
}

// Load returns the current snapshot. Callers must not mutate it.
func (s *Store) Load() *Snapshot {
	if s == nil {
		return DefaultSnapshot()
	}
	if snap := s.cur.Load(); snap != nil {
		return snap
	}
	return DefaultSnapshot()
}

// Publish validates a copy of next, stamps it with the next version and makes it current.
func (s *Store) Publish(next *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishLocked(next.Clone())
}

// Update copies the current snapshot, applies fn and publishes the result.
func (s *Store) Update(fn func(*Snapshot)) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.Load().Clone()
	if fn != nil {
		fn(next)
	}
	return s.publishLocked(next)
}

func (s *Store) publishLocked(next *Snapshot) *Snapshot {
	_ = next.Validate()
	s.seq++
	next.Version = s.seq
	s.cur.Store(next)
	return next
}
