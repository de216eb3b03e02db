package optim

import (
	"sync"

	"github.com/born-ml/lookahead/internal/tensor"
)

// Store maps tensor identity to an optimizer's state entry for that tensor.
//
// Entries are created at most once, by the init function, on first access,
// and are then returned by reference: S is expected to be a pointer type so
// that callers mutate the stored entry in place. Entries live as long as the
// Store and are never evicted; recreating parameter tensors every step grows
// the Store without bound.
//
// Map access is guarded so distinct tensors may be served concurrently. The
// entries themselves are not locked.
type Store[S any] struct {
	mu      sync.Mutex
	entries map[tensor.ID]S
	init    func(x *tensor.Tensor) S
}

// NewStore creates an empty Store that initialises entries with init.
func NewStore[S any](init func(x *tensor.Tensor) S) *Store[S] {
	return &Store[S]{
		entries: make(map[tensor.ID]S),
		init:    init,
	}
}

// Get returns the entry for x, creating it on first access.
func (s *Store[S]) Get(x *tensor.Tensor) S {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[x.ID()]
	if !exists {
		entry = s.init(x)
		s.entries[x.ID()] = entry
	}
	return entry
}

// Lookup returns the entry for x without creating one.
func (s *Store[S]) Lookup(x *tensor.Tensor) (S, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[x.ID()]
	return entry, exists
}

// Len returns the number of entries.
func (s *Store[S]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
