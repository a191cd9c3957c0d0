package filters

import "sync"

// Store holds the raw, uncommitted filter state of one view.
type Store struct {
	mu      sync.RWMutex
	initial Snapshot
	current Snapshot
}

func NewStore(initial Snapshot) *Store {
	return &Store{
		initial: initial.Clone(),
		current: initial.Clone(),
	}
}

// Current returns the raw snapshot for controlled-input binding.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Store) Initial() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initial.Clone()
}

// Update merges p into the current state. The page always goes back to 1. Values are
// accepted as-is.
func (s *Store) Update(p Partial) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.Apply(p)
	return s.current.Clone()
}

// Reset restores the snapshot the store was built with.
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.initial.Clone()
	return s.current.Clone()
}
