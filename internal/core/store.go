package core

import (
	"sync"
	"time"
)

// Step records one applied event with the states around it.
type Step struct {
	Event Event
	Prev  State
	Next  State
}

// Store holds one session's State. Dispatch calls are serialized, so two
// intents from the same browser never interleave.
type Store struct {
	mu         sync.Mutex
	state      State
	lastAccess time.Time
	now        func() time.Time
}

// NewStore returns a store in the pre-upload state.
func NewStore() *Store {
	return &Store{
		state:      NewState(),
		lastAccess: time.Now(),
		now:        time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.now()
	return s.state.Clone()
}

// Dispatch reduces e into the stored state. The stored state is replaced
// only if e succeeds.
func (s *Store) Dispatch(e Event) (Step, error) {
	steps, err := s.DispatchAll(e)
	if err != nil {
		return Step{}, err
	}
	return steps[0], nil
}

// DispatchAll applies events in order as one unit: either every event
// succeeds and the final state is stored, or the stored state is untouched.
func (s *Store) DispatchAll(events ...Event) ([]Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.now()

	steps := make([]Step, 0, len(events))
	cur := s.state
	for _, e := range events {
		next, err := Reduce(cur, e)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Event: e, Prev: cur, Next: next})
		cur = next
	}

	s.state = cur
	if n := len(steps); n > 0 {
		steps[n-1].Next = cur.Clone()
	}
	return steps, nil
}

// LastAccess returns when the store was last read or written.
func (s *Store) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}
