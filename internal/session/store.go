package session

import (
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session: not found")

type entry struct {
	mu      sync.Mutex
	state   *State
	changed chan struct{}
}

// Store keeps live interview states in memory. The store lock guards the
// session map only; each session has its own lock, so a long-running turn
// on one session never blocks another. Each session carries a changed
// channel that is closed and recreated on every mutation, so watchers
// wake without polling.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{entries: map[string]*entry{}, now: time.Now}
}

// Create registers an empty state under id. Creating an existing id is an
// error so callers cannot silently reset a running interview.
func (s *Store) Create(id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return nil, errors.New("session: already exists: " + id)
	}
	e := &entry{state: newState(id, s.now()), changed: make(chan struct{})}
	s.entries[id] = e
	return e.state.clone(), nil
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// View returns a snapshot copy of the state.
func (s *Store) View(id string) (*State, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone(), nil
}

// Update runs fn under the session lock with the live state and notifies
// watchers afterwards. fn must not retain the state. Turns on the same
// session serialize here; distinct sessions proceed independently.
func (s *Store) Update(id string, fn func(*State) error) (*State, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.state); err != nil {
		return nil, err
	}
	e.state.UpdatedAt = s.now()
	e.notifyLocked()
	return e.state.clone(), nil
}

// Watch returns a channel closed on the next mutation of id.
func (s *Store) Watch(id string) (<-chan struct{}, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changed, nil
}

// Delete drops a session, waking any watchers first.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.notifyLocked()
	e.mu.Unlock()
}

func (e *entry) notifyLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}
