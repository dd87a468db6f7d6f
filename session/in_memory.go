package session

import (
	"sync"

	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/internal/util"
)

// InMemoryStore is a volatile SessionStore keeping sessions in a process
// local map. The map itself is safe for concurrent access; the returned
// sessions are shared, not cloned, because the flow engine mutates them in
// place. Callers must serialize turns against the same session.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.SessionState
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.SessionState)}
}

// GetOrCreate returns the session with the given id, creating a fresh one in
// the greeting state when none exists.
func (s *InMemoryStore) GetOrCreate(id string) (*core.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess := core.NewSessionState(id)
	s.sessions[id] = sess
	return sess, nil
}

// Create allocates a new session with a generated id.
func (s *InMemoryStore) Create() (*core.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := core.NewSessionState(util.NewID())
	s.sessions[sess.SessionID] = sess
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
