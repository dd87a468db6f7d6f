package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kemperfekt/wuff-api/core"
)

// entry is one stored value with its optional expiry.
type entry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// InMemoryStore is a process-local KVStore for tests and single-process
// setups. Values round-trip through JSON so the behavior matches the Redis
// store; expired entries are dropped lazily on read.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

var _ core.KVStore = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]entry), now: time.Now}
}

// Get unmarshals the value stored under key into dest. Returns
// core.ErrKeyNotFound for missing or expired keys.
func (s *InMemoryStore) Get(_ context.Context, key string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return core.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return core.ErrKeyNotFound
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return fmt.Errorf("unmarshal value for %q: %w", key, err)
	}
	return nil
}

// Set stores value under key as JSON. A zero ttl stores without expiry.
func (s *InMemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{data: data, expiresAt: expiresAt}
	return nil
}

// Delete removes a key. Deleting an unknown key is not an error.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of stored entries, including not yet collected
// expired ones.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
