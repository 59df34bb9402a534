package storage

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotevault/internal/domain"
)

// MemoryStore is a session-scoped key-value store. It lives and dies
// with the process, which is exactly the lifetime the last-shown-quote
// key needs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore returns an empty session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get implements ports.KeyValue.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, domain.NewNotFoundError("key", key)
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

// Set implements ports.KeyValue.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.values[key] = stored
	s.mu.Unlock()

	return nil
}
