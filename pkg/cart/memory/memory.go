// Package memory implements an in-memory cart storage.
package memory

import (
	"context"
	"sync"

	"cartflow/pkg/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Storage keeps serialized cart state in a map. It survives store restarts
// within one process.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty storage.
func New() *Storage {
	return &Storage{values: make(map[string][]byte)}
}

// Load returns the state saved under key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Save replaces the state under key.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), data...)
	return nil
}
