package store

import (
	"sync"
)

// MemoryStore is an in-memory Store used by tests and embedding callers.
type MemoryStore struct {
	mu  sync.Mutex
	ctx *AuthContext
}

// NewMemoryStore creates an empty in-memory context store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored context, or nil when absent.
func (s *MemoryStore) Load() (*AuthContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil, nil
	}
	cp := *s.ctx
	return &cp, nil
}

// Save replaces the stored context.
func (s *MemoryStore) Save(ctx *AuthContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ctx
	s.ctx = &cp
	return nil
}

// Clear removes the stored context.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = nil
	return nil
}
