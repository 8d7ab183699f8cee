// Package memory provides an in-memory session store for tests and
// local runs without Redis.
package memory

import (
	"context"
	"sync"

	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Session),
	}
}

// Save persists the session in memory.
func (s *Store) Save(ctx context.Context, userID string, sess *domain.Session) error {
	copied := *sess

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = &copied
	return nil
}

// Load retrieves the session from memory. Returns a copy so the caller
// cannot mutate stored state through the pointer.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	ret := *sess
	return &ret, nil
}
