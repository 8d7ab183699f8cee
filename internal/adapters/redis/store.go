// Package redis provides the Redis-backed session store and the
// distributed locker.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Store implements ports.SessionStore using Redis. Records are JSON
// under a prefixed key and expire via Redis TTL; the application never
// deletes them.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "fishmonger:session:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

// Save persists the session to Redis, refreshing its TTL.
func (s *Store) Save(ctx context.Context, userID string, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the session from Redis. Records written by an older
// release (unknown version or state) surface as not-found so the
// caller falls back to a default session instead of erroring.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Version != domain.SessionVersion || !sess.State.Valid() {
		return nil, domain.ErrSessionNotFound
	}

	return &sess, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
