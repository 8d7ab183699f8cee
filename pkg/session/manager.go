package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/ssolovev/fishmonger/internal/logging"
	"github.com/ssolovev/fishmonger/pkg/domain"
	"github.com/ssolovev/fishmonger/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session Manager with the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(userID) after unlocking.
func (m *Manager) acquire(userID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it
// reaches zero.
func (m *Manager) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// Update runs fn against the user's session while holding the per-user
// lock, then persists the (possibly mutated) session. A missing record
// or an unreachable store yields a fresh default session: availability
// is prioritized over strict session continuity, so a store outage
// never stops the bot from answering.
func (m *Manager) Update(ctx context.Context, userID string, fn func(ctx context.Context, sess *domain.Session) error) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		sess := m.loadOrDefault(ctx, userID)

		if err := fn(ctx, sess); err != nil {
			return err
		}

		if err := m.store.Save(ctx, userID, sess); err != nil {
			// Best effort: the next event starts from a default
			// session, which the dialog machine handles anyway.
			m.logger.Warn("failed to persist session",
				"user_id", userID,
				"err", err,
			)
		}
		return nil
	})
}

// Load retrieves the session, falling back to a default on miss or
// store failure.
func (m *Manager) Load(ctx context.Context, userID string) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		sess = m.loadOrDefault(ctx, userID)
		return nil
	})
	return sess, err
}

// Save persists the session under the per-user lock.
func (m *Manager) Save(ctx context.Context, userID string, sess *domain.Session) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		return m.store.Save(ctx, userID, sess)
	})
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

func (m *Manager) loadOrDefault(ctx context.Context, userID string) *domain.Session {
	sess, err := m.store.Load(ctx, userID)
	if err == nil && sess.State.Valid() {
		return sess
	}

	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		m.logger.Warn("session store unavailable, using default session",
			"user_id", userID,
			"err", err,
		)
	}
	return domain.NewSession(uuid.NewString())
}

// WithLock executes a function while holding the lock for the user.
func (m *Manager) WithLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, userID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
