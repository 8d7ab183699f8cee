package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssolovev/fishmonger/pkg/domain"
	"github.com/ssolovev/fishmonger/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, userID string, sess *domain.Session) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[userID] = sess
	return nil
}

func (s *SlowStore) Load(ctx context.Context, userID string) (*domain.Session, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[userID]; ok {
		return sess, nil
	}
	return nil, domain.ErrSessionNotFound
}

// FailingStore is always down.
type FailingStore struct {
	saves int
}

func (s *FailingStore) Save(ctx context.Context, userID string, sess *domain.Session) error {
	s.saves++
	return errors.New("connection refused")
}

func (s *FailingStore) Load(ctx context.Context, userID string) (*domain.Session, error) {
	return nil, errors.New("connection refused")
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_ = manager.Save(ctx, id, domain.NewSession("cart-1"))

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Writes must be serialized; with locking missing, concurrent
	// read-modify-write against the SlowStore would lose updates.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, func(ctx context.Context, sess *domain.Session) error {
				sess.State = domain.StateBrowsingMenu
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBrowsingMenu, sess.State)
	assert.Equal(t, "cart-1", sess.CartID, "cart id must survive concurrent updates")
}

func TestManager_DefaultSessionOnMiss(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	sess, err := manager.Load(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Equal(t, domain.StateStart, sess.State)
	assert.NotEmpty(t, sess.CartID, "a default session mints a fresh cart id")
	assert.Equal(t, domain.SessionVersion, sess.Version)
}

func TestManager_DefaultSessionOnStoreOutage(t *testing.T) {
	store := &FailingStore{}
	manager := session.NewManager(store)

	// The store being down must not block processing.
	err := manager.Update(context.Background(), "u1", func(ctx context.Context, sess *domain.Session) error {
		assert.Equal(t, domain.StateStart, sess.State)
		sess.State = domain.StateBrowsingMenu
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves, "save is still attempted, best effort")
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	store := &FailingStore{}
	manager := session.NewManager(store)

	wantErr := errors.New("handler failed")
	err := manager.Update(context.Background(), "u1", func(ctx context.Context, sess *domain.Session) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, store.saves)
}

func TestManager_CorruptStoredStateReplaced(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	// A record whose state is not in the enum must be replaced by a
	// default session, never handed to the dialog machine.
	bad := domain.NewSession("cart-1")
	bad.State = "HANDLE_MENU"
	_ = manager.Save(ctx, "u1", bad)

	sess, err := manager.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateStart, sess.State)
	assert.NotEqual(t, "cart-1", sess.CartID)
}
