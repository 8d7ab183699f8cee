package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backend "github.com/redis/go-redis/v9"
	redisadapter "github.com/ssolovev/fishmonger/internal/adapters/redis"
)

func newLocker(t *testing.T) (*redisadapter.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisadapter.NewLocker(client, "test:"), mr
}

func TestLocker_LockUnlock(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "user-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("test:lock:user-1"), "lock key should be set")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:user-1"), "lock key should be removed after unlock")
}

func TestLocker_Contention(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()

	// First holder wins.
	unlock1, err := locker.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	// Second contender blocks until its context times out.
	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctxTimeout, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// After release the lock is free again.
	require.NoError(t, unlock1(ctx))

	unlock2, err := locker.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer unlock2(ctx)

	assert.True(t, mr.Exists("test:lock:shared"))
}
