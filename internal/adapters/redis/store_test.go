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
	"github.com/ssolovev/fishmonger/pkg/domain"
)

func newStore(t *testing.T, opts ...redisadapter.Option) (*redisadapter.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redisadapter.NewFromClient(client, opts...)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	sess := domain.NewSession("cart-1")
	sess.State = domain.StateAwaitingEmail

	require.NoError(t, store.Save(ctx, "42", sess))

	loaded, err := store.Load(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingEmail, loaded.State)
	assert.Equal(t, "cart-1", loaded.CartID)
	assert.Equal(t, domain.SessionVersion, loaded.Version)
}

func TestStore_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_TTL(t *testing.T) {
	store, mr := newStore(t, redisadapter.WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "42", domain.NewSession("cart-1")))

	key := "fishmonger:session:42"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	// After the inactivity window the record is gone and the caller
	// starts over with a default session.
	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_SaveRefreshesTTL(t *testing.T) {
	store, mr := newStore(t, redisadapter.WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "42", domain.NewSession("cart-1")))
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Save(ctx, "42", domain.NewSession("cart-1")))

	assert.Equal(t, time.Hour, mr.TTL("fishmonger:session:42"))
}

func TestStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redisadapter.WithPrefix("bot:s:"))

	require.NoError(t, store.Save(context.Background(), "42", domain.NewSession("cart-1")))
	assert.True(t, mr.Exists("bot:s:42"))
}

func TestStore_UnknownVersionTreatedAsMissing(t *testing.T) {
	store, mr := newStore(t)

	// A record from a future (or pre-versioning) release.
	mr.Set("fishmonger:session:42", `{"version":99,"current_state":"browsing_menu","cart_id":"c"}`)

	_, err := store.Load(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_CorruptStateTreatedAsMissing(t *testing.T) {
	store, mr := newStore(t)

	mr.Set("fishmonger:session:42", `{"version":1,"current_state":"HANDLE_MENU","cart_id":"c"}`)

	_, err := store.Load(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
