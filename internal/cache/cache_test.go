package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tiagocruz3/Brainiacodelab/internal/crypto"
	"github.com/Tiagocruz3/Brainiacodelab/internal/supabase"
)

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("x"), 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func testSessionStore(t *testing.T, store *SessionStore) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &supabase.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "bearer",
		ExpiresAt:    1700000000,
		User:         &supabase.User{ID: "user-1", Email: "a@b.com"},
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.Equal(t, int64(1700000000), got.ExpiresAt)
	assert.Equal(t, "user-1", got.User.ID)

	require.NoError(t, store.Delete(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_Memory(t *testing.T) {
	store := NewSessionStore(NewMemoryCache(), "test")
	assert.Equal(t, "test:session", store.Key())
	testSessionStore(t, store)
}

func newSealer(t *testing.T, fill byte) *crypto.Sealer {
	t.Helper()
	sealer, err := crypto.NewSealer(bytes.Repeat([]byte{fill}, crypto.KeyLength))
	require.NoError(t, err)
	return sealer
}

func TestSessionStore_Sealed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	store := NewSessionStore(c, "sealed").WithSealer(newSealer(t, 1))
	testSessionStore(t, store)

	require.NoError(t, store.Save(ctx, &supabase.Session{AccessToken: "secret-token"}))
	raw, err := c.Get(ctx, store.Key())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")

	// A different key cannot read the entry and drops it.
	other := NewSessionStore(c, "sealed").WithSealer(newSealer(t, 2))
	s, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	_, err = c.Get(ctx, store.Key())
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSessionStore_CorruptEntryIsSignedOut(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	store := NewSessionStore(c, "")
	require.NoError(t, c.Set(ctx, store.Key(), []byte("{not json"), 0))

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = c.Get(ctx, store.Key())
	assert.ErrorIs(t, err, ErrMiss)
}

// failingDeleteCache serves a fixed entry and refuses to delete it.
type failingDeleteCache struct {
	*MemoryCache
}

func (f failingDeleteCache) Delete(context.Context, string) error {
	return errors.New("connection reset")
}

func TestSessionStore_FailedCleanupIsLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	c := failingDeleteCache{MemoryCache: NewMemoryCache()}
	store := NewSessionStore(c, "").WithLogger(zap.New(core))
	require.NoError(t, c.Set(ctx, store.Key(), []byte("{not json"), 0))

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	failures := logs.FilterMessage("Error deleting unreadable session").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
	assert.Equal(t, "connection reset", failures[0].ContextMap()["error"])
	assert.Equal(t, 1, logs.FilterMessage("Discarding unreadable session").Len())
}

func TestSessionStore_SaveNilDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(NewMemoryCache(), "p")
	require.NoError(t, store.Save(ctx, &supabase.Session{AccessToken: "at"}))
	require.NoError(t, store.Save(ctx, nil))

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionStore_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rc, err := NewRedisCache(context.Background(), RedisConfig{Address: addr}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	store := NewSessionStore(rc, "brainiacodelab-test-"+time.Now().Format("150405.000000"))
	testSessionStore(t, store)
}

func TestNewRedisCache_RequiresAddress(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisConfig{}, nil)
	assert.Error(t, err)
}
