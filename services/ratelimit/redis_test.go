package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, limit int) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "chat", limit, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_Allow(t *testing.T) {
	t.Cleanup(func() { nowFunc = time.Now })
	start := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return start }

	store, mr := newTestStore(t, 2)

	for i := 0; i < 2; i++ {
		ok, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// other clients have their own counter
	ok, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	// counters expire with the window
	key := store.windowKey("10.0.0.1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	nowFunc = func() time.Time { return start.Add(time.Minute) }
	ok, err = store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newTestStore(t, 2)
	mr.Close()

	_, err := store.Allow("10.0.0.1")
	assert.Error(t, err)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url", "chat", 1, time.Minute)
	assert.Error(t, err)
}
