package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
)

type testPlan struct {
	Name        string
	DeviceLimit int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := []testPlan{{Name: "Free", DeviceLimit: 1}, {Name: "Basic", DeviceLimit: 5}}
	require.NoError(t, cache.Set(ctx, "plans:active", expected, time.Minute))

	var actual []testPlan
	found, err := cache.Get(ctx, "plans:active", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testPlan
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetExpired(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "plans:active", testPlan{Name: "Free"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out testPlan
	found, err := cache.Get(ctx, "plans:active", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", "value", time.Minute))
	require.NoError(t, cache.Set(ctx, "b", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "a", "b"))

	var out string
	for _, key := range []string{"a", "b"} {
		found, err := cache.Get(ctx, key, &out)
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out testPlan
	found, err := cache.Get(ctx, "bad", &out)
	require.Error(t, err)
	assert.False(t, found)
}

func TestAcquire(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.Acquire(ctx, "sweeper:warning:2025-01-01:u1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.Acquire(ctx, "sweeper:warning:2025-01-01:u1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = cache.Acquire(ctx, "sweeper:warning:2025-01-01:u1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.Acquire(ctx, "sweeper:expired:2025-01-01:u1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, cache.Release(ctx, "sweeper:expired:2025-01-01:u1"))
	assert.False(t, mr.Exists("sweeper:expired:2025-01-01:u1"))

	ok, err = cache.Acquire(ctx, "sweeper:expired:2025-01-01:u1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Release(ctx, "sweeper:expired:2025-01-01:missing"))
}

func TestInitServerUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = InitServer(context.Background(), config.RedisConnection{AddressRedis: addr, DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.InitServer")
}
