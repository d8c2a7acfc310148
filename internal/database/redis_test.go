package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisFromClient(client), mr
}

func TestRedis_Cache(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ctx := context.Background()

	_, ok, err := rdb.CacheGet(ctx, "payment:tx:wp-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rdb.CacheSet(ctx, "payment:tx:wp-1", "pay_1", time.Minute))
	got, ok, err := rdb.CacheGet(ctx, "payment:tx:wp-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pay_1", got)
	assert.Equal(t, time.Minute, mr.TTL("payment:tx:wp-1"))

	require.NoError(t, rdb.CacheDelete(ctx, "payment:tx:wp-1"))
	assert.False(t, mr.Exists("payment:tx:wp-1"))
}

func TestRedis_Hit(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ctx := context.Background()

	n, ttl, err := rdb.Hit(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(20 * time.Second)
	n, ttl, err = rdb.Hit(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 40*time.Second, ttl, "later hits keep the original window")

	mr.FastForward(41 * time.Second)
	n, _, err = rdb.Hit(ctx, "ratelimit:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedis_TryLock(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ctx := context.Background()

	release, err := rdb.TryLock(ctx, "lock:verify:wp-1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	again, err := rdb.TryLock(ctx, "lock:verify:wp-1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("lock:verify:wp-1"))

	assert.NoError(t, rdb.HealthCheck(ctx))
}

func TestRedis_TryLock_ReleaseKeepsForeignLock(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	ctx := context.Background()

	release, err := rdb.TryLock(ctx, "lock:verify:wp-2", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	other, err := rdb.TryLock(ctx, "lock:verify:wp-2", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, other)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("lock:verify:wp-2"))
}
