package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	return mr, NewRedisStore(client)
}

func TestRedisStore_SetIfAbsent(t *testing.T) {
	_, s := setupRedisStore(t)
	ctx := context.Background()

	created, err := s.SetIfAbsent(ctx, "k", "v1", time.Minute)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.SetIfAbsent(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	assert.False(t, created)

	value, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v1", value)
}

func TestRedisStore_SetIfAbsent_AfterExpiry(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	created, err := s.SetIfAbsent(ctx, "k", "v1", time.Second)
	require.NoError(t, err)
	require.True(t, created)

	mr.FastForward(2 * time.Second)

	created, err = s.SetIfAbsent(ctx, "k", "v2", time.Second)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRedisStore_CompareAndDelete(t *testing.T) {
	_, s := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", "owner", time.Minute)
	require.NoError(t, err)

	deleted, err := s.CompareAndDelete(ctx, "k", "stranger")
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err = s.CompareAndDelete(ctx, "k", "owner")
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err = s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisStore_CompareAndExpire(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", "owner", time.Second)
	require.NoError(t, err)

	armed, err := s.CompareAndExpire(ctx, "k", "stranger", time.Minute)
	require.NoError(t, err)
	assert.False(t, armed)

	armed, err = s.CompareAndExpire(ctx, "k", "owner", time.Minute)
	require.NoError(t, err)
	assert.True(t, armed)

	// 原来 1s 的 TTL 已被重置成 1min
	mr.FastForward(2 * time.Second)
	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	ttl, err := s.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)

	_, err = s.SetIfAbsent(ctx, "k", "v", time.Minute)
	require.NoError(t, err)

	ttl, err = s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	mr.FastForward(2 * time.Minute)
	ttl, err = s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestRedisStore_Delete(t *testing.T) {
	_, s := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", "v", time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "k"))

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_TransportError(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	mr.Close()

	_, err := s.SetIfAbsent(ctx, "k", "v", time.Minute)
	require.Error(t, err)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "setnx", storeErr.Op)
}
