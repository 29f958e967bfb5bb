package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(s.Close)
	return s
}

func TestMemoryStore_SetIfAbsent(t *testing.T) {
	s := setupMemoryStore(t)
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

func TestMemoryStore_Expiry(t *testing.T) {
	s := setupMemoryStore(t)
	ctx := context.Background()

	created, err := s.SetIfAbsent(ctx, "k", "v1", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, created)

	time.Sleep(120 * time.Millisecond)

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	created, err = s.SetIfAbsent(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMemoryStore_CompareAndDelete(t *testing.T) {
	s := setupMemoryStore(t)
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", "owner", time.Minute)
	require.NoError(t, err)

	deleted, err := s.CompareAndDelete(ctx, "k", "stranger")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.CompareAndDelete(ctx, "k", "owner")
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_CompareAndExpire(t *testing.T) {
	s := setupMemoryStore(t)
	ctx := context.Background()

	_, err := s.SetIfAbsent(ctx, "k", "owner", 50*time.Millisecond)
	require.NoError(t, err)

	armed, err := s.CompareAndExpire(ctx, "k", "owner", time.Minute)
	require.NoError(t, err)
	assert.True(t, armed)

	time.Sleep(120 * time.Millisecond)

	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	ttl, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)
}

func TestMemoryStore_ConcurrentSetIfAbsent(t *testing.T) {
	s := setupMemoryStore(t)
	ctx := context.Background()

	const workers = 64
	var winners int32
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			created, err := s.SetIfAbsent(ctx, "k", "v", time.Minute)
			assert.NoError(t, err)
			if created {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
