package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liweiming-nova/fundsync/store"
)

func setupManager(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})

	return mr, NewManager(store.NewRedisStore(client), WithPollInterval(10*time.Millisecond))
}

func TestManager_AcquireRelease(t *testing.T) {
	_, m := setupManager(t)
	ctx := context.Background()

	h, err := m.Acquire(ctx, WalletBalanceKey("42"), time.Second, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "wallet:balance:42", h.Key)
	assert.NotEmpty(t, h.Token)

	locked, err := m.IsLocked(ctx, h.Key)
	require.NoError(t, err)
	assert.True(t, locked)

	released, err := m.Release(ctx, h)
	require.NoError(t, err)
	assert.True(t, released)

	locked, err = m.IsLocked(ctx, h.Key)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestManager_AcquireTimeout(t *testing.T) {
	_, m := setupManager(t)
	ctx := context.Background()

	held, err := m.Acquire(ctx, WalletBalanceKey("42"), time.Second, 5*time.Second)
	require.NoError(t, err)
	defer m.Release(ctx, held)

	start := time.Now()
	h, err := m.Acquire(ctx, WalletBalanceKey("42"), time.Second, 5*time.Second)
	elapsed := time.Since(start)

	assert.Nil(t, h)
	require.ErrorIs(t, err, ErrLockTimeout)
	// 在 waitTimeout 附近失败：不是立即，也不是等到租约 5s 过期
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestManager_AcquireInterrupted(t *testing.T) {
	_, m := setupManager(t)

	held, err := m.Acquire(context.Background(), "k", time.Second, 5*time.Second)
	require.NoError(t, err)
	defer m.Release(context.Background(), held)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	h, err := m.Acquire(ctx, "k", 5*time.Second, 5*time.Second)
	assert.Nil(t, h)
	require.ErrorIs(t, err, ErrLockInterrupted)
}

func TestManager_OwnershipEnforcement(t *testing.T) {
	_, m := setupManager(t)
	ctx := context.Background()

	h, err := m.Acquire(ctx, "k", time.Second, 5*time.Second)
	require.NoError(t, err)

	// 伪造的 token 不能释放也不能续约真正的锁
	forged := &Handle{Key: h.Key, Token: "forged-token", Lease: h.Lease}

	released, err := m.Release(ctx, forged)
	require.NoError(t, err)
	assert.False(t, released)

	extended, err := m.Extend(ctx, forged, time.Minute)
	require.NoError(t, err)
	assert.False(t, extended)

	locked, err := m.IsLocked(ctx, "k")
	require.NoError(t, err)
	assert.True(t, locked)

	released, err = m.Release(ctx, h)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestManager_LeaseExpiry(t *testing.T) {
	mr, m := setupManager(t)
	ctx := context.Background()

	h, err := m.Acquire(ctx, "k", time.Second, 5*time.Second)
	require.NoError(t, err)

	// 租约未到期前拿不到
	locked, err := m.IsLocked(ctx, "k")
	require.NoError(t, err)
	assert.True(t, locked)

	mr.FastForward(6 * time.Second)

	h2, err := m.Acquire(ctx, "k", time.Second, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, h2)

	// 过期的旧 handle 已经失效
	released, err := m.Release(ctx, h)
	require.NoError(t, err)
	assert.False(t, released)

	released, err = m.Release(ctx, h2)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestManager_Extend(t *testing.T) {
	mr, m := setupManager(t)
	ctx := context.Background()

	h, err := m.Acquire(ctx, "k", time.Second, 2*time.Second)
	require.NoError(t, err)

	extended, err := m.Extend(ctx, h, time.Minute)
	require.NoError(t, err)
	assert.True(t, extended)

	mr.FastForward(3 * time.Second)

	// 原 2s 租约已被重置，锁仍然在手
	locked, err := m.IsLocked(ctx, "k")
	require.NoError(t, err)
	assert.True(t, locked)

	ttl, err := m.RemainingTTL(ctx, "k")
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)
}

func TestManager_RemainingTTL_Absent(t *testing.T) {
	_, m := setupManager(t)

	ttl, err := m.RemainingTTL(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestManager_MutualExclusion(t *testing.T) {
	_, m := setupManager(t)
	ctx := context.Background()

	const workers = 8
	var holders int32
	var entered int32
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			h, err := m.Acquire(ctx, TransferKey("a", "b"), 5*time.Second, 10*time.Second)
			if !assert.NoError(t, err) {
				return
			}

			active := atomic.AddInt32(&holders, 1)
			assert.Equal(t, int32(1), active)
			atomic.AddInt32(&entered, 1)
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&holders, -1)

			_, err = m.Release(ctx, h)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(workers), entered)
}

func TestManager_WithLock(t *testing.T) {
	_, m := setupManager(t)
	ctx := context.Background()

	executed := false
	err := m.WithLock(ctx, "k", time.Second, 5*time.Second, func(ctx context.Context) error {
		executed = true

		locked, err := m.IsLocked(ctx, "k")
		require.NoError(t, err)
		assert.True(t, locked)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)

	locked, err := m.IsLocked(ctx, "k")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestManager_InvalidKey(t *testing.T) {
	_, m := setupManager(t)

	_, err := m.Acquire(context.Background(), "", time.Second, time.Second)
	require.ErrorIs(t, err, ErrLockInvalidKey)
	assert.Equal(t, LockErrorInvalidKey, IsError(err))
}

func TestManager_FreshTokenPerAcquire(t *testing.T) {
	_, m := setupManager(t)
	ctx := context.Background()

	h1, err := m.Acquire(ctx, "k", time.Second, 5*time.Second)
	require.NoError(t, err)
	_, err = m.Release(ctx, h1)
	require.NoError(t, err)

	h2, err := m.Acquire(ctx, "k", time.Second, 5*time.Second)
	require.NoError(t, err)
	defer m.Release(ctx, h2)

	assert.NotEqual(t, h1.Token, h2.Token)
}
