package retryx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用参数：保留指数形状但把时间压到毫秒级
func fastExecutor() *Executor {
	return &Executor{
		InitialDelay: time.Millisecond,
		Factor:       2.0,
		MaxDelay:     5 * time.Millisecond,
		JitterRatio:  0.10,
	}
}

func TestExecute_Success(t *testing.T) {
	e := fastExecutor()

	calls := 0
	err := e.Execute(context.Background(), "transfer", 3, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_ConflictThenSuccess(t *testing.T) {
	e := fastExecutor()

	calls := 0
	err := e.Execute(context.Background(), "transfer", 3, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewStaleVersion("wallet", "42")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_Exhausted(t *testing.T) {
	e := fastExecutor()

	calls := 0
	err := e.Execute(context.Background(), "transfer", 3, func(ctx context.Context) error {
		calls++
		return NewStaleVersion("wallet", "42")
	})

	// maxRetries=3 意味着总共 4 次尝试
	assert.Equal(t, 4, calls)
	require.Error(t, err)
	assert.True(t, IsExhausted(err))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "transfer", exhausted.Op)
	assert.Equal(t, uint(4), exhausted.Attempts)

	// 最后一次冲突被包在里面
	assert.True(t, IsStaleVersion(exhausted.Err))
	var stale *StaleVersionError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "wallet", stale.Entity)
}

func TestExecute_NonConflictPropagates(t *testing.T) {
	e := fastExecutor()
	boom := errors.New("insufficient balance")

	calls := 0
	err := e.Execute(context.Background(), "transfer", 3, func(ctx context.Context) error {
		calls++
		return boom
	})

	// 业务错误不重试，原样抛出
	assert.Equal(t, 1, calls)
	require.ErrorIs(t, err, boom)
	assert.False(t, IsExhausted(err))
}

func TestExecute_ZeroRetries(t *testing.T) {
	e := fastExecutor()

	calls := 0
	err := e.Execute(context.Background(), "transfer", 0, func(ctx context.Context) error {
		calls++
		return NewStaleVersion("wallet", "42")
	})

	assert.Equal(t, 1, calls)
	assert.True(t, IsExhausted(err))
}

func TestExecute_ContextCanceled(t *testing.T) {
	e := &Executor{
		InitialDelay: time.Second,
		Factor:       2.0,
		MaxDelay:     5 * time.Second,
		JitterRatio:  0.10,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := e.Execute(ctx, "transfer", 5, func(ctx context.Context) error {
		return NewStaleVersion("wallet", "42")
	})

	// 退避等待中取消，不会睡满 1s
	require.Error(t, err)
	assert.False(t, IsExhausted(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestExecuteBool(t *testing.T) {
	e := fastExecutor()
	ctx := context.Background()

	ok, err := e.ExecuteBool(ctx, "transfer", 1, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.ExecuteBool(ctx, "transfer", 1, func(ctx context.Context) error {
		return NewStaleVersion("wallet", "42")
	})
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("db down")
	ok, err = e.ExecuteBool(ctx, "transfer", 1, func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestExecuteWithRecovery(t *testing.T) {
	e := fastExecutor()
	ctx := context.Background()

	recovered := false
	err := e.ExecuteWithRecovery(ctx, "transfer", 1,
		func(ctx context.Context) error {
			return NewStaleVersion("wallet", "42")
		},
		func(ctx context.Context) error {
			recovered = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, recovered)

	// 非冲突错误不走兜底
	boom := errors.New("db down")
	recovered = false
	err = e.ExecuteWithRecovery(ctx, "transfer", 1,
		func(ctx context.Context) error {
			return boom
		},
		func(ctx context.Context) error {
			recovered = true
			return nil
		})
	require.ErrorIs(t, err, boom)
	assert.False(t, recovered)
}

func TestDelayFor_Bounds(t *testing.T) {
	e := Default

	// base = min(100ms * 2^n, 5s)，抖动不超过 base 的 10%
	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
	}

	for n, base := range expected {
		for i := 0; i < 20; i++ {
			d := e.delayFor(uint(n))
			assert.GreaterOrEqual(t, d, base, "attempt %d", n)
			assert.Less(t, d, base+base/10+time.Millisecond, "attempt %d", n)
		}
	}
}

func TestDelayFor_Monotonic(t *testing.T) {
	e := &Executor{
		InitialDelay: 100 * time.Millisecond,
		Factor:       2.0,
		MaxDelay:     5 * time.Second,
		JitterRatio:  0,
	}

	prev := time.Duration(0)
	for n := uint(0); n < 10; n++ {
		d := e.delayFor(n)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, 5*time.Second)
		prev = d
	}
	assert.Equal(t, 5*time.Second, prev)
}

func TestStaleVersionError(t *testing.T) {
	err := NewStaleVersion("wallet", "42")

	assert.True(t, IsStaleVersion(err))
	assert.True(t, errors.Is(err, ErrStaleVersion))
	assert.True(t, IsStaleVersion(ErrStaleVersion))
	assert.False(t, IsStaleVersion(errors.New("other")))
	assert.Contains(t, err.Error(), "wallet[42]")
}
