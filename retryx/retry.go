package retryx

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/avast/retry-go"
	"github.com/liweiming-nova/fundsync/xlog"
	"github.com/liweiming-nova/fundsync/xmetrics"
)

const (
	DefaultInitialDelay = 100 * time.Millisecond
	DefaultFactor       = 2.0
	DefaultMaxDelay     = 5 * time.Second
	DefaultJitterRatio  = 0.10
)

// Executor 乐观冲突重试执行器。只对 ErrStaleVersion 信号退避重试，
// 其余错误立即向上传播。退避从 InitialDelay 起按 Factor 指数增长，
// 封顶 MaxDelay，再叠加至多 JitterRatio 比例的随机抖动，
// 避免多个进程争同一条记录时的同步重试风暴。
type Executor struct {
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
	JitterRatio  float64
}

// Default 参考参数：100ms 起步、2 倍递增、5s 封顶、10% 抖动
var Default = &Executor{
	InitialDelay: DefaultInitialDelay,
	Factor:       DefaultFactor,
	MaxDelay:     DefaultMaxDelay,
	JitterRatio:  DefaultJitterRatio,
}

// Execute 执行 op，共尝试 maxRetries+1 次。
// 每次尝试相互独立：op 内的读-改-写必须每次重新读取最新状态，
// 不能跨尝试缓存旧读。额度耗尽返回 ExhaustedError（包装最后一次冲突），
// 退避期间 ctx 取消则返回 ctx 错误。
func (e *Executor) Execute(ctx context.Context, name string, maxRetries uint, op func(ctx context.Context) error) error {
	attempts := maxRetries + 1

	err := retry.Do(
		func() error {
			return op(ctx)
		},
		retry.Attempts(attempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsStaleVersion),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return e.delayFor(n)
		}),
		retry.OnRetry(func(n uint, err error) {
			xmetrics.RetryConflict()
			xlog.Warnf(ctx, "optimistic conflict op:%s attempt:%d err:%v", name, n+1, err)
		}),
	)
	if err == nil {
		return nil
	}

	if IsStaleVersion(err) {
		xmetrics.RetryExhausted()
		xlog.Errorf(ctx, "optimistic retries exhausted op:%s attempts:%d err:%v", name, attempts, err)
		return &ExhaustedError{Op: name, Attempts: attempts, Err: err}
	}
	return err
}

// ExecuteBool 把重试耗尽折算成 (false, nil)，成功返回 (true, nil)，
// 非冲突错误原样返回
func (e *Executor) ExecuteBool(ctx context.Context, name string, maxRetries uint, op func(ctx context.Context) error) (bool, error) {
	err := e.Execute(ctx, name, maxRetries, op)
	if err == nil {
		return true, nil
	}
	if IsExhausted(err) {
		return false, nil
	}
	return false, err
}

// ExecuteWithRecovery 重试耗尽时改为执行 fallback，不再向上抛 ExhaustedError
func (e *Executor) ExecuteWithRecovery(ctx context.Context, name string, maxRetries uint, op, fallback func(ctx context.Context) error) error {
	err := e.Execute(ctx, name, maxRetries, op)
	if err == nil {
		return nil
	}
	if IsExhausted(err) {
		xlog.Warnf(ctx, "running recovery fallback op:%s", name)
		return fallback(ctx)
	}
	return err
}

// delayFor 第 n 次重试前的退避时长：min(initial*factor^n, cap) + [0, ratio*base) 抖动
func (e *Executor) delayFor(n uint) time.Duration {
	base := float64(e.InitialDelay) * math.Pow(e.Factor, float64(n))
	if limit := float64(e.MaxDelay); base > limit {
		base = limit
	}
	jitter := rand.Float64() * e.JitterRatio * base
	return time.Duration(base + jitter)
}

// Execute 包级便捷入口，使用 Default 参数
func Execute(ctx context.Context, name string, maxRetries uint, op func(ctx context.Context) error) error {
	return Default.Execute(ctx, name, maxRetries, op)
}

func ExecuteBool(ctx context.Context, name string, maxRetries uint, op func(ctx context.Context) error) (bool, error) {
	return Default.ExecuteBool(ctx, name, maxRetries, op)
}

func ExecuteWithRecovery(ctx context.Context, name string, maxRetries uint, op, fallback func(ctx context.Context) error) error {
	return Default.ExecuteWithRecovery(ctx, name, maxRetries, op, fallback)
}
