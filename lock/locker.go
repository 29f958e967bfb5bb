package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/liweiming-nova/fundsync/store"
	"github.com/liweiming-nova/fundsync/xlog"
	"github.com/liweiming-nova/fundsync/xmetrics"
)

const (
	// 存储侧 key 前缀
	keyPrefix = "lock:"

	// DefaultPollInterval 自旋等待的轮询间隔。
	// 获取是协作式自旋而非排队，不保证公平性：高争用下后来者可能先于久等者拿到锁。
	DefaultPollInterval = 50 * time.Millisecond
)

// Handle 一次成功获取的凭据。Token 每次尝试都重新生成，
// 过期后被他人重新获取的锁无法被旧持有者释放或续约。
// Handle 本身不承载存活性，所有操作都会到存储侧重新校验 Token。
type Handle struct {
	Key   string
	Token string
	Lease time.Duration
}

// Manager 基于协调存储的互斥锁。
// 任一时刻同一 resourceKey 至多存在一个未过期的 Handle。
type Manager struct {
	store        store.Store
	pollInterval time.Duration
}

type Option func(*Manager)

func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:        s,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire 以固定间隔反复尝试 SetIfAbsent，直到拿到锁或超过 waitTimeout。
// lease 必须大于临界区的预期耗时；超时返回 ErrLockTimeout，
// ctx 取消返回 ErrLockInterrupted。存储错误按失败的一次尝试处理（fail-closed）。
func (m *Manager) Acquire(ctx context.Context, key string, waitTimeout, lease time.Duration) (*Handle, error) {
	if key == "" {
		return nil, ErrLockInvalidKey
	}

	storeKey := keyPrefix + key
	deadline := time.Now().Add(waitTimeout)

	for {
		token := genLockToken()
		acquired, err := m.store.SetIfAbsent(ctx, storeKey, token, lease)
		if err != nil {
			// 瞬时存储故障不立即失败，留给下一轮尝试，超时兜底
			xmetrics.LockAcquireError()
			xlog.Warnf(ctx, "lock acquire attempt failed key:%s err:%v", key, err)
		}
		if acquired {
			xmetrics.LockAcquired()
			return &Handle{Key: key, Token: token, Lease: lease}, nil
		}

		if !time.Now().Before(deadline) {
			xmetrics.LockAcquireTimeout()
			xlog.Warnf(ctx, "lock acquire timeout key:%s wait:%s", key, waitTimeout)
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			xlog.Warnf(ctx, "lock acquire interrupted key:%s err:%v", key, ctx.Err())
			return nil, ErrLockInterrupted
		case <-time.After(m.pollInterval):
		}
	}
}

// Release 单次 compare-and-delete 释放锁。
// key 已过期或已被他人重新获取时返回 false，这是预期内的非致命结果。
func (m *Manager) Release(ctx context.Context, h *Handle) (bool, error) {
	if h == nil || h.Key == "" {
		return false, ErrLockInvalidKey
	}

	released, err := m.store.CompareAndDelete(ctx, keyPrefix+h.Key, h.Token)
	if err != nil {
		return false, ErrLockNetwork
	}
	if !released {
		xmetrics.LockReleaseMiss()
		xlog.Warnf(ctx, "lock already expired or reclaimed on release key:%s", h.Key)
		return false, nil
	}

	xmetrics.LockReleased()
	return true, nil
}

// Extend 单次 compare-and-expire 将租约重置为 lease。
// 必须在原租约过期前调用，没有自动续约；临界区可能超租约的调用方自行负责。
func (m *Manager) Extend(ctx context.Context, h *Handle, lease time.Duration) (bool, error) {
	if h == nil || h.Key == "" {
		return false, ErrLockInvalidKey
	}

	extended, err := m.store.CompareAndExpire(ctx, keyPrefix+h.Key, h.Token, lease)
	if err != nil {
		return false, ErrLockNetwork
	}
	if !extended {
		xmetrics.LockExtendMiss()
		xlog.Warnf(ctx, "lock already expired or reclaimed on extend key:%s", h.Key)
		return false, nil
	}

	xmetrics.LockExtended()
	return true, nil
}

// IsLocked 只读诊断
func (m *Manager) IsLocked(ctx context.Context, key string) (bool, error) {
	locked, err := m.store.Exists(ctx, keyPrefix+key)
	if err != nil {
		return false, ErrLockNetwork
	}
	return locked, nil
}

// RemainingTTL 只读诊断，key 不存在或已过期时返回 0
func (m *Manager) RemainingTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := m.store.TTL(ctx, keyPrefix+key)
	if err != nil {
		return 0, ErrLockNetwork
	}
	return ttl, nil
}

// WithLock 获取锁执行 fn 后释放，锁拿不到时不执行 fn
func (m *Manager) WithLock(ctx context.Context, key string, waitTimeout, lease time.Duration, fn func(ctx context.Context) error) error {
	h, err := m.Acquire(ctx, key, waitTimeout, lease)
	if err != nil {
		return err
	}
	defer m.Release(ctx, h)

	return fn(ctx)
}

// genLockToken 生成唯一的锁值
func genLockToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
