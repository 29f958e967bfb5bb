package store

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryStore 进程内协调存储，供本地运行和测试使用。
// 单进程内提供与 RedisStore 相同的原子语义，跨进程不提供任何保证。
type MemoryStore struct {
	m    *xsync.MapOf[string, memoryEntry]
	done chan struct{}
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // 零值表示永不过期
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		m:    xsync.NewMapOf[string, memoryEntry](),
		done: make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the expiry janitor.
func (s *MemoryStore) Close() {
	close(s.done)
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.m.Range(func(key string, _ memoryEntry) bool {
				s.m.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
					return old, loaded && old.expired(now)
				})
				return true
			})
		}
	}
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (s *MemoryStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := time.Now()
	created := false
	s.m.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if loaded && !old.expired(now) {
			return old, false
		}
		created = true
		return memoryEntry{value: value, expiresAt: expiry(ttl)}, false
	})
	return created, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	now := time.Now()
	var value string
	found := false
	s.m.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded {
			return old, false
		}
		if old.expired(now) {
			return old, true
		}
		value, found = old.value, true
		return old, false
	})
	return value, found, nil
}

func (s *MemoryStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	now := time.Now()
	deleted := false
	s.m.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded {
			return old, false
		}
		if old.expired(now) {
			return old, true
		}
		if old.value != expected {
			return old, false
		}
		deleted = true
		return old, true
	})
	return deleted, nil
}

func (s *MemoryStore) CompareAndExpire(ctx context.Context, key, expected string, ttl time.Duration) (bool, error) {
	now := time.Now()
	extended := false
	s.m.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded || old.expired(now) || old.value != expected {
			return old, loaded && old.expired(now)
		}
		extended = true
		return memoryEntry{value: old.value, expiresAt: expiry(ttl)}, false
	})
	return extended, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	armed := false
	s.m.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded || old.expired(now) {
			return old, loaded && old.expired(now)
		}
		armed = true
		return memoryEntry{value: old.value, expiresAt: expiry(ttl)}, false
	})
	return armed, nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	entry, ok := s.m.Load(key)
	if !ok {
		return 0, nil
	}
	if entry.expiresAt.IsZero() {
		return 0, nil
	}
	remaining := time.Until(entry.expiresAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.m.Delete(key)
	return nil
}
