package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore 基于 Redis 的协调存储，所有操作均为服务端原子命令
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(c *redis.Client) *RedisStore {
	return &RedisStore{client: c}
}

const (
	// compare-and-delete，GET/DEL 必须在服务端一步完成
	compareAndDeleteScript = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`

	// compare-and-expire，续约前校验持有者
	compareAndExpireScript = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
)

func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, newError("setnx", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, newError("get", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	result, err := s.client.Eval(ctx, compareAndDeleteScript, []string{key}, expected).Result()
	if err != nil {
		return false, newError("cad", key, err)
	}
	return result.(int64) == 1, nil
}

func (s *RedisStore) CompareAndExpire(ctx context.Context, key, expected string, ttl time.Duration) (bool, error) {
	result, err := s.client.Eval(ctx, compareAndExpireScript, []string{key}, expected, ttl.Milliseconds()).Result()
	if err != nil {
		return false, newError("cae", key, err)
	}
	return result.(int64) == 1, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.PExpire(ctx, key, ttl).Result()
	if err != nil {
		return false, newError("pexpire", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, newError("exists", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, newError("pttl", key, err)
	}
	// -2 key 不存在，-1 无过期时间
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return newError("del", key, err)
	}
	return nil
}
