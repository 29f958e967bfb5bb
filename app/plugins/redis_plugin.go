package plugins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/liweiming-nova/fundsync/config"
)

type RedisCfg struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// pool
	PoolSize     int           `toml:"pool_size"`
	MinIdleConns int           `toml:"min_idle_conns"`
	DialTimeout  time.Duration `toml:"dial_timeout"` // 单位:ms
	ReadTimeout  time.Duration `toml:"read_timeout"` // 单位:ms
}

type redisConfig struct {
	Cfgs map[string]*RedisCfg `toml:"redis"`
}

var (
	redisLock    sync.RWMutex
	redisClients map[string]*redis.Client
)

func init() {
	redisClients = map[string]*redis.Client{}
}

type RedisPlugin struct {
	// names 需要预热的实例名，空则延迟到首次 RedisClient 调用
	names []string
}

func NewRedisPlugin(names ...string) *RedisPlugin {
	return &RedisPlugin{names: names}
}

func (p *RedisPlugin) Start(ctx *PluginContext) (err error) {
	for _, name := range p.names {
		if _, err = getRedisClient(name); err != nil {
			return
		}
	}
	return
}

func (p *RedisPlugin) BeforeStart(ctx *PluginContext) error {
	return nil
}

func (p *RedisPlugin) Stop() error {
	redisLock.Lock()
	defer redisLock.Unlock()
	for _, c := range redisClients {
		_ = c.Close()
	}
	redisClients = map[string]*redis.Client{}
	return nil
}

func RedisClient(name string) (r *redis.Client) {
	var err error
	if r, err = getRedisClient(name); err != nil {
		panic(err)
	}
	return
}

func DefaultRedisClient() *redis.Client {
	return RedisClient("default")
}

func getRedisClient(name string) (r *redis.Client, err error) {
	redisLock.RLock()
	r = redisClients[name]
	redisLock.RUnlock()
	if r == nil {
		r, err = addRedisClient(name)
	}
	return
}

func addRedisClient(name string) (r *redis.Client, err error) {
	cfg := config.Get(&redisConfig{}).(*redisConfig)
	if cfg == nil || cfg.Cfgs == nil || cfg.Cfgs[name] == nil {
		err = fmt.Errorf("redis#%s not configed", name)
		return
	}
	c := cfg.Cfgs[name]

	opts := &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		opts.MinIdleConns = c.MinIdleConns
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout * time.Millisecond
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout * time.Millisecond
	}

	r = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = r.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("redis#%s ping fail, %s", name, err)
		return
	}

	redisLock.Lock()
	redisClients[name] = r
	redisLock.Unlock()
	return
}
