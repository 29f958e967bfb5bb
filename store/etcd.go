package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// EtcdStore 基于 etcd 的协调存储实现，原子性由单个 txn 保证。
// etcd 租约精度为秒，毫秒级 TTL 会向上取整到 1 秒。
type EtcdStore struct {
	client *clientv3.Client
}

func NewEtcdStore(c *clientv3.Client) *EtcdStore {
	return &EtcdStore{client: c}
}

type EtcdConfig struct {
	Endpoints   []string      `toml:"endpoints" yaml:"endpoints" mapstructure:"endpoints"`
	DialTimeout time.Duration `toml:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`
	Username    string        `toml:"username" yaml:"username" mapstructure:"username"`
	Password    string        `toml:"password" yaml:"password" mapstructure:"password"`

	TLS struct {
		CertFile string `toml:"cert_file" yaml:"cert_file" mapstructure:"cert_file"`
		KeyFile  string `toml:"key_file" yaml:"key_file" mapstructure:"key_file"`
		CAFile   string `toml:"ca_file" yaml:"ca_file" mapstructure:"ca_file"`
	} `toml:"tls" yaml:"tls" mapstructure:"tls"`
}

// DialEtcd 根据配置建立 etcd 连接，支持 TLS 和认证
func DialEtcd(cfg *EtcdConfig) (*clientv3.Client, error) {
	if cfg == nil || len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	cliCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	}

	if cfg.TLS.CertFile != "" || cfg.TLS.KeyFile != "" || cfg.TLS.CAFile != "" {
		tlsConfig, err := newTLSConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		cliCfg.TLS = tlsConfig
	}

	client, err := clientv3.New(cliCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := client.Status(ctx, cfg.Endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("etcd connection failed: %w", err)
	}

	zap.L().Info("etcd store connected", zap.Strings("endpoints", cfg.Endpoints))
	return client, nil
}

func newTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	if certFile == "" || keyFile == "" || caFile == "" {
		return nil, fmt.Errorf("TLS requires cert_file, key_file, and ca_file to be set together")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA certificate")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// leaseSeconds 租约按秒向上取整
func leaseSeconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	secs := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (s *EtcdStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var opts []clientv3.OpOption
	if secs := leaseSeconds(ttl); secs > 0 {
		lease, err := s.client.Grant(ctx, secs)
		if err != nil {
			return false, newError("grant", key, err)
		}
		opts = append(opts, clientv3.WithLease(lease.ID))
	}

	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, value, opts...)).
		Commit()
	if err != nil {
		return false, newError("setifabsent", key, err)
	}
	return resp.Succeeded, nil
}

func (s *EtcdStore) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := s.client.Get(ctx, key)
	if err != nil {
		return "", false, newError("get", key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return string(resp.Kvs[0].Value), true, nil
}

func (s *EtcdStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(key), "=", expected)).
		Then(clientv3.OpDelete(key)).
		Commit()
	if err != nil {
		return false, newError("cad", key, err)
	}
	return resp.Succeeded, nil
}

func (s *EtcdStore) CompareAndExpire(ctx context.Context, key, expected string, ttl time.Duration) (bool, error) {
	lease, err := s.client.Grant(ctx, leaseSeconds(ttl))
	if err != nil {
		return false, newError("grant", key, err)
	}

	// 值校验通过后用新租约重写同一个值，旧租约到期后自行回收
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Value(key), "=", expected)).
		Then(clientv3.OpPut(key, expected, clientv3.WithLease(lease.ID))).
		Commit()
	if err != nil {
		return false, newError("cae", key, err)
	}
	if !resp.Succeeded {
		s.client.Revoke(ctx, lease.ID)
	}
	return resp.Succeeded, nil
}

func (s *EtcdStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	return s.CompareAndExpire(ctx, key, value, ttl)
}

func (s *EtcdStore) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.client.Get(ctx, key, clientv3.WithCountOnly())
	if err != nil {
		return false, newError("exists", key, err)
	}
	return resp.Count > 0, nil
}

func (s *EtcdStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	resp, err := s.client.Get(ctx, key)
	if err != nil {
		return 0, newError("ttl", key, err)
	}
	if len(resp.Kvs) == 0 || resp.Kvs[0].Lease == 0 {
		return 0, nil
	}

	lease, err := s.client.TimeToLive(ctx, clientv3.LeaseID(resp.Kvs[0].Lease))
	if err != nil {
		return 0, newError("ttl", key, err)
	}
	if lease.TTL <= 0 {
		return 0, nil
	}
	return time.Duration(lease.TTL) * time.Second, nil
}

func (s *EtcdStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Delete(ctx, key); err != nil {
		return newError("del", key, err)
	}
	return nil
}
