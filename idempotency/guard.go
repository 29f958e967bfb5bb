package idempotency

import (
	"context"
	"encoding/json"
	"time"

	"github.com/liweiming-nova/fundsync/store"
	"github.com/liweiming-nova/fundsync/utils"
	"github.com/liweiming-nova/fundsync/xlog"
	"github.com/liweiming-nova/fundsync/xmetrics"
)

const (
	keyPrefix = "idempotency:"

	// DefaultTTL 默认记录保留时长。要远大于现实的消息重投窗口，
	// 又足够短以约束存储增长，参考 24 小时。
	DefaultTTL = 24 * time.Hour
)

// Record 首次处理某事件时写入的记录，在 TTL 窗口内不会被覆盖（二次 mark 等同 no-op），
// 到期由存储自动清理。
type Record struct {
	EventID     string    `json:"event_id"`
	ProcessedAt time.Time `json:"processed_at"`
	MarkedBy    string    `json:"marked_by"`
}

// Guard 分布式幂等守卫。
//
// 故障策略是 fail-open：协调存储故障时按“未处理过”放行，
// 优先保证金融消息处理的可用性，接受有界的重复执行风险——
// 下游业务要靠自身约束（如唯一交易号）独立兜底。
// 这与 lock 包的 fail-closed 是刻意的不对称，移植时不要统一。
type Guard struct {
	store      store.Store
	defaultTTL time.Duration
}

type Option func(*Guard)

func WithDefaultTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		g.defaultTTL = ttl
	}
}

func NewGuard(s store.Store, opts ...Option) *Guard {
	g := &Guard{
		store:      s,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckAndMark 单次 SetIfAbsent 原子判重。返回 true 表示本次调用抢到首处理权，
// 调用方应继续处理；false 表示窗口内已有记录，按重复消息跳过。
// 并发调用下唯一有正确性保证的判重入口；IsProcessed+MarkProcessed 两步组合存在竞态，
// 只能当 best-effort 用。存储故障时 fail-open 返回 true。
func (g *Guard) CheckAndMark(ctx context.Context, eventID string, ttl time.Duration) bool {
	start := time.Now()
	defer xmetrics.IdempotencyCheckDuration(start)

	created, err := g.store.SetIfAbsent(ctx, keyPrefix+eventID, g.record(eventID), g.normalizeTTL(ttl))
	if err != nil {
		xmetrics.IdempotencyError()
		xlog.Warnf(ctx, "idempotency check failed, failing open eventId:%s err:%v", eventID, err)
		return true
	}

	if created {
		xmetrics.IdempotencyMiss()
	} else {
		xmetrics.IdempotencyHit()
		xlog.Infof(ctx, "duplicate event skipped eventId:%s", eventID)
	}
	return created
}

// IsProcessed 只读存在性检查，存储故障时 fail-open 返回 false（按未处理）
func (g *Guard) IsProcessed(ctx context.Context, eventID string) bool {
	start := time.Now()
	defer xmetrics.IdempotencyCheckDuration(start)

	exists, err := g.store.Exists(ctx, keyPrefix+eventID)
	if err != nil {
		xmetrics.IdempotencyError()
		xlog.Warnf(ctx, "idempotency lookup failed, failing open eventId:%s err:%v", eventID, err)
		return false
	}

	if exists {
		xmetrics.IdempotencyHit()
	} else {
		xmetrics.IdempotencyMiss()
	}
	return exists
}

// MarkProcessed 事后补记。窗口内已有记录时等同 no-op；
// 存储故障只记日志并吞掉，绝不能让已成功的业务操作因此失败。
func (g *Guard) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) {
	if _, err := g.store.SetIfAbsent(ctx, keyPrefix+eventID, g.record(eventID), g.normalizeTTL(ttl)); err != nil {
		xmetrics.IdempotencyError()
		xlog.Warnf(ctx, "idempotency mark failed eventId:%s err:%v", eventID, err)
	}
}

// Remove 仅限管理和测试清理
func (g *Guard) Remove(ctx context.Context, eventID string) error {
	return g.store.Delete(ctx, keyPrefix+eventID)
}

func (g *Guard) normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return g.defaultTTL
	}
	return ttl
}

func (g *Guard) record(eventID string) string {
	b, _ := json.Marshal(Record{
		EventID:     eventID,
		ProcessedAt: time.Now().UTC(),
		MarkedBy:    markedBy(),
	})
	return string(b)
}

func markedBy() string {
	if node := utils.GetNode(); node != nil {
		return node.Generate().String()
	}
	if ip, err := utils.GetLocalIP(); err == nil && ip != "" {
		return ip
	}
	return "unknown"
}
