package xmetrics

import (
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// 指标命名遵循 prometheus 惯例，由外部采集端拉取，本包只负责暴露。

var (
	lockAcquired       = metrics.NewCounter(`fundsync_lock_acquire_total{result="acquired"}`)
	lockAcquireTimeout = metrics.NewCounter(`fundsync_lock_acquire_total{result="timeout"}`)
	lockAcquireError   = metrics.NewCounter(`fundsync_lock_acquire_total{result="error"}`)
	lockReleased       = metrics.NewCounter(`fundsync_lock_release_total{result="released"}`)
	lockReleaseMiss    = metrics.NewCounter(`fundsync_lock_release_total{result="miss"}`)
	lockExtended       = metrics.NewCounter(`fundsync_lock_extend_total{result="extended"}`)
	lockExtendMiss     = metrics.NewCounter(`fundsync_lock_extend_total{result="miss"}`)

	idempotencyHit   = metrics.NewCounter(`fundsync_idempotency_check_total{result="hit"}`)
	idempotencyMiss  = metrics.NewCounter(`fundsync_idempotency_check_total{result="miss"}`)
	idempotencyError = metrics.NewCounter(`fundsync_idempotency_check_total{result="error"}`)
	idempotencyCheck = metrics.NewSummary(`fundsync_idempotency_check_duration_seconds`)

	retryConflicts = metrics.NewCounter(`fundsync_retry_conflict_total`)
	retryExhausted = metrics.NewCounter(`fundsync_retry_exhausted_total`)
)

func LockAcquired()       { lockAcquired.Inc() }
func LockAcquireTimeout() { lockAcquireTimeout.Inc() }
func LockAcquireError()   { lockAcquireError.Inc() }
func LockReleased()       { lockReleased.Inc() }
func LockReleaseMiss()    { lockReleaseMiss.Inc() }
func LockExtended()       { lockExtended.Inc() }
func LockExtendMiss()     { lockExtendMiss.Inc() }

func IdempotencyHit()   { idempotencyHit.Inc() }
func IdempotencyMiss()  { idempotencyMiss.Inc() }
func IdempotencyError() { idempotencyError.Inc() }

func IdempotencyCheckDuration(start time.Time) {
	idempotencyCheck.UpdateDuration(start)
}

func RetryConflict()  { retryConflicts.Inc() }
func RetryExhausted() { retryExhausted.Inc() }

// Handler 暴露 prometheus 文本格式指标，挂到 httpx server 的 /metrics 即可
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
}
