package retryx

import (
	"errors"
	"fmt"
)

// ErrStaleVersion 乐观并发冲突信号：读出记录后版本号已被他人改掉。
// 持久层（如 xdb.UpdateWithVersion）抛出，仅由本包的执行器消费重试。
var ErrStaleVersion = errors.New("stale version conflict")

// StaleVersionError 携带实体信息的冲突错误，errors.Is(err, ErrStaleVersion) 成立
type StaleVersionError struct {
	Entity string
	Key    string
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("stale version conflict on %s[%s]", e.Entity, e.Key)
}

func (e *StaleVersionError) Is(target error) bool {
	return target == ErrStaleVersion
}

func NewStaleVersion(entity, key string) error {
	return &StaleVersionError{Entity: entity, Key: key}
}

// IsStaleVersion 判断是否为冲突信号（裸冲突或包装过的）
func IsStaleVersion(err error) bool {
	return errors.Is(err, ErrStaleVersion)
}

// ExhaustedError 重试额度耗尽，包装最后一次冲突。
// 与裸冲突可区分，调用方据此走不同的兜底路径（如提示用户稍后重试）。
type ExhaustedError struct {
	Op       string
	Attempts uint
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted for %s after %d attempts: %s", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted 判断是否为重试耗尽错误
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}
