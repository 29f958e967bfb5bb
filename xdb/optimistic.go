package xdb

import (
	"context"
	"fmt"

	"github.com/liweiming-nova/fundsync/retryx"
	"gorm.io/gorm"
)

// 乐观并发更新辅助。表需要一个整型 version 列，每次读出记录后
// 带着读到的版本号更新，WHERE version 条件落空即说明记录被并发改过，
// 返回 retryx 的冲突信号，由调用方套在 retryx.Execute 里重读重试。

// UpdateWithVersion 按读出的版本号做一次条件更新，并把 version 自增。
// 更新不到任何行时返回 StaleVersionError。
func UpdateWithVersion(ctx context.Context, db *gorm.DB, model interface{}, id interface{}, version int64, updates map[string]interface{}) error {
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = version + 1

	tx := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(values)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return retryx.NewStaleVersion(fmt.Sprintf("%T", model), fmt.Sprintf("%v", id))
	}
	return nil
}

// DeleteWithVersion 带版本校验的删除，语义同 UpdateWithVersion
func DeleteWithVersion(ctx context.Context, db *gorm.DB, model interface{}, id interface{}, version int64) error {
	tx := db.WithContext(ctx).
		Where("id = ? AND version = ?", id, version).
		Delete(model)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return retryx.NewStaleVersion(fmt.Sprintf("%T", model), fmt.Sprintf("%v", id))
	}
	return nil
}
