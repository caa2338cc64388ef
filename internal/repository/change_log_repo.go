package repository

import (
	"context"

	"gorm.io/gorm"

	"guard-roster/internal/model"
)

// RosterChangeLogRepository 排班变更记录数据访问接口（仅追加）
type RosterChangeLogRepository interface {
	Create(ctx context.Context, log *model.RosterChangeLog) error
	ListByEntry(ctx context.Context, tenantID, entryID string) ([]model.RosterChangeLog, error)
}

type rosterChangeLogRepo struct {
	db *gorm.DB
}

// NewRosterChangeLogRepo 创建 RosterChangeLogRepository 实例
func NewRosterChangeLogRepo(db *gorm.DB) RosterChangeLogRepository {
	return &rosterChangeLogRepo{db: db}
}

func (r *rosterChangeLogRepo) Create(ctx context.Context, log *model.RosterChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *rosterChangeLogRepo) ListByEntry(ctx context.Context, tenantID, entryID string) ([]model.RosterChangeLog, error) {
	var logs []model.RosterChangeLog
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND roster_entry_id = ?", tenantID, entryID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
