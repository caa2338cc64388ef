package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guard-roster/internal/model"
	pkgerrors "guard-roster/pkg/errors"
)

// RosterRepository 月度排班数据访问接口
type RosterRepository interface {
	// CreateIgnoreExisting 批量插入，(post, year, month, day) 已存在的行跳过，返回实际插入行数
	CreateIgnoreExisting(ctx context.Context, entries []model.RosterEntry) (int64, error)
	GetByID(ctx context.Context, tenantID, id string) (*model.RosterEntry, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.RosterEntry, error)
	GetByPostDate(ctx context.Context, postID string, date time.Time) (*model.RosterEntry, error)
	ListByPostMonth(ctx context.Context, postID string, year, month int) ([]model.RosterEntry, error)
	// ListByPostFrom 列出某岗位 from（含）之后的全部条目，用于分配变更同步
	ListByPostFrom(ctx context.Context, postID string, from time.Time) ([]model.RosterEntry, error)
	FindNearestBefore(ctx context.Context, postID string, date time.Time) (*model.RosterEntry, error)
	ListByInstallationRange(ctx context.Context, tenantID, installationID string, from, to time.Time) ([]model.RosterEntry, error)
	// ListActiveByDate 某日在用岗位的条目（呼叫监控使用），installationID 为空时不过滤
	ListActiveByDate(ctx context.Context, tenantID, installationID string, date time.Time) ([]model.RosterEntry, error)
	// ListByGuardRange 保安的值班日：本人排定或作为替班/补位出现
	ListByGuardRange(ctx context.Context, tenantID, guardID string, from, to time.Time) ([]model.RosterEntry, error)
	// ListGuardDuties 保安某日仍需到岗（planned/worked）的排定条目
	ListGuardDuties(ctx context.Context, tenantID, guardID string, date time.Time) ([]model.RosterEntry, error)
	Update(ctx context.Context, entry *model.RosterEntry) error
}

type rosterRepo struct {
	db *gorm.DB
}

// NewRosterRepo 创建 RosterRepository 实例
func NewRosterRepo(db *gorm.DB) RosterRepository {
	return &rosterRepo{db: db}
}

func (r *rosterRepo) CreateIgnoreExisting(ctx context.Context, entries []model.RosterEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "year"}, {Name: "month"}, {Name: "day"}},
			DoNothing: true,
		}).
		CreateInBatches(&entries, 100)
	return result.RowsAffected, translateError(result.Error)
}

func (r *rosterRepo) GetByID(ctx context.Context, tenantID, id string) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entry_id = ?", tenantID, id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND entry_id = ?", tenantID, id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepo) GetByPostDate(ctx context.Context, postID string, date time.Time) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND duty_date = ?", postID, date.Format(model.DateLayout)).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepo) ListByPostMonth(ctx context.Context, postID string, year, month int) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND year = ? AND month = ?", postID, year, month).
		Order("day ASC").
		Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) ListByPostFrom(ctx context.Context, postID string, from time.Time) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := forUpdate(r.db.WithContext(ctx)).
		Where("post_id = ? AND duty_date >= ?", postID, from.Format(model.DateLayout)).
		Order("duty_date ASC").
		Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) FindNearestBefore(ctx context.Context, postID string, date time.Time) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND duty_date < ?", postID, date.Format(model.DateLayout)).
		Order("duty_date DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *rosterRepo) ListByInstallationRange(ctx context.Context, tenantID, installationID string, from, to time.Time) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("tenant_id = ? AND installation_id = ? AND duty_date BETWEEN ? AND ?",
			tenantID, installationID, from.Format(model.DateLayout), to.Format(model.DateLayout)).
		Order("duty_date ASC, post_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) ListActiveByDate(ctx context.Context, tenantID, installationID string, date time.Time) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	db := r.db.WithContext(ctx).
		Preload("Post").
		Joins("JOIN operational_posts p ON p.post_id = roster_entries.post_id AND p.is_active = ?", true).
		Where("roster_entries.tenant_id = ? AND roster_entries.duty_date = ?", tenantID, date.Format(model.DateLayout))
	if installationID != "" {
		db = db.Where("roster_entries.installation_id = ?", installationID)
	}
	err := db.Order("roster_entries.installation_id ASC, p.sequence ASC").Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) ListByGuardRange(ctx context.Context, tenantID, guardID string, from, to time.Time) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := r.db.WithContext(ctx).
		Preload("Post.Role").
		Where("tenant_id = ? AND duty_date BETWEEN ? AND ?",
			tenantID, from.Format(model.DateLayout), to.Format(model.DateLayout)).
		Where(r.db.Where("guard_id = ?", guardID).
			Or("metadata->>'substitute_guard_id' = ?", guardID).
			Or("metadata->>'coverage_guard_id' = ?", guardID)).
		Order("duty_date ASC").
		Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) ListGuardDuties(ctx context.Context, tenantID, guardID string, date time.Time) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id = ? AND duty_date = ? AND state IN ?",
			tenantID, guardID, date.Format(model.DateLayout),
			[]model.RosterState{model.StatePlanned, model.StateWorked}).
		Find(&entries).Error
	return entries, err
}

func (r *rosterRepo) Update(ctx context.Context, entry *model.RosterEntry) error {
	oldVersion := entry.Version
	result := r.db.WithContext(ctx).
		Model(&model.RosterEntry{}).
		Where("entry_id = ? AND version = ?", entry.EntryID, oldVersion).
		Updates(map[string]interface{}{
			"guard_id":   entry.GuardID,
			"state":      entry.State,
			"metadata":   entry.Metadata,
			"updated_by": entry.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}
