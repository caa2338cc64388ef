package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"guard-roster/internal/model"
	pkgerrors "guard-roster/pkg/errors"
)

// ExtraShiftFilter 台账查询条件，零值字段不参与过滤
type ExtraShiftFilter struct {
	TenantID       string
	GuardID        string
	InstallationID string
	Status         model.PaymentStatus
	From           *time.Time
	To             *time.Time
	Offset         int
	Limit          int
}

// ExtraShiftRepository 加班台账数据访问接口
type ExtraShiftRepository interface {
	Create(ctx context.Context, x *model.ExtraShift) error
	GetByID(ctx context.Context, tenantID, id string) (*model.ExtraShift, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.ExtraShift, error)
	// FindActiveByGuardDate 保安某日未取消的加班记录
	FindActiveByGuardDate(ctx context.Context, tenantID, guardID string, date time.Time) (*model.ExtraShift, error)
	List(ctx context.Context, f ExtraShiftFilter) ([]model.ExtraShift, int64, error)
	Update(ctx context.Context, x *model.ExtraShift) error
}

type extraShiftRepo struct {
	db *gorm.DB
}

// NewExtraShiftRepo 创建 ExtraShiftRepository 实例
func NewExtraShiftRepo(db *gorm.DB) ExtraShiftRepository {
	return &extraShiftRepo{db: db}
}

func (r *extraShiftRepo) Create(ctx context.Context, x *model.ExtraShift) error {
	return translateError(r.db.WithContext(ctx).Create(x).Error)
}

func (r *extraShiftRepo) GetByID(ctx context.Context, tenantID, id string) (*model.ExtraShift, error) {
	var x model.ExtraShift
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND extra_shift_id = ?", tenantID, id).
		First(&x).Error
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (r *extraShiftRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.ExtraShift, error) {
	var x model.ExtraShift
	err := forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND extra_shift_id = ?", tenantID, id).
		First(&x).Error
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (r *extraShiftRepo) FindActiveByGuardDate(ctx context.Context, tenantID, guardID string, date time.Time) (*model.ExtraShift, error) {
	var x model.ExtraShift
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id = ? AND duty_date = ? AND payment_status <> ?",
			tenantID, guardID, date.Format(model.DateLayout), model.PaymentCancelled).
		First(&x).Error
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (r *extraShiftRepo) List(ctx context.Context, f ExtraShiftFilter) ([]model.ExtraShift, int64, error) {
	var (
		items []model.ExtraShift
		total int64
	)
	db := r.db.WithContext(ctx).Model(&model.ExtraShift{}).Where("tenant_id = ?", f.TenantID)
	if f.GuardID != "" {
		db = db.Where("guard_id = ?", f.GuardID)
	}
	if f.InstallationID != "" {
		db = db.Where("installation_id = ?", f.InstallationID)
	}
	if f.Status != "" {
		db = db.Where("payment_status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("duty_date >= ?", f.From.Format(model.DateLayout))
	}
	if f.To != nil {
		db = db.Where("duty_date <= ?", f.To.Format(model.DateLayout))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	err := db.Order("duty_date DESC, created_at DESC").
		Offset(f.Offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *extraShiftRepo) Update(ctx context.Context, x *model.ExtraShift) error {
	oldVersion := x.Version
	result := r.db.WithContext(ctx).
		Model(&model.ExtraShift{}).
		Where("extra_shift_id = ? AND version = ?", x.ExtraShiftID, oldVersion).
		Updates(map[string]interface{}{
			"roster_entry_id":  x.RosterEntryID,
			"preserved":        x.Preserved,
			"payment_status":   x.PaymentStatus,
			"payment_batch_id": x.PaymentBatchID,
			"paid_at":          x.PaidAt,
			"cancelled_at":     x.CancelledAt,
			"motive":           x.Motive,
			"updated_by":       x.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	x.Version = oldVersion + 1
	return nil
}
