package repository

import (
	"context"

	"gorm.io/gorm"

	"guard-roster/internal/model"
	pkgerrors "guard-roster/pkg/errors"
)

// RoleRepository 轮班模式数据访问接口
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Role, error)
	List(ctx context.Context, tenantID string, includeInactive bool) ([]model.Role, error)
	Update(ctx context.Context, role *model.Role) error
}

type roleRepo struct {
	db *gorm.DB
}

// NewRoleRepo 创建 RoleRepository 实例
func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *model.Role) error {
	return translateError(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role_id = ?", tenantID, id).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context, tenantID string, includeInactive bool) ([]model.Role, error) {
	var roles []model.Role
	db := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) Update(ctx context.Context, role *model.Role) error {
	oldVersion := role.Version
	result := r.db.WithContext(ctx).
		Model(&model.Role{}).
		Where("role_id = ? AND version = ?", role.RoleID, oldVersion).
		Updates(map[string]interface{}{
			"name":        role.Name,
			"work_days":   role.WorkDays,
			"rest_days":   role.RestDays,
			"shift_hours": role.ShiftHours,
			"start_time":  role.StartTime,
			"end_time":    role.EndTime,
			"is_active":   role.IsActive,
			"updated_by":  role.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	role.Version = oldVersion + 1
	return nil
}
