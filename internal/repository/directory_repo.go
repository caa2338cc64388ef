package repository

import (
	"context"

	"gorm.io/gorm"

	"guard-roster/internal/model"
)

// DirectoryRepository 安装点与保安目录（外部系统维护，只读）
type DirectoryRepository interface {
	GetInstallation(ctx context.Context, tenantID, id string) (*model.Installation, error)
	GetGuard(ctx context.Context, tenantID, id string) (*model.Guard, error)
}

type directoryRepo struct {
	db *gorm.DB
}

// NewDirectoryRepo 创建 DirectoryRepository 实例
func NewDirectoryRepo(db *gorm.DB) DirectoryRepository {
	return &directoryRepo{db: db}
}

func (r *directoryRepo) GetInstallation(ctx context.Context, tenantID, id string) (*model.Installation, error) {
	var inst model.Installation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND installation_id = ?", tenantID, id).
		First(&inst).Error
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *directoryRepo) GetGuard(ctx context.Context, tenantID, id string) (*model.Guard, error) {
	var g model.Guard
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id = ?", tenantID, id).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}
