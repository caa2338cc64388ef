package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guard-roster/internal/model"
	pkgerrors "guard-roster/pkg/errors"
)

// PostRepository 岗位数据访问接口
type PostRepository interface {
	// CreateIgnoreExisting 批量插入，(installation, role, sequence) 已存在的行跳过，返回实际插入行数
	CreateIgnoreExisting(ctx context.Context, posts []model.OperationalPost) (int64, error)
	GetByID(ctx context.Context, tenantID, id string) (*model.OperationalPost, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.OperationalPost, error)
	// ListByInstallation roleID 为空时不过滤角色
	ListByInstallation(ctx context.Context, tenantID, installationID, roleID string, includeInactive bool) ([]model.OperationalPost, error)
	ListPendingCoverage(ctx context.Context, tenantID, installationID string) ([]model.OperationalPost, error)
	FindActiveByGuard(ctx context.Context, tenantID, guardID string) (*model.OperationalPost, error)
	CountActiveByRole(ctx context.Context, tenantID, roleID string) (int64, error)
	// ListAllActive 跨租户列出全部在用岗位（月度滚动生成使用）
	ListAllActive(ctx context.Context) ([]model.OperationalPost, error)
	Update(ctx context.Context, post *model.OperationalPost) error
}

type postRepo struct {
	db *gorm.DB
}

// NewPostRepo 创建 PostRepository 实例
func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) CreateIgnoreExisting(ctx context.Context, posts []model.OperationalPost) (int64, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&posts, 100)
	return result.RowsAffected, translateError(result.Error)
}

func (r *postRepo) GetByID(ctx context.Context, tenantID, id string) (*model.OperationalPost, error) {
	var post model.OperationalPost
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("tenant_id = ? AND post_id = ?", tenantID, id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.OperationalPost, error) {
	var post model.OperationalPost
	err := forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND post_id = ?", tenantID, id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) ListByInstallation(ctx context.Context, tenantID, installationID, roleID string, includeInactive bool) ([]model.OperationalPost, error) {
	var posts []model.OperationalPost
	db := r.db.WithContext(ctx).
		Where("tenant_id = ? AND installation_id = ?", tenantID, installationID)
	if roleID != "" {
		db = db.Where("role_id = ?", roleID)
	}
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Preload("Role").
		Order("role_id ASC, sequence ASC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) ListPendingCoverage(ctx context.Context, tenantID, installationID string) ([]model.OperationalPost, error) {
	var posts []model.OperationalPost
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("tenant_id = ? AND installation_id = ? AND is_active = ? AND is_pending_coverage = ?",
			tenantID, installationID, true, true).
		Order("role_id ASC, sequence ASC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) FindActiveByGuard(ctx context.Context, tenantID, guardID string) (*model.OperationalPost, error) {
	var post model.OperationalPost
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id = ? AND is_active = ?", tenantID, guardID, true).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) CountActiveByRole(ctx context.Context, tenantID, roleID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.OperationalPost{}).
		Where("tenant_id = ? AND role_id = ? AND is_active = ?", tenantID, roleID, true).
		Count(&n).Error
	return n, err
}

func (r *postRepo) ListAllActive(ctx context.Context) ([]model.OperationalPost, error) {
	var posts []model.OperationalPost
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("tenant_id ASC, installation_id ASC, sequence ASC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) Update(ctx context.Context, post *model.OperationalPost) error {
	oldVersion := post.Version
	result := r.db.WithContext(ctx).
		Model(&model.OperationalPost{}).
		Where("post_id = ? AND version = ?", post.PostID, oldVersion).
		Updates(map[string]interface{}{
			"guard_id":            post.GuardID,
			"is_pending_coverage": post.IsPendingCoverage,
			"is_active":           post.IsActive,
			"name":                post.Name,
			"cycle_offset":        post.CycleOffset,
			"updated_by":          post.UpdatedBy,
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	post.Version = oldVersion + 1
	return nil
}
