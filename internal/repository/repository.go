package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "guard-roster/pkg/errors"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Role       RoleRepository
	Post       PostRepository
	Roster     RosterRepository
	ExtraShift ExtraShiftRepository
	ChangeLog  RosterChangeLogRepository
	Directory  DirectoryRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Role:       NewRoleRepo(db),
		Post:       NewPostRepo(db),
		Roster:     NewRosterRepo(db),
		ExtraShift: NewExtraShiftRepo(db),
		ChangeLog:  NewRosterChangeLogRepo(db),
		Directory:  NewDirectoryRepo(db),
		db:         db,
	}
}

// Transaction 在单个数据库事务内执行 fn，fn 收到绑定事务的 Repository 聚合
// 未绑定数据库（测试用 mock 聚合）时直接在当前聚合上执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// forUpdate 行级锁（SELECT ... FOR UPDATE），须在事务内使用
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translateError 将 PostgreSQL 唯一约束冲突（23505）翻译为 ErrDuplicateKey，保留约束名
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", pkgerrors.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}
