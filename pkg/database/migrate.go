package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 执行数据库迁移
// 唯一索引与 CHECK 约束均在迁移中声明，排班不变量由存储层兜底
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}

// SchemaCheck 就绪检查：迁移版本表存在且不处于 dirty 状态
// 直接读取版本表，不持有迁移驱动的连接
func SchemaCheck(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			version int64
			dirty   bool
		)
		err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("数据库尚未执行迁移")
		}
		if err != nil {
			return fmt.Errorf("读取迁移版本失败: %w", err)
		}
		if dirty {
			return fmt.Errorf("数据库迁移版本 %d 处于 dirty 状态", version)
		}
		return nil
	}
}
