// rosterctl 运维命令行：迁移、手动生成排班、签发测试令牌
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"guard-roster/config"
	"guard-roster/internal/api/middleware"
	"guard-roster/internal/repository"
	"guard-roster/internal/service"
	"guard-roster/pkg/database"
	"guard-roster/pkg/jwt"
	applogger "guard-roster/pkg/logger"
)

const cliActor = "rosterctl"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "rosterctl",
		Short:         "保安排班引擎运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(migrateCmd(), generateCmd(), issueTokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap 加载配置、日志与数据库连接
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return database.RunMigrations(sqlDB, logger)
		},
	}
}

func generateCmd() *cobra.Command {
	var (
		year, month    int
		tenantID       string
		installationID string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "生成月度排班（默认全部租户的全部活跃岗位）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if installationID != "" && tenantID == "" {
				return fmt.Errorf("--installation 需要同时指定 --tenant")
			}

			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			settings, err := service.NewSettings(&cfg.Roster)
			if err != nil {
				return err
			}
			if year == 0 || month == 0 {
				now := time.Now().In(settings.Location)
				next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, settings.Location).AddDate(0, 1, 0)
				year, month = next.Year(), int(next.Month())
			}

			svc := service.NewService(settings, repository.NewRepository(db), logger)
			ctx := cmd.Context()

			var result interface{}
			if installationID != "" {
				result, err = svc.Roster.GenerateInstallationMonth(ctx, tenantID, installationID, year, month, cliActor)
			} else {
				result, err = svc.Roster.GenerateAllActive(ctx, year, month)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "年份（默认下月所在年）")
	cmd.Flags().IntVar(&month, "month", 0, "月份 1-12（默认下月）")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "租户 ID")
	cmd.Flags().StringVar(&installationID, "installation", "", "仅生成该安装点")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	var userID, tenantID, role string
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "签发访问令牌（联调与测试用）",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case middleware.RoleAdmin, middleware.RoleSupervisor, middleware.RoleOperator, middleware.RolePayroll:
			default:
				return fmt.Errorf("未知角色 %q", role)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(userID, tenantID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "租户 ID")
	cmd.Flags().StringVar(&role, "role", middleware.RoleOperator, "角色: admin|supervisor|operator|payroll")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
