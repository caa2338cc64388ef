package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"guard-roster/config"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Role       RoleService
	Post       PostService
	Roster     RosterService
	Attendance AttendanceService
	Coverage   CoverageService
	Ledger     LedgerService
	Export     ExportService
}

// Settings 排班引擎运行参数
type Settings struct {
	Anchor        time.Time       // 轮班周期锚定日
	Location      *time.Location  // 判定“今天”所用时区
	DefaultAmount decimal.Decimal // 未指定金额时的加班金额
	Now           func() time.Time
}

// NewSettings 由配置解析引擎参数
func NewSettings(cfg *config.RosterConfig) (Settings, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Settings{}, fmt.Errorf("解析排班时区失败: %w", err)
	}
	anchor, err := cfg.Anchor()
	if err != nil {
		return Settings{}, fmt.Errorf("解析周期锚定日失败: %w", err)
	}
	amount, err := cfg.DefaultAmount()
	if err != nil {
		return Settings{}, fmt.Errorf("解析默认加班金额失败: %w", err)
	}
	return Settings{
		Anchor:        anchor,
		Location:      loc,
		DefaultAmount: amount,
		Now:           time.Now,
	}, nil
}

func (s Settings) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// today 排班时区下的当日
func (s Settings) today() time.Time {
	return model.TruncateDay(s.now(), s.Location)
}

// NewService 创建 Service 聚合
func NewService(settings Settings, repo *repository.Repository, logger *zap.Logger) *Service {
	return &Service{
		Role:       NewRoleService(repo, logger),
		Post:       NewPostService(settings, repo, logger),
		Roster:     NewRosterService(settings, repo, logger),
		Attendance: NewAttendanceService(settings, repo, logger),
		Coverage:   NewCoverageService(settings, repo, logger),
		Ledger:     NewLedgerService(settings, repo, logger),
		Export:     NewExportService(settings, repo, logger),
	}
}
