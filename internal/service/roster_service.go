package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// RosterService 月度排班生成与查询业务接口
type RosterService interface {
	// Generate 按请求生成单个岗位或整个安装点的月度排班
	Generate(ctx context.Context, tenantID string, req *dto.GenerateRosterRequest, callerID string) (*dto.GenerateRosterResponse, error)
	GenerateMonth(ctx context.Context, tenantID, postID string, year, month int, callerID string) (*dto.GenerateRosterResponse, error)
	GenerateInstallationMonth(ctx context.Context, tenantID, installationID string, year, month int, callerID string) (*dto.GenerateRosterResponse, error)
	// GenerateAllActive 为所有租户的全部在用岗位生成月度排班（月度滚动），单岗位失败不影响其余
	GenerateAllActive(ctx context.Context, year, month int) (*dto.GenerateRosterResponse, error)
	RegenerateMissingDay(ctx context.Context, tenantID string, req *dto.RegenerateDayRequest, callerID string) (*dto.RosterEntryResponse, error)

	GetEntry(ctx context.Context, tenantID, entryID string) (*dto.RosterEntryResponse, error)
	ListPostMonth(ctx context.Context, tenantID string, req *dto.RosterMonthRequest) ([]dto.RosterEntryResponse, error)
	ListInstallationRange(ctx context.Context, tenantID string, req *dto.RosterRangeRequest) ([]dto.RosterEntryResponse, error)
	ListDay(ctx context.Context, tenantID string, req *dto.RosterDayRequest) ([]dto.RosterEntryResponse, error)
	ListChangeLogs(ctx context.Context, tenantID, entryID string) ([]dto.RosterChangeLogResponse, error)
}

type rosterService struct {
	settings Settings
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(settings Settings, repo *repository.Repository, logger *zap.Logger) RosterService {
	return &rosterService{settings: settings, repo: repo, logger: logger}
}

// maxRangeDays 区间查询的最大跨度
const maxRangeDays = 92

func validateMonth(entity, id string, year, month int) error {
	if year < 2000 || year > 2100 {
		return pkgerrors.Invalid(entity, id, "year-range", "年份必须在 2000-2100 之间")
	}
	if month < 1 || month > 12 {
		return pkgerrors.Invalid(entity, id, "month-range", "月份必须在 1-12 之间")
	}
	return nil
}

// buildMonth 为岗位构造某月全部条目（纯函数，结果只取决于岗位配置与日历）
func buildMonth(settings Settings, post *model.OperationalPost, role *model.Role, year, month int, callerID string) []model.RosterEntry {
	days := model.DaysIn(year, time.Month(month))
	entries := make([]model.RosterEntry, 0, days)
	for day := 1; day <= days; day++ {
		entries = append(entries, newEntry(settings, post, role, year, month, day, post.Assignment().GuardRef(), callerID))
	}
	return entries
}

func newEntry(settings Settings, post *model.OperationalPost, role *model.Role, year, month, day int, guard *string, callerID string) model.RosterEntry {
	date := model.CivilDate(year, time.Month(month), day)
	state := model.StatePlanned
	if guard != nil && role != nil {
		state = model.CycleState(settings.Anchor, post.CycleOffset, role.WorkDays, role.RestDays, date)
	}
	e := model.RosterEntry{
		TenantID:       post.TenantID,
		PostID:         post.PostID,
		InstallationID: post.InstallationID,
		GuardID:        guard,
		Year:           year,
		Month:          month,
		Day:            day,
		DutyDate:       date,
		State:          state,
		Metadata:       datatypes.JSONMap{},
	}
	e.Version = 1
	e.Touch(callerID)
	return e
}

// ════════════════════════════════════════════════════════════
// 生成
// ════════════════════════════════════════════════════════════

func (s *rosterService) Generate(ctx context.Context, tenantID string, req *dto.GenerateRosterRequest, callerID string) (*dto.GenerateRosterResponse, error) {
	switch {
	case req.PostID != "" && req.InstallationID != "":
		return nil, pkgerrors.Invalid("roster", req.PostID, "single-target", "post_id 与 installation_id 只能指定一个")
	case req.PostID != "":
		return s.GenerateMonth(ctx, tenantID, req.PostID, req.Year, req.Month, callerID)
	case req.InstallationID != "":
		return s.GenerateInstallationMonth(ctx, tenantID, req.InstallationID, req.Year, req.Month, callerID)
	}
	return nil, pkgerrors.Invalid("roster", "", "target-required", "必须指定 post_id 或 installation_id")
}

func (s *rosterService) GenerateMonth(ctx context.Context, tenantID, postID string, year, month int, callerID string) (*dto.GenerateRosterResponse, error) {
	if err := validateMonth("post", postID, year, month); err != nil {
		return nil, err
	}
	post, err := s.repo.Post.GetByID(ctx, tenantID, postID)
	if err != nil {
		return nil, fail(s.logger, "查询岗位失败", err, "post", postID)
	}
	if !post.IsActive {
		return nil, pkgerrors.Invalid("post", postID, "post-active", "岗位已停用，不能生成排班")
	}

	created, err := s.generatePost(ctx, post, year, month, callerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.Roster.ListByPostMonth(ctx, postID, year, month)
	if err != nil {
		s.logger.Error("查询月度排班失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("月度排班已生成",
		zap.String("post_id", postID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int64("created", created),
	)
	return &dto.GenerateRosterResponse{
		Created:   created,
		PostCount: 1,
		Entries:   toEntryResponses(entries, s.logger),
	}, nil
}

func (s *rosterService) GenerateInstallationMonth(ctx context.Context, tenantID, installationID string, year, month int, callerID string) (*dto.GenerateRosterResponse, error) {
	if err := validateMonth("installation", installationID, year, month); err != nil {
		return nil, err
	}
	if _, err := s.repo.Directory.GetInstallation(ctx, tenantID, installationID); err != nil {
		return nil, fail(s.logger, "查询安装点失败", err, "installation", installationID)
	}
	posts, err := s.repo.Post.ListByInstallation(ctx, tenantID, installationID, "", false)
	if err != nil {
		s.logger.Error("查询岗位列表失败", zap.Error(err))
		return nil, err
	}
	return s.generatePosts(ctx, posts, year, month, callerID), nil
}

func (s *rosterService) GenerateAllActive(ctx context.Context, year, month int) (*dto.GenerateRosterResponse, error) {
	if err := validateMonth("roster", "", year, month); err != nil {
		return nil, err
	}
	posts, err := s.repo.Post.ListAllActive(ctx)
	if err != nil {
		s.logger.Error("查询全部在用岗位失败", zap.Error(err))
		return nil, err
	}
	resp := s.generatePosts(ctx, posts, year, month, "")
	s.logger.Info("月度滚动生成完成",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("posts", resp.PostCount),
		zap.Int64("created", resp.Created),
		zap.Int("failed", len(resp.Failed)),
	)
	return resp, nil
}

// generatePosts 逐岗位生成；已完成的岗位不因后续失败回滚，重跑时跳过已存在的行
func (s *rosterService) generatePosts(ctx context.Context, posts []model.OperationalPost, year, month int, callerID string) *dto.GenerateRosterResponse {
	resp := &dto.GenerateRosterResponse{}
	for i := range posts {
		post := &posts[i]
		created, err := s.generatePost(ctx, post, year, month, callerID)
		if err != nil {
			s.logger.Error("岗位月度排班生成失败",
				zap.String("post_id", post.PostID),
				zap.Int("year", year),
				zap.Int("month", month),
				zap.Error(err),
			)
			resp.Failed = append(resp.Failed, post.PostID)
			continue
		}
		resp.Created += created
		resp.PostCount++
	}
	return resp
}

func (s *rosterService) generatePost(ctx context.Context, post *model.OperationalPost, year, month int, callerID string) (int64, error) {
	role := post.Role
	if role == nil {
		r, err := s.repo.Role.GetByID(ctx, post.TenantID, post.RoleID)
		if err != nil {
			return 0, fail(s.logger, "查询轮班模式失败", err, "role", post.RoleID)
		}
		role = r
	}

	entries := buildMonth(s.settings, post, role, year, month, callerID)
	created, err := s.repo.Roster.CreateIgnoreExisting(ctx, entries)
	if err != nil {
		return 0, fail(s.logger, "写入月度排班失败", err, "post", post.PostID)
	}
	return created, nil
}

// ════════════════════════════════════════════════════════════
// RegenerateMissingDay — 补生成单个缺失日
// ════════════════════════════════════════════════════════════
//
// 已存在 → Conflict；否则复制该岗位最近一个更早条目的保安：
// 无保安 → planned 空缺；有保安 → 按周期推算。无更早条目时按岗位当前配置。

func (s *rosterService) RegenerateMissingDay(ctx context.Context, tenantID string, req *dto.RegenerateDayRequest, callerID string) (*dto.RosterEntryResponse, error) {
	if err := validateMonth("post", req.PostID, req.Year, req.Month); err != nil {
		return nil, err
	}
	if req.Day < 1 || req.Day > model.DaysIn(req.Year, time.Month(req.Month)) {
		return nil, pkgerrors.Invalid("post", req.PostID, "day-in-month",
			fmt.Sprintf("%04d-%02d 没有第 %d 天", req.Year, req.Month, req.Day))
	}
	date := model.CivilDate(req.Year, time.Month(req.Month), req.Day)

	var result *model.RosterEntry
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		post, err := tx.Post.GetByID(ctx, tenantID, req.PostID)
		if err != nil {
			return fail(s.logger, "查询岗位失败", err, "post", req.PostID)
		}
		if !post.IsActive {
			return pkgerrors.Invalid("post", post.PostID, "post-active", "岗位已停用，不能补建排班")
		}

		existing, err := tx.Roster.GetByPostDate(ctx, post.PostID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(s.logger, "查询排班条目失败", err, "post", post.PostID)
		}
		if existing != nil {
			return pkgerrors.Conflict("roster_entry", existing.EntryID, "one-entry-per-post-day", "该岗位当日已有排班条目")
		}

		role := post.Role
		if role == nil {
			if role, err = tx.Role.GetByID(ctx, tenantID, post.RoleID); err != nil {
				return fail(s.logger, "查询轮班模式失败", err, "role", post.RoleID)
			}
		}

		guard := post.Assignment().GuardRef()
		prior, err := tx.Roster.FindNearestBefore(ctx, post.PostID, date)
		switch {
		case err == nil:
			guard = prior.GuardID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fail(s.logger, "查询前序排班条目失败", err, "post", post.PostID)
		}

		entry := newEntry(s.settings, post, role, req.Year, req.Month, req.Day, guard, callerID)
		created, err := tx.Roster.CreateIgnoreExisting(ctx, []model.RosterEntry{entry})
		if err != nil {
			return fail(s.logger, "补生成排班条目失败", err, "post", post.PostID)
		}
		if created == 0 {
			return pkgerrors.Conflict("post", post.PostID, "one-entry-per-post-day", "该岗位当日已有排班条目")
		}

		result, err = tx.Roster.GetByPostDate(ctx, post.PostID, date)
		if err != nil {
			return fail(s.logger, "查询排班条目失败", err, "post", post.PostID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toEntryResponse(result, s.logger)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *rosterService) GetEntry(ctx context.Context, tenantID, entryID string) (*dto.RosterEntryResponse, error) {
	entry, err := s.repo.Roster.GetByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, fail(s.logger, "查询排班条目失败", err, "roster_entry", entryID)
	}
	resp := toEntryResponse(entry, s.logger)
	return &resp, nil
}

func (s *rosterService) ListPostMonth(ctx context.Context, tenantID string, req *dto.RosterMonthRequest) ([]dto.RosterEntryResponse, error) {
	if err := validateMonth("post", req.PostID, req.Year, req.Month); err != nil {
		return nil, err
	}
	if _, err := s.repo.Post.GetByID(ctx, tenantID, req.PostID); err != nil {
		return nil, fail(s.logger, "查询岗位失败", err, "post", req.PostID)
	}
	entries, err := s.repo.Roster.ListByPostMonth(ctx, req.PostID, req.Year, req.Month)
	if err != nil {
		s.logger.Error("查询月度排班失败", zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries, s.logger), nil
}

func (s *rosterService) ListInstallationRange(ctx context.Context, tenantID string, req *dto.RosterRangeRequest) ([]dto.RosterEntryResponse, error) {
	from, to, err := parseRange("installation", req.InstallationID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.Roster.ListByInstallationRange(ctx, tenantID, req.InstallationID, from, to)
	if err != nil {
		s.logger.Error("查询安装点排班失败", zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries, s.logger), nil
}

// ListDay 某日在用岗位的排班（呼叫监控只读）
func (s *rosterService) ListDay(ctx context.Context, tenantID string, req *dto.RosterDayRequest) ([]dto.RosterEntryResponse, error) {
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		return nil, pkgerrors.Invalid("roster", req.Date, "date-format", "日期格式必须为 YYYY-MM-DD")
	}
	entries, err := s.repo.Roster.ListActiveByDate(ctx, tenantID, req.InstallationID, date)
	if err != nil {
		s.logger.Error("查询当日排班失败", zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries, s.logger), nil
}

func (s *rosterService) ListChangeLogs(ctx context.Context, tenantID, entryID string) ([]dto.RosterChangeLogResponse, error) {
	if _, err := s.repo.Roster.GetByID(ctx, tenantID, entryID); err != nil {
		return nil, fail(s.logger, "查询排班条目失败", err, "roster_entry", entryID)
	}
	logs, err := s.repo.ChangeLog.ListByEntry(ctx, tenantID, entryID)
	if err != nil {
		s.logger.Error("查询变更记录失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.RosterChangeLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toChangeLogResponse(&logs[i]))
	}
	return out, nil
}

// parseRange 解析闭区间 [from, to]
func parseRange(entity, id, fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse(model.DateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Invalid(entity, id, "date-format", "from 格式必须为 YYYY-MM-DD")
	}
	to, err := time.Parse(model.DateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Invalid(entity, id, "date-format", "to 格式必须为 YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, pkgerrors.Invalid(entity, id, "range-order", "to 不能早于 from")
	}
	if model.DaysBetween(from, to) >= maxRangeDays {
		return time.Time{}, time.Time{}, pkgerrors.Invalid(entity, id, "range-span", fmt.Sprintf("查询跨度不能超过 %d 天", maxRangeDays))
	}
	return from, to, nil
}
