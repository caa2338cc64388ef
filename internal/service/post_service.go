package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// PostService 岗位登记业务接口
//
// 岗位是编制的唯一事实来源：待补位、编制统计均由岗位实时推导。
// 分配/撤销分配在同一事务内同步今天及以后尚未发生迁移的排班条目。
type PostService interface {
	CreatePosts(ctx context.Context, tenantID string, req *dto.CreatePostsRequest, callerID string) (*dto.CreatePostsResponse, error)
	AssignGuard(ctx context.Context, tenantID, postID string, req *dto.AssignGuardRequest, callerID string) (*dto.PostResponse, error)
	UnassignGuard(ctx context.Context, tenantID, postID, callerID string) (*dto.PostResponse, error)
	SetCycleOffset(ctx context.Context, tenantID, postID string, req *dto.SetCycleOffsetRequest, callerID string) (*dto.PostResponse, error)
	DeactivatePosts(ctx context.Context, tenantID string, req *dto.DeactivatePostsRequest, callerID string) (*dto.DeactivatePostsResponse, error)
	GetByID(ctx context.Context, tenantID, postID string) (*dto.PostResponse, error)
	List(ctx context.Context, tenantID string, req *dto.PostListRequest) ([]dto.PostResponse, error)
	ListPendingCoverage(ctx context.Context, tenantID, installationID string) ([]dto.PostResponse, error)
	StaffingSummary(ctx context.Context, tenantID, installationID string) (*dto.StaffingSummaryResponse, error)
}

type postService struct {
	settings Settings
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewPostService 创建 PostService 实例
func NewPostService(settings Settings, repo *repository.Repository, logger *zap.Logger) PostService {
	return &postService{settings: settings, repo: repo, logger: logger}
}

// maxPostsPerBatch 单次创建岗位上限
const maxPostsPerBatch = 500

// ════════════════════════════════════════════════════════════
// CreatePosts — 确保序号 1..count 的岗位存在
// ════════════════════════════════════════════════════════════
//
// 已存在的序号跳过；已停用的序号重新启用（空缺状态）。
// 插入使用 ON CONFLICT DO NOTHING，并发调用不会产生重复岗位。

func (s *postService) CreatePosts(ctx context.Context, tenantID string, req *dto.CreatePostsRequest, callerID string) (*dto.CreatePostsResponse, error) {
	if req.Count < 1 || req.Count > maxPostsPerBatch {
		return nil, pkgerrors.Invalid("installation", req.InstallationID, "post-count-range", "岗位数量必须在 1-500 之间")
	}

	resp := &dto.CreatePostsResponse{}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 校验安装点与轮班模式
		inst, err := tx.Directory.GetInstallation(ctx, tenantID, req.InstallationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Invalid("installation", req.InstallationID, "installation-exists", "安装点不存在")
			}
			return fail(s.logger, "查询安装点失败", err, "installation", req.InstallationID)
		}
		if !inst.IsActive {
			return pkgerrors.Invalid("installation", inst.InstallationID, "installation-active", "安装点已停用")
		}
		role, err := tx.Role.GetByID(ctx, tenantID, req.RoleID)
		if err != nil {
			return fail(s.logger, "查询轮班模式失败", err, "role", req.RoleID)
		}
		if !role.IsActive {
			return pkgerrors.Invalid("role", role.RoleID, "role-active", "轮班模式已停用")
		}

		// 2. 比对已有序号
		existing, err := tx.Post.ListByInstallation(ctx, tenantID, req.InstallationID, req.RoleID, true)
		if err != nil {
			return fail(s.logger, "查询已有岗位失败", err, "installation", req.InstallationID)
		}
		bySeq := make(map[int]*model.OperationalPost, len(existing))
		for i := range existing {
			bySeq[existing[i].Sequence] = &existing[i]
		}

		var fresh []model.OperationalPost
		for seq := 1; seq <= req.Count; seq++ {
			p, ok := bySeq[seq]
			if !ok {
				post := model.OperationalPost{
					TenantID:       tenantID,
					InstallationID: req.InstallationID,
					RoleID:         req.RoleID,
					Sequence:       seq,
					Name:           model.PostName(seq),
					IsActive:       true,
				}
				post.Vacate()
				post.Version = 1
				post.Touch(callerID)
				fresh = append(fresh, post)
				continue
			}
			if p.IsActive {
				continue
			}
			// 3. 重新启用已停用的序号
			p.IsActive = true
			p.Vacate()
			p.Touch(callerID)
			if err := tx.Post.Update(ctx, p); err != nil {
				return fail(s.logger, "重新启用岗位失败", err, "post", p.PostID)
			}
			resp.Reactivated++
		}

		// 4. 批量插入
		created, err := tx.Post.CreateIgnoreExisting(ctx, fresh)
		if err != nil {
			return fail(s.logger, "批量创建岗位失败", err, "installation", req.InstallationID)
		}
		resp.Created = int(created)

		posts, err := tx.Post.ListByInstallation(ctx, tenantID, req.InstallationID, req.RoleID, false)
		if err != nil {
			return fail(s.logger, "查询岗位失败", err, "installation", req.InstallationID)
		}
		resp.Posts = toPostResponses(posts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("岗位已创建",
		zap.String("installation_id", req.InstallationID),
		zap.String("role_id", req.RoleID),
		zap.Int("created", resp.Created),
		zap.Int("reactivated", resp.Reactivated),
	)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// AssignGuard / UnassignGuard
// ════════════════════════════════════════════════════════════

func (s *postService) AssignGuard(ctx context.Context, tenantID, postID string, req *dto.AssignGuardRequest, callerID string) (*dto.PostResponse, error) {
	var result *model.OperationalPost
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		post, err := tx.Post.GetByIDForUpdate(ctx, tenantID, postID)
		if err != nil {
			return fail(s.logger, "查询岗位失败", err, "post", postID)
		}
		if !post.IsActive {
			return pkgerrors.InvalidTransition("post", postID, "inactive", "assign_guard")
		}

		if err := checkGuardActive(ctx, tx, s.logger, tenantID, req.GuardID); err != nil {
			return err
		}

		// 同一保安重复分配：无操作
		if current, ok := post.Assignment().GuardID(); ok && current == req.GuardID {
			result = post
			return nil
		}

		// 一名保安最多占用一个在用岗位（唯一索引兜底）
		other, err := tx.Post.FindActiveByGuard(ctx, tenantID, req.GuardID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(s.logger, "查询保安在岗情况失败", err, "guard", req.GuardID)
		}
		if other != nil && other.PostID != post.PostID {
			return pkgerrors.Conflict("guard", req.GuardID, "one-active-post-per-guard",
				"保安已在岗位 "+other.PostID+" 任职")
		}

		post.AssignTo(req.GuardID)
		post.Touch(callerID)
		if err := tx.Post.Update(ctx, post); err != nil {
			return fail(s.logger, "分配保安失败", err, "guard", req.GuardID)
		}

		synced, err := syncFutureEntries(ctx, tx, s.settings, post, callerID)
		if err != nil {
			return err
		}
		s.logger.Info("保安已分配到岗位",
			zap.String("post_id", post.PostID),
			zap.String("guard_id", req.GuardID),
			zap.Int("synced_entries", synced),
		)
		result = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(result)
	return &resp, nil
}

func (s *postService) UnassignGuard(ctx context.Context, tenantID, postID, callerID string) (*dto.PostResponse, error) {
	var result *model.OperationalPost
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		post, err := tx.Post.GetByIDForUpdate(ctx, tenantID, postID)
		if err != nil {
			return fail(s.logger, "查询岗位失败", err, "post", postID)
		}
		result = post
		if !post.Assignment().IsFilled() {
			return nil
		}

		post.Vacate()
		post.Touch(callerID)
		if err := tx.Post.Update(ctx, post); err != nil {
			return fail(s.logger, "撤销分配失败", err, "post", postID)
		}
		synced, err := syncFutureEntries(ctx, tx, s.settings, post, callerID)
		if err != nil {
			return err
		}
		s.logger.Info("岗位已撤销分配",
			zap.String("post_id", post.PostID),
			zap.Int("synced_entries", synced),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(result)
	return &resp, nil
}

// SetCycleOffset 调整岗位周期偏移，同步未发生迁移的未来条目
func (s *postService) SetCycleOffset(ctx context.Context, tenantID, postID string, req *dto.SetCycleOffsetRequest, callerID string) (*dto.PostResponse, error) {
	if req.CycleOffset < 0 {
		return nil, pkgerrors.Invalid("post", postID, "cycle-offset-non-negative", "周期偏移不能为负数")
	}

	var result *model.OperationalPost
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		post, err := tx.Post.GetByIDForUpdate(ctx, tenantID, postID)
		if err != nil {
			return fail(s.logger, "查询岗位失败", err, "post", postID)
		}
		result = post
		if post.CycleOffset == req.CycleOffset {
			return nil
		}
		post.CycleOffset = req.CycleOffset
		post.Touch(callerID)
		if err := tx.Post.Update(ctx, post); err != nil {
			return fail(s.logger, "更新周期偏移失败", err, "post", postID)
		}
		_, err = syncFutureEntries(ctx, tx, s.settings, post, callerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(result)
	return &resp, nil
}

// DeactivatePosts 停用并腾空某安装点某角色的全部在用岗位（不删除，历史排班仍引用）
func (s *postService) DeactivatePosts(ctx context.Context, tenantID string, req *dto.DeactivatePostsRequest, callerID string) (*dto.DeactivatePostsResponse, error) {
	resp := &dto.DeactivatePostsResponse{}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		posts, err := tx.Post.ListByInstallation(ctx, tenantID, req.InstallationID, req.RoleID, false)
		if err != nil {
			return fail(s.logger, "查询岗位失败", err, "installation", req.InstallationID)
		}
		for i := range posts {
			post, err := tx.Post.GetByIDForUpdate(ctx, tenantID, posts[i].PostID)
			if err != nil {
				return fail(s.logger, "锁定岗位失败", err, "post", posts[i].PostID)
			}
			post.IsActive = false
			post.Vacate()
			post.Touch(callerID)
			if err := tx.Post.Update(ctx, post); err != nil {
				return fail(s.logger, "停用岗位失败", err, "post", post.PostID)
			}
			if _, err := syncFutureEntries(ctx, tx, s.settings, post, callerID); err != nil {
				return err
			}
			resp.Deactivated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("岗位已停用",
		zap.String("installation_id", req.InstallationID),
		zap.String("role_id", req.RoleID),
		zap.Int("deactivated", resp.Deactivated),
	)
	return resp, nil
}

// ── 查询 ──

func (s *postService) GetByID(ctx context.Context, tenantID, postID string) (*dto.PostResponse, error) {
	post, err := s.repo.Post.GetByID(ctx, tenantID, postID)
	if err != nil {
		return nil, fail(s.logger, "查询岗位失败", err, "post", postID)
	}
	resp := toPostResponse(post)
	return &resp, nil
}

func (s *postService) List(ctx context.Context, tenantID string, req *dto.PostListRequest) ([]dto.PostResponse, error) {
	posts, err := s.repo.Post.ListByInstallation(ctx, tenantID, req.InstallationID, req.RoleID, req.IncludeInactive)
	if err != nil {
		s.logger.Error("查询岗位列表失败", zap.Error(err))
		return nil, err
	}
	return toPostResponses(posts), nil
}

func (s *postService) ListPendingCoverage(ctx context.Context, tenantID, installationID string) ([]dto.PostResponse, error) {
	posts, err := s.repo.Post.ListPendingCoverage(ctx, tenantID, installationID)
	if err != nil {
		s.logger.Error("查询待补位岗位失败", zap.Error(err))
		return nil, err
	}
	return toPostResponses(posts), nil
}

// StaffingSummary 按角色汇总席位：配置数 / 已分配 / 待补位
func (s *postService) StaffingSummary(ctx context.Context, tenantID, installationID string) (*dto.StaffingSummaryResponse, error) {
	if _, err := s.repo.Directory.GetInstallation(ctx, tenantID, installationID); err != nil {
		return nil, fail(s.logger, "查询安装点失败", err, "installation", installationID)
	}
	posts, err := s.repo.Post.ListByInstallation(ctx, tenantID, installationID, "", false)
	if err != nil {
		s.logger.Error("查询岗位列表失败", zap.Error(err))
		return nil, err
	}

	lines := make(map[string]*dto.StaffingLine)
	resp := &dto.StaffingSummaryResponse{InstallationID: installationID}
	for i := range posts {
		p := &posts[i]
		line, ok := lines[p.RoleID]
		if !ok {
			line = &dto.StaffingLine{RoleID: p.RoleID}
			if p.Role != nil {
				line.RoleName = p.Role.Name
			}
			lines[p.RoleID] = line
		}
		line.Configured++
		resp.Configured++
		if p.Assignment().IsFilled() {
			line.Assigned++
			resp.Assigned++
		} else {
			line.PendingCoverage++
			resp.PendingCoverage++
		}
	}

	resp.Lines = make([]dto.StaffingLine, 0, len(lines))
	for _, line := range lines {
		resp.Lines = append(resp.Lines, *line)
	}
	sort.Slice(resp.Lines, func(i, j int) bool {
		if resp.Lines[i].RoleName != resp.Lines[j].RoleName {
			return resp.Lines[i].RoleName < resp.Lines[j].RoleName
		}
		return resp.Lines[i].RoleID < resp.Lines[j].RoleID
	})
	return resp, nil
}

// ── 辅助函数 ──

// checkGuardActive 保安须存在且在职
func checkGuardActive(ctx context.Context, tx *repository.Repository, logger *zap.Logger, tenantID, guardID string) error {
	guard, err := tx.Directory.GetGuard(ctx, tenantID, guardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Invalid("guard", guardID, "guard-exists", "保安不存在")
		}
		return fail(logger, "查询保安失败", err, "guard", guardID)
	}
	if !guard.IsActive {
		return pkgerrors.Invalid("guard", guardID, "guard-active", "保安已离职或停用")
	}
	return nil
}

// syncFutureEntries 将岗位当前分配同步到今天及以后仍处于初始状态的条目
//
// 已发生迁移的条目保留自身的保安（条目的保安对当日具有权威性）。
func syncFutureEntries(ctx context.Context, tx *repository.Repository, settings Settings, post *model.OperationalPost, callerID string) (int, error) {
	entries, err := tx.Roster.ListByPostFrom(ctx, post.PostID, settings.today())
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	var role *model.Role
	if post.Assignment().IsFilled() {
		role, err = tx.Role.GetByID(ctx, post.TenantID, post.RoleID)
		if err != nil {
			return 0, translate(err, "role", post.RoleID)
		}
	}

	guard := post.Assignment().GuardRef()
	type resync struct {
		entry *model.RosterEntry
		state model.RosterState
	}
	var pending []resync
	for i := range entries {
		e := &entries[i]
		if !e.Untouched() {
			continue
		}
		state := model.InitialState(settings.Anchor, post, role, e.DutyDate)
		if sameGuard(e.GuardID, guard) && e.State == state {
			continue
		}
		if guard != nil && state == model.StatePlanned {
			if err := checkGuardFreeOnDate(ctx, tx, e, *guard); err != nil {
				return 0, err
			}
		}
		pending = append(pending, resync{entry: e, state: state})
	}

	now := settings.now()
	synced := 0
	for _, p := range pending {
		e, state := p.entry, p.state
		from := e.State
		e.GuardID = guard
		e.State = state
		e.RecordAction("resync", callerID, now)
		e.Touch(callerID)
		if err := tx.Roster.Update(ctx, e); err != nil {
			return synced, translate(err, "roster_entry", e.EntryID)
		}
		if err := tx.ChangeLog.Create(ctx, &model.RosterChangeLog{
			TenantID:      e.TenantID,
			RosterEntryID: e.EntryID,
			Action:        "resync",
			FromState:     from,
			ToState:       e.State,
			GuardID:       guard,
			ActorID:       callerID,
			CreatedAt:     now,
		}); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// checkGuardFreeOnDate 保安当日不得已有有效加班记录或其他岗位的排班
func checkGuardFreeOnDate(ctx context.Context, tx *repository.Repository, e *model.RosterEntry, guardID string) error {
	day := e.DutyDate.Format("2006-01-02")
	existing, err := tx.ExtraShift.FindActiveByGuardDate(ctx, e.TenantID, guardID, e.DutyDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return translate(err, "guard", guardID)
	}
	if existing != nil {
		return pkgerrors.Conflict("guard", guardID, "one-extra-shift-per-guard-date",
			"保安 "+day+" 已有加班记录 "+existing.ExtraShiftID)
	}
	duties, err := tx.Roster.ListGuardDuties(ctx, e.TenantID, guardID, e.DutyDate)
	if err != nil {
		return translate(err, "guard", guardID)
	}
	for _, d := range duties {
		if d.EntryID != e.EntryID {
			return pkgerrors.Conflict("guard", guardID, "guard-committed-on-date",
				"保安 "+day+" 已在岗位 "+d.PostID+" 排班")
		}
	}
	return nil
}

func sameGuard(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
