package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// RoleService 轮班模式业务接口
type RoleService interface {
	Create(ctx context.Context, tenantID string, req *dto.CreateRoleRequest, callerID string) (*dto.RoleResponse, error)
	GetByID(ctx context.Context, tenantID, id string) (*dto.RoleResponse, error)
	List(ctx context.Context, tenantID string, req *dto.RoleListRequest) ([]dto.RoleResponse, error)
	// Update 只影响之后生成的排班，已生成的条目不回算
	Update(ctx context.Context, tenantID, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.RoleResponse, error)
	// Deactivate 仍有在用岗位引用时拒绝
	Deactivate(ctx context.Context, tenantID, id, callerID string) error
}

type roleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoleService 创建 RoleService 实例
func NewRoleService(repo *repository.Repository, logger *zap.Logger) RoleService {
	return &roleService{repo: repo, logger: logger}
}

var maxShiftHours = decimal.NewFromInt(24)

// validateRoleShape 周期与班次时间校验
func validateRoleShape(id string, workDays, restDays int, hours decimal.Decimal, start, end string) error {
	candidate := model.Role{WorkDays: workDays, RestDays: restDays}
	if !candidate.ValidCycle() {
		return pkgerrors.Invalid("role", id, "cycle-length", "上班天数至少 1 天，休息天数不能为负，周期长度至少 2 天")
	}
	if !hours.IsPositive() || hours.GreaterThan(maxShiftHours) {
		return pkgerrors.Invalid("role", id, "shift-hours", "班次时长必须在 (0, 24] 小时之间")
	}
	if _, err := time.Parse("15:04", start); err != nil {
		return pkgerrors.Invalid("role", id, "start-time-hhmm", "开始时间格式必须为 HH:MM")
	}
	if _, err := time.Parse("15:04", end); err != nil {
		return pkgerrors.Invalid("role", id, "end-time-hhmm", "结束时间格式必须为 HH:MM")
	}
	return nil
}

func (s *roleService) Create(ctx context.Context, tenantID string, req *dto.CreateRoleRequest, callerID string) (*dto.RoleResponse, error) {
	if err := validateRoleShape("", req.WorkDays, req.RestDays, req.ShiftHours, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	role := &model.Role{
		TenantID:   tenantID,
		Name:       req.Name,
		WorkDays:   req.WorkDays,
		RestDays:   req.RestDays,
		ShiftHours: req.ShiftHours,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		IsActive:   true,
	}
	role.Version = 1
	role.Touch(callerID)

	if err := s.repo.Role.Create(ctx, role); err != nil {
		return nil, fail(s.logger, "创建轮班模式失败", err, "role", req.Name)
	}

	s.logger.Info("轮班模式已创建",
		zap.String("role_id", role.RoleID),
		zap.String("name", role.Name),
		zap.Int("work_days", role.WorkDays),
		zap.Int("rest_days", role.RestDays),
	)
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) GetByID(ctx context.Context, tenantID, id string) (*dto.RoleResponse, error) {
	role, err := s.repo.Role.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fail(s.logger, "查询轮班模式失败", err, "role", id)
	}
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) List(ctx context.Context, tenantID string, req *dto.RoleListRequest) ([]dto.RoleResponse, error) {
	roles, err := s.repo.Role.List(ctx, tenantID, req.IncludeInactive)
	if err != nil {
		s.logger.Error("查询轮班模式列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleResponse(&roles[i]))
	}
	return out, nil
}

func (s *roleService) Update(ctx context.Context, tenantID, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.RoleResponse, error) {
	if err := validateRoleShape(id, req.WorkDays, req.RestDays, req.ShiftHours, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	role, err := s.repo.Role.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fail(s.logger, "查询轮班模式失败", err, "role", id)
	}
	if req.Version > 0 && req.Version != role.Version {
		return nil, pkgerrors.Conflict("role", id, "optimistic-version", "记录已被其他操作修改，请刷新后重试")
	}

	role.Name = req.Name
	role.WorkDays = req.WorkDays
	role.RestDays = req.RestDays
	role.ShiftHours = req.ShiftHours
	role.StartTime = req.StartTime
	role.EndTime = req.EndTime
	role.Touch(callerID)

	if err := s.repo.Role.Update(ctx, role); err != nil {
		return nil, fail(s.logger, "更新轮班模式失败", err, "role", id)
	}
	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) Deactivate(ctx context.Context, tenantID, id, callerID string) error {
	role, err := s.repo.Role.GetByID(ctx, tenantID, id)
	if err != nil {
		return fail(s.logger, "查询轮班模式失败", err, "role", id)
	}
	if !role.IsActive {
		return nil
	}

	n, err := s.repo.Post.CountActiveByRole(ctx, tenantID, id)
	if err != nil {
		return fail(s.logger, "统计在用岗位失败", err, "role", id)
	}
	if n > 0 {
		return pkgerrors.Invalid("role", id, "no-active-posts", "仍有在用岗位引用该轮班模式，请先停用岗位")
	}

	role.IsActive = false
	role.Touch(callerID)
	if err := s.repo.Role.Update(ctx, role); err != nil {
		return fail(s.logger, "停用轮班模式失败", err, "role", id)
	}
	return nil
}
