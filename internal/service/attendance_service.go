package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// AttendanceService 考勤状态机业务接口
//
//	planned → worked             MarkWorked（须有排定保安，不得早于值班日）
//	planned → absent_uncovered   MarkAbsent（须填原因）
//	any     → planned            Undo（清除迁移键，不影响台账；对 planned/rest 为无操作）
//
// 替班与补位迁移见 CoverageService。
type AttendanceService interface {
	MarkWorked(ctx context.Context, tenantID, entryID, callerID string) (*dto.TransitionResponse, error)
	MarkAbsent(ctx context.Context, tenantID, entryID string, req *dto.MarkAbsentRequest, callerID string) (*dto.TransitionResponse, error)
	Undo(ctx context.Context, tenantID, entryID string, req *dto.UndoRequest, callerID string) (*dto.TransitionResponse, error)
}

type attendanceService struct {
	transitioner
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(settings Settings, repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{transitioner{settings: settings, repo: repo, logger: logger}}
}

func (s *attendanceService) MarkWorked(ctx context.Context, tenantID, entryID, callerID string) (*dto.TransitionResponse, error) {
	return s.run(ctx, tenantID, entryID, "mark_worked", "", callerID,
		func(_ *repository.Repository, e *model.RosterEntry) (*model.ExtraShift, error) {
			if e.State != model.StatePlanned {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(e.State), "mark_worked")
			}
			if !e.HasGuard() {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(model.DisplayPendingCoverage), "mark_worked")
			}
			if e.DutyDate.After(s.settings.today()) {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, "future", "mark_worked")
			}
			e.State = model.StateWorked
			return nil, nil
		})
}

func (s *attendanceService) MarkAbsent(ctx context.Context, tenantID, entryID string, req *dto.MarkAbsentRequest, callerID string) (*dto.TransitionResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, pkgerrors.Invalid("roster_entry", entryID, "absence-reason-required", "标记缺勤必须填写原因")
	}
	return s.run(ctx, tenantID, entryID, "mark_absent", reason, callerID,
		func(_ *repository.Repository, e *model.RosterEntry) (*model.ExtraShift, error) {
			if e.State != model.StatePlanned {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(e.State), "mark_absent")
			}
			e.State = model.StateAbsentUncovered
			e.SetMeta(model.MetaAbsenceReason, reason)
			return nil, nil
		})
}

// Undo 回到 planned；已产生的加班记录保持不变（台账独立于排班撤销）
func (s *attendanceService) Undo(ctx context.Context, tenantID, entryID string, req *dto.UndoRequest, callerID string) (*dto.TransitionResponse, error) {
	return s.run(ctx, tenantID, entryID, "undo", strings.TrimSpace(req.Reason), callerID,
		func(_ *repository.Repository, e *model.RosterEntry) (*model.ExtraShift, error) {
			if e.State == model.StateRest {
				return nil, errUnchanged
			}
			if e.State == model.StatePlanned && !e.HasTransitionMeta() {
				return nil, errUnchanged
			}
			e.ClearTransitionMeta()
			e.State = model.StatePlanned
			return nil, nil
		})
}
