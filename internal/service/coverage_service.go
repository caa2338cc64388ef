package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// CoverageService 替班/补位业务接口
//
//	planned | absent_uncovered → replaced        RegisterReplacement（条目有排定保安）
//	planned | absent_uncovered → extra_assigned  AssignCoverage（条目为空缺日）
//
// 两者都在同一事务内写入一条待支付的加班记录。
type CoverageService interface {
	RegisterReplacement(ctx context.Context, tenantID, entryID string, req *dto.ReplacementRequest, callerID string) (*dto.TransitionResponse, error)
	AssignCoverage(ctx context.Context, tenantID, entryID string, req *dto.CoverageRequest, callerID string) (*dto.TransitionResponse, error)
}

type coverageService struct {
	transitioner
}

// NewCoverageService 创建 CoverageService 实例
func NewCoverageService(settings Settings, repo *repository.Repository, logger *zap.Logger) CoverageService {
	return &coverageService{transitioner{settings: settings, repo: repo, logger: logger}}
}

func coverable(state model.RosterState) bool {
	return state == model.StatePlanned || state == model.StateAbsentUncovered
}

func (s *coverageService) RegisterReplacement(ctx context.Context, tenantID, entryID string, req *dto.ReplacementRequest, callerID string) (*dto.TransitionResponse, error) {
	motive := strings.TrimSpace(req.Motive)
	if motive == "" {
		return nil, pkgerrors.Invalid("roster_entry", entryID, "motive-required", "登记替班必须填写事由")
	}
	amount, err := s.amount(entryID, req.Amount)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, tenantID, entryID, "replacement", motive, callerID,
		func(tx *repository.Repository, e *model.RosterEntry) (*model.ExtraShift, error) {
			if !coverable(e.State) {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(e.State), "replacement")
			}
			if !e.HasGuard() {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(model.DisplayPendingCoverage), "replacement")
			}
			if *e.GuardID == req.SubstituteGuardID {
				return nil, pkgerrors.Invalid("guard", req.SubstituteGuardID, "substitute-differs", "替班保安不能是当日排定保安本人")
			}

			x, err := s.book(ctx, tx, e, req.SubstituteGuardID, model.ExtraKindReplacement, amount, motive, callerID)
			if err != nil {
				return nil, err
			}
			e.State = model.StateReplaced
			e.SetMeta(model.MetaSubstituteGuardID, req.SubstituteGuardID)
			e.SetMeta(model.MetaMotive, motive)
			e.SetMeta(model.MetaExtraShiftID, x.ExtraShiftID)
			e.SetMeta(model.MetaIsExtra, true)
			return x, nil
		})
}

func (s *coverageService) AssignCoverage(ctx context.Context, tenantID, entryID string, req *dto.CoverageRequest, callerID string) (*dto.TransitionResponse, error) {
	amount, err := s.amount(entryID, req.Amount)
	if err != nil {
		return nil, err
	}
	motive := strings.TrimSpace(req.Motive)

	return s.run(ctx, tenantID, entryID, "coverage", motive, callerID,
		func(tx *repository.Repository, e *model.RosterEntry) (*model.ExtraShift, error) {
			if !coverable(e.State) {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(e.State), "coverage")
			}
			if e.HasGuard() {
				return nil, pkgerrors.InvalidTransition("roster_entry", e.EntryID, string(e.State)+"(assigned)", "coverage")
			}

			x, err := s.book(ctx, tx, e, req.GuardID, model.ExtraKindCoverage, amount, motive, callerID)
			if err != nil {
				return nil, err
			}
			e.State = model.StateExtraAssigned
			e.SetMeta(model.MetaCoverageGuardID, req.GuardID)
			if motive != "" {
				e.SetMeta(model.MetaMotive, motive)
			}
			e.SetMeta(model.MetaExtraShiftID, x.ExtraShiftID)
			e.SetMeta(model.MetaIsExtra, true)
			return x, nil
		})
}

// amount 请求金额或配置默认值，不得为负
func (s *coverageService) amount(entryID string, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested == nil {
		return s.settings.DefaultAmount, nil
	}
	if requested.IsNegative() {
		return decimal.Zero, pkgerrors.Invalid("roster_entry", entryID, "amount-non-negative", "加班金额不能为负数")
	}
	return *requested, nil
}

// book 校验保安当日可用并写入加班记录
//
// 可用 = 在职 + 当日无未取消的加班记录 + 当日无 planned/worked 的排定值班。
// 加班记录的 (guard, date) 唯一索引兜底并发。
func (s *coverageService) book(ctx context.Context, tx *repository.Repository, e *model.RosterEntry, guardID string, kind model.ExtraShiftKind, amount decimal.Decimal, motive, callerID string) (*model.ExtraShift, error) {
	if err := checkGuardActive(ctx, tx, s.logger, e.TenantID, guardID); err != nil {
		return nil, err
	}

	existing, err := tx.ExtraShift.FindActiveByGuardDate(ctx, e.TenantID, guardID, e.DutyDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(s.logger, "查询加班记录失败", err, "guard", guardID)
	}
	if existing != nil {
		return nil, pkgerrors.Conflict("guard", guardID, "one-extra-shift-per-guard-date",
			"保安当日已有加班记录 "+existing.ExtraShiftID)
	}

	duties, err := tx.Roster.ListGuardDuties(ctx, e.TenantID, guardID, e.DutyDate)
	if err != nil {
		return nil, fail(s.logger, "查询保安当日排班失败", err, "guard", guardID)
	}
	for _, d := range duties {
		if d.EntryID != e.EntryID {
			return nil, pkgerrors.Conflict("guard", guardID, "guard-committed-on-date",
				"保安当日已在岗位 "+d.PostID+" 排班")
		}
	}

	entryID := e.EntryID
	x := &model.ExtraShift{
		TenantID:       e.TenantID,
		GuardID:        guardID,
		InstallationID: e.InstallationID,
		PostID:         e.PostID,
		RosterEntryID:  &entryID,
		DutyDate:       e.DutyDate,
		Kind:           kind,
		Amount:         amount,
		Motive:         motive,
		PaymentStatus:  model.PaymentPending,
	}
	x.Version = 1
	x.Touch(callerID)
	if err := tx.ExtraShift.Create(ctx, x); err != nil {
		return nil, fail(s.logger, "写入加班记录失败", err, "guard", guardID)
	}
	return x, nil
}
