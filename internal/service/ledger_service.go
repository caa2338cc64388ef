package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// LedgerService 加班台账业务接口
//
// 支付状态只能前进：pending → paid | cancelled；对已终结记录再次终结返回 AlreadyFinalized。
// 管理员冲正（paid → pending）是唯一的回退路径。
type LedgerService interface {
	List(ctx context.Context, tenantID string, req *dto.ExtraShiftListRequest) ([]dto.ExtraShiftResponse, int64, error)
	GetByID(ctx context.Context, tenantID, id string) (*dto.ExtraShiftResponse, error)
	// Detach 与来源条目脱钩并标记保留，从不删除记录
	Detach(ctx context.Context, tenantID, id, callerID string) (*dto.ExtraShiftResponse, error)
	MarkPaid(ctx context.Context, tenantID, id string, req *dto.MarkPaidRequest, callerID string) (*dto.ExtraShiftResponse, error)
	Cancel(ctx context.Context, tenantID, id, callerID string) (*dto.ExtraShiftResponse, error)
	ReversePayment(ctx context.Context, tenantID, id string, req *dto.ReversePaymentRequest, callerID string) (*dto.ExtraShiftResponse, error)
}

type ledgerService struct {
	settings Settings
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewLedgerService 创建 LedgerService 实例
func NewLedgerService(settings Settings, repo *repository.Repository, logger *zap.Logger) LedgerService {
	return &ledgerService{settings: settings, repo: repo, logger: logger}
}

func (s *ledgerService) List(ctx context.Context, tenantID string, req *dto.ExtraShiftListRequest) ([]dto.ExtraShiftResponse, int64, error) {
	f := repository.ExtraShiftFilter{
		TenantID:       tenantID,
		GuardID:        req.GuardID,
		InstallationID: req.InstallationID,
		Status:         model.PaymentStatus(req.Status),
		Offset:         req.GetOffset(),
		Limit:          req.GetPageSize(),
	}
	if req.From != "" {
		from, err := time.Parse(model.DateLayout, req.From)
		if err != nil {
			return nil, 0, pkgerrors.Invalid("extra_shift", "", "date-format", "from 格式必须为 YYYY-MM-DD")
		}
		f.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(model.DateLayout, req.To)
		if err != nil {
			return nil, 0, pkgerrors.Invalid("extra_shift", "", "date-format", "to 格式必须为 YYYY-MM-DD")
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, pkgerrors.Invalid("extra_shift", "", "range-order", "to 不能早于 from")
	}

	items, total, err := s.repo.ExtraShift.List(ctx, f)
	if err != nil {
		s.logger.Error("查询加班台账失败", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ExtraShiftResponse, 0, len(items))
	for i := range items {
		out = append(out, toExtraShiftResponse(&items[i]))
	}
	return out, total, nil
}

func (s *ledgerService) GetByID(ctx context.Context, tenantID, id string) (*dto.ExtraShiftResponse, error) {
	x, err := s.repo.ExtraShift.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fail(s.logger, "查询加班记录失败", err, "extra_shift", id)
	}
	resp := toExtraShiftResponse(x)
	return &resp, nil
}

// mutate 行锁内修改一条台账记录
func (s *ledgerService) mutate(ctx context.Context, tenantID, id, callerID string, apply func(x *model.ExtraShift) error) (*dto.ExtraShiftResponse, error) {
	var result *model.ExtraShift
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		x, err := tx.ExtraShift.GetByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return fail(s.logger, "查询加班记录失败", err, "extra_shift", id)
		}
		result = x
		if err := apply(x); err != nil {
			return err
		}
		x.Touch(callerID)
		if err := tx.ExtraShift.Update(ctx, x); err != nil {
			return fail(s.logger, "更新加班记录失败", err, "extra_shift", id)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnchanged) {
			resp := toExtraShiftResponse(result)
			return &resp, nil
		}
		return nil, err
	}
	resp := toExtraShiftResponse(result)
	return &resp, nil
}

func (s *ledgerService) Detach(ctx context.Context, tenantID, id, callerID string) (*dto.ExtraShiftResponse, error) {
	return s.mutate(ctx, tenantID, id, callerID, func(x *model.ExtraShift) error {
		if x.Detached() {
			return errUnchanged
		}
		x.RosterEntryID = nil
		x.Preserved = true
		s.logger.Info("加班记录已脱钩", zap.String("extra_shift_id", x.ExtraShiftID), zap.String("actor_id", callerID))
		return nil
	})
}

func (s *ledgerService) MarkPaid(ctx context.Context, tenantID, id string, req *dto.MarkPaidRequest, callerID string) (*dto.ExtraShiftResponse, error) {
	batch := strings.TrimSpace(req.BatchID)
	if batch == "" {
		return nil, pkgerrors.Invalid("extra_shift", id, "payment-batch-required", "必须提供支付批次号")
	}
	return s.mutate(ctx, tenantID, id, callerID, func(x *model.ExtraShift) error {
		if x.IsFinal() {
			return pkgerrors.AlreadyFinalized("extra_shift", x.ExtraShiftID, string(x.PaymentStatus))
		}
		now := s.settings.now()
		x.PaymentStatus = model.PaymentPaid
		x.PaymentBatchID = &batch
		x.PaidAt = &now
		return nil
	})
}

func (s *ledgerService) Cancel(ctx context.Context, tenantID, id, callerID string) (*dto.ExtraShiftResponse, error) {
	return s.mutate(ctx, tenantID, id, callerID, func(x *model.ExtraShift) error {
		if x.IsFinal() {
			return pkgerrors.AlreadyFinalized("extra_shift", x.ExtraShiftID, string(x.PaymentStatus))
		}
		now := s.settings.now()
		x.PaymentStatus = model.PaymentCancelled
		x.CancelledAt = &now
		return nil
	})
}

// ReversePayment 管理员冲正：paid → pending，清除批次号
func (s *ledgerService) ReversePayment(ctx context.Context, tenantID, id string, req *dto.ReversePaymentRequest, callerID string) (*dto.ExtraShiftResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, pkgerrors.Invalid("extra_shift", id, "reversal-reason-required", "冲正必须填写原因")
	}
	return s.mutate(ctx, tenantID, id, callerID, func(x *model.ExtraShift) error {
		if x.PaymentStatus != model.PaymentPaid {
			return pkgerrors.InvalidTransition("extra_shift", x.ExtraShiftID, string(x.PaymentStatus), "reverse_payment")
		}
		batch := ""
		if x.PaymentBatchID != nil {
			batch = *x.PaymentBatchID
		}
		x.PaymentStatus = model.PaymentPending
		x.PaymentBatchID = nil
		x.PaidAt = nil
		s.logger.Warn("加班记录支付已冲正",
			zap.String("extra_shift_id", x.ExtraShiftID),
			zap.String("batch_id", batch),
			zap.String("reason", reason),
			zap.String("actor_id", callerID),
		)
		return nil
	})
}
