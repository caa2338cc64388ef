package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	"guard-roster/internal/repository"
	pkgerrors "guard-roster/pkg/errors"
)

// errUnchanged 迁移判定为无操作（如对 planned 条目撤销），不写库
var errUnchanged = errors.New("unchanged")

// mutateFunc 在行锁内校验并修改条目，可附带产生一条台账记录
type mutateFunc func(tx *repository.Repository, e *model.RosterEntry) (*model.ExtraShift, error)

// transitioner 排班条目状态迁移的公共流程
//
// 单事务内：行锁读取 → 校验当前状态 → 修改 → 版本号更新 → 追加变更记录。
// 同一条目上的并发迁移因此被串行化，每次都基于最新状态判定。
type transitioner struct {
	settings Settings
	repo     *repository.Repository
	logger   *zap.Logger
}

func (t *transitioner) run(ctx context.Context, tenantID, entryID, action, reason, callerID string, mutate mutateFunc) (*dto.TransitionResponse, error) {
	if callerID == "" {
		return nil, pkgerrors.Invalid("roster_entry", entryID, "actor-required", "缺少操作人")
	}

	var (
		entry *model.RosterEntry
		extra *model.ExtraShift
	)
	err := t.repo.Transaction(ctx, func(tx *repository.Repository) error {
		e, err := tx.Roster.GetByIDForUpdate(ctx, tenantID, entryID)
		if err != nil {
			return fail(t.logger, "查询排班条目失败", err, "roster_entry", entryID)
		}
		entry = e
		from := e.State

		x, err := mutate(tx, e)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}
		extra = x

		now := t.settings.now()
		e.RecordAction(action, callerID, now)
		e.Touch(callerID)
		if err := tx.Roster.Update(ctx, e); err != nil {
			return fail(t.logger, "更新排班条目失败", err, "roster_entry", entryID)
		}

		affected := e.GuardID
		if x != nil {
			g := x.GuardID
			affected = &g
		}
		if err := tx.ChangeLog.Create(ctx, &model.RosterChangeLog{
			TenantID:      e.TenantID,
			RosterEntryID: e.EntryID,
			Action:        action,
			FromState:     from,
			ToState:       e.State,
			GuardID:       affected,
			Reason:        reason,
			ActorID:       callerID,
			CreatedAt:     now,
		}); err != nil {
			return fail(t.logger, "写入变更记录失败", err, "roster_entry", entryID)
		}

		t.logger.Info("排班条目状态迁移",
			zap.String("entry_id", e.EntryID),
			zap.String("action", action),
			zap.String("from", string(from)),
			zap.String("to", string(e.State)),
			zap.String("actor_id", callerID),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.TransitionResponse{Entry: toEntryResponse(entry, t.logger)}
	if extra != nil {
		xr := toExtraShiftResponse(extra)
		resp.ExtraShift = &xr
	}
	return resp, nil
}
