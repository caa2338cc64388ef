package service

import (
	"time"

	"go.uber.org/zap"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
)

// ── 模型 → 响应 ──

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toRoleResponse(r *model.Role) dto.RoleResponse {
	return dto.RoleResponse{
		ID:              r.RoleID,
		Name:            r.Name,
		WorkDays:        r.WorkDays,
		RestDays:        r.RestDays,
		CycleLength:     r.CycleLength(),
		ShiftHours:      r.ShiftHours.StringFixed(2),
		StartTime:       model.ClockHHMM(r.StartTime),
		EndTime:         model.ClockHHMM(r.EndTime),
		CrossesMidnight: r.CrossesMidnight(),
		IsActive:        r.IsActive,
		Version:         r.Version,
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

func toPostResponse(p *model.OperationalPost) dto.PostResponse {
	resp := dto.PostResponse{
		ID:                p.PostID,
		InstallationID:    p.InstallationID,
		RoleID:            p.RoleID,
		GuardID:           p.Assignment().GuardRef(),
		Sequence:          p.Sequence,
		Name:              p.Name,
		IsPendingCoverage: p.IsPendingCoverage,
		CycleOffset:       p.CycleOffset,
		IsActive:          p.IsActive,
		Version:           p.Version,
	}
	if p.Role != nil {
		resp.RoleName = p.Role.Name
	}
	return resp
}

func toPostResponses(posts []model.OperationalPost) []dto.PostResponse {
	out := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, toPostResponse(&posts[i]))
	}
	return out
}

// toEntryResponse 展示状态在此实时推导；发现不一致时记录告警并随响应返回
func toEntryResponse(e *model.RosterEntry, logger *zap.Logger) dto.RosterEntryResponse {
	meta := map[string]interface{}{}
	for k, v := range e.Metadata {
		meta[k] = v
	}
	resp := dto.RosterEntryResponse{
		ID:                e.EntryID,
		PostID:            e.PostID,
		InstallationID:    e.InstallationID,
		GuardID:           e.GuardID,
		Date:              e.DutyDate.Format(model.DateLayout),
		Year:              e.Year,
		Month:             e.Month,
		Day:               e.Day,
		State:             string(e.State),
		DisplayState:      string(e.DisplayState()),
		SubstituteGuardID: e.Meta(model.MetaSubstituteGuardID),
		CoverageGuardID:   e.Meta(model.MetaCoverageGuardID),
		ExtraShiftID:      e.Meta(model.MetaExtraShiftID),
		Metadata:          meta,
		ConsistencyIssues: e.ConsistencyIssues(),
		Version:           e.Version,
		UpdatedAt:         formatTime(e.UpdatedAt),
	}
	if e.Post != nil {
		resp.PostName = e.Post.Name
	}
	if len(resp.ConsistencyIssues) > 0 && logger != nil {
		logger.Warn("排班条目一致性检查未通过",
			zap.String("entry_id", e.EntryID),
			zap.String("state", string(e.State)),
			zap.Strings("issues", resp.ConsistencyIssues),
		)
	}
	return resp
}

func toEntryResponses(entries []model.RosterEntry, logger *zap.Logger) []dto.RosterEntryResponse {
	out := make([]dto.RosterEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResponse(&entries[i], logger))
	}
	return out
}

func toChangeLogResponse(l *model.RosterChangeLog) dto.RosterChangeLogResponse {
	return dto.RosterChangeLogResponse{
		ID:        l.ChangeLogID,
		Action:    l.Action,
		FromState: string(l.FromState),
		ToState:   string(l.ToState),
		GuardID:   l.GuardID,
		Reason:    l.Reason,
		ActorID:   l.ActorID,
		CreatedAt: formatTime(l.CreatedAt),
	}
}

func toExtraShiftResponse(x *model.ExtraShift) dto.ExtraShiftResponse {
	return dto.ExtraShiftResponse{
		ID:             x.ExtraShiftID,
		GuardID:        x.GuardID,
		InstallationID: x.InstallationID,
		PostID:         x.PostID,
		RosterEntryID:  x.RosterEntryID,
		DutyDate:       x.DutyDate.Format(model.DateLayout),
		Kind:           string(x.Kind),
		Amount:         x.Amount.StringFixed(2),
		Motive:         x.Motive,
		PaymentStatus:  string(x.PaymentStatus),
		PaymentBatchID: x.PaymentBatchID,
		PaidAt:         formatTimePtr(x.PaidAt),
		CancelledAt:    formatTimePtr(x.CancelledAt),
		Preserved:      x.Preserved,
		Version:        x.Version,
		CreatedAt:      formatTime(x.CreatedAt),
	}
}
