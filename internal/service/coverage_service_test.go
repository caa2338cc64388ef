package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	pkgerrors "guard-roster/pkg/errors"
)

// ── RegisterReplacement 测试 ──

func TestCoverageService_RegisterReplacement_Success(t *testing.T) {
	f, svc, postID := setupAssignedMarch(t)
	id := marchEntry(postID, 2)

	result, err := svc.Coverage.RegisterReplacement(ctx, testTenant, id, &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "病假顶班"}, testActor)
	if err != nil {
		t.Fatalf("RegisterReplacement 应成功: %v", err)
	}
	if result.Entry.State != string(model.StateReplaced) || result.Entry.DisplayState != string(model.DisplayReplaced) {
		t.Errorf("期望 replaced，实际 %s/%s", result.Entry.State, result.Entry.DisplayState)
	}
	if result.Entry.SubstituteGuardID != guardS {
		t.Errorf("期望替班保安 guard-s，实际 %q", result.Entry.SubstituteGuardID)
	}

	x := result.ExtraShift
	if x == nil {
		t.Fatal("应产生一条加班记录")
	}
	if x.GuardID != guardS || x.Kind != string(model.ExtraKindReplacement) || x.PaymentStatus != string(model.PaymentPending) {
		t.Errorf("加班记录不符: %+v", x)
	}
	if x.DutyDate != "2025-03-02" || x.Amount != "25000.00" {
		t.Errorf("期望 2025-03-02 / 25000.00，实际 %s / %s", x.DutyDate, x.Amount)
	}
	if x.RosterEntryID == nil || *x.RosterEntryID != id {
		t.Error("加班记录应引用来源条目")
	}
	if result.Entry.ExtraShiftID != x.ID {
		t.Error("条目应记录加班记录 ID")
	}

	e := f.entry(t, postID, 2)
	if e.GuardID == nil || *e.GuardID != guardA {
		t.Error("替班不改变排定保安")
	}
	if v, _ := e.Metadata[model.MetaIsExtra].(bool); !v {
		t.Error("应标记 is_extra")
	}
	last := f.logs.logs[len(f.logs.logs)-1]
	if last.Action != "replacement" || last.GuardID == nil || *last.GuardID != guardS {
		t.Errorf("变更记录应指向替班保安: %+v", last)
	}
}

func TestCoverageService_Undo_KeepsLedger(t *testing.T) {
	f, svc, postID := setupAssignedMarch(t)
	id := marchEntry(postID, 2)

	booked, err := svc.Coverage.RegisterReplacement(ctx, testTenant, id, &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "病假顶班"}, testActor)
	if err != nil {
		t.Fatalf("RegisterReplacement 应成功: %v", err)
	}
	result, err := svc.Attendance.Undo(ctx, testTenant, id, &dto.UndoRequest{Reason: "原保安到岗"}, testActor)
	if err != nil {
		t.Fatalf("Undo 应成功: %v", err)
	}
	if result.Entry.State != string(model.StatePlanned) || result.Entry.SubstituteGuardID != "" || result.Entry.ExtraShiftID != "" {
		t.Errorf("撤销后应回到 planned 且无替班引用: %+v", result.Entry)
	}
	if f.entry(t, postID, 2).HasTransitionMeta() {
		t.Error("撤销后不应残留迁移键")
	}

	x, ok := f.extras.items[booked.ExtraShift.ID]
	if !ok {
		t.Fatal("撤销不应删除加班记录")
	}
	if x.PaymentStatus != model.PaymentPending || x.RosterEntryID == nil || *x.RosterEntryID != id {
		t.Errorf("加班记录应保持不变: %+v", x)
	}

	// 记录仍有效，同一保安当日不能再次登记
	_, err = svc.Coverage.RegisterReplacement(ctx, testTenant, id, &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "再次顶班"}, testActor)
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Errorf("期望 ErrConflict，实际: %v", err)
	}
}

func TestCoverageService_RegisterReplacement_Rejects(t *testing.T) {
	f, svc, postID := setupAssignedMarch(t)
	id := marchEntry(postID, 2)

	cases := map[string]struct {
		req  dto.ReplacementRequest
		kind error
	}{
		"缺少事由":   {dto.ReplacementRequest{SubstituteGuardID: guardS}, pkgerrors.ErrValidation},
		"替班为本人":  {dto.ReplacementRequest{SubstituteGuardID: guardA, Motive: "x"}, pkgerrors.ErrValidation},
		"替班保安离职": {dto.ReplacementRequest{SubstituteGuardID: guardGone, Motive: "x"}, pkgerrors.ErrValidation},
		"替班保安未知": {dto.ReplacementRequest{SubstituteGuardID: "guard-unknown", Motive: "x"}, pkgerrors.ErrValidation},
	}
	for name, tc := range cases {
		req := tc.req
		_, err := svc.Coverage.RegisterReplacement(ctx, testTenant, id, &req, testActor)
		if !errors.Is(err, tc.kind) {
			t.Errorf("%s: 期望 %v，实际: %v", name, tc.kind, err)
		}
	}

	negative := decimal.NewFromInt(-1)
	_, err := svc.Coverage.RegisterReplacement(ctx, testTenant, id, &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "x", Amount: &negative}, testActor)
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("负金额: 期望 ErrValidation，实际: %v", err)
	}

	_, err = svc.Coverage.RegisterReplacement(ctx, testTenant, marchEntry(postID, 6), &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "x"}, testActor)
	if !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("rest 日: 期望 ErrInvalidTransition，实际: %v", err)
	}

	vacant := f.seedPost(t, "")
	f.generateMarch(t, svc, vacant)
	_, err = svc.Coverage.RegisterReplacement(ctx, testTenant, marchEntry(vacant, 2), &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "x"}, testActor)
	if !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("空缺日: 期望 ErrInvalidTransition，实际: %v", err)
	}

	if f.entry(t, postID, 2).State != model.StatePlanned || len(f.extras.items) != 0 {
		t.Error("失败时不应产生任何写入")
	}
}

func TestCoverageService_RegisterReplacement_AfterAbsence(t *testing.T) {
	_, svc, postID := setupAssignedMarch(t)
	id := marchEntry(postID, 3)

	if _, err := svc.Attendance.MarkAbsent(ctx, testTenant, id, &dto.MarkAbsentRequest{Reason: "病假"}, testActor); err != nil {
		t.Fatalf("MarkAbsent 应成功: %v", err)
	}
	result, err := svc.Coverage.RegisterReplacement(ctx, testTenant, id, &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "顶班"}, testActor)
	if err != nil {
		t.Fatalf("缺勤后登记替班应成功: %v", err)
	}
	if result.Entry.State != string(model.StateReplaced) {
		t.Errorf("期望 replaced，实际 %s", result.Entry.State)
	}
}

func TestCoverageService_SubstituteCommittedElsewhere(t *testing.T) {
	f, svc, postID := setupAssignedMarch(t)
	other := f.seedPost(t, guardS)
	f.generateMarch(t, svc, other)

	// guard-s 当日在自己岗位上 planned
	_, err := svc.Coverage.RegisterReplacement(ctx, testTenant, marchEntry(postID, 2), &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "顶班"}, testActor)
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("期望 ErrConflict，实际: %v", err)
	}
	if len(f.extras.items) != 0 {
		t.Error("冲突时不应写入加班记录")
	}
}

func TestCoverageService_SubstituteOnRestDay(t *testing.T) {
	f, svc, postID := setupAssignedMarch(t)
	other := f.seedPost(t, guardS)
	f.posts.posts[other].CycleOffset = 4
	f.generateMarch(t, svc, other)

	// 偏移 4 天后 guard-s 在 2 日休息，可以替班
	if _, err := svc.Coverage.RegisterReplacement(ctx, testTenant, marchEntry(postID, 2), &dto.ReplacementRequest{SubstituteGuardID: guardS, Motive: "顶班"}, testActor); err != nil {
		t.Fatalf("休息日替班应成功: %v", err)
	}
}

// ── AssignCoverage 测试 ──

func TestCoverageService_AssignCoverage_Success(t *testing.T) {
	f := newFixture()
	svc := f.service()
	postID := f.seedPost(t, "")
	f.generateMarch(t, svc, postID)

	amount := decimal.RequireFromString("30000.5")
	result, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(postID, 3), &dto.CoverageRequest{GuardID: guardC, Amount: &amount}, testActor)
	if err != nil {
		t.Fatalf("AssignCoverage 应成功: %v", err)
	}
	if result.Entry.State != string(model.StateExtraAssigned) || result.Entry.DisplayState != string(model.DisplayCoveredExtra) {
		t.Errorf("期望 extra_assigned/covered_extra，实际 %s/%s", result.Entry.State, result.Entry.DisplayState)
	}
	if result.Entry.CoverageGuardID != guardC || result.Entry.GuardID != nil {
		t.Errorf("补位不改变条目保安，应记录补位保安: %+v", result.Entry)
	}
	if result.ExtraShift == nil || result.ExtraShift.Kind != string(model.ExtraKindCoverage) || result.ExtraShift.Amount != "30000.50" {
		t.Errorf("加班记录不符: %+v", result.ExtraShift)
	}
}

func TestCoverageService_AssignCoverage_Rejects(t *testing.T) {
	f, svc, postID := setupAssignedMarch(t)

	_, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(postID, 2), &dto.CoverageRequest{GuardID: guardC}, testActor)
	if !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("已排定保安的条目: 期望 ErrInvalidTransition，实际: %v", err)
	}

	vacant := f.seedPost(t, "")
	f.generateMarch(t, svc, vacant)
	if _, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(vacant, 2), &dto.CoverageRequest{GuardID: guardC}, testActor); err != nil {
		t.Fatalf("AssignCoverage 应成功: %v", err)
	}
	_, err = svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(vacant, 2), &dto.CoverageRequest{GuardID: guardS}, testActor)
	if !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("重复补位: 期望 ErrInvalidTransition，实际: %v", err)
	}
}

func TestCoverageService_NoDoubleBookingAcrossPosts(t *testing.T) {
	f := newFixture()
	svc := f.service()
	p1 := f.seedPost(t, "")
	p2 := f.seedPost(t, "")
	f.generateMarch(t, svc, p1)
	f.generateMarch(t, svc, p2)

	if _, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(p1, 7), &dto.CoverageRequest{GuardID: guardC}, testActor); err != nil {
		t.Fatalf("首次补位应成功: %v", err)
	}
	_, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(p2, 7), &dto.CoverageRequest{GuardID: guardC}, testActor)
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("同日第二次补位: 期望 ErrConflict，实际: %v", err)
	}
	if f.entry(t, p2, 7).State != model.StatePlanned {
		t.Error("冲突时条目不应改变")
	}
}

func TestCoverageService_CancelledExtraFreesGuard(t *testing.T) {
	f := newFixture()
	svc := f.service()
	postID := f.seedPost(t, "")
	f.generateMarch(t, svc, postID)
	id := marchEntry(postID, 7)

	booked, err := svc.Coverage.AssignCoverage(ctx, testTenant, id, &dto.CoverageRequest{GuardID: guardC}, testActor)
	if err != nil {
		t.Fatalf("AssignCoverage 应成功: %v", err)
	}
	if _, err := svc.Ledger.Cancel(ctx, testTenant, booked.ExtraShift.ID, testActor); err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if _, err := svc.Attendance.Undo(ctx, testTenant, id, &dto.UndoRequest{}, testActor); err != nil {
		t.Fatalf("Undo 应成功: %v", err)
	}
	if _, err := svc.Coverage.AssignCoverage(ctx, testTenant, id, &dto.CoverageRequest{GuardID: guardC}, testActor); err != nil {
		t.Errorf("已取消记录不应占用保安当日: %v", err)
	}
	if len(f.extras.items) != 2 {
		t.Errorf("期望保留 2 条记录（含已取消），实际 %d", len(f.extras.items))
	}
}
