package service

import (
	"errors"
	"testing"

	"guard-roster/internal/dto"
	"guard-roster/internal/model"
	pkgerrors "guard-roster/pkg/errors"
)

// setupBookedExtra 空缺岗位 3 日由 guard-c 补位，返回加班记录 ID
func setupBookedExtra(t *testing.T) (*fixture, *Service, string) {
	t.Helper()
	f := newFixture()
	svc := f.service()
	postID := f.seedPost(t, "")
	f.generateMarch(t, svc, postID)
	result, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(postID, 3), &dto.CoverageRequest{GuardID: guardC, Motive: "空缺补位"}, testActor)
	if err != nil {
		t.Fatalf("AssignCoverage 应成功: %v", err)
	}
	return f, svc, result.ExtraShift.ID
}

// ── MarkPaid 测试 ──

func TestLedgerService_MarkPaid_Success(t *testing.T) {
	f, svc, id := setupBookedExtra(t)

	result, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-2025-03"}, testActor)
	if err != nil {
		t.Fatalf("MarkPaid 应成功: %v", err)
	}
	if result.PaymentStatus != string(model.PaymentPaid) || result.PaymentBatchID == nil || *result.PaymentBatchID != "B-2025-03" {
		t.Errorf("期望 paid / B-2025-03，实际 %+v", result)
	}
	if result.PaidAt == nil {
		t.Error("应记录支付时间")
	}
	if f.extras.items[id].Version != 2 {
		t.Errorf("期望版本号 2，实际 %d", f.extras.items[id].Version)
	}
}

func TestLedgerService_MarkPaid_AlreadyFinalized(t *testing.T) {
	f, svc, id := setupBookedExtra(t)

	if _, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-1"}, testActor); err != nil {
		t.Fatalf("MarkPaid 应成功: %v", err)
	}
	_, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-2"}, testActor)
	if !errors.Is(err, pkgerrors.ErrAlreadyFinalized) {
		t.Fatalf("期望 ErrAlreadyFinalized，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Error("ErrAlreadyFinalized 应同时匹配 ErrInvalidTransition")
	}
	x := f.extras.items[id]
	if x.PaymentStatus != model.PaymentPaid || *x.PaymentBatchID != "B-1" {
		t.Errorf("记录不应改变: %s %s", x.PaymentStatus, *x.PaymentBatchID)
	}
}

func TestLedgerService_MarkPaid_RequiresBatch(t *testing.T) {
	_, svc, id := setupBookedExtra(t)

	_, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: " "}, testActor)
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrValidation，实际: %v", err)
	}
	_, err = svc.Ledger.MarkPaid(ctx, testTenant, "x-unknown", &dto.MarkPaidRequest{BatchID: "B-1"}, testActor)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("未知记录: 期望 ErrNotFound，实际: %v", err)
	}
}

// ── Cancel 测试 ──

func TestLedgerService_Cancel_ForwardOnly(t *testing.T) {
	_, svc, id := setupBookedExtra(t)

	result, err := svc.Ledger.Cancel(ctx, testTenant, id, testActor)
	if err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if result.PaymentStatus != string(model.PaymentCancelled) || result.CancelledAt == nil {
		t.Errorf("期望 cancelled 且记录取消时间，实际 %+v", result)
	}

	if _, err := svc.Ledger.Cancel(ctx, testTenant, id, testActor); !errors.Is(err, pkgerrors.ErrAlreadyFinalized) {
		t.Errorf("重复取消: 期望 ErrAlreadyFinalized，实际: %v", err)
	}
	if _, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-1"}, testActor); !errors.Is(err, pkgerrors.ErrAlreadyFinalized) {
		t.Errorf("取消后支付: 期望 ErrAlreadyFinalized，实际: %v", err)
	}
}

// ── Detach 测试 ──

func TestLedgerService_Detach_KeepsRecord(t *testing.T) {
	f, svc, id := setupBookedExtra(t)

	result, err := svc.Ledger.Detach(ctx, testTenant, id, testActor)
	if err != nil {
		t.Fatalf("Detach 应成功: %v", err)
	}
	if result.RosterEntryID != nil || !result.Preserved {
		t.Errorf("期望脱钩并保留，实际 %+v", result)
	}
	version := f.extras.items[id].Version

	if _, err := svc.Ledger.Detach(ctx, testTenant, id, testActor); err != nil {
		t.Fatalf("重复 Detach 应成功: %v", err)
	}
	if f.extras.items[id].Version != version {
		t.Error("重复脱钩不应写库")
	}

	items, total, err := svc.Ledger.List(ctx, testTenant, &dto.ExtraShiftListRequest{GuardID: guardC})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != id {
		t.Errorf("脱钩记录仍应出现在台账中，实际 total=%d", total)
	}

	// 脱钩后仍可支付
	if _, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-9"}, testActor); err != nil {
		t.Errorf("脱钩记录应可支付: %v", err)
	}
}

// ── ReversePayment 测试 ──

func TestLedgerService_ReversePayment(t *testing.T) {
	f, svc, id := setupBookedExtra(t)

	_, err := svc.Ledger.ReversePayment(ctx, testTenant, id, &dto.ReversePaymentRequest{Reason: "批次作废"}, testActor)
	if !errors.Is(err, pkgerrors.ErrInvalidTransition) {
		t.Errorf("未支付记录冲正: 期望 ErrInvalidTransition，实际: %v", err)
	}

	if _, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-1"}, testActor); err != nil {
		t.Fatalf("MarkPaid 应成功: %v", err)
	}
	_, err = svc.Ledger.ReversePayment(ctx, testTenant, id, &dto.ReversePaymentRequest{}, testActor)
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("缺少原因: 期望 ErrValidation，实际: %v", err)
	}

	result, err := svc.Ledger.ReversePayment(ctx, testTenant, id, &dto.ReversePaymentRequest{Reason: "批次作废"}, testActor)
	if err != nil {
		t.Fatalf("ReversePayment 应成功: %v", err)
	}
	if result.PaymentStatus != string(model.PaymentPending) || result.PaymentBatchID != nil || result.PaidAt != nil {
		t.Errorf("冲正后应回到 pending 且清除批次，实际 %+v", result)
	}
	if f.extras.items[id].PaymentBatchID != nil {
		t.Error("落库批次号应已清除")
	}
}

// ── List 测试 ──

func TestLedgerService_List_Filters(t *testing.T) {
	f, svc, id := setupBookedExtra(t)
	postID := f.seedPost(t, "")
	f.generateMarch(t, svc, postID)
	if _, err := svc.Coverage.AssignCoverage(ctx, testTenant, marchEntry(postID, 20), &dto.CoverageRequest{GuardID: guardS}, testActor); err != nil {
		t.Fatalf("AssignCoverage 应成功: %v", err)
	}
	if _, err := svc.Ledger.MarkPaid(ctx, testTenant, id, &dto.MarkPaidRequest{BatchID: "B-1"}, testActor); err != nil {
		t.Fatalf("MarkPaid 应成功: %v", err)
	}

	paid, total, err := svc.Ledger.List(ctx, testTenant, &dto.ExtraShiftListRequest{Status: "paid"})
	if err != nil || total != 1 || paid[0].ID != id {
		t.Errorf("按状态过滤期望 1 条: total=%d err=%v", total, err)
	}
	ranged, total, _ := svc.Ledger.List(ctx, testTenant, &dto.ExtraShiftListRequest{From: "2025-03-10", To: "2025-03-31"})
	if total != 1 || ranged[0].GuardID != guardS {
		t.Errorf("按日期过滤期望 guard-s 一条，实际 total=%d", total)
	}
	_, _, err = svc.Ledger.List(ctx, testTenant, &dto.ExtraShiftListRequest{From: "2025-03-31", To: "2025-03-01"})
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("区间倒置: 期望 ErrValidation，实际: %v", err)
	}
}
