package logic

import (
	"context"
	"testing"

	"github.com/johnkennedyb/apparcus/internal/model"
)

func newAuditLogic(reconcile *ReconcileLogic) *AuditLogic {
	return NewAuditLogic(reconcile.db, reconcile, 4)
}

func TestAuditCleanAfterReconcile(t *testing.T) {
	db := newTestDB(t)
	l := NewReconcileLogic(db)
	audit := newAuditLogic(l)

	project := seedProject(t, db, 100000)
	request := seedSupportRequest(t, db, project.Id, 50000)
	payment := seedPayment(t, db, request.Id, nextRef(), 8000)

	if _, err := l.Reconcile(context.Background(), payment.Reference, successReport(payment)); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	report, err := audit.Audit(context.Background(), FullScope())
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("expected clean report, got %+v", report)
	}
}

func TestAuditFindsAndRepairsMissingCredit(t *testing.T) {
	db := newTestDB(t)
	l := NewReconcileLogic(db)
	audit := newAuditLogic(l)

	request := seedSupportRequest(t, db, 0, 50000)

	// 已完成却没有任何入账副作用的历史支付
	payment := seedPayment(t, db, request.Id, nextRef(), 6000)
	if err := db.Model(&model.PaymentModel{}).Where("id = ?", payment.Id).
		Update("status", model.PaymentStatusCompleted).Error; err != nil {
		t.Fatalf("failed to force completed status: %v", err)
	}

	report, err := audit.Audit(context.Background(), FullScope())
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.MissingCredits) != 1 || report.MissingCredits[0] != payment.Reference {
		t.Fatalf("expected missing credit for %s, got %v", payment.Reference, report.MissingCredits)
	}

	summary, err := audit.Repair(context.Background(), report)
	if err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if summary.CreditsRedriven != 1 {
		t.Fatalf("expected one redriven credit, got %d", summary.CreditsRedriven)
	}
	if len(summary.Failures) != 0 {
		t.Fatalf("unexpected repair failures: %v", summary.Failures)
	}

	if got := walletBalance(t, db, request.RequesterId, 0); got != 6000 {
		t.Fatalf("expected wallet balance 6000 after repair, got %d", got)
	}

	// 修复后再审计必须干净
	after, err := audit.Audit(context.Background(), FullScope())
	if err != nil {
		t.Fatalf("post-repair audit failed: %v", err)
	}
	if !after.Clean() {
		t.Fatalf("expected clean report after repair, got %+v", after)
	}
}

func TestAuditRepairsUndercountedAggregate(t *testing.T) {
	db := newTestDB(t)
	l := NewReconcileLogic(db)
	audit := newAuditLogic(l)

	request := seedSupportRequest(t, db, 0, 50000)
	payment := seedPayment(t, db, request.Id, nextRef(), 9000)
	outcome, err := l.Reconcile(context.Background(), payment.Reference, successReport(payment))
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	// 模拟漏记：聚合值被外部破坏为低于重算值
	setBalance(t, db, outcome.WalletId, 4000)

	report, err := audit.Audit(context.Background(), FullScope())
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.Repairable) != 1 {
		t.Fatalf("expected one repairable entry, got %+v", report)
	}
	entry := report.Repairable[0]
	if entry.Entity != "wallet" || entry.Expected != 9000 || entry.Actual != 4000 {
		t.Fatalf("unexpected drift entry: %+v", entry)
	}

	summary, err := audit.Repair(context.Background(), report)
	if err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if summary.AggregatesCorrected != 1 {
		t.Fatalf("expected one corrected aggregate, got %d", summary.AggregatesCorrected)
	}

	if got := walletBalance(t, db, request.RequesterId, 0); got != 9000 {
		t.Fatalf("expected corrected balance 9000, got %d", got)
	}
}

func TestAuditFlagsOvercountForManualReview(t *testing.T) {
	db := newTestDB(t)
	l := NewReconcileLogic(db)
	audit := newAuditLogic(l)

	request := seedSupportRequest(t, db, 0, 50000)
	payment := seedPayment(t, db, request.Id, nextRef(), 3000)
	if _, err := l.Reconcile(context.Background(), payment.Reference, successReport(payment)); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	// 存储值高于重算值：疑似重复入账，绝不自动修正
	if err := db.Model(&model.SupportRequestModel{}).Where("id = ?", request.Id).
		Update("amount_raised", 99999).Error; err != nil {
		t.Fatalf("failed to inflate amount_raised: %v", err)
	}

	report, err := audit.Audit(context.Background(), FullScope())
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.ManualReview) != 1 {
		t.Fatalf("expected one manual review entry, got %+v", report)
	}
	if len(report.Repairable) != 0 {
		t.Fatalf("overcount must not be repairable, got %+v", report.Repairable)
	}

	summary, err := audit.Repair(context.Background(), report)
	if err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if summary.ManualReview != 1 {
		t.Fatalf("expected manual review count 1, got %d", summary.ManualReview)
	}

	// 修复后存储值保持不变
	var stored model.SupportRequestModel
	if err := db.First(&stored, request.Id).Error; err != nil {
		t.Fatalf("failed to reload support request: %v", err)
	}
	if stored.AmountRaised != 99999 {
		t.Fatalf("overcounted value must be left untouched, got %d", stored.AmountRaised)
	}
}

func TestAuditScopeLimitsChecks(t *testing.T) {
	db := newTestDB(t)
	l := NewReconcileLogic(db)
	audit := newAuditLogic(l)

	request := seedSupportRequest(t, db, 0, 50000)
	payment := seedPayment(t, db, request.Id, nextRef(), 2000)
	if err := db.Model(&model.PaymentModel{}).Where("id = ?", payment.Id).
		Update("status", model.PaymentStatusCompleted).Error; err != nil {
		t.Fatalf("failed to force completed status: %v", err)
	}

	// 只审计钱包时不应发现缺失入账
	report, err := audit.Audit(context.Background(), AuditScope{Wallets: true})
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.MissingCredits) != 0 {
		t.Fatalf("wallet-only audit must not report missing credits, got %v", report.MissingCredits)
	}

	report, err = audit.Audit(context.Background(), AuditScope{Payments: true})
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(report.MissingCredits) != 1 {
		t.Fatalf("payment audit should find the missing credit, got %v", report.MissingCredits)
	}
}
