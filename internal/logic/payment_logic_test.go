package logic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/model"
)

// fakeGateway 进程内假网关
type fakeGateway struct {
	report *gateway.VerifyReport
	err    error
}

func (f *fakeGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		AccessCode:       "abc123",
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func newPaymentLogic(db *ReconcileLogic, gw PaymentGateway) *PaymentLogic {
	return NewPaymentLogic(db.db, gw, db, "NGN")
}

func TestInitializePayment(t *testing.T) {
	db := newTestDB(t)
	reconcile := NewReconcileLogic(db)
	l := newPaymentLogic(reconcile, &fakeGateway{})

	request := seedSupportRequest(t, db, 0, 50000)

	result, err := l.InitializePayment(context.Background(), InitializePaymentRequest{
		SupportRequestId: request.Id,
		DonorName:        "Ada",
		DonorEmail:       "ada@example.com",
		Amount:           2500,
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if !strings.HasPrefix(result.Reference, "APPARCUS_") {
		t.Fatalf("unexpected reference format: %s", result.Reference)
	}
	if result.AuthorizationURL == "" {
		t.Fatal("expected authorization URL")
	}

	payment, err := l.GetByReference(context.Background(), result.Reference)
	if err != nil {
		t.Fatalf("failed to load payment: %v", err)
	}
	if payment.Status != model.PaymentStatusPending {
		t.Fatalf("new payment should be pending, got %s", payment.Status)
	}
	if payment.Amount != 2500 || payment.Currency != "NGN" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
}

func TestInitializePaymentRejectsInactiveRequest(t *testing.T) {
	db := newTestDB(t)
	reconcile := NewReconcileLogic(db)
	l := newPaymentLogic(reconcile, &fakeGateway{})

	request := seedSupportRequest(t, db, 0, 50000)
	if err := db.Model(&model.SupportRequestModel{}).Where("id = ?", request.Id).
		Update("status", model.SupportRequestStatusCancelled).Error; err != nil {
		t.Fatalf("failed to cancel request: %v", err)
	}

	_, err := l.InitializePayment(context.Background(), InitializePaymentRequest{
		SupportRequestId: request.Id,
		DonorEmail:       "ada@example.com",
		Amount:           2500,
	})
	if err == nil {
		t.Fatal("donation to a cancelled request must be rejected")
	}

	if _, err := l.InitializePayment(context.Background(), InitializePaymentRequest{
		SupportRequestId: 9999,
		DonorEmail:       "ada@example.com",
		Amount:           2500,
	}); !errors.Is(err, ErrSupportRequestNotFound) {
		t.Fatalf("expected ErrSupportRequestNotFound, got %v", err)
	}
}

func TestVerifyPaymentGatewayUnavailable(t *testing.T) {
	db := newTestDB(t)
	reconcile := NewReconcileLogic(db)
	l := newPaymentLogic(reconcile, &fakeGateway{err: gateway.ErrGatewayUnavailable})

	request := seedSupportRequest(t, db, 0, 50000)
	payment := seedPayment(t, db, request.Id, nextRef(), 5000)

	_, err := l.VerifyPayment(context.Background(), payment.Reference)
	if !errors.Is(err, gateway.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}

	// 网关不可用绝不改变支付状态
	stored, err := l.GetByReference(context.Background(), payment.Reference)
	if err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if stored.Status != model.PaymentStatusPending {
		t.Fatalf("payment must stay pending on gateway failure, got %s", stored.Status)
	}
}

func TestVerifyPaymentReconciles(t *testing.T) {
	db := newTestDB(t)
	reconcile := NewReconcileLogic(db)

	request := seedSupportRequest(t, db, 0, 50000)
	payment := seedPayment(t, db, request.Id, nextRef(), 5000)

	l := newPaymentLogic(reconcile, &fakeGateway{report: successReport(payment)})

	outcome, err := l.VerifyPayment(context.Background(), payment.Reference)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if outcome.Status != model.PaymentStatusCompleted || outcome.AlreadyProcessed {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if got := walletBalance(t, db, request.RequesterId, 0); got != 5000 {
		t.Fatalf("expected wallet balance 5000, got %d", got)
	}
}

func TestListPendingOlderThan(t *testing.T) {
	db := newTestDB(t)
	reconcile := NewReconcileLogic(db)
	l := newPaymentLogic(reconcile, &fakeGateway{})

	request := seedSupportRequest(t, db, 0, 50000)

	stale := seedPayment(t, db, request.Id, nextRef(), 100)
	if err := db.Model(&model.PaymentModel{}).Where("id = ?", stale.Id).
		Update("created_at", time.Now().Add(-2*time.Hour)).Error; err != nil {
		t.Fatalf("failed to age payment: %v", err)
	}
	seedPayment(t, db, request.Id, nextRef(), 200)

	pending, err := l.ListPendingOlderThan(context.Background(), time.Hour, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Reference != stale.Reference {
		t.Fatalf("expected only the stale payment, got %+v", pending)
	}
}
