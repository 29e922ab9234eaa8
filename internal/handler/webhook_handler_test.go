package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/config"
	"github.com/johnkennedyb/apparcus/internal/database"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecretKey = "sk_test_secret"

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "apparcus.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	gw, err := gateway.New(config.PaystackConfig{SecretKey: testSecretKey, Currency: "NGN"})
	if err != nil {
		t.Fatalf("failed to create gateway client: %v", err)
	}

	r := gin.New()
	r.POST("/webhooks/paystack", NewWebhookHandler(gw, logic.NewReconcileLogic(db)).HandlePaystack)
	return r, db
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("x-paystack-signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func chargeEvent(event, reference string, amount int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"data":{"reference":%q,"status":%q,"amount":%d,"currency":"NGN"}}`,
		event, reference, map[string]string{"charge.success": "success", "charge.failed": "failed"}[event], amount))
}

func seedWebhookPayment(t *testing.T, db *gorm.DB, reference string, amount int64) {
	t.Helper()
	request := model.SupportRequestModel{
		RequesterId:  42,
		Title:        "Medical bills",
		AmountNeeded: 50000,
		Status:       model.SupportRequestStatusActive,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to seed support request: %v", err)
	}
	payment := model.PaymentModel{
		SupportRequestId: request.Id,
		DonorName:        "Ada",
		DonorEmail:       "ada@example.com",
		Amount:           amount,
		Currency:         "NGN",
		Reference:        reference,
		Status:           model.PaymentStatusPending,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, db := newWebhookRouter(t)
	seedWebhookPayment(t, db, "APPARCUS_WH_1", 5000)

	body := chargeEvent("charge.success", "APPARCUS_WH_1", 5000)

	if w := postWebhook(r, body, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing signature: expected 400, got %d", w.Code)
	}
	if w := postWebhook(r, body, "deadbeef"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature: expected 400, got %d", w.Code)
	}

	// 拒绝的事件不得产生任何副作用
	var payment model.PaymentModel
	if err := db.Where("reference = ?", "APPARCUS_WH_1").First(&payment).Error; err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if payment.Status != model.PaymentStatusPending {
		t.Fatalf("rejected webhook must not change payment, got %s", payment.Status)
	}
}

func TestWebhookChargeSuccessIsIdempotent(t *testing.T) {
	r, db := newWebhookRouter(t)
	seedWebhookPayment(t, db, "APPARCUS_WH_2", 5000)

	body := chargeEvent("charge.success", "APPARCUS_WH_2", 5000)

	// 网关会重发同一事件，两次都必须返回 200 且只入账一次
	for i := 0; i < 2; i++ {
		if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
	}

	var count int64
	if err := db.Model(&model.TransactionModel{}).
		Where("payment_reference = ?", "APPARCUS_WH_2").Count(&count).Error; err != nil {
		t.Fatalf("failed to count credits: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one credit, got %d", count)
	}
}

func TestWebhookChargeFailed(t *testing.T) {
	r, db := newWebhookRouter(t)
	seedWebhookPayment(t, db, "APPARCUS_WH_3", 5000)

	body := chargeEvent("charge.failed", "APPARCUS_WH_3", 5000)
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payment model.PaymentModel
	if err := db.Where("reference = ?", "APPARCUS_WH_3").First(&payment).Error; err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if payment.Status != model.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", payment.Status)
	}
}

func TestWebhookUnknownReferenceAcknowledged(t *testing.T) {
	r, _ := newWebhookRouter(t)

	body := chargeEvent("charge.success", "APPARCUS_WH_NOPE", 5000)
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Fatalf("unknown reference must be acknowledged, got %d", w.Code)
	}
}

func TestWebhookIgnoresUnrelatedEvents(t *testing.T) {
	r, _ := newWebhookRouter(t)

	body := []byte(`{"event":"transfer.success","data":{"reference":"TRF_1"}}`)
	if w := postWebhook(r, body, sign(body)); w.Code != http.StatusOK {
		t.Fatalf("unrelated events must be acknowledged, got %d", w.Code)
	}
}
