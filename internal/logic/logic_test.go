package logic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/johnkennedyb/apparcus/internal/database"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 打开一个临时 sqlite 数据库并迁移全部表。
// _txlock=immediate 让写事务在 BEGIN 时就拿写锁，配合 busy_timeout
// 使并发测试里的写冲突表现为等待而不是立刻失败。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "apparcus.db") + "?_busy_timeout=5000&_txlock=immediate"
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
	return db
}

func seedProject(t *testing.T, db *gorm.DB, goal int64) *model.ProjectModel {
	t.Helper()
	project := model.ProjectModel{
		Name:        "Community outreach",
		AdminId:     1,
		FundingGoal: goal,
		Status:      model.ProjectStatusActive,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return &project
}

func seedSupportRequest(t *testing.T, db *gorm.DB, projectId int64, needed int64) *model.SupportRequestModel {
	t.Helper()
	request := model.SupportRequestModel{
		ProjectId:    projectId,
		RequesterId:  42,
		Title:        "Medical bills",
		AmountNeeded: needed,
		Status:       model.SupportRequestStatusActive,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to seed support request: %v", err)
	}
	return &request
}

func seedPayment(t *testing.T, db *gorm.DB, supportRequestId int64, reference string, amount int64) *model.PaymentModel {
	t.Helper()
	payment := model.PaymentModel{
		SupportRequestId: supportRequestId,
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
	return &payment
}

func successReport(payment *model.PaymentModel) *gateway.VerifyReport {
	return &gateway.VerifyReport{
		Reference: payment.Reference,
		Status:    "success",
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	}
}

// reconcileRetrying 带瞬时错误重试的对账，并发测试里调用方
// 可能因为存储层写冲突拿到 ErrStorageFailure，重试是约定的恢复路径。
func reconcileRetrying(l *ReconcileLogic, reference string, report *gateway.VerifyReport) (*ReconcileOutcome, error) {
	var outcome *ReconcileOutcome
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		outcome, err = l.Reconcile(context.Background(), reference, report)
		if !errors.Is(err, ErrStorageFailure) {
			return outcome, err
		}
	}
	return outcome, err
}

func walletBalance(t *testing.T, db *gorm.DB, userId, projectId int64) int64 {
	t.Helper()
	var wallet model.WalletModel
	err := db.Where("user_id = ? AND project_id = ?", userId, projectId).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	return wallet.Balance
}

func creditCount(t *testing.T, db *gorm.DB, paymentReference string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&model.TransactionModel{}).
		Where("payment_reference = ? AND type = ?", paymentReference, model.TransactionTypeCredit).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count credits: %v", err)
	}
	return count
}

func setBalance(t *testing.T, db *gorm.DB, walletId, balance int64) {
	t.Helper()
	if err := db.Model(&model.WalletModel{}).Where("id = ?", walletId).
		Update("balance", balance).Error; err != nil {
		t.Fatalf("failed to set balance: %v", err)
	}
}

var refSeq int

// nextRef 测试内唯一 reference
func nextRef() string {
	refSeq++
	return fmt.Sprintf("APPARCUS_TEST_%d", refSeq)
}
