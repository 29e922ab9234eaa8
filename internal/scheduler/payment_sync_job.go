package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/johnkennedyb/apparcus/internal/config"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// PaymentSyncJob 待确认支付同步任务。
// 对创建后长时间停留在 pending 的支付向网关发起核验，
// 补上丢失的 webhook 或用户未返回的浏览器回调。
type PaymentSyncJob struct {
	gw        *gateway.Client
	payments  *logic.PaymentLogic
	reconcile *logic.ReconcileLogic
	config    *config.Config
}

// NewPaymentSyncJob 创建支付同步任务
func NewPaymentSyncJob(db *gorm.DB, gw *gateway.Client, cfg *config.Config) *PaymentSyncJob {
	reconcile := logic.NewReconcileLogic(db)
	return &PaymentSyncJob{
		gw:        gw,
		payments:  logic.NewPaymentLogic(db, gw, reconcile, cfg.Paystack.Currency),
		reconcile: reconcile,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *PaymentSyncJob) GetName() string {
	return "payment_sync"
}

// GetSchedule 获取调度配置
func (j *PaymentSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.PaymentSyncInterval) * time.Second)
}

// Execute 执行任务
func (j *PaymentSyncJob) Execute() {
	ctx := context.Background()
	minAge := time.Duration(j.config.Scheduler.PaymentSyncMinAge) * time.Second

	pending, err := j.payments.ListPendingOlderThan(ctx, minAge, j.config.Scheduler.PaymentSyncBatch)
	if err != nil {
		logger.Error("Payment sync: failed to list pending payments: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	logger.Info("Payment sync: checking %d pending payments", len(pending))

	synced, failed := 0, 0
	for _, payment := range pending {
		report, err := j.gw.Verify(ctx, payment.Reference)
		if err != nil {
			// 网关不可用不是支付失败，留给下一轮
			if errors.Is(err, gateway.ErrGatewayUnavailable) {
				logger.Warn("Payment sync: gateway unavailable for %s, skipping", payment.Reference)
				continue
			}
			logger.Error("Payment sync: verify %s failed: %v", payment.Reference, err)
			continue
		}

		outcome, err := j.reconcile.Reconcile(ctx, payment.Reference, report)
		if err != nil {
			var vfail *logic.VerificationError
			if errors.As(err, &vfail) {
				// 已被标记为失败，属于正常结果
				failed++
				continue
			}
			logger.Error("Payment sync: reconcile %s failed: %v", payment.Reference, err)
			continue
		}
		if outcome.Status == model.PaymentStatusCompleted {
			synced++
		}
	}

	logger.Info("Payment sync finished: completed=%d failed=%d", synced, failed)
}
