package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// AuditLogic 漂移审计。
// 从账目（transactions）重算三类派生聚合值并与存储值比对：
// 支持请求 amount_raised、项目 current_funding、钱包 balance。
// 审计自身从不绕过对账引擎修改账本，修复缺失入账时重新驱动引擎补账。
type AuditLogic struct {
	db          *gorm.DB
	reconcile   *ReconcileLogic
	concurrency int
}

// NewAuditLogic 创建漂移审计
func NewAuditLogic(db *gorm.DB, reconcile *ReconcileLogic, concurrency int) *AuditLogic {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &AuditLogic{db: db, reconcile: reconcile, concurrency: concurrency}
}

// AuditScope 审计范围
type AuditScope struct {
	SupportRequests bool `json:"support_requests"`
	Projects        bool `json:"projects"`
	Wallets         bool `json:"wallets"`
	Payments        bool `json:"payments"` // 检查已完成支付是否缺失贷记账目
}

// FullScope 全量审计范围
func FullScope() AuditScope {
	return AuditScope{SupportRequests: true, Projects: true, Wallets: true, Payments: true}
}

// DriftEntry 一条聚合值漂移记录
type DriftEntry struct {
	Entity   string `json:"entity"` // support_request / project / wallet
	EntityId int64  `json:"entity_id"`
	Expected int64  `json:"expected"` // 从账目重算出的值
	Actual   int64  `json:"actual"`   // 存储的聚合值
	Delta    int64  `json:"delta"`    // expected - actual
}

// DriftReport 审计报告
type DriftReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	// Repairable 存储值低于重算值（漏记），可安全修正为重算值
	Repairable []DriftEntry `json:"repairable"`
	// ManualReview 存储值高于重算值，可能是重复入账，绝不自动修正
	ManualReview []DriftEntry `json:"manual_review"`
	// MissingCredits 已完成但没有对应贷记账目的支付 reference
	MissingCredits []string `json:"missing_credits"`
	Errors         []string `json:"errors,omitempty"`
}

// Clean 报告是否无漂移
func (r *DriftReport) Clean() bool {
	return len(r.Repairable) == 0 && len(r.ManualReview) == 0 && len(r.MissingCredits) == 0
}

// RepairSummary 修复结果
type RepairSummary struct {
	AggregatesCorrected int      `json:"aggregates_corrected"`
	CreditsRedriven     int      `json:"credits_redriven"`
	ManualReview        int      `json:"manual_review"` // 留待人工处理的条目数
	Failures            []string `json:"failures,omitempty"`
}

// Audit 执行审计，逐实体重算并比对
func (a *AuditLogic) Audit(ctx context.Context, scope AuditScope) (*DriftReport, error) {
	report := &DriftReport{GeneratedAt: time.Now()}

	if scope.SupportRequests {
		if err := a.auditSupportRequests(ctx, report); err != nil {
			return nil, err
		}
	}
	if scope.Projects {
		if err := a.auditProjects(ctx, report); err != nil {
			return nil, err
		}
	}
	if scope.Wallets {
		if err := a.auditWallets(ctx, report); err != nil {
			return nil, err
		}
	}
	if scope.Payments {
		if err := a.findMissingCredits(ctx, report); err != nil {
			return nil, err
		}
	}

	logger.Info("Drift audit finished: repairable=%d manual_review=%d missing_credits=%d",
		len(report.Repairable), len(report.ManualReview), len(report.MissingCredits))
	return report, nil
}

// Repair 按审计报告修复。
// 聚合值修正只允许存储值 -> 重算值方向，并用比较并交换写，
// 避免覆盖修复期间引擎的并发增量；缺失入账通过 Redrive 补齐。
func (a *AuditLogic) Repair(ctx context.Context, report *DriftReport) (*RepairSummary, error) {
	summary := &RepairSummary{ManualReview: len(report.ManualReview)}

	for _, entry := range report.Repairable {
		corrected, err := a.correctAggregate(ctx, entry)
		if err != nil {
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s/%d: %v", entry.Entity, entry.EntityId, err))
			continue
		}
		if corrected {
			summary.AggregatesCorrected++
		}
	}

	for _, reference := range report.MissingCredits {
		outcome, err := a.reconcile.Redrive(ctx, reference)
		if err != nil {
			summary.Failures = append(summary.Failures, fmt.Sprintf("redrive %s: %v", reference, err))
			continue
		}
		if !outcome.AlreadyProcessed {
			summary.CreditsRedriven++
		}
	}

	logger.Info("Drift repair finished: corrected=%d redriven=%d manual_review=%d failures=%d",
		summary.AggregatesCorrected, summary.CreditsRedriven, summary.ManualReview, len(summary.Failures))
	return summary, nil
}

func (a *AuditLogic) auditSupportRequests(ctx context.Context, report *DriftReport) error {
	var requests []model.SupportRequestModel
	if err := a.db.WithContext(ctx).Select("id", "amount_raised").Find(&requests).Error; err != nil {
		return storageError(err)
	}

	return a.recomputeParallel(len(requests), report, func(i int) (DriftEntry, error) {
		request := requests[i]
		var expected int64
		err := a.db.WithContext(ctx).Raw(`
			SELECT COALESCE(SUM(t.amount), 0)
			FROM transactions t
			JOIN payments p ON p.reference = t.payment_reference
			WHERE t.type = ? AND t.status = ? AND p.support_request_id = ?`,
			model.TransactionTypeCredit, model.TransactionStatusCompleted, request.Id,
		).Scan(&expected).Error
		return DriftEntry{
			Entity:   "support_request",
			EntityId: request.Id,
			Expected: expected,
			Actual:   request.AmountRaised,
			Delta:    expected - request.AmountRaised,
		}, err
	})
}

func (a *AuditLogic) auditProjects(ctx context.Context, report *DriftReport) error {
	var projects []model.ProjectModel
	if err := a.db.WithContext(ctx).Select("id", "current_funding").Find(&projects).Error; err != nil {
		return storageError(err)
	}

	return a.recomputeParallel(len(projects), report, func(i int) (DriftEntry, error) {
		project := projects[i]
		var expected int64
		err := a.db.WithContext(ctx).Raw(`
			SELECT COALESCE(SUM(amount_raised), 0)
			FROM support_requests
			WHERE project_id = ?`, project.Id,
		).Scan(&expected).Error
		return DriftEntry{
			Entity:   "project",
			EntityId: project.Id,
			Expected: expected,
			Actual:   project.CurrentFunding,
			Delta:    expected - project.CurrentFunding,
		}, err
	})
}

func (a *AuditLogic) auditWallets(ctx context.Context, report *DriftReport) error {
	var wallets []model.WalletModel
	if err := a.db.WithContext(ctx).Find(&wallets).Error; err != nil {
		return storageError(err)
	}

	return a.recomputeParallel(len(wallets), report, func(i int) (DriftEntry, error) {
		wallet := wallets[i]
		// 贷记为正、借记与转出为负、转入为正的带符号和
		var expected int64
		err := a.db.WithContext(ctx).Raw(`
			SELECT COALESCE(SUM(CASE
				WHEN type = 'credit'   AND user_id = @uid THEN amount
				WHEN type = 'debit'    AND user_id = @uid THEN -amount
				WHEN type = 'transfer' AND user_id = @uid THEN -amount
				WHEN type = 'transfer' AND recipient_id = @uid THEN amount
				ELSE 0 END), 0)
			FROM transactions
			WHERE status = @status AND currency = @cur AND project_id = @pid
			  AND (user_id = @uid OR (type = 'transfer' AND recipient_id = @uid))`,
			map[string]interface{}{
				"uid":    wallet.UserId,
				"pid":    wallet.ProjectId,
				"cur":    wallet.Currency,
				"status": model.TransactionStatusCompleted,
			},
		).Scan(&expected).Error
		return DriftEntry{
			Entity:   "wallet",
			EntityId: wallet.Id,
			Expected: expected,
			Actual:   wallet.Balance,
			Delta:    expected - wallet.Balance,
		}, err
	})
}

func (a *AuditLogic) findMissingCredits(ctx context.Context, report *DriftReport) error {
	var references []string
	if err := a.db.WithContext(ctx).Raw(`
		SELECT p.reference
		FROM payments p
		LEFT JOIN transactions t ON t.payment_reference = p.reference AND t.type = ?
		WHERE p.status = ? AND t.id IS NULL
		ORDER BY p.id`,
		model.TransactionTypeCredit, model.PaymentStatusCompleted,
	).Scan(&references).Error; err != nil {
		return storageError(err)
	}
	report.MissingCredits = append(report.MissingCredits, references...)
	return nil
}

// recomputeParallel 用协程池并行重算，结果汇入报告
func (a *AuditLogic) recomputeParallel(count int, report *DriftReport, compute func(i int) (DriftEntry, error)) error {
	if count == 0 {
		return nil
	}

	pool, err := ants.NewPool(a.concurrency)
	if err != nil {
		return fmt.Errorf("failed to create audit pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			entry, err := compute(i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s/%d: %v", entry.Entity, entry.EntityId, err))
				return
			}
			collectEntry(report, entry)
		}); err != nil {
			wg.Done()
			mu.Lock()
			report.Errors = append(report.Errors, fmt.Sprintf("submit: %v", err))
			mu.Unlock()
		}
	}
	wg.Wait()
	return nil
}

// collectEntry 漂移分类：漏记可修复，多记疑似重复入账留待人工
func collectEntry(report *DriftReport, entry DriftEntry) {
	switch {
	case entry.Delta == 0:
		// 无漂移
	case entry.Delta > 0:
		report.Repairable = append(report.Repairable, entry)
	default:
		logger.Warn("Possible double credit on %s %d: stored %d exceeds recomputed %d",
			entry.Entity, entry.EntityId, entry.Actual, entry.Expected)
		report.ManualReview = append(report.ManualReview, entry)
	}
}

// correctAggregate 比较并交换地把聚合值修正为重算值
func (a *AuditLogic) correctAggregate(ctx context.Context, entry DriftEntry) (bool, error) {
	var res *gorm.DB
	switch entry.Entity {
	case "support_request":
		res = a.db.WithContext(ctx).Model(&model.SupportRequestModel{}).
			Where("id = ? AND amount_raised = ?", entry.EntityId, entry.Actual).
			Update("amount_raised", entry.Expected)
	case "project":
		res = a.db.WithContext(ctx).Model(&model.ProjectModel{}).
			Where("id = ? AND current_funding = ?", entry.EntityId, entry.Actual).
			Update("current_funding", entry.Expected)
	case "wallet":
		res = a.db.WithContext(ctx).Model(&model.WalletModel{}).
			Where("id = ? AND balance = ?", entry.EntityId, entry.Actual).
			Update("balance", entry.Expected)
	default:
		return false, fmt.Errorf("unknown entity %q", entry.Entity)
	}

	if res.Error != nil {
		return false, storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		// 值在审计后被并发更新过，跳过，下一轮审计再比对
		logger.Warn("Skip stale correction for %s %d", entry.Entity, entry.EntityId)
		return false, nil
	}
	return true, nil
}
