package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// ReconcileLogic 支付对账引擎。
// 把网关报告为成功的支付一次性地转化为持久副作用：
// 钱包贷记、账目记录、支持请求与项目聚合值更新。
// 所有入口（webhook、客户端轮询、人工状态更新、离线补账）都必须经过这里，
// 并发调用同一 reference 时恰好一个调用方执行入账，其余折叠为空操作。
type ReconcileLogic struct {
	db *gorm.DB
}

// NewReconcileLogic 创建对账引擎
func NewReconcileLogic(db *gorm.DB) *ReconcileLogic {
	return &ReconcileLogic{db: db}
}

// ReconcileOutcome 对账结果
type ReconcileOutcome struct {
	Reference        string              `json:"reference"`
	Status           model.PaymentStatus `json:"status"`
	AlreadyProcessed bool                `json:"already_processed"` // 本次调用没有执行副作用（重放）
	CreditedAmount   int64               `json:"credited_amount"`
	WalletId         int64               `json:"wallet_id,omitempty"`
	TransactionId    int64               `json:"transaction_id,omitempty"`
}

// Reconcile 对一笔支付执行对账。
// 错误分类：ErrPaymentNotFound、*VerificationError（支付转为 failed）、
// ErrConflict（终态矛盾，需人工处理）、ErrStorageFailure（瞬时，可重试）。
func (l *ReconcileLogic) Reconcile(ctx context.Context, reference string, report *gateway.VerifyReport) (*ReconcileOutcome, error) {
	var payment model.PaymentModel
	if err := l.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, storageError(err)
	}

	// 终态重放：结果一致则原样返回，矛盾则上报冲突，绝不覆盖
	if payment.Status.IsTerminal() {
		return l.replayOutcome(&payment, report)
	}

	// 核验网关报告；未通过则该支付走 failed 终态
	verified, verr := VerifyPaymentReport(&payment, report)
	if verr != nil {
		var vfail *VerificationError
		if errors.As(verr, &vfail) {
			logger.Warn("Payment %s failed verification: %v", reference, vfail)
			outcome, err := l.MarkFailed(ctx, reference)
			if err != nil {
				return nil, err
			}
			return outcome, vfail
		}
		return nil, verr
	}

	// 核验通过：租约抢占 + 全部副作用在同一个数据库事务内提交
	var outcome *ReconcileOutcome
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.PaymentModel{}).
			Where("reference = ? AND status = ?", reference, model.PaymentStatusPending).
			Update("status", model.PaymentStatusCompleted)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// 未抢到租约：另一个调用方已经处理，重读判定结局
			var current model.PaymentModel
			if err := tx.Where("reference = ?", reference).First(&current).Error; err != nil {
				return err
			}
			if current.Status == model.PaymentStatusCompleted {
				outcome = &ReconcileOutcome{
					Reference:        reference,
					Status:           model.PaymentStatusCompleted,
					AlreadyProcessed: true,
					CreditedAmount:   current.Amount,
				}
				return nil
			}
			// 被并发标记为 failed/cancelled，与成功报告矛盾
			return ErrConflict
		}

		o, err := l.applyCredit(tx, &payment, verified.Amount)
		if err != nil {
			return err
		}
		outcome = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			logger.Error("Reconcile conflict for payment %s: success report against non-completed terminal status", reference)
			return nil, ErrConflict
		}
		return nil, storageError(err)
	}

	if !outcome.AlreadyProcessed {
		logger.Info("Payment %s reconciled: credited %d to wallet %d", reference, outcome.CreditedAmount, outcome.WalletId)
	}
	return outcome, nil
}

// MarkFailed 把待确认支付置为 failed（无入账副作用），经过条件写保护
func (l *ReconcileLogic) MarkFailed(ctx context.Context, reference string) (*ReconcileOutcome, error) {
	return l.markTerminal(ctx, reference, model.PaymentStatusFailed)
}

// Cancel 把待确认支付置为 cancelled（无入账副作用），经过条件写保护
func (l *ReconcileLogic) Cancel(ctx context.Context, reference string) (*ReconcileOutcome, error) {
	return l.markTerminal(ctx, reference, model.PaymentStatusCancelled)
}

// markTerminal 条件状态翻转 pending -> target。
// 没写到行时重读判定：相同终态折叠为重放，不同终态上报冲突。
func (l *ReconcileLogic) markTerminal(ctx context.Context, reference string, target model.PaymentStatus) (*ReconcileOutcome, error) {
	res := l.db.WithContext(ctx).Model(&model.PaymentModel{}).
		Where("reference = ? AND status = ?", reference, model.PaymentStatusPending).
		Update("status", target)
	if res.Error != nil {
		return nil, storageError(res.Error)
	}

	if res.RowsAffected == 0 {
		var current model.PaymentModel
		if err := l.db.WithContext(ctx).Where("reference = ?", reference).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPaymentNotFound
			}
			return nil, storageError(err)
		}
		if current.Status == target {
			return &ReconcileOutcome{Reference: reference, Status: target, AlreadyProcessed: true}, nil
		}
		logger.Error("Cannot mark payment %s as %s: already %s", reference, target, current.Status)
		return nil, ErrConflict
	}

	return &ReconcileOutcome{Reference: reference, Status: target}, nil
}

// Redrive 为已完成但缺失贷记账目的支付补齐入账副作用。
// 只服务于审计修复（关闭历史数据的部分失败窗口），
// transactions.payment_reference 上的唯一索引保证并发补账不会重复入账。
func (l *ReconcileLogic) Redrive(ctx context.Context, reference string) (*ReconcileOutcome, error) {
	var outcome *ReconcileOutcome
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment model.PaymentModel
		if err := tx.Where("reference = ?", reference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if payment.Status != model.PaymentStatusCompleted {
			return ErrConflict
		}

		var count int64
		if err := tx.Model(&model.TransactionModel{}).
			Where("payment_reference = ? AND type = ?", reference, model.TransactionTypeCredit).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			outcome = &ReconcileOutcome{
				Reference:        reference,
				Status:           model.PaymentStatusCompleted,
				AlreadyProcessed: true,
				CreditedAmount:   payment.Amount,
			}
			return nil
		}

		o, err := l.applyCredit(tx, &payment, payment.Amount)
		if err != nil {
			return err
		}
		outcome = o
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发补账输给了对方，整个事务已回滚，视作已处理
			return &ReconcileOutcome{Reference: reference, Status: model.PaymentStatusCompleted, AlreadyProcessed: true}, nil
		}
		if errors.Is(err, ErrPaymentNotFound) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, storageError(err)
	}

	if !outcome.AlreadyProcessed {
		logger.Info("Payment %s redriven: credited %d to wallet %d", reference, outcome.CreditedAmount, outcome.WalletId)
	}
	return outcome, nil
}

// applyCredit 在调用方的事务内执行入账序列：
// 钱包贷记（增量写）、插入唯一贷记账目、支持请求与项目聚合值增量更新。
// 必须与支付状态翻转处于同一个事务，保证全有或全无。
func (l *ReconcileLogic) applyCredit(tx *gorm.DB, payment *model.PaymentModel, amount int64) (*ReconcileOutcome, error) {
	var supportRequest model.SupportRequestModel
	if err := tx.First(&supportRequest, payment.SupportRequestId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("support request %d missing for payment %s", payment.SupportRequestId, payment.Reference)
		}
		return nil, err
	}

	// 钱包按需惰性创建，键为（请求人, 项目, 币种）
	wallet := model.WalletModel{
		UserId:    supportRequest.RequesterId,
		ProjectId: supportRequest.ProjectId,
		Currency:  payment.Currency,
	}
	if err := tx.Where(model.WalletModel{
		UserId:    supportRequest.RequesterId,
		ProjectId: supportRequest.ProjectId,
		Currency:  payment.Currency,
	}).FirstOrCreate(&wallet).Error; err != nil {
		return nil, err
	}

	// 余额只做增量更新，永不读-改-写覆盖
	if err := tx.Model(&model.WalletModel{}).
		Where("id = ?", wallet.Id).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return nil, err
	}

	paymentRef := payment.Reference
	record := model.TransactionModel{
		UserId:           supportRequest.RequesterId,
		ProjectId:        supportRequest.ProjectId,
		Type:             model.TransactionTypeCredit,
		Amount:           amount,
		Currency:         payment.Currency,
		Description:      fmt.Sprintf("Payment received for support request: %s", supportRequest.Title),
		Reference:        "PAY_" + payment.Reference,
		PaymentReference: &paymentRef,
		Status:           model.TransactionStatusCompleted,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&model.SupportRequestModel{}).
		Where("id = ?", supportRequest.Id).
		Update("amount_raised", gorm.Expr("amount_raised + ?", amount)).Error; err != nil {
		return nil, err
	}

	// 达标后单向转换为 completed，已终结的支持请求不受影响
	if err := tx.Model(&model.SupportRequestModel{}).
		Where("id = ? AND status = ? AND amount_raised >= amount_needed",
			supportRequest.Id, model.SupportRequestStatusActive).
		Update("status", model.SupportRequestStatusCompleted).Error; err != nil {
		return nil, err
	}

	if supportRequest.ProjectId != 0 {
		if err := tx.Model(&model.ProjectModel{}).
			Where("id = ?", supportRequest.ProjectId).
			Update("current_funding", gorm.Expr("current_funding + ?", amount)).Error; err != nil {
			return nil, err
		}

		// 项目达标同样单向转换，之后任何借记都不会让状态回退
		if err := tx.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ? AND current_funding >= funding_goal",
				supportRequest.ProjectId, model.ProjectStatusActive).
			Update("status", model.ProjectStatusCompleted).Error; err != nil {
			return nil, err
		}
	}

	return &ReconcileOutcome{
		Reference:      payment.Reference,
		Status:         model.PaymentStatusCompleted,
		CreditedAmount: amount,
		WalletId:       wallet.Id,
		TransactionId:  record.Id,
	}, nil
}

// replayOutcome 终态支付的重放判定
func (l *ReconcileLogic) replayOutcome(payment *model.PaymentModel, report *gateway.VerifyReport) (*ReconcileOutcome, error) {
	succeeded := report.Succeeded()

	switch payment.Status {
	case model.PaymentStatusCompleted:
		if succeeded {
			return &ReconcileOutcome{
				Reference:        payment.Reference,
				Status:           model.PaymentStatusCompleted,
				AlreadyProcessed: true,
				CreditedAmount:   payment.Amount,
			}, nil
		}
		logger.Error("Conflict: completed payment %s reported as %q", payment.Reference, report.Status)
		return nil, ErrConflict

	default: // failed / cancelled
		if succeeded {
			logger.Error("Conflict: %s payment %s reported as success", payment.Status, payment.Reference)
			return nil, ErrConflict
		}
		return &ReconcileOutcome{
			Reference:        payment.Reference,
			Status:           payment.Status,
			AlreadyProcessed: true,
		}, nil
	}
}
