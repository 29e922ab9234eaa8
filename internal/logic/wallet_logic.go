package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// WalletLogic 钱包业务逻辑。
// 余额永远只做带条件的增量更新：贷记由对账引擎负责，
// 借记在这里用 balance >= amount 的条件写保证余额不为负。
type WalletLogic struct {
	db       *gorm.DB
	currency string
}

// NewWalletLogic 创建钱包业务逻辑
func NewWalletLogic(db *gorm.DB, currency string) *WalletLogic {
	if currency == "" {
		currency = "NGN"
	}
	return &WalletLogic{db: db, currency: currency}
}

// GetOrCreateWallet 按（用户, 项目, 币种）获取或惰性创建钱包
func (l *WalletLogic) GetOrCreateWallet(ctx context.Context, userId, projectId int64, currency string) (*model.WalletModel, error) {
	if currency == "" {
		currency = l.currency
	}
	wallet := model.WalletModel{UserId: userId, ProjectId: projectId, Currency: currency}
	if err := l.db.WithContext(ctx).
		Where(model.WalletModel{UserId: userId, ProjectId: projectId, Currency: currency}).
		FirstOrCreate(&wallet).Error; err != nil {
		return nil, storageError(err)
	}
	return &wallet, nil
}

// GetMainWallet 获取用户主钱包（无项目归属），不存在时创建
func (l *WalletLogic) GetMainWallet(ctx context.Context, userId int64) (*model.WalletModel, error) {
	return l.GetOrCreateWallet(ctx, userId, 0, l.currency)
}

// GetUserWallets 获取用户所有钱包
func (l *WalletLogic) GetUserWallets(ctx context.Context, userId int64) ([]model.WalletModel, error) {
	var wallets []model.WalletModel
	if err := l.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&wallets).Error; err != nil {
		return nil, storageError(err)
	}
	return wallets, nil
}

// GetWallet 按 id 获取钱包
func (l *WalletLogic) GetWallet(ctx context.Context, id int64) (*model.WalletModel, error) {
	var wallet model.WalletModel
	if err := l.db.WithContext(ctx).First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, storageError(err)
	}
	return &wallet, nil
}

// WithdrawRequest 提现请求
type WithdrawRequest struct {
	UserId        int64
	Amount        int64
	BankCode      string
	AccountNumber string
	AccountName   string
}

// Withdraw 从用户主钱包提现：条件借记 + 借记账目，同一事务提交。
// balance >= amount 作为条件写的一部分，余额不足时写不到行而不是写出负数。
func (l *WalletLogic) Withdraw(ctx context.Context, req WithdrawRequest) (*model.TransactionModel, error) {
	if req.Amount <= 0 {
		return nil, errors.New("提现金额必须大于0")
	}

	wallet, err := l.GetMainWallet(ctx, req.UserId)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("WD_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	record := model.TransactionModel{
		UserId:      req.UserId,
		Type:        model.TransactionTypeDebit,
		Amount:      req.Amount,
		Currency:    wallet.Currency,
		Description: fmt.Sprintf("Withdrawal to %s - %s", req.AccountName, req.AccountNumber),
		Reference:   reference,
		Status:      model.TransactionStatusCompleted,
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.WalletModel{}).
			Where("id = ? AND balance >= ?", wallet.Id, req.Amount).
			Update("balance", gorm.Expr("balance - ?", req.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, storageError(err)
	}

	logger.Info("Withdrawal %s: user=%d amount=%d", reference, req.UserId, req.Amount)
	return &record, nil
}

// Transfer 主钱包之间转账：转出方条件借记、转入方贷记、
// 单条 transfer 账目，全部在同一事务内
func (l *WalletLogic) Transfer(ctx context.Context, fromUserId, toUserId, amount int64, description string) (*model.TransactionModel, error) {
	if amount <= 0 {
		return nil, errors.New("转账金额必须大于0")
	}
	if fromUserId == toUserId {
		return nil, errors.New("不能给自己转账")
	}

	fromWallet, err := l.GetMainWallet(ctx, fromUserId)
	if err != nil {
		return nil, err
	}
	toWallet, err := l.GetMainWallet(ctx, toUserId)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("TRF_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	record := model.TransactionModel{
		UserId:      fromUserId,
		RecipientId: toUserId,
		Type:        model.TransactionTypeTransfer,
		Amount:      amount,
		Currency:    fromWallet.Currency,
		Description: description,
		Reference:   reference,
		Status:      model.TransactionStatusCompleted,
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.WalletModel{}).
			Where("id = ? AND balance >= ?", fromWallet.Id, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		if err := tx.Model(&model.WalletModel{}).
			Where("id = ?", toWallet.Id).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}

		return tx.Create(&record).Error
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, storageError(err)
	}

	logger.Info("Transfer %s: from=%d to=%d amount=%d", reference, fromUserId, toUserId, amount)
	return &record, nil
}
