package logic

import (
	"context"
	"errors"

	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// TransactionLogic 账目查询逻辑。账目是不可变的，这里只读。
type TransactionLogic struct {
	db *gorm.DB
}

// NewTransactionLogic 创建账目查询逻辑
func NewTransactionLogic(db *gorm.DB) *TransactionLogic {
	return &TransactionLogic{db: db}
}

// GetUserTransactions 获取用户相关账目（作为发起方或转账对方）
func (l *TransactionLogic) GetUserTransactions(ctx context.Context, userId int64, txType, status string, page, pageSize int) ([]model.TransactionModel, int64, error) {
	var transactions []model.TransactionModel
	var total int64

	query := l.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Where("user_id = ? OR recipient_id = ?", userId, userId)
	if txType != "" {
		query = query.Where("type = ?", txType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageError(err)
	}

	offset := (page - 1) * pageSize
	if err := query.
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, 0, storageError(err)
	}

	return transactions, total, nil
}

// GetTransaction 按 id 获取账目
func (l *TransactionLogic) GetTransaction(ctx context.Context, id int64) (*model.TransactionModel, error) {
	var transaction model.TransactionModel
	if err := l.db.WithContext(ctx).First(&transaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, storageError(err)
	}
	return &transaction, nil
}
