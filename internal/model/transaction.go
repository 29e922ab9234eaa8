package model

import (
	"time"
)

// TransactionModel 不可变账本条目
type TransactionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserId      int64 `json:"user_id" gorm:"not null;index"`
	RecipientId int64 `json:"recipient_id" gorm:"default:0;index"` // 转账对方，0 表示无
	ProjectId   int64 `json:"project_id" gorm:"default:0;index"`

	Type        TransactionType `json:"type" gorm:"not null"`
	Amount      int64           `json:"amount" gorm:"not null"`
	Currency    string          `json:"currency" gorm:"not null;default:'NGN'"`
	Description string          `json:"description"`

	Reference string `json:"reference" gorm:"not null;uniqueIndex"`
	// PaymentReference 关联的支付 reference。唯一索引保证每笔支付
	// 至多产生一条贷记账目，是"至多一次"入账的最终屏障。
	PaymentReference *string `json:"payment_reference" gorm:"uniqueIndex"`

	Status TransactionStatus `json:"status" gorm:"not null;default:'pending';index"`
}

// TableName 自定义表名
func (TransactionModel) TableName() string {
	return "transactions"
}

// TransactionType 账目类型
type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "credit"   // 贷记
	TransactionTypeDebit    TransactionType = "debit"    // 借记
	TransactionTypeTransfer TransactionType = "transfer" // 转账
)

// TransactionStatus 账目状态
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)
