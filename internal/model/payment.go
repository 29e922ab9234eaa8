package model

import (
	"time"
)

// PaymentModel 支付记录（一次捐赠尝试）
type PaymentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SupportRequestId int64  `json:"support_request_id" gorm:"not null;index"`
	DonorName        string `json:"donor_name" gorm:"not null"`
	DonorEmail       string `json:"donor_email" gorm:"not null"`
	Amount           int64  `json:"amount" gorm:"not null"` // 金额，最小货币单位（kobo）
	Currency         string `json:"currency" gorm:"not null;default:'NGN'"`

	// Reference 是幂等键，全局唯一
	Reference string        `json:"reference" gorm:"not null;uniqueIndex"`
	Status    PaymentStatus `json:"status" gorm:"not null;default:'pending';index"`

	// CustomData 自定义属性（JSON 序列化）
	CustomData string `json:"custom_data" gorm:"type:text"`
}

// TableName 自定义表名
func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // 待确认
	PaymentStatusCompleted PaymentStatus = "completed" // 已完成
	PaymentStatusFailed    PaymentStatus = "failed"    // 失败
	PaymentStatusCancelled PaymentStatus = "cancelled" // 已取消
)

// IsTerminal 判断状态是否为终态（终态之间不允许再转换）
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}
