package model

import (
	"time"
)

// SupportRequestModel 支持请求（求助筹款）
type SupportRequestModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64  `json:"project_id" gorm:"index;default:0"` // 0 表示不归属任何项目
	RequesterId int64  `json:"requester_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	AmountNeeded int64 `json:"amount_needed" gorm:"not null"`
	// AmountRaised 派生值，只能由对账引擎或审计修复更新
	AmountRaised int64 `json:"amount_raised" gorm:"not null;default:0"`

	MediaURL   string               `json:"media_url"`
	Status     SupportRequestStatus `json:"status" gorm:"not null;default:'active';index"`
	CustomData string               `json:"custom_data" gorm:"type:text"`
}

// TableName 自定义表名
func (SupportRequestModel) TableName() string {
	return "support_requests"
}

// FundingPercentage 筹款完成百分比
func (s *SupportRequestModel) FundingPercentage() float64 {
	if s.AmountNeeded <= 0 {
		return 0
	}
	return float64(s.AmountRaised) / float64(s.AmountNeeded) * 100
}

// SupportRequestStatus 支持请求状态
type SupportRequestStatus string

const (
	SupportRequestStatusActive    SupportRequestStatus = "active"    // 进行中
	SupportRequestStatusCompleted SupportRequestStatus = "completed" // 已完成
	SupportRequestStatusCancelled SupportRequestStatus = "cancelled" // 已取消
)
