package model

import (
	"time"
)

// ProjectModel 项目（聚合多个支持请求）
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	AdminId     int64  `json:"admin_id" gorm:"not null;index"`

	FundingGoal int64 `json:"funding_goal" gorm:"not null"`
	// CurrentFunding 派生值，等于其下所有支持请求 amount_raised 之和
	CurrentFunding int64 `json:"current_funding" gorm:"not null;default:0"`

	Status ProjectStatus `json:"status" gorm:"not null;default:'active';index"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "projects"
}

// FundingPercentage 筹款完成百分比
func (p *ProjectModel) FundingPercentage() float64 {
	if p.FundingGoal <= 0 {
		return 0
	}
	return float64(p.CurrentFunding) / float64(p.FundingGoal) * 100
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"    // 进行中
	ProjectStatusCompleted ProjectStatus = "completed" // 已完成（达到筹款目标后单向转换）
	ProjectStatusCancelled ProjectStatus = "cancelled" // 已取消
)
