package model

import (
	"time"
)

// WalletModel 钱包，按 (用户, 项目, 币种) 三元组唯一
// ProjectId 为 0 表示用户主钱包。余额只允许增量更新，永不覆盖写。
type WalletModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserId    int64  `json:"user_id" gorm:"not null;uniqueIndex:idx_wallet_key"`
	ProjectId int64  `json:"project_id" gorm:"default:0;uniqueIndex:idx_wallet_key"`
	Currency  string `json:"currency" gorm:"not null;default:'NGN';uniqueIndex:idx_wallet_key"`

	// Balance 派生值，等于该钱包已完成贷记之和减去借记之和，恒 >= 0
	Balance int64 `json:"balance" gorm:"not null;default:0"`
}

// TableName 自定义表名
func (WalletModel) TableName() string {
	return "wallets"
}
