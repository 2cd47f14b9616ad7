package models

import (
	"time"

	"gorm.io/gorm"
)

// ExchangeCard 兑换卡表
// 卡号全局唯一（含软删除记录），状态只允许 available -> redeemed 单向流转。
type ExchangeCard struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                              // 主键
	CardNumber  string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"card_number"`          // 卡号（生成后不可修改）
	CardName    string         `gorm:"type:varchar(64);not null" json:"card_name"`                        // 卡名称
	Points      int64          `gorm:"not null" json:"points"`                                            // 面值积分
	Description string         `gorm:"type:varchar(255)" json:"description"`                              // 描述
	Status      string         `gorm:"type:varchar(16);index;not null;default:'available'" json:"status"` // 状态
	BatchID     uint           `gorm:"index" json:"batch_id"`                                             // 所属批次
	RedeemedBy  *uint          `gorm:"index" json:"redeemed_by"`                                          // 兑换用户 ID
	RedeemedAt  *time.Time     `gorm:"index" json:"redeemed_at"`                                          // 兑换时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间（保证卡号不被复用）
}

// TableName 指定表名
func (ExchangeCard) TableName() string {
	return "exchange_cards"
}

// IsAvailable 是否可兑换
func (c *ExchangeCard) IsAvailable() bool {
	return c.Status == "available"
}
