package models

import (
	"time"

	"gorm.io/gorm"
)

// ExchangeCardBatch 兑换卡批次表，记录每次批量生成的参数
type ExchangeCardBatch struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                  // 主键
	BatchNo   string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"batch_no"` // 批次号
	Points    int64          `gorm:"not null" json:"points"`                                // 面值积分
	Quantity  int            `gorm:"not null" json:"quantity"`                              // 生成数量
	CreatedBy uint           `gorm:"index" json:"created_by"`                               // 创建管理员 ID
	Remark    string         `gorm:"type:varchar(255)" json:"remark"`                       // 备注
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (ExchangeCardBatch) TableName() string {
	return "exchange_card_batches"
}
