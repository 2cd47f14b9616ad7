package models

import (
	"time"

	"gorm.io/gorm"
)

// ApiKey API 密钥表
type ApiKey struct {
	ID         uint           `gorm:"primarykey" json:"id"`                              // 主键
	Name       string         `gorm:"type:varchar(64);not null" json:"name"`             // 名称
	Key        string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"key"` // 密钥值
	Enabled    bool           `gorm:"not null;default:true;index" json:"enabled"`        // 是否启用
	Remark     string         `gorm:"type:varchar(255)" json:"remark"`                   // 备注
	LastUsedAt *time.Time     `json:"last_used_at"`                                      // 最后使用时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                        // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (ApiKey) TableName() string {
	return "api_keys"
}
