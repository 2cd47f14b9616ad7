package models

import (
	"time"

	"gorm.io/gorm"
)

// AppConfig 功能目录表（分类/功能两级结构，功能通过 ParentID 挂在分类下）
type AppConfig struct {
	ID          uint           `gorm:"primarykey" json:"id"`                              // 主键
	Name        string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"` // 名称（全局唯一）
	Type        string         `gorm:"type:varchar(16);index;not null" json:"type"`       // 类型（category/function）
	ParentID    *uint          `gorm:"index" json:"parent_id"`                            // 父级分类 ID（功能类型必填）
	PointsCost  int64          `gorm:"not null;default:0" json:"points_cost"`             // 单次消耗积分（功能类型）
	Description string         `gorm:"type:varchar(255)" json:"description"`              // 描述
	Enabled     bool           `gorm:"not null;default:true;index" json:"enabled"`        // 是否启用
	SortOrder   int            `gorm:"not null;default:0" json:"sort_order"`              // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (AppConfig) TableName() string {
	return "app_configs"
}
