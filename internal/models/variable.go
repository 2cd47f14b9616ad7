package models

import (
	"time"

	"gorm.io/gorm"
)

// Variable 公共变量表（按名称寻址的键值配置）
type Variable struct {
	ID        uint           `gorm:"primarykey" json:"id"`                              // 主键
	Name      string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"` // 名称（全局唯一）
	Value     string         `gorm:"type:text" json:"value"`                            // 变量值
	Remark    string         `gorm:"type:varchar(255)" json:"remark"`                   // 备注
	Enabled   bool           `gorm:"not null;default:true;index" json:"enabled"`        // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (Variable) TableName() string {
	return "variables"
}
