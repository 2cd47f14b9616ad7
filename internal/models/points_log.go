package models

import (
	"time"
)

// PointsLog 积分流水表（只追加，不允许更新或删除单条记录）
// 每条记录都带变动前后余额，按用户维度构成可校验的余额链。
type PointsLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                       // 主键
	UserID        uint      `gorm:"index:idx_points_logs_user_created;not null" json:"user_id"` // 用户 ID
	ChangeType    string    `gorm:"type:varchar(32);index;not null" json:"change_type"`         // 变动类型
	Direction     string    `gorm:"type:varchar(8);not null" json:"direction"`                  // 变动方向（in/out）
	Amount        int64     `gorm:"not null" json:"amount"`                                     // 变动数量（始终为正）
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`                             // 变动前余额
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`                              // 变动后余额
	Reason        string    `gorm:"type:varchar(255)" json:"reason"`                            // 变动原因
	TaskID        string    `gorm:"type:varchar(64);index" json:"task_id"`                      // 关联任务 ID（功能消耗/退款场景）
	OperatorID    *uint     `gorm:"index" json:"operator_id"`                                   // 操作管理员 ID（管理员调整场景）
	Reference     *string   `gorm:"type:varchar(128);uniqueIndex" json:"reference"`             // 幂等引用（如 card:<id>:redeem），空值存 NULL 避免唯一索引冲突
	CreatedAt     time.Time `gorm:"index:idx_points_logs_user_created" json:"created_at"`       // 创建时间
}

// TableName 指定表名
func (PointsLog) TableName() string {
	return "points_logs"
}

// IsCredit 是否为入账流水
func (l *PointsLog) IsCredit() bool {
	return l.Direction == "in"
}
