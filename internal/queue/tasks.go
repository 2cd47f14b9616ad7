package queue

import (
	"encoding/json"

	"github.com/jifen-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPointsLogPurge 积分流水清理任务
	TaskPointsLogPurge = constants.TaskPointsLogPurge
	// TaskInactiveUserCleanup 不活跃用户清理任务
	TaskInactiveUserCleanup = constants.TaskInactiveUserCleanup
	// TaskExchangeCardCleanup 兑换卡清理任务
	TaskExchangeCardCleanup = constants.TaskExchangeCardCleanup
	// TaskRedemptionReconcile 兑换对账修复任务
	TaskRedemptionReconcile = constants.TaskRedemptionReconcile
)

// PointsLogPurgePayload 积分流水清理任务载荷。Days 为 0 时使用保留配置。
type PointsLogPurgePayload struct {
	Days int `json:"days"`
}

// InactiveUserCleanupPayload 不活跃用户清理任务载荷
type InactiveUserCleanupPayload struct {
	Days      int   `json:"days"`
	MaxPoints int64 `json:"max_points"`
}

// ExchangeCardCleanupPayload 兑换卡清理任务载荷
type ExchangeCardCleanupPayload struct {
	Days   int    `json:"days"`
	Status string `json:"status"`
}

// RedemptionReconcilePayload 兑换对账修复任务载荷
type RedemptionReconcilePayload struct {
	Limit int `json:"limit"`
}

// NewPointsLogPurgeTask 创建积分流水清理任务
func NewPointsLogPurgeTask(payload PointsLogPurgePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPointsLogPurge, body), nil
}

// NewInactiveUserCleanupTask 创建不活跃用户清理任务
func NewInactiveUserCleanupTask(payload InactiveUserCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInactiveUserCleanup, body), nil
}

// NewExchangeCardCleanupTask 创建兑换卡清理任务
func NewExchangeCardCleanupTask(payload ExchangeCardCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExchangeCardCleanup, body), nil
}

// NewRedemptionReconcileTask 创建兑换对账修复任务
func NewRedemptionReconcileTask(payload RedemptionReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedemptionReconcile, body), nil
}
