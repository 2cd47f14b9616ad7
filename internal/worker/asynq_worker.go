package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jifen-next/internal/logger"
	"github.com/jifen-next/internal/provider"
	"github.com/jifen-next/internal/queue"
	"github.com/jifen-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPointsLogPurge, c.handlePointsLogPurge)
	mux.HandleFunc(queue.TaskInactiveUserCleanup, c.handleInactiveUserCleanup)
	mux.HandleFunc(queue.TaskExchangeCardCleanup, c.handleExchangeCardCleanup)
	mux.HandleFunc(queue.TaskRedemptionReconcile, c.handleRedemptionReconcile)
}

func (c *Consumer) handlePointsLogPurge(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_points_log_purge_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PointsLogPurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_points_log_purge_unmarshal_failed", "error", err)
		return err
	}
	if c.CleanupService == nil {
		logger.Warnw("worker_points_log_purge_skip_cleanup_service_nil")
		return nil
	}
	purged, err := c.CleanupService.PurgePointsLogs(payload.Days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			logger.Debugw("worker_points_log_purge_skip_invalid_payload", "days", payload.Days)
			return nil
		}
		logger.Warnw("worker_points_log_purge_failed", "days", payload.Days, "error", err)
		return err
	}
	if purged > 0 {
		logger.Infow("worker_points_log_purge_done", "days", payload.Days, "purged", purged)
	}
	return nil
}

func (c *Consumer) handleInactiveUserCleanup(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_inactive_user_cleanup_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.InactiveUserCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_inactive_user_cleanup_unmarshal_failed", "error", err)
		return err
	}
	if c.CleanupService == nil {
		logger.Warnw("worker_inactive_user_cleanup_skip_cleanup_service_nil")
		return nil
	}
	removed, err := c.CleanupService.CleanupInactiveUsers(payload.Days, payload.MaxPoints)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			logger.Debugw("worker_inactive_user_cleanup_skip_invalid_payload", "days", payload.Days)
			return nil
		}
		logger.Warnw("worker_inactive_user_cleanup_failed", "days", payload.Days, "error", err)
		return err
	}
	if removed > 0 {
		logger.Infow("worker_inactive_user_cleanup_done", "days", payload.Days, "removed", removed)
	}
	return nil
}

func (c *Consumer) handleExchangeCardCleanup(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_exchange_card_cleanup_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ExchangeCardCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_exchange_card_cleanup_unmarshal_failed", "error", err)
		return err
	}
	if c.CleanupService == nil {
		logger.Warnw("worker_exchange_card_cleanup_skip_cleanup_service_nil")
		return nil
	}
	removed, err := c.CleanupService.CleanupExchangeCards(payload.Days, payload.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			logger.Debugw("worker_exchange_card_cleanup_skip_invalid_payload", "days", payload.Days, "status", payload.Status)
			return nil
		}
		logger.Warnw("worker_exchange_card_cleanup_failed", "days", payload.Days, "error", err)
		return err
	}
	if removed > 0 {
		logger.Infow("worker_exchange_card_cleanup_done", "days", payload.Days, "removed", removed)
	}
	return nil
}

func (c *Consumer) handleRedemptionReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redemption_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedemptionReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redemption_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if c.CleanupService == nil {
		logger.Warnw("worker_redemption_reconcile_skip_cleanup_service_nil")
		return nil
	}
	repaired, err := c.CleanupService.ReconcileRedemptions(payload.Limit)
	if err != nil {
		logger.Warnw("worker_redemption_reconcile_failed", "limit", payload.Limit, "error", err)
		return err
	}
	if repaired > 0 {
		logger.Infow("worker_redemption_reconcile_done", "repaired", repaired)
	}
	return nil
}
