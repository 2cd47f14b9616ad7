package service

import (
	"errors"

	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/logger"
)

const reconcileBatchLimit = 200

// CleanupService 数据保留清理服务。
// 各项清理的默认参数来自 retention 配置，任务载荷可以按次覆盖；
// 天数为 0 的项视为关闭，直接跳过。
type CleanupService struct {
	retention config.RetentionConfig
	ledger    *PointsLedgerService
	users     *UserAdminService
	cards     *ExchangeCardService
}

// NewCleanupService 创建清理服务
func NewCleanupService(retention config.RetentionConfig, ledger *PointsLedgerService, users *UserAdminService, cards *ExchangeCardService) *CleanupService {
	return &CleanupService{
		retention: retention,
		ledger:    ledger,
		users:     users,
		cards:     cards,
	}
}

// CleanupSummary 一轮清理的汇总结果
type CleanupSummary struct {
	PointsLogsPurged     int64 `json:"points_logs_purged"`
	InactiveUsersRemoved int64 `json:"inactive_users_removed"`
	ExchangeCardsRemoved int64 `json:"exchange_cards_removed"`
	RedemptionsRepaired  int   `json:"redemptions_repaired"`
}

// PurgePointsLogs 清理过期积分流水。days 为 0 时取配置值，仍为 0 则跳过。
func (s *CleanupService) PurgePointsLogs(days int) (int64, error) {
	if days <= 0 {
		days = s.retention.PointsLogDays
	}
	if days <= 0 {
		return 0, nil
	}
	return s.ledger.PurgeOlderThan(days)
}

// CleanupInactiveUsers 清理长期不活跃的低余额用户
func (s *CleanupService) CleanupInactiveUsers(days int, maxPoints int64) (int64, error) {
	if days <= 0 {
		days = s.retention.InactiveUserDays
	}
	if days <= 0 {
		return 0, nil
	}
	if maxPoints < 0 {
		maxPoints = s.retention.InactiveUserMaxPoints
	}
	return s.users.CleanupInactiveUsers(days, maxPoints)
}

// CleanupExchangeCards 清理过期兑换卡
func (s *CleanupService) CleanupExchangeCards(days int, status string) (int64, error) {
	if days <= 0 {
		days = s.retention.ExchangeCardDays
	}
	if days <= 0 {
		return 0, nil
	}
	if status == "" {
		status = s.retention.ExchangeCardStatus
	}
	return s.cards.DeleteOlderThan(days, status)
}

// ReconcileRedemptions 修复已兑换但缺少入账流水的卡
func (s *CleanupService) ReconcileRedemptions(limit int) (int, error) {
	if limit <= 0 {
		limit = reconcileBatchLimit
	}
	return s.cards.Reconcile(limit)
}

// RunAll 按配置跑一轮全部清理，单项失败不阻断其余项
func (s *CleanupService) RunAll() (*CleanupSummary, error) {
	summary := &CleanupSummary{}
	var errs []error

	purged, err := s.PurgePointsLogs(0)
	if err != nil {
		logger.Warnw("cleanup_points_log_purge_failed", "error", err)
		errs = append(errs, err)
	}
	summary.PointsLogsPurged = purged

	removed, err := s.CleanupInactiveUsers(0, -1)
	if err != nil {
		logger.Warnw("cleanup_inactive_users_failed", "error", err)
		errs = append(errs, err)
	}
	summary.InactiveUsersRemoved = removed

	cards, err := s.CleanupExchangeCards(0, "")
	if err != nil {
		logger.Warnw("cleanup_exchange_cards_failed", "error", err)
		errs = append(errs, err)
	}
	summary.ExchangeCardsRemoved = cards

	repaired, err := s.ReconcileRedemptions(0)
	if err != nil {
		logger.Warnw("cleanup_redemption_reconcile_failed", "error", err)
		errs = append(errs, err)
	}
	summary.RedemptionsRepaired = repaired

	return summary, errors.Join(errs...)
}
