package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/logger"
	"github.com/jifen-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultRetentionInterval = time.Hour

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CleanupService != nil {
		go s.runRetentionLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runRetentionLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.CleanupService == nil {
		return
	}
	interval := defaultRetentionInterval
	if s.consumer.Config != nil && s.consumer.Config.Retention.IntervalMinutes > 0 {
		interval = time.Duration(s.consumer.Config.Retention.IntervalMinutes) * time.Minute
	}
	runOnce := func() {
		summary, err := s.consumer.CleanupService.RunAll()
		if err != nil {
			logger.Warnw("worker_retention_run_failed", "error", err)
		}
		if summary != nil {
			logger.Infow("worker_retention_run_done",
				"points_logs_purged", summary.PointsLogsPurged,
				"inactive_users_removed", summary.InactiveUsersRemoved,
				"exchange_cards_removed", summary.ExchangeCardsRemoved,
				"redemptions_repaired", summary.RedemptionsRepaired,
			)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
