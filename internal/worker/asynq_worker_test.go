package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/provider"
	"github.com/jifen-next/internal/queue"
	"github.com/jifen-next/internal/repository"
	"github.com/jifen-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_consumer_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointsLog{},
		&models.ExchangeCard{},
		&models.ExchangeCardBatch{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	logRepo := repository.NewPointsLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	cardRepo := repository.NewExchangeCardRepository(db)
	ledger := service.NewPointsLedgerService(logRepo, userRepo, false)
	users := service.NewUserAdminService(userRepo, ledger)
	cards := service.NewExchangeCardService(cardRepo, userRepo, ledger, 0)
	cleanup := service.NewCleanupService(config.RetentionConfig{}, ledger, users, cards)

	return NewConsumer(&provider.Container{CleanupService: cleanup}), db
}

func TestConsumerHandlesNilSafely(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	if err := consumer.handlePointsLogPurge(context.Background(), nil); err != nil {
		t.Fatalf("nil task should be skipped: %v", err)
	}

	empty := NewConsumer(&provider.Container{})
	task, err := queue.NewPointsLogPurgeTask(queue.PointsLogPurgePayload{Days: 30})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := empty.handlePointsLogPurge(context.Background(), task); err != nil {
		t.Fatalf("missing cleanup service should be skipped: %v", err)
	}
}

func TestConsumerRejectsBadPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskPointsLogPurge, []byte("not-json"))
	if err := consumer.handlePointsLogPurge(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for bad payload")
	}
}

func TestConsumerPointsLogPurge(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	old := models.PointsLog{
		UserID:     1,
		ChangeType: constants.PointsChangeTypeAdminAdjust,
		Direction:  constants.PointsDirectionIn,
		Amount:     10,
		CreatedAt:  time.Now().AddDate(0, 0, -120),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create log failed: %v", err)
	}

	task, err := queue.NewPointsLogPurgeTask(queue.PointsLogPurgePayload{Days: 90})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handlePointsLogPurge(context.Background(), task); err != nil {
		t.Fatalf("handle purge failed: %v", err)
	}

	var remaining int64
	if err := db.Model(&models.PointsLog{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected all old logs purged, got: %d", remaining)
	}
}

func TestConsumerExchangeCardCleanup(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	old := time.Now().AddDate(0, 0, -100)
	card := models.ExchangeCard{
		CardNumber: "EC_WORKER_OLD",
		CardName:   "过期卡",
		Points:     10,
		Status:     constants.ExchangeCardStatusRedeemed,
		CreatedAt:  old,
		UpdatedAt:  old,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("create card failed: %v", err)
	}

	task, err := queue.NewExchangeCardCleanupTask(queue.ExchangeCardCleanupPayload{
		Days:   90,
		Status: constants.ExchangeCardStatusRedeemed,
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleExchangeCardCleanup(context.Background(), task); err != nil {
		t.Fatalf("handle cleanup failed: %v", err)
	}

	var remaining int64
	if err := db.Model(&models.ExchangeCard{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected old card removed, got: %d", remaining)
	}
}

func TestConsumerRedemptionReconcile(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	now := time.Now()
	user := models.User{
		ID:           401,
		Email:        "reconcile@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	redeemedBy := user.ID
	card := models.ExchangeCard{
		CardNumber: "EC_WORKER_RECON",
		CardName:   "对账卡",
		Points:     25,
		Status:     constants.ExchangeCardStatusRedeemed,
		RedeemedBy: &redeemedBy,
		RedeemedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("create card failed: %v", err)
	}

	task, err := queue.NewRedemptionReconcileTask(queue.RedemptionReconcilePayload{Limit: 10})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleRedemptionReconcile(context.Background(), task); err != nil {
		t.Fatalf("handle reconcile failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if reloaded.Points != 25 {
		t.Fatalf("expected repaired balance 25, got: %d", reloaded.Points)
	}
}
