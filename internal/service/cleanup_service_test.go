package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCleanupTest(t *testing.T, retention config.RetentionConfig) (*CleanupService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cleanup_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	ledger := NewPointsLedgerService(logRepo, userRepo, false)
	users := NewUserAdminService(userRepo, ledger)
	cards := NewExchangeCardService(cardRepo, userRepo, ledger, 0)
	return NewCleanupService(retention, ledger, users, cards), db
}

func TestCleanupSkipsWhenDisabled(t *testing.T) {
	svc, db := setupCleanupTest(t, config.RetentionConfig{})

	old := models.PointsLog{
		UserID:     1,
		ChangeType: constants.PointsChangeTypeAdminAdjust,
		Direction:  constants.PointsDirectionIn,
		Amount:     10,
		CreatedAt:  time.Now().AddDate(0, 0, -365),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create log failed: %v", err)
	}

	// 配置与载荷都是 0，所有清理项都应跳过
	purged, err := svc.PurgePointsLogs(0)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 0 {
		t.Fatalf("expected 0 purged, got: %d", purged)
	}
	removed, err := svc.CleanupInactiveUsers(0, -1)
	if err != nil {
		t.Fatalf("cleanup users failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got: %d", removed)
	}
	cards, err := svc.CleanupExchangeCards(0, "")
	if err != nil {
		t.Fatalf("cleanup cards failed: %v", err)
	}
	if cards != 0 {
		t.Fatalf("expected 0 cards removed, got: %d", cards)
	}
}

func TestCleanupPayloadOverridesConfig(t *testing.T) {
	svc, db := setupCleanupTest(t, config.RetentionConfig{PointsLogDays: 365})

	old := models.PointsLog{
		UserID:     1,
		ChangeType: constants.PointsChangeTypeAdminAdjust,
		Direction:  constants.PointsDirectionIn,
		Amount:     10,
		CreatedAt:  time.Now().AddDate(0, 0, -100),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create log failed: %v", err)
	}

	// 载荷里的 90 天覆盖配置的 365 天
	purged, err := svc.PurgePointsLogs(90)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got: %d", purged)
	}
}

func TestCleanupInactiveUsers(t *testing.T) {
	svc, db := setupCleanupTest(t, config.RetentionConfig{InactiveUserDays: 180, InactiveUserMaxPoints: 10})

	longAgo := time.Now().AddDate(0, 0, -365)
	recently := time.Now()
	users := []models.User{
		{Email: "stale_poor@example.com", PasswordHash: "hash", Points: 5, Status: constants.UserStatusActive, LastActiveAt: &longAgo, CreatedAt: longAgo, UpdatedAt: longAgo},
		{Email: "stale_rich@example.com", PasswordHash: "hash", Points: 500, Status: constants.UserStatusActive, LastActiveAt: &longAgo, CreatedAt: longAgo, UpdatedAt: longAgo},
		{Email: "active@example.com", PasswordHash: "hash", Points: 5, Status: constants.UserStatusActive, LastActiveAt: &recently, CreatedAt: longAgo, UpdatedAt: recently},
		{Email: "never_active@example.com", PasswordHash: "hash", Points: 5, Status: constants.UserStatusActive, CreatedAt: longAgo, UpdatedAt: longAgo},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	removed, err := svc.CleanupInactiveUsers(0, -1)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	// 只删长期不活跃且低余额的：高余额、近期活跃、从未活跃的都保留
	if removed != 1 {
		t.Fatalf("expected 1 removed, got: %d", removed)
	}

	var remaining int64
	if err := db.Model(&models.User{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("expected 3 remaining users, got: %d", remaining)
	}
}

func TestCleanupRunAll(t *testing.T) {
	svc, db := setupCleanupTest(t, config.RetentionConfig{
		PointsLogDays:      90,
		ExchangeCardDays:   90,
		ExchangeCardStatus: constants.ExchangeCardStatusRedeemed,
	})

	old := time.Now().AddDate(0, 0, -120)
	oldLog := models.PointsLog{
		UserID:     1,
		ChangeType: constants.PointsChangeTypeAdminAdjust,
		Direction:  constants.PointsDirectionIn,
		Amount:     10,
		CreatedAt:  old,
	}
	if err := db.Create(&oldLog).Error; err != nil {
		t.Fatalf("create log failed: %v", err)
	}
	oldCard := models.ExchangeCard{
		CardNumber: "EC_RUNALL_OLD",
		CardName:   "过期卡",
		Points:     10,
		Status:     constants.ExchangeCardStatusRedeemed,
		CreatedAt:  old,
		UpdatedAt:  old,
	}
	if err := db.Create(&oldCard).Error; err != nil {
		t.Fatalf("create card failed: %v", err)
	}

	summary, err := svc.RunAll()
	if err != nil {
		t.Fatalf("run all failed: %v", err)
	}
	if summary.PointsLogsPurged != 1 {
		t.Fatalf("expected 1 purged log, got: %d", summary.PointsLogsPurged)
	}
	// 兑换卡按状态过滤删除；对账卡本身已被删，不产生补账
	if summary.ExchangeCardsRemoved != 1 {
		t.Fatalf("expected 1 removed card, got: %d", summary.ExchangeCardsRemoved)
	}
	if summary.InactiveUsersRemoved != 0 || summary.RedemptionsRepaired != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
