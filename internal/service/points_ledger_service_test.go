package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPointsLedgerTest(t *testing.T, allowNegativeAdminAdjust bool) (*PointsLedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:points_ledger_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointsLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	logRepo := repository.NewPointsLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	return NewPointsLedgerService(logRepo, userRepo, allowNegativeAdminAdjust), db
}

func strPtr(s string) *string {
	return &s
}

func createLedgerTestUser(t *testing.T, db *gorm.DB, id uint, points int64) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("ledger_user_%d@example.com", id),
		PasswordHash: "hash",
		Points:       points,
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func TestPointsLedgerAppendChain(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 201, 0)

	first, err := svc.Append(PointsAppendInput{
		UserID:       201,
		PointsChange: 100,
		ChangeType:   constants.PointsChangeTypeAdminAdjust,
		Reason:       "初始发放",
	})
	if err != nil {
		t.Fatalf("append credit failed: %v", err)
	}
	if first.BalanceBefore != 0 || first.BalanceAfter != 100 {
		t.Fatalf("unexpected balance chain: before=%d after=%d", first.BalanceBefore, first.BalanceAfter)
	}
	if first.Direction != constants.PointsDirectionIn || first.Amount != 100 {
		t.Fatalf("unexpected credit log: %+v", first)
	}

	second, err := svc.Append(PointsAppendInput{
		UserID:       201,
		PointsChange: -30,
		ChangeType:   constants.PointsChangeTypeFeatureUsage,
		Reason:       "功能消耗",
		TaskID:       "task-1",
	})
	if err != nil {
		t.Fatalf("append debit failed: %v", err)
	}
	if second.BalanceBefore != 100 || second.BalanceAfter != 70 {
		t.Fatalf("unexpected balance chain: before=%d after=%d", second.BalanceBefore, second.BalanceAfter)
	}
	if second.Direction != constants.PointsDirectionOut || second.Amount != 30 {
		t.Fatalf("unexpected debit log: %+v", second)
	}

	balance, err := svc.BalanceOf(201)
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance != 70 {
		t.Fatalf("unexpected cached balance: %d", balance)
	}
}

func TestPointsLedgerAppendRejectsZeroChange(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 202, 10)

	if _, err := svc.Append(PointsAppendInput{
		UserID:       202,
		PointsChange: 0,
		ChangeType:   constants.PointsChangeTypeAdminAdjust,
	}); !errors.Is(err, ErrPointsChangeZero) {
		t.Fatalf("expected ErrPointsChangeZero, got: %v", err)
	}
}

func TestPointsLedgerInsufficientBalance(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 203, 5)

	if _, err := svc.Append(PointsAppendInput{
		UserID:       203,
		PointsChange: -10,
		ChangeType:   constants.PointsChangeTypeFeatureUsage,
	}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	balance, err := svc.BalanceOf(203)
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance != 5 {
		t.Fatalf("balance should be unchanged, got: %d", balance)
	}
}

func TestPointsLedgerNegativeAdminAdjust(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 204, 5)

	if _, err := svc.Append(PointsAppendInput{
		UserID:       204,
		PointsChange: -10,
		ChangeType:   constants.PointsChangeTypeAdminAdjust,
	}); !errors.Is(err, ErrNegativeBalanceNotAllowed) {
		t.Fatalf("expected ErrNegativeBalanceNotAllowed, got: %v", err)
	}

	allowed, db2 := setupPointsLedgerTest(t, true)
	createLedgerTestUser(t, db2, 205, 5)
	log, err := allowed.Append(PointsAppendInput{
		UserID:       205,
		PointsChange: -10,
		ChangeType:   constants.PointsChangeTypeAdminAdjust,
	})
	if err != nil {
		t.Fatalf("negative adjust should be allowed: %v", err)
	}
	if log.BalanceAfter != -5 {
		t.Fatalf("unexpected balance after: %d", log.BalanceAfter)
	}
}

func TestPointsLedgerReferenceIdempotent(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 206, 0)

	first, err := svc.Append(PointsAppendInput{
		UserID:       206,
		PointsChange: 50,
		ChangeType:   constants.PointsChangeTypeCardRedeem,
		Reference:    "card:1:redeem",
	})
	if err != nil {
		t.Fatalf("first append failed: %v", err)
	}

	second, err := svc.Append(PointsAppendInput{
		UserID:       206,
		PointsChange: 50,
		ChangeType:   constants.PointsChangeTypeCardRedeem,
		Reference:    "card:1:redeem",
	})
	if err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same log for duplicate reference: first=%d second=%d", first.ID, second.ID)
	}

	balance, err := svc.BalanceOf(206)
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance != 50 {
		t.Fatalf("duplicate reference should not credit twice, balance=%d", balance)
	}
}

func TestPointsLedgerCreditInTxValidation(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 207, 0)

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if _, creditErr := svc.CreditInTx(tx, PointsCreditInput{
			UserID:     207,
			Amount:     -1,
			ChangeType: constants.PointsChangeTypeCardRedeem,
			Reference:  "card:2:redeem",
		}); !errors.Is(creditErr, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for negative amount, got: %v", creditErr)
		}
		if _, creditErr := svc.CreditInTx(tx, PointsCreditInput{
			UserID:     207,
			Amount:     10,
			ChangeType: constants.PointsChangeTypeCardRedeem,
		}); !errors.Is(creditErr, ErrPointsLogCreateFailed) {
			t.Fatalf("expected ErrPointsLogCreateFailed for missing reference, got: %v", creditErr)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestPointsLedgerVerifyUserBalance(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 208, 0)

	if _, err := svc.Append(PointsAppendInput{
		UserID:       208,
		PointsChange: 80,
		ChangeType:   constants.PointsChangeTypeAdminAdjust,
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	cached, folded, err := svc.VerifyUserBalance(208)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if cached != 80 || folded != 80 {
		t.Fatalf("unexpected balances: cached=%d folded=%d", cached, folded)
	}

	// 人为破坏缓存列，校验应报不一致
	if err := db.Model(&models.User{}).Where("id = ?", 208).Update("points", 100).Error; err != nil {
		t.Fatalf("tamper balance failed: %v", err)
	}
	cached, folded, err = svc.VerifyUserBalance(208)
	if !errors.Is(err, ErrBalanceMismatch) {
		t.Fatalf("expected ErrBalanceMismatch, got: %v", err)
	}
	if cached != 100 || folded != 80 {
		t.Fatalf("unexpected mismatch values: cached=%d folded=%d", cached, folded)
	}
}

func TestPointsLedgerPurgeOlderThan(t *testing.T) {
	svc, db := setupPointsLedgerTest(t, false)
	createLedgerTestUser(t, db, 209, 15)

	old := models.PointsLog{
		UserID:        209,
		ChangeType:    constants.PointsChangeTypeAdminAdjust,
		Direction:     constants.PointsDirectionIn,
		Amount:        10,
		BalanceBefore: 0,
		BalanceAfter:  10,
		Reference:     strPtr("purge:old"),
		CreatedAt:     time.Now().AddDate(0, 0, -120),
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create old log failed: %v", err)
	}
	recent := models.PointsLog{
		UserID:        209,
		ChangeType:    constants.PointsChangeTypeAdminAdjust,
		Direction:     constants.PointsDirectionIn,
		Amount:        5,
		BalanceBefore: 10,
		BalanceAfter:  15,
		Reference:     strPtr("purge:recent"),
		CreatedAt:     time.Now(),
	}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatalf("create recent log failed: %v", err)
	}

	if _, err := svc.PurgeOlderThan(0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-positive days, got: %v", err)
	}

	deleted, err := svc.PurgeOlderThan(90)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got: %d", deleted)
	}

	var remaining int64
	if err := db.Model(&models.PointsLog{}).Where("user_id = ?", 209).Count(&remaining).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining row, got: %d", remaining)
	}

	// 清理后折算从剩余最早一行的 balance_before 起算，校验仍应通过
	cached, folded, err := svc.VerifyUserBalance(209)
	if err != nil {
		t.Fatalf("verify after purge failed: %v", err)
	}
	if cached != 15 || folded != 15 {
		t.Fatalf("unexpected balances after purge: cached=%d folded=%d", cached, folded)
	}
}
