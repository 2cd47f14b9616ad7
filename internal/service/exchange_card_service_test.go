package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupExchangeCardTest(t *testing.T) (*ExchangeCardService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:exchange_card_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	cardRepo := repository.NewExchangeCardRepository(db)
	logRepo := repository.NewPointsLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	ledger := NewPointsLedgerService(logRepo, userRepo, false)
	return NewExchangeCardService(cardRepo, userRepo, ledger, 0), db
}

func TestExchangeCardBatchCreate(t *testing.T) {
	svc, db := setupExchangeCardTest(t)

	batch, cards, err := svc.BatchCreate(BatchCreateCardsInput{
		CardName:  "新手礼包",
		Points:    50,
		Quantity:  50,
		Remark:    "测试批次",
		CreatedBy: 1,
	})
	if err != nil {
		t.Fatalf("batch create failed: %v", err)
	}
	if batch.Quantity != 50 || batch.Points != 50 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if len(cards) != 50 {
		t.Fatalf("expected 50 cards, got: %d", len(cards))
	}

	seen := make(map[string]bool, len(cards))
	for _, card := range cards {
		if card.Status != constants.ExchangeCardStatusAvailable {
			t.Fatalf("card should be available: %+v", card)
		}
		if card.BatchID != batch.ID {
			t.Fatalf("card not linked to batch: %+v", card)
		}
		if seen[card.CardNumber] {
			t.Fatalf("duplicate card number: %s", card.CardNumber)
		}
		seen[card.CardNumber] = true
	}

	var count int64
	if err := db.Model(&models.ExchangeCard{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 50 {
		t.Fatalf("expected 50 persisted cards, got: %d", count)
	}
}

func TestExchangeCardBatchCreateValidation(t *testing.T) {
	svc, _ := setupExchangeCardTest(t)

	if _, _, err := svc.BatchCreate(BatchCreateCardsInput{CardName: " ", Points: 10, Quantity: 1}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got: %v", err)
	}
	if _, _, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "卡", Points: 10, Quantity: 0}); !errors.Is(err, ErrCardQuantityInvalid) {
		t.Fatalf("expected ErrCardQuantityInvalid for 0, got: %v", err)
	}
	if _, _, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "卡", Points: 10, Quantity: 101}); !errors.Is(err, ErrCardQuantityInvalid) {
		t.Fatalf("expected ErrCardQuantityInvalid for 101, got: %v", err)
	}
	if _, _, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "卡", Points: 0, Quantity: 1}); !errors.Is(err, ErrCardPointsInvalid) {
		t.Fatalf("expected ErrCardPointsInvalid, got: %v", err)
	}
}

func TestExchangeCardRedeemExactlyOnce(t *testing.T) {
	svc, db := setupExchangeCardTest(t)
	createLedgerTestUser(t, db, 301, 0)

	_, cards, err := svc.BatchCreate(BatchCreateCardsInput{
		CardName: "充值卡",
		Points:   80,
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("batch create failed: %v", err)
	}
	cardNumber := cards[0].CardNumber

	result, err := svc.Redeem(RedeemCardInput{UserID: 301, CardNumber: cardNumber})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.PointsGranted != 80 || result.NewBalance != 80 {
		t.Fatalf("unexpected redeem result: %+v", result)
	}
	if result.Card.Status != constants.ExchangeCardStatusRedeemed {
		t.Fatalf("card should be redeemed: %+v", result.Card)
	}
	if result.Card.RedeemedBy == nil || *result.Card.RedeemedBy != 301 {
		t.Fatalf("redeemed_by not recorded: %+v", result.Card)
	}

	// 重复兑换不加分
	if _, err := svc.Redeem(RedeemCardInput{UserID: 301, CardNumber: cardNumber}); !errors.Is(err, ErrCardRedeemed) {
		t.Fatalf("expected ErrCardRedeemed, got: %v", err)
	}

	var user models.User
	if err := db.First(&user, 301).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.Points != 80 {
		t.Fatalf("balance should stay at 80, got: %d", user.Points)
	}

	var logs int64
	if err := db.Model(&models.PointsLog{}).Where("user_id = ?", 301).Count(&logs).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	if logs != 1 {
		t.Fatalf("expected exactly one credit log, got: %d", logs)
	}
}

func TestExchangeCardRedeemUnknownCard(t *testing.T) {
	svc, db := setupExchangeCardTest(t)
	createLedgerTestUser(t, db, 302, 0)

	if _, err := svc.Redeem(RedeemCardInput{UserID: 302, CardNumber: "EC00000000XXXX"}); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got: %v", err)
	}
	if _, err := svc.Redeem(RedeemCardInput{UserID: 0, CardNumber: "EC1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestExchangeCardRedeemDisabledUser(t *testing.T) {
	svc, db := setupExchangeCardTest(t)

	user := models.User{
		ID:           306,
		Email:        "disabled@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusDisabled,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	_, cards, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "禁用测试卡", Points: 20, Quantity: 1})
	if err != nil {
		t.Fatalf("batch create failed: %v", err)
	}

	if _, err := svc.Redeem(RedeemCardInput{UserID: 306, CardNumber: cards[0].CardNumber}); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got: %v", err)
	}

	// 卡保持可用，事务整体回滚
	card, err := svc.Find(cards[0].CardNumber)
	if err != nil {
		t.Fatalf("find card failed: %v", err)
	}
	if card.Status != constants.ExchangeCardStatusAvailable {
		t.Fatalf("card should stay available: %+v", card)
	}
}

func TestGenerateCardNumberDistinct(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool, 20)
	for i := 0; i < 20; i++ {
		cardNumber, err := generateCardNumber(now, i)
		if err != nil {
			t.Fatalf("generate card number failed: %v", err)
		}
		if !strings.HasPrefix(cardNumber, cardNumberPrefix) {
			t.Fatalf("unexpected prefix: %s", cardNumber)
		}
		if seen[cardNumber] {
			t.Fatalf("duplicate card number: %s", cardNumber)
		}
		seen[cardNumber] = true
	}

	suffix, err := randomHex(8)
	if err != nil {
		t.Fatalf("random hex failed: %v", err)
	}
	if len(suffix) != 16 {
		t.Fatalf("unexpected suffix length: %d", len(suffix))
	}
}

func TestExchangeCardUpdatePointsLockedAfterRedeem(t *testing.T) {
	svc, db := setupExchangeCardTest(t)
	createLedgerTestUser(t, db, 303, 0)

	_, cards, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "锁定卡", Points: 30, Quantity: 1})
	if err != nil {
		t.Fatalf("batch create failed: %v", err)
	}
	cardNumber := cards[0].CardNumber

	newPoints := int64(60)
	if _, err := svc.Update(cardNumber, UpdateCardInput{Points: &newPoints}); err != nil {
		t.Fatalf("update before redeem should succeed: %v", err)
	}

	if _, err := svc.Redeem(RedeemCardInput{UserID: 303, CardNumber: cardNumber}); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	if _, err := svc.Update(cardNumber, UpdateCardInput{Points: &newPoints}); !errors.Is(err, ErrCardPointsLocked) {
		t.Fatalf("expected ErrCardPointsLocked, got: %v", err)
	}

	// 名称在兑换后仍可改
	name := "改名后"
	updated, err := svc.Update(cardNumber, UpdateCardInput{CardName: &name})
	if err != nil {
		t.Fatalf("rename after redeem should succeed: %v", err)
	}
	if updated.CardName != "改名后" {
		t.Fatalf("unexpected card name: %s", updated.CardName)
	}
}

func TestExchangeCardBatchDelete(t *testing.T) {
	svc, db := setupExchangeCardTest(t)

	_, cards, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "待删卡", Points: 10, Quantity: 3})
	if err != nil {
		t.Fatalf("batch create failed: %v", err)
	}

	deleted, err := svc.BatchDelete([]string{cards[0].CardNumber, cards[1].CardNumber, "EC_NOT_EXIST"})
	if err != nil {
		t.Fatalf("batch delete failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got: %d", deleted)
	}

	var remaining int64
	if err := db.Model(&models.ExchangeCard{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining card, got: %d", remaining)
	}
}

func TestExchangeCardReconcile(t *testing.T) {
	svc, db := setupExchangeCardTest(t)
	createLedgerTestUser(t, db, 304, 0)

	// 模拟「标记兑换成功但入账缺失」的半途状态
	now := time.Now()
	redeemedBy := uint(304)
	card := models.ExchangeCard{
		CardNumber: "EC20250101RECON01",
		CardName:   "对账卡",
		Points:     40,
		Status:     constants.ExchangeCardStatusRedeemed,
		RedeemedBy: &redeemedBy,
		RedeemedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("create card failed: %v", err)
	}

	repaired, err := svc.Reconcile(100)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repaired card, got: %d", repaired)
	}

	var user models.User
	if err := db.First(&user, 304).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if user.Points != 40 {
		t.Fatalf("expected balance 40 after repair, got: %d", user.Points)
	}

	// 重复对账按 reference 幂等
	repaired, err = svc.Reconcile(100)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("expected 0 repaired on second run, got: %d", repaired)
	}
}

func TestExchangeCardRedeemThenSpendFlow(t *testing.T) {
	svc, db := setupExchangeCardTest(t)
	createLedgerTestUser(t, db, 305, 0)

	_, cards, err := svc.BatchCreate(BatchCreateCardsInput{CardName: "百分卡", Points: 100, Quantity: 1})
	if err != nil {
		t.Fatalf("batch create failed: %v", err)
	}
	cardNumber := cards[0].CardNumber

	result, err := svc.Redeem(RedeemCardInput{UserID: 305, CardNumber: cardNumber})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.NewBalance != 100 {
		t.Fatalf("expected balance 100 after redeem, got: %d", result.NewBalance)
	}
	if _, err := svc.Redeem(RedeemCardInput{UserID: 305, CardNumber: cardNumber}); !errors.Is(err, ErrCardRedeemed) {
		t.Fatalf("expected ErrCardRedeemed on repeat, got: %v", err)
	}

	ledger := svc.ledger
	spend, err := ledger.Append(PointsAppendInput{
		UserID:       305,
		PointsChange: -30,
		ChangeType:   constants.PointsChangeTypeFeatureUsage,
		Reason:       "test",
	})
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if spend.BalanceBefore != 100 || spend.BalanceAfter != 70 {
		t.Fatalf("unexpected spend chain: before=%d after=%d", spend.BalanceBefore, spend.BalanceAfter)
	}

	if _, err := ledger.Append(PointsAppendInput{
		UserID:       305,
		PointsChange: -1000,
		ChangeType:   constants.PointsChangeTypeFeatureUsage,
		Reason:       "test",
	}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}

	balance, err := ledger.BalanceOf(305)
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance != 70 {
		t.Fatalf("balance should stay at 70, got: %d", balance)
	}
}

func TestExchangeCardDeleteOlderThan(t *testing.T) {
	svc, db := setupExchangeCardTest(t)

	old := time.Now().AddDate(0, 0, -100)
	cards := []models.ExchangeCard{
		{CardNumber: "EC_OLD_AVAILABLE", CardName: "旧可用", Points: 10, Status: constants.ExchangeCardStatusAvailable, CreatedAt: old, UpdatedAt: old},
		{CardNumber: "EC_OLD_REDEEMED", CardName: "旧已兑", Points: 10, Status: constants.ExchangeCardStatusRedeemed, CreatedAt: old, UpdatedAt: old},
		{CardNumber: "EC_NEW", CardName: "新卡", Points: 10, Status: constants.ExchangeCardStatusAvailable, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	for i := range cards {
		if err := db.Create(&cards[i]).Error; err != nil {
			t.Fatalf("create card failed: %v", err)
		}
	}

	deleted, err := svc.DeleteOlderThan(90, constants.ExchangeCardStatusRedeemed)
	if err != nil {
		t.Fatalf("delete older than failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got: %d", deleted)
	}

	if _, err := svc.DeleteOlderThan(0, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}
