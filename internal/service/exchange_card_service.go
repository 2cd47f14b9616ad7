package service

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/logger"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"gorm.io/gorm"
)

const (
	cardNumberPrefix = "EC"
	cardBatchPrefix  = "ECB"

	batchCreateMaxQuantity = 100

	defaultCardNumberMaxRetries = 5
)

// ExchangeCardService 兑换卡服务
// 兑换是唯一合法的 available -> redeemed 迁移，且与积分入账同事务提交。
type ExchangeCardService struct {
	repo                 repository.ExchangeCardRepository
	userRepo             repository.UserRepository
	ledger               *PointsLedgerService
	cardNumberMaxRetries int
}

// BatchCreateCardsInput 批量生成兑换卡输入
type BatchCreateCardsInput struct {
	CardName    string
	Points      int64
	Description string
	Quantity    int
	Remark      string
	CreatedBy   uint
}

// UpdateCardInput 兑换卡更新输入
type UpdateCardInput struct {
	CardName    *string
	Points      *int64
	Description *string
}

// RedeemCardInput 兑换输入
type RedeemCardInput struct {
	UserID     uint
	CardNumber string
}

// RedeemCardResult 兑换结果
type RedeemCardResult struct {
	Card          *models.ExchangeCard
	PointsGranted int64
	NewBalance    int64
}

// NewExchangeCardService 创建兑换卡服务
func NewExchangeCardService(repo repository.ExchangeCardRepository, userRepo repository.UserRepository, ledger *PointsLedgerService, cardNumberMaxRetries int) *ExchangeCardService {
	if cardNumberMaxRetries <= 0 {
		cardNumberMaxRetries = defaultCardNumberMaxRetries
	}
	return &ExchangeCardService{
		repo:                 repo,
		userRepo:             userRepo,
		ledger:               ledger,
		cardNumberMaxRetries: cardNumberMaxRetries,
	}
}

// BatchCreate 批量生成兑换卡
func (s *ExchangeCardService) BatchCreate(input BatchCreateCardsInput) (*models.ExchangeCardBatch, []models.ExchangeCard, error) {
	name := strings.TrimSpace(input.CardName)
	if name == "" {
		return nil, nil, ErrNameRequired
	}
	if input.Quantity < 1 || input.Quantity > batchCreateMaxQuantity {
		return nil, nil, ErrCardQuantityInvalid
	}
	if input.Points <= 0 {
		return nil, nil, ErrCardPointsInvalid
	}

	now := time.Now()
	cards := make([]models.ExchangeCard, 0, input.Quantity)
	for i := 0; i < input.Quantity; i++ {
		cardNumber, err := s.generateUniqueCardNumber(now, i)
		if err != nil {
			return nil, nil, err
		}
		cards = append(cards, models.ExchangeCard{
			CardNumber:  cardNumber,
			CardName:    name,
			Points:      input.Points,
			Description: strings.TrimSpace(input.Description),
			Status:      constants.ExchangeCardStatusAvailable,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	batchNo, err := generateCardBatchNo(now)
	if err != nil {
		return nil, nil, ErrCardCreateFailed
	}
	batch := &models.ExchangeCardBatch{
		BatchNo:   batchNo,
		Points:    input.Points,
		Quantity:  input.Quantity,
		CreatedBy: input.CreatedBy,
		Remark:    strings.TrimSpace(input.Remark),
		CreatedAt: now,
	}

	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateBatch(batch); err != nil {
			return ErrCardCreateFailed
		}
		for i := range cards {
			cards[i].BatchID = batch.ID
		}
		if err := repo.CreateCards(cards); err != nil {
			return ErrCardCreateFailed
		}
		return nil
	}); err != nil {
		return nil, nil, ErrCardCreateFailed
	}

	return batch, cards, nil
}

// Find 按卡号获取兑换卡
func (s *ExchangeCardService) Find(cardNumber string) (*models.ExchangeCard, error) {
	card, err := s.repo.GetByCardNumber(strings.TrimSpace(cardNumber))
	if err != nil {
		return nil, ErrCardFetchFailed
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// List 分页查询兑换卡
func (s *ExchangeCardService) List(filter repository.ExchangeCardListFilter) ([]models.ExchangeCard, int64, error) {
	return s.repo.List(filter)
}

// Update 更新兑换卡。名称与描述任何状态都可改，面值只在未兑换时可改。
func (s *ExchangeCardService) Update(cardNumber string, input UpdateCardInput) (*models.ExchangeCard, error) {
	card, err := s.Find(cardNumber)
	if err != nil {
		return nil, err
	}

	if input.Points != nil {
		if !card.IsAvailable() {
			return nil, ErrCardPointsLocked
		}
		if *input.Points <= 0 {
			return nil, ErrCardPointsInvalid
		}
		card.Points = *input.Points
	}
	if input.CardName != nil {
		name := strings.TrimSpace(*input.CardName)
		if name == "" {
			return nil, ErrNameRequired
		}
		card.CardName = name
	}
	if input.Description != nil {
		card.Description = strings.TrimSpace(*input.Description)
	}
	card.UpdatedAt = time.Now()

	if err := s.repo.Update(card); err != nil {
		return nil, ErrCardUpdateFailed
	}
	return card, nil
}

// Delete 按卡号删除兑换卡。历史流水不受影响，reason 里保留的卡名只是文本。
func (s *ExchangeCardService) Delete(cardNumber string) error {
	card, err := s.Find(cardNumber)
	if err != nil {
		return err
	}
	return s.repo.Delete(card.ID)
}

// BatchDelete 批量删除兑换卡，返回删除数量
func (s *ExchangeCardService) BatchDelete(cardNumbers []string) (int64, error) {
	ids := make([]uint, 0, len(cardNumbers))
	for _, cardNumber := range cardNumbers {
		card, err := s.repo.GetByCardNumber(strings.TrimSpace(cardNumber))
		if err != nil {
			return 0, ErrCardFetchFailed
		}
		if card == nil {
			continue
		}
		ids = append(ids, card.ID)
	}
	return s.repo.DeleteByIDs(ids)
}

// Redeem 兑换一张卡：标记卡已兑换并给用户入账，同一事务提交。
// 同一张卡重复兑换返回 ErrCardRedeemed，不会重复加分。
func (s *ExchangeCardService) Redeem(input RedeemCardInput) (*RedeemCardResult, error) {
	cardNumber := strings.TrimSpace(input.CardNumber)
	if input.UserID == 0 || cardNumber == "" {
		return nil, ErrInvalidInput
	}

	var result *RedeemCardResult
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.WithTx(tx).GetByID(input.UserID)
		if err != nil {
			return ErrCardFetchFailed
		}
		if user == nil {
			return ErrUserNotFound
		}
		// 禁用用户不允许兑换
		if user.Status != constants.UserStatusActive {
			return ErrUserDisabled
		}

		repo := s.repo.WithTx(tx)
		card, err := repo.GetByCardNumberForUpdate(cardNumber)
		if err != nil {
			return ErrCardFetchFailed
		}
		if card == nil {
			return ErrCardNotFound
		}
		if card.Status == constants.ExchangeCardStatusRedeemed {
			return ErrCardRedeemed
		}
		if card.Points <= 0 {
			return ErrCardPointsInvalid
		}

		// 条件更新限定 status=available，并发兑换只有一个请求能改到这一行
		now := time.Now()
		affected, err := repo.MarkRedeemed(card.ID, input.UserID, now)
		if err != nil {
			return ErrCardUpdateFailed
		}
		if affected == 0 {
			return ErrCardRedeemed
		}

		log, creditErr := s.ledger.CreditInTx(tx, PointsCreditInput{
			UserID:     input.UserID,
			Amount:     card.Points,
			ChangeType: constants.PointsChangeTypeCardRedeem,
			Reason:     card.CardName,
			Reference:  BuildCardRedeemReference(card.ID),
		})
		if creditErr != nil {
			return creditErr
		}

		card.Status = constants.ExchangeCardStatusRedeemed
		card.RedeemedBy = &input.UserID
		card.RedeemedAt = &now
		result = &RedeemCardResult{
			Card:          card,
			PointsGranted: log.Amount,
			NewBalance:    log.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile 对账：把已标记兑换但缺少入账流水的卡补上流水（向前恢复）。
// 入账按 reference 幂等，重复跑不会重复加分。返回补账数量。
func (s *ExchangeCardService) Reconcile(limit int) (int, error) {
	cards, err := s.repo.FindRedeemedMissingLog(limit)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range cards {
		card := &cards[i]
		if card.RedeemedBy == nil || *card.RedeemedBy == 0 {
			logger.Warnw("redemption_reconcile_missing_user", "card_id", card.ID)
			continue
		}
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			_, creditErr := s.ledger.CreditInTx(tx, PointsCreditInput{
				UserID:     *card.RedeemedBy,
				Amount:     card.Points,
				ChangeType: constants.PointsChangeTypeCardRedeem,
				Reason:     card.CardName,
				Reference:  BuildCardRedeemReference(card.ID),
			})
			return creditErr
		})
		if err != nil {
			logger.Errorw("redemption_reconcile_failed", "card_id", card.ID, "error", err)
			continue
		}
		repaired++
	}
	return repaired, nil
}

// DeleteOlderThan 删除早于指定天数的兑换卡，可按状态过滤，返回删除行数
func (s *ExchangeCardService) DeleteOlderThan(days int, status string) (int64, error) {
	if days <= 0 {
		return 0, ErrInvalidInput
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.repo.DeleteOlderThan(cutoff, strings.TrimSpace(status))
}

// generateUniqueCardNumber 生成卡号并校验唯一性，冲突时有限次重试
func (s *ExchangeCardService) generateUniqueCardNumber(now time.Time, index int) (string, error) {
	for attempt := 0; attempt < s.cardNumberMaxRetries; attempt++ {
		cardNumber, err := generateCardNumber(now, index)
		if err != nil {
			return "", ErrCardCreateFailed
		}
		exists, err := s.repo.CardNumberExists(cardNumber)
		if err != nil {
			return "", ErrCardFetchFailed
		}
		if !exists {
			return cardNumber, nil
		}
	}
	return "", ErrCardNumberExhausted
}

func generateCardNumber(now time.Time, index int) (string, error) {
	suffix, err := randomHex(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%02d%s", cardNumberPrefix, now.Format("20060102"), index%100, strings.ToUpper(suffix)), nil
}

func generateCardBatchNo(now time.Time) (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%s", cardBatchPrefix, now.Format("20060102150405"), strings.ToUpper(suffix)), nil
}

// randomHex 随机熵不可用时直接报错，不退化成可预测的卡号
func randomHex(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
