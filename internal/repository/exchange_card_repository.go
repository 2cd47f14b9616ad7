package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExchangeCardRepository 兑换卡数据访问接口
type ExchangeCardRepository interface {
	GetByID(id uint) (*models.ExchangeCard, error)
	GetByCardNumber(cardNumber string) (*models.ExchangeCard, error)
	GetByCardNumberForUpdate(cardNumber string) (*models.ExchangeCard, error)
	CardNumberExists(cardNumber string) (bool, error)
	CreateCards(cards []models.ExchangeCard) error
	CreateBatch(batch *models.ExchangeCardBatch) error
	GetBatchByID(id uint) (*models.ExchangeCardBatch, error)
	Update(card *models.ExchangeCard) error
	MarkRedeemed(cardID uint, userID uint, redeemedAt time.Time) (int64, error)
	Delete(id uint) error
	DeleteByIDs(ids []uint) (int64, error)
	List(filter ExchangeCardListFilter) ([]models.ExchangeCard, int64, error)
	CountAll() (int64, error)
	CountByStatus(status string) (int64, error)
	SumPoints() (int64, error)
	SumPointsByStatus(status string) (int64, error)
	FindRedeemedMissingLog(limit int) ([]models.ExchangeCard, error)
	DeleteOlderThan(cutoff time.Time, status string) (int64, error)
	WithTx(tx *gorm.DB) *GormExchangeCardRepository
}

// GormExchangeCardRepository GORM 兑换卡仓储实现
type GormExchangeCardRepository struct {
	db *gorm.DB
}

// NewExchangeCardRepository 创建兑换卡仓储
func NewExchangeCardRepository(db *gorm.DB) *GormExchangeCardRepository {
	return &GormExchangeCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormExchangeCardRepository) WithTx(tx *gorm.DB) *GormExchangeCardRepository {
	if tx == nil {
		return r
	}
	return &GormExchangeCardRepository{db: tx}
}

// GetByID 按ID获取兑换卡
func (r *GormExchangeCardRepository) GetByID(id uint) (*models.ExchangeCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.ExchangeCard
	if err := r.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCardNumber 按卡号获取兑换卡
func (r *GormExchangeCardRepository) GetByCardNumber(cardNumber string) (*models.ExchangeCard, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, nil
	}
	var card models.ExchangeCard
	if err := r.db.Where("card_number = ?", cardNumber).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// GetByCardNumberForUpdate 按卡号加锁获取兑换卡（兑换事务内使用）
func (r *GormExchangeCardRepository) GetByCardNumberForUpdate(cardNumber string) (*models.ExchangeCard, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, nil
	}
	var card models.ExchangeCard
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("card_number = ?", cardNumber).
		First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// CardNumberExists 检查卡号是否已存在（含软删除记录，保证卡号不复用）
func (r *GormExchangeCardRepository) CardNumberExists(cardNumber string) (bool, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Unscoped().Model(&models.ExchangeCard{}).
		Where("card_number = ?", cardNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateCards 批量创建兑换卡
func (r *GormExchangeCardRepository) CreateCards(cards []models.ExchangeCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.Create(&cards).Error
}

// CreateBatch 创建批次记录
func (r *GormExchangeCardRepository) CreateBatch(batch *models.ExchangeCardBatch) error {
	return r.db.Create(batch).Error
}

// GetBatchByID 按ID获取批次
func (r *GormExchangeCardRepository) GetBatchByID(id uint) (*models.ExchangeCardBatch, error) {
	if id == 0 {
		return nil, nil
	}
	var batch models.ExchangeCardBatch
	if err := r.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// Update 更新兑换卡
func (r *GormExchangeCardRepository) Update(card *models.ExchangeCard) error {
	return r.db.Save(card).Error
}

// MarkRedeemed 条件更新兑换卡状态，返回影响行数。
// WHERE 同时限定 status=available，让状态迁移本身充当互斥闸门：
// 并发兑换只有一个请求能改到这一行。
func (r *GormExchangeCardRepository) MarkRedeemed(cardID uint, userID uint, redeemedAt time.Time) (int64, error) {
	if cardID == 0 || userID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.ExchangeCard{}).
		Where("id = ? AND status = ?", cardID, constants.ExchangeCardStatusAvailable).
		Updates(map[string]interface{}{
			"status":      constants.ExchangeCardStatusRedeemed,
			"redeemed_by": userID,
			"redeemed_at": redeemedAt,
		})
	return result.RowsAffected, result.Error
}

// Delete 软删除兑换卡
func (r *GormExchangeCardRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.ExchangeCard{}, id).Error
}

// DeleteByIDs 批量软删除兑换卡，返回删除行数
func (r *GormExchangeCardRepository) DeleteByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&models.ExchangeCard{})
	return result.RowsAffected, result.Error
}

// List 分页查询兑换卡
func (r *GormExchangeCardRepository) List(filter ExchangeCardListFilter) ([]models.ExchangeCard, int64, error) {
	query := r.db.Model(&models.ExchangeCard{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		operator := likeOperator(r.db)
		query = query.Where("(card_number "+operator+" ? OR card_name "+operator+" ? OR description "+operator+" ?)", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BatchID != 0 {
		query = query.Where("batch_id = ?", filter.BatchID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.ExchangeCard
	if err := query.Order("id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// CountAll 统计兑换卡总数
func (r *GormExchangeCardRepository) CountAll() (int64, error) {
	var total int64
	if err := r.db.Model(&models.ExchangeCard{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountByStatus 按状态统计兑换卡数量
func (r *GormExchangeCardRepository) CountByStatus(status string) (int64, error) {
	var total int64
	if err := r.db.Model(&models.ExchangeCard{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumPoints 汇总全部兑换卡面值
func (r *GormExchangeCardRepository) SumPoints() (int64, error) {
	var total int64
	if err := r.db.Model(&models.ExchangeCard{}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumPointsByStatus 按状态汇总兑换卡面值
func (r *GormExchangeCardRepository) SumPointsByStatus(status string) (int64, error) {
	var total int64
	if err := r.db.Model(&models.ExchangeCard{}).
		Where("status = ?", status).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// FindRedeemedMissingLog 查找已标记兑换但缺少对应入账流水的卡（对账任务使用）。
// 引用格式与兑换入账保持一致：card:<id>:redeem。
func (r *GormExchangeCardRepository) FindRedeemedMissingLog(limit int) ([]models.ExchangeCard, error) {
	if limit <= 0 {
		limit = 100
	}
	var cards []models.ExchangeCard
	if err := r.db.Model(&models.ExchangeCard{}).
		Where("status = ?", constants.ExchangeCardStatusRedeemed).
		Where("NOT EXISTS (SELECT 1 FROM points_logs WHERE points_logs.reference = 'card:' || exchange_cards.id || ':redeem')").
		Order("id asc").
		Limit(limit).
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// DeleteOlderThan 批量软删除早于截止时间的兑换卡，可按状态过滤，返回删除行数
func (r *GormExchangeCardRepository) DeleteOlderThan(cutoff time.Time, status string) (int64, error) {
	query := r.db.Where("created_at < ?", cutoff)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	result := query.Delete(&models.ExchangeCard{})
	return result.RowsAffected, result.Error
}
