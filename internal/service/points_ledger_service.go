package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"gorm.io/gorm"
)

// PointsLedgerService 积分流水服务
// users.points 只是流水折算值的缓存，所有余额变动都必须经由本服务
// 在同一事务内「写流水 + 更新缓存」，两者不允许分开提交。
type PointsLedgerService struct {
	logRepo                  repository.PointsLogRepository
	userRepo                 repository.UserRepository
	allowNegativeAdminAdjust bool
}

// PointsAppendInput 追加流水输入
type PointsAppendInput struct {
	UserID       uint
	PointsChange int64 // 正数入账，负数扣减
	ChangeType   string
	Reason       string
	TaskID       string
	OperatorID   *uint
	Reference    string // 幂等引用，可为空
}

// PointsCreditInput 事务内入账输入（兑换等外部事务调用）
type PointsCreditInput struct {
	UserID     uint
	Amount     int64 // 必须为正
	ChangeType string
	Reason     string
	Reference  string // 幂等引用，必填
}

// NewPointsLedgerService 创建积分流水服务
func NewPointsLedgerService(logRepo repository.PointsLogRepository, userRepo repository.UserRepository, allowNegativeAdminAdjust bool) *PointsLedgerService {
	return &PointsLedgerService{
		logRepo:                  logRepo,
		userRepo:                 userRepo,
		allowNegativeAdminAdjust: allowNegativeAdminAdjust,
	}
}

// Append 追加一条流水并同步更新余额缓存
func (s *PointsLedgerService) Append(input PointsAppendInput) (*models.PointsLog, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.PointsChange == 0 {
		return nil, ErrPointsChangeZero
	}
	changeType := strings.TrimSpace(input.ChangeType)
	if changeType == "" {
		return nil, ErrInvalidInput
	}

	var result *models.PointsLog
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		log, appendErr := s.appendInTx(tx, input)
		if appendErr != nil {
			return appendErr
		}
		result = log
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreditInTx 在外部事务内入账，按 reference 幂等：
// 引用已存在时直接返回已有流水，不重复加分。
func (s *PointsLedgerService) CreditInTx(tx *gorm.DB, input PointsCreditInput) (*models.PointsLog, error) {
	if tx == nil {
		return nil, ErrPointsLogCreateFailed
	}
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidInput
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, ErrPointsLogCreateFailed
	}

	logRepo := s.logRepo.WithTx(tx)
	exists, err := logRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return exists, nil
	}

	return s.appendInTx(tx, PointsAppendInput{
		UserID:       input.UserID,
		PointsChange: input.Amount,
		ChangeType:   input.ChangeType,
		Reason:       input.Reason,
		Reference:    reference,
	})
}

// appendInTx 在事务内完成「锁用户 → 算余额 → 写流水 → 更新缓存」
func (s *PointsLedgerService) appendInTx(tx *gorm.DB, input PointsAppendInput) (*models.PointsLog, error) {
	userRepo := s.userRepo.WithTx(tx)
	logRepo := s.logRepo.WithTx(tx)

	reference := strings.TrimSpace(input.Reference)
	if reference != "" {
		exists, err := logRepo.GetByReference(reference)
		if err != nil {
			return nil, err
		}
		if exists != nil {
			return exists, nil
		}
	}

	user, err := userRepo.GetByIDForUpdate(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	before := user.Points
	after := before + input.PointsChange
	if after < 0 {
		if input.ChangeType == constants.PointsChangeTypeAdminAdjust {
			if !s.allowNegativeAdminAdjust {
				return nil, ErrNegativeBalanceNotAllowed
			}
		} else {
			return nil, ErrInsufficientBalance
		}
	}

	direction := constants.PointsDirectionIn
	amount := input.PointsChange
	if input.PointsChange < 0 {
		direction = constants.PointsDirectionOut
		amount = -input.PointsChange
	}

	now := time.Now()
	if err := userRepo.UpdateFields(user.ID, map[string]interface{}{
		"points":     after,
		"updated_at": now,
	}); err != nil {
		return nil, ErrPointsLogCreateFailed
	}

	// 空引用存 NULL，唯一索引只约束非空引用
	var referenceValue *string
	if reference != "" {
		referenceValue = &reference
	}

	log := &models.PointsLog{
		UserID:        user.ID,
		ChangeType:    strings.TrimSpace(input.ChangeType),
		Direction:     direction,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        strings.TrimSpace(input.Reason),
		TaskID:        strings.TrimSpace(input.TaskID),
		OperatorID:    input.OperatorID,
		Reference:     referenceValue,
		CreatedAt:     now,
	}
	if err := logRepo.Create(log); err != nil {
		return nil, ErrPointsLogCreateFailed
	}
	return log, nil
}

// BalanceOf 获取用户当前余额（读缓存列）
func (s *PointsLedgerService) BalanceOf(userID uint) (int64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return user.Points, nil
}

// VerifyUserBalance 校验余额缓存与流水折算值是否一致（对账任务使用）。
// 折算从保留下来的最早一行的 balance_before 起算，流水被清理过也能校验。
func (s *PointsLedgerService) VerifyUserBalance(userID uint) (int64, int64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, 0, err
	}
	if user == nil {
		return 0, 0, ErrUserNotFound
	}
	first, err := s.logRepo.GetFirstByUserID(userID)
	if err != nil {
		return 0, 0, err
	}
	if first == nil {
		// 没有剩余流水，无从校验
		return user.Points, user.Points, nil
	}
	sum, err := s.logRepo.SumByUserID(userID)
	if err != nil {
		return 0, 0, err
	}
	folded := first.BalanceBefore + sum
	if folded != user.Points {
		return user.Points, folded, ErrBalanceMismatch
	}
	return user.Points, folded, nil
}

// History 分页查询流水
func (s *PointsLedgerService) History(filter repository.PointsLogListFilter) ([]models.PointsLog, int64, error) {
	return s.logRepo.List(filter)
}

// PurgeOlderThan 删除早于指定天数的流水，返回删除行数。
// 清理不回算余额：users.points 缓存保持权威，历史行只影响审计。
func (s *PointsLedgerService) PurgeOlderThan(days int) (int64, error) {
	if days <= 0 {
		return 0, ErrInvalidInput
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.logRepo.DeleteOlderThan(cutoff)
}

// BuildCardRedeemReference 构建兑换入账的幂等引用
func BuildCardRedeemReference(cardID uint) string {
	return fmt.Sprintf("card:%d:redeem", cardID)
}
