package service

import (
	"context"
	"strings"
	"time"

	"github.com/jifen-next/internal/cache"
	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"
)

// UserAdminService 管理端用户管理服务
type UserAdminService struct {
	userRepo repository.UserRepository
	ledger   *PointsLedgerService
}

// UpdateUserInput 管理端用户更新输入
type UpdateUserInput struct {
	DisplayName *string
	Role        *string
	Notes       *string
	Status      *string
}

// AdjustPointsInput 管理员积分调整输入
type AdjustPointsInput struct {
	UserID       uint
	PointsChange int64
	Reason       string
	OperatorID   uint
}

// NewUserAdminService 创建用户管理服务
func NewUserAdminService(userRepo repository.UserRepository, ledger *PointsLedgerService) *UserAdminService {
	return &UserAdminService{
		userRepo: userRepo,
		ledger:   ledger,
	}
}

// ListUsers 分页查询用户
func (s *UserAdminService) ListUsers(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// GetUser 按ID获取用户
func (s *UserAdminService) GetUser(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateUser 更新用户资料（角色、备注、状态）
func (s *UserAdminService) UpdateUser(id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if role != constants.UserRoleNormal && role != constants.UserRolePaid {
			return nil, ErrInvalidInput
		}
		user.Role = role
	}
	if input.Notes != nil {
		user.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
			return nil, ErrInvalidInput
		}
		if user.Status != status {
			user.Status = status
			// 禁用时让已签发的 Token 立即失效
			if status == constants.UserStatusDisabled {
				now := time.Now()
				user.TokenVersion++
				user.TokenInvalidBefore = &now
			}
		}
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, nil
}

// AdjustPoints 管理员调整用户积分，走流水追加
func (s *UserAdminService) AdjustPoints(input AdjustPointsInput) (*models.PointsLog, error) {
	if input.OperatorID == 0 {
		return nil, ErrInvalidInput
	}
	operatorID := input.OperatorID
	return s.ledger.Append(PointsAppendInput{
		UserID:       input.UserID,
		PointsChange: input.PointsChange,
		ChangeType:   constants.PointsChangeTypeAdminAdjust,
		Reason:       strings.TrimSpace(input.Reason),
		OperatorID:   &operatorID,
	})
}

// DeleteUser 删除用户
func (s *UserAdminService) DeleteUser(id uint) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(user.ID); err != nil {
		return err
	}
	_ = cache.DelUserAuthState(context.Background(), user.ID)
	return nil
}

// CleanupInactiveUsers 清理不活跃且低余额的用户，返回删除数量
func (s *UserAdminService) CleanupInactiveUsers(days int, maxPoints int64) (int64, error) {
	if days <= 0 {
		return 0, ErrInvalidInput
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.userRepo.DeleteInactiveBefore(cutoff, maxPoints)
}
