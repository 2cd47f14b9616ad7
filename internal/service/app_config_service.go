package service

import (
	"strings"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"
)

// AppConfigService 功能目录服务（分类/功能两级）
type AppConfigService struct {
	repo repository.AppConfigRepository
}

// UpsertAppConfigInput 创建/更新功能配置输入
type UpsertAppConfigInput struct {
	Name        string
	Type        string
	ParentID    *uint
	PointsCost  int64
	Description string
	SortOrder   int
}

// NewAppConfigService 创建功能目录服务
func NewAppConfigService(repo repository.AppConfigRepository) *AppConfigService {
	return &AppConfigService{repo: repo}
}

// List 分页查询功能配置
func (s *AppConfigService) List(filter repository.AppConfigListFilter) ([]models.AppConfig, int64, error) {
	return s.repo.List(filter)
}

// GetFunctionsByCategory 按分类获取功能列表
func (s *AppConfigService) GetFunctionsByCategory(categoryID uint, enabledOnly bool) ([]models.AppConfig, error) {
	category, err := s.repo.GetByID(categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil || category.Type != constants.AppConfigTypeCategory {
		return nil, ErrAppConfigNotFound
	}
	return s.repo.ListFunctionsByCategory(categoryID, enabledOnly)
}

// Upsert 按名称创建或更新功能配置
func (s *AppConfigService) Upsert(input UpsertAppConfigInput) (*models.AppConfig, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	configType := strings.TrimSpace(input.Type)
	if configType != constants.AppConfigTypeCategory && configType != constants.AppConfigTypeFunction {
		return nil, ErrInvalidInput
	}
	if input.PointsCost < 0 {
		return nil, ErrInvalidInput
	}

	// 功能必须挂在已有分类下，分类不允许有父级
	if configType == constants.AppConfigTypeFunction {
		if input.ParentID == nil || *input.ParentID == 0 {
			return nil, ErrParentInvalid
		}
		parent, err := s.repo.GetByID(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.Type != constants.AppConfigTypeCategory {
			return nil, ErrParentInvalid
		}
	} else if input.ParentID != nil && *input.ParentID != 0 {
		return nil, ErrParentInvalid
	}

	now := time.Now()
	exist, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if exist == nil {
		item := &models.AppConfig{
			Name:        name,
			Type:        configType,
			ParentID:    input.ParentID,
			PointsCost:  input.PointsCost,
			Description: strings.TrimSpace(input.Description),
			Enabled:     true,
			SortOrder:   input.SortOrder,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(item); err != nil {
			return nil, err
		}
		return item, nil
	}

	if exist.Type != configType {
		return nil, ErrInvalidInput
	}
	exist.ParentID = input.ParentID
	exist.PointsCost = input.PointsCost
	exist.Description = strings.TrimSpace(input.Description)
	exist.SortOrder = input.SortOrder
	exist.UpdatedAt = now
	if err := s.repo.Update(exist); err != nil {
		return nil, err
	}
	return exist, nil
}

// Toggle 切换启用状态
func (s *AppConfigService) Toggle(id uint) (*models.AppConfig, error) {
	item, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrAppConfigNotFound
	}
	item.Enabled = !item.Enabled
	item.UpdatedAt = time.Now()
	if err := s.repo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete 删除功能配置。分类下还有功能时不允许删除。
func (s *AppConfigService) Delete(id uint) error {
	item, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrAppConfigNotFound
	}
	if item.Type == constants.AppConfigTypeCategory {
		children, err := s.repo.CountChildren(item.ID)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrInvalidInput
		}
	}
	return s.repo.Delete(item.ID)
}
