package repository

import (
	"errors"
	"strings"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"

	"gorm.io/gorm"
)

// AppConfigRepository 功能配置数据访问接口
type AppConfigRepository interface {
	GetByID(id uint) (*models.AppConfig, error)
	GetByName(name string) (*models.AppConfig, error)
	Create(item *models.AppConfig) error
	Update(item *models.AppConfig) error
	List(filter AppConfigListFilter) ([]models.AppConfig, int64, error)
	ListFunctionsByCategory(categoryID uint, enabledOnly bool) ([]models.AppConfig, error)
	CountChildren(parentID uint) (int64, error)
	Delete(id uint) error
}

// GormAppConfigRepository GORM 功能配置仓储实现
type GormAppConfigRepository struct {
	db *gorm.DB
}

// NewAppConfigRepository 创建功能配置仓储
func NewAppConfigRepository(db *gorm.DB) *GormAppConfigRepository {
	return &GormAppConfigRepository{db: db}
}

// GetByID 按ID获取配置
func (r *GormAppConfigRepository) GetByID(id uint) (*models.AppConfig, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.AppConfig
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByName 按名称获取配置
func (r *GormAppConfigRepository) GetByName(name string) (*models.AppConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var item models.AppConfig
	if err := r.db.Where("name = ?", name).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建配置
func (r *GormAppConfigRepository) Create(item *models.AppConfig) error {
	return r.db.Create(item).Error
}

// Update 更新配置
func (r *GormAppConfigRepository) Update(item *models.AppConfig) error {
	return r.db.Save(item).Error
}

// List 分页查询配置
func (r *GormAppConfigRepository) List(filter AppConfigListFilter) ([]models.AppConfig, int64, error) {
	query := r.db.Model(&models.AppConfig{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		operator := likeOperator(r.db)
		query = query.Where("(name "+operator+" ? OR description "+operator+" ?)", like, like)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.Enabled != nil {
		query = query.Where("enabled = ?", *filter.Enabled)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.AppConfig
	if err := query.Order("sort_order asc").Order("id asc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListFunctionsByCategory 按分类获取功能列表
func (r *GormAppConfigRepository) ListFunctionsByCategory(categoryID uint, enabledOnly bool) ([]models.AppConfig, error) {
	if categoryID == 0 {
		return []models.AppConfig{}, nil
	}
	query := r.db.Model(&models.AppConfig{}).
		Where("type = ? AND parent_id = ?", constants.AppConfigTypeFunction, categoryID)
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	var items []models.AppConfig
	if err := query.Order("sort_order asc").Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountChildren 统计分类下的功能数量
func (r *GormAppConfigRepository) CountChildren(parentID uint) (int64, error) {
	if parentID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.AppConfig{}).
		Where("parent_id = ?", parentID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Delete 软删除配置
func (r *GormAppConfigRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.AppConfig{}, id).Error
}
