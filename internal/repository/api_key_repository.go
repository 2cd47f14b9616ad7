package repository

import (
	"errors"
	"strings"

	"github.com/jifen-next/internal/models"

	"gorm.io/gorm"
)

// ApiKeyRepository API 密钥数据访问接口
type ApiKeyRepository interface {
	GetByID(id uint) (*models.ApiKey, error)
	GetByName(name string) (*models.ApiKey, error)
	GetByKey(key string) (*models.ApiKey, error)
	Create(apiKey *models.ApiKey) error
	Update(apiKey *models.ApiKey) error
	List(filter ApiKeyListFilter) ([]models.ApiKey, int64, error)
	Delete(id uint) error
}

// GormApiKeyRepository GORM API 密钥仓储实现
type GormApiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository 创建 API 密钥仓储
func NewApiKeyRepository(db *gorm.DB) *GormApiKeyRepository {
	return &GormApiKeyRepository{db: db}
}

// GetByID 按ID获取密钥
func (r *GormApiKeyRepository) GetByID(id uint) (*models.ApiKey, error) {
	if id == 0 {
		return nil, nil
	}
	var apiKey models.ApiKey
	if err := r.db.First(&apiKey, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apiKey, nil
}

// GetByName 按名称获取密钥
func (r *GormApiKeyRepository) GetByName(name string) (*models.ApiKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var apiKey models.ApiKey
	if err := r.db.Where("name = ?", name).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apiKey, nil
}

// GetByKey 按密钥值获取记录
func (r *GormApiKeyRepository) GetByKey(key string) (*models.ApiKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var apiKey models.ApiKey
	if err := r.db.Where("key = ?", key).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apiKey, nil
}

// Create 创建密钥
func (r *GormApiKeyRepository) Create(apiKey *models.ApiKey) error {
	return r.db.Create(apiKey).Error
}

// Update 更新密钥
func (r *GormApiKeyRepository) Update(apiKey *models.ApiKey) error {
	return r.db.Save(apiKey).Error
}

// List 分页查询密钥
func (r *GormApiKeyRepository) List(filter ApiKeyListFilter) ([]models.ApiKey, int64, error) {
	query := r.db.Model(&models.ApiKey{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		operator := likeOperator(r.db)
		query = query.Where("(name "+operator+" ? OR remark "+operator+" ?)", like, like)
	}
	if filter.Enabled != nil {
		query = query.Where("enabled = ?", *filter.Enabled)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var apiKeys []models.ApiKey
	if err := query.Order("id desc").Find(&apiKeys).Error; err != nil {
		return nil, 0, err
	}
	return apiKeys, total, nil
}

// Delete 软删除密钥
func (r *GormApiKeyRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.ApiKey{}, id).Error
}
