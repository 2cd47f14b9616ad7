package repository

import (
	"errors"
	"strings"

	"github.com/jifen-next/internal/models"

	"gorm.io/gorm"
)

// VariableRepository 公共变量数据访问接口
type VariableRepository interface {
	GetByID(id uint) (*models.Variable, error)
	GetByName(name string) (*models.Variable, error)
	Create(variable *models.Variable) error
	Update(variable *models.Variable) error
	List(filter VariableListFilter) ([]models.Variable, int64, error)
	Delete(id uint) error
}

// GormVariableRepository GORM 公共变量仓储实现
type GormVariableRepository struct {
	db *gorm.DB
}

// NewVariableRepository 创建公共变量仓储
func NewVariableRepository(db *gorm.DB) *GormVariableRepository {
	return &GormVariableRepository{db: db}
}

// GetByID 按ID获取变量
func (r *GormVariableRepository) GetByID(id uint) (*models.Variable, error) {
	if id == 0 {
		return nil, nil
	}
	var variable models.Variable
	if err := r.db.First(&variable, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variable, nil
}

// GetByName 按名称获取变量
func (r *GormVariableRepository) GetByName(name string) (*models.Variable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var variable models.Variable
	if err := r.db.Where("name = ?", name).First(&variable).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variable, nil
}

// Create 创建变量
func (r *GormVariableRepository) Create(variable *models.Variable) error {
	return r.db.Create(variable).Error
}

// Update 更新变量
func (r *GormVariableRepository) Update(variable *models.Variable) error {
	return r.db.Save(variable).Error
}

// List 分页查询变量
func (r *GormVariableRepository) List(filter VariableListFilter) ([]models.Variable, int64, error) {
	query := r.db.Model(&models.Variable{})

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

	var variables []models.Variable
	if err := query.Order("id desc").Find(&variables).Error; err != nil {
		return nil, 0, err
	}
	return variables, total, nil
}

// Delete 软删除变量
func (r *GormVariableRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Variable{}, id).Error
}
