package service

import (
	"strings"
	"time"

	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"
)

// VariableService 公共变量服务
type VariableService struct {
	repo repository.VariableRepository
}

// UpsertVariableInput 创建/更新变量输入
type UpsertVariableInput struct {
	Name   string
	Value  string
	Remark string
}

// UpdateVariableInput 按名称更新变量输入
type UpdateVariableInput struct {
	Value   *string
	Remark  *string
	Enabled *bool
}

// NewVariableService 创建公共变量服务
func NewVariableService(repo repository.VariableRepository) *VariableService {
	return &VariableService{repo: repo}
}

// List 分页查询变量
func (s *VariableService) List(filter repository.VariableListFilter) ([]models.Variable, int64, error) {
	return s.repo.List(filter)
}

// Upsert 按名称创建或更新变量
func (s *VariableService) Upsert(input UpsertVariableInput) (*models.Variable, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	now := time.Now()
	exist, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if exist == nil {
		variable := &models.Variable{
			Name:      name,
			Value:     input.Value,
			Remark:    strings.TrimSpace(input.Remark),
			Enabled:   true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(variable); err != nil {
			return nil, err
		}
		return variable, nil
	}

	exist.Value = input.Value
	exist.Remark = strings.TrimSpace(input.Remark)
	exist.UpdatedAt = now
	if err := s.repo.Update(exist); err != nil {
		return nil, err
	}
	return exist, nil
}

// UpdateByName 按名称更新变量
func (s *VariableService) UpdateByName(name string, input UpdateVariableInput) (*models.Variable, error) {
	variable, err := s.getByName(name)
	if err != nil {
		return nil, err
	}

	if input.Value != nil {
		variable.Value = *input.Value
	}
	if input.Remark != nil {
		variable.Remark = strings.TrimSpace(*input.Remark)
	}
	if input.Enabled != nil {
		variable.Enabled = *input.Enabled
	}
	variable.UpdatedAt = time.Now()

	if err := s.repo.Update(variable); err != nil {
		return nil, err
	}
	return variable, nil
}

// Toggle 切换变量启用状态
func (s *VariableService) Toggle(name string) (*models.Variable, error) {
	variable, err := s.getByName(name)
	if err != nil {
		return nil, err
	}
	variable.Enabled = !variable.Enabled
	variable.UpdatedAt = time.Now()
	if err := s.repo.Update(variable); err != nil {
		return nil, err
	}
	return variable, nil
}

// Delete 按名称删除变量
func (s *VariableService) Delete(name string) error {
	variable, err := s.getByName(name)
	if err != nil {
		return err
	}
	return s.repo.Delete(variable.ID)
}

func (s *VariableService) getByName(name string) (*models.Variable, error) {
	variable, err := s.repo.GetByName(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if variable == nil {
		return nil, ErrVariableNotFound
	}
	return variable, nil
}
