package service

import (
	"strings"
	"time"

	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"
)

const apiKeyValueLength = 24

// ApiKeyService API 密钥服务
type ApiKeyService struct {
	repo repository.ApiKeyRepository
}

// UpsertApiKeyInput 创建/更新密钥输入
type UpsertApiKeyInput struct {
	Name   string
	Key    string // 为空时自动生成
	Remark string
}

// UpdateApiKeyInput 按名称更新密钥输入
type UpdateApiKeyInput struct {
	Key     *string
	Remark  *string
	Enabled *bool
}

// NewApiKeyService 创建 API 密钥服务
func NewApiKeyService(repo repository.ApiKeyRepository) *ApiKeyService {
	return &ApiKeyService{repo: repo}
}

// List 分页查询密钥
func (s *ApiKeyService) List(filter repository.ApiKeyListFilter) ([]models.ApiKey, int64, error) {
	return s.repo.List(filter)
}

// Upsert 按名称创建或更新密钥
func (s *ApiKeyService) Upsert(input UpsertApiKeyInput) (*models.ApiKey, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	key := strings.TrimSpace(input.Key)
	if key == "" {
		generated, genErr := randomHex(apiKeyValueLength)
		if genErr != nil {
			return nil, genErr
		}
		key = generated
	}

	now := time.Now()
	exist, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if exist == nil {
		apiKey := &models.ApiKey{
			Name:      name,
			Key:       key,
			Enabled:   true,
			Remark:    strings.TrimSpace(input.Remark),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(apiKey); err != nil {
			return nil, err
		}
		return apiKey, nil
	}

	exist.Key = key
	exist.Remark = strings.TrimSpace(input.Remark)
	exist.UpdatedAt = now
	if err := s.repo.Update(exist); err != nil {
		return nil, err
	}
	return exist, nil
}

// UpdateByName 按名称更新密钥
func (s *ApiKeyService) UpdateByName(name string, input UpdateApiKeyInput) (*models.ApiKey, error) {
	apiKey, err := s.getByName(name)
	if err != nil {
		return nil, err
	}

	if input.Key != nil {
		key := strings.TrimSpace(*input.Key)
		if key == "" {
			generated, genErr := randomHex(apiKeyValueLength)
			if genErr != nil {
				return nil, genErr
			}
			key = generated
		}
		apiKey.Key = key
	}
	if input.Remark != nil {
		apiKey.Remark = strings.TrimSpace(*input.Remark)
	}
	if input.Enabled != nil {
		apiKey.Enabled = *input.Enabled
	}
	apiKey.UpdatedAt = time.Now()

	if err := s.repo.Update(apiKey); err != nil {
		return nil, err
	}
	return apiKey, nil
}

// Toggle 切换密钥启用状态
func (s *ApiKeyService) Toggle(name string) (*models.ApiKey, error) {
	apiKey, err := s.getByName(name)
	if err != nil {
		return nil, err
	}
	apiKey.Enabled = !apiKey.Enabled
	apiKey.UpdatedAt = time.Now()
	if err := s.repo.Update(apiKey); err != nil {
		return nil, err
	}
	return apiKey, nil
}

// Delete 按名称删除密钥
func (s *ApiKeyService) Delete(name string) error {
	apiKey, err := s.getByName(name)
	if err != nil {
		return err
	}
	return s.repo.Delete(apiKey.ID)
}

// Verify 校验密钥值是否有效，有效时刷新最后使用时间
func (s *ApiKeyService) Verify(key string) (*models.ApiKey, error) {
	apiKey, err := s.repo.GetByKey(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	if apiKey == nil || !apiKey.Enabled {
		return nil, ErrApiKeyNotFound
	}
	now := time.Now()
	apiKey.LastUsedAt = &now
	_ = s.repo.Update(apiKey)
	return apiKey, nil
}

func (s *ApiKeyService) getByName(name string) (*models.ApiKey, error) {
	apiKey, err := s.repo.GetByName(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if apiKey == nil {
		return nil, ErrApiKeyNotFound
	}
	return apiKey, nil
}
