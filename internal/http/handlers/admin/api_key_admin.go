package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/repository"
	"github.com/jifen-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpsertApiKeyRequest 创建/更新 API 密钥请求
type UpsertApiKeyRequest struct {
	Name   string `json:"name" binding:"required"`
	Key    string `json:"key"`
	Remark string `json:"remark"`
}

// UpdateApiKeyRequest 按名称更新 API 密钥请求
type UpdateApiKeyRequest struct {
	Key     *string `json:"key"`
	Remark  *string `json:"remark"`
	Enabled *bool   `json:"enabled"`
}

// GetApiKeys 获取 API 密钥列表
func (h *Handler) GetApiKeys(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	enabled, err := parseBoolNullable(strings.TrimSpace(c.Query("enabled")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	keys, total, err := h.ApiKeyService.List(repository.ApiKeyListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Enabled:  enabled,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.query_failed", err)
		return
	}

	response.SuccessWithPage(c, keys, buildPagination(page, pageSize, total))
}

// UpsertApiKey 按名称创建或更新 API 密钥
func (h *Handler) UpsertApiKey(c *gin.Context) {
	var req UpsertApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	apiKey, err := h.ApiKeyService.Upsert(service.UpsertApiKeyInput{
		Name:   req.Name,
		Key:    req.Key,
		Remark: req.Remark,
	})
	if err != nil {
		if errors.Is(err, service.ErrNameRequired) {
			respondError(c, response.CodeBadRequest, "error.name_required", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, apiKey)
}

// UpdateApiKey 按名称更新 API 密钥
func (h *Handler) UpdateApiKey(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	apiKey, err := h.ApiKeyService.UpdateByName(name, service.UpdateApiKeyInput{
		Key:     req.Key,
		Remark:  req.Remark,
		Enabled: req.Enabled,
	})
	if err != nil {
		if errors.Is(err, service.ErrApiKeyNotFound) {
			respondError(c, response.CodeNotFound, "error.api_key_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, apiKey)
}

// ToggleApiKey 切换 API 密钥启用状态
func (h *Handler) ToggleApiKey(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	apiKey, err := h.ApiKeyService.Toggle(name)
	if err != nil {
		if errors.Is(err, service.ErrApiKeyNotFound) {
			respondError(c, response.CodeNotFound, "error.api_key_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, apiKey)
}

// DeleteApiKey 删除 API 密钥
func (h *Handler) DeleteApiKey(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.ApiKeyService.Delete(name); err != nil {
		if errors.Is(err, service.ErrApiKeyNotFound) {
			respondError(c, response.CodeNotFound, "error.api_key_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.delete_failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parseBoolNullable(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
