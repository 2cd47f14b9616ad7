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

// UpsertAppConfigRequest 创建/更新功能配置请求
type UpsertAppConfigRequest struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required"`
	ParentID    *uint  `json:"parent_id"`
	PointsCost  int64  `json:"points_cost"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// GetAppConfigs 获取功能配置列表
func (h *Handler) GetAppConfigs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	enabled, err := parseBoolNullable(strings.TrimSpace(c.Query("enabled")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var parentID *uint
	if rawParentID := strings.TrimSpace(c.Query("parent_id")); rawParentID != "" {
		parsed, err := strconv.ParseUint(rawParentID, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		value := uint(parsed)
		parentID = &value
	}

	items, total, err := h.AppConfigService.List(repository.AppConfigListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Type:     strings.TrimSpace(strings.ToLower(c.Query("type"))),
		ParentID: parentID,
		Enabled:  enabled,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.query_failed", err)
		return
	}

	response.SuccessWithPage(c, items, buildPagination(page, pageSize, total))
}

// GetAppConfigFunctions 获取某分类下的功能列表
func (h *Handler) GetAppConfigFunctions(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	enabledOnly := c.DefaultQuery("enabled_only", "false") == "true"

	items, err := h.AppConfigService.GetFunctionsByCategory(id, enabledOnly)
	if err != nil {
		if errors.Is(err, service.ErrAppConfigNotFound) {
			respondError(c, response.CodeNotFound, "error.app_config_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.query_failed", err)
		return
	}
	response.Success(c, items)
}

// UpsertAppConfig 按名称创建或更新功能配置
func (h *Handler) UpsertAppConfig(c *gin.Context) {
	var req UpsertAppConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	item, err := h.AppConfigService.Upsert(service.UpsertAppConfigInput{
		Name:        req.Name,
		Type:        req.Type,
		ParentID:    req.ParentID,
		PointsCost:  req.PointsCost,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired):
			respondError(c, response.CodeBadRequest, "error.name_required", nil)
		case errors.Is(err, service.ErrParentInvalid):
			respondError(c, response.CodeBadRequest, "error.parent_invalid", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, item)
}

// ToggleAppConfig 切换功能配置启用状态
func (h *Handler) ToggleAppConfig(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	item, err := h.AppConfigService.Toggle(id)
	if err != nil {
		if errors.Is(err, service.ErrAppConfigNotFound) {
			respondError(c, response.CodeNotFound, "error.app_config_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, item)
}

// DeleteAppConfig 删除功能配置
func (h *Handler) DeleteAppConfig(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AppConfigService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrAppConfigNotFound):
			respondError(c, response.CodeNotFound, "error.app_config_not_found", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.category_has_children", nil)
		default:
			respondError(c, response.CodeInternal, "error.delete_failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
