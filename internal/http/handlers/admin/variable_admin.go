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

// UpsertVariableRequest 创建/更新变量请求
type UpsertVariableRequest struct {
	Name   string `json:"name" binding:"required"`
	Value  string `json:"value"`
	Remark string `json:"remark"`
}

// UpdateVariableRequest 按名称更新变量请求
type UpdateVariableRequest struct {
	Value   *string `json:"value"`
	Remark  *string `json:"remark"`
	Enabled *bool   `json:"enabled"`
}

// GetVariables 获取变量列表
func (h *Handler) GetVariables(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	enabled, err := parseBoolNullable(strings.TrimSpace(c.Query("enabled")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	variables, total, err := h.VariableService.List(repository.VariableListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Enabled:  enabled,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.query_failed", err)
		return
	}

	response.SuccessWithPage(c, variables, buildPagination(page, pageSize, total))
}

// UpsertVariable 按名称创建或更新变量
func (h *Handler) UpsertVariable(c *gin.Context) {
	var req UpsertVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	variable, err := h.VariableService.Upsert(service.UpsertVariableInput{
		Name:   req.Name,
		Value:  req.Value,
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
	response.Success(c, variable)
}

// UpdateVariable 按名称更新变量
func (h *Handler) UpdateVariable(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	variable, err := h.VariableService.UpdateByName(name, service.UpdateVariableInput{
		Value:   req.Value,
		Remark:  req.Remark,
		Enabled: req.Enabled,
	})
	if err != nil {
		if errors.Is(err, service.ErrVariableNotFound) {
			respondError(c, response.CodeNotFound, "error.variable_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, variable)
}

// ToggleVariable 切换变量启用状态
func (h *Handler) ToggleVariable(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	variable, err := h.VariableService.Toggle(name)
	if err != nil {
		if errors.Is(err, service.ErrVariableNotFound) {
			respondError(c, response.CodeNotFound, "error.variable_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, variable)
}

// DeleteVariable 删除变量
func (h *Handler) DeleteVariable(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.VariableService.Delete(name); err != nil {
		if errors.Is(err, service.ErrVariableNotFound) {
			respondError(c, response.CodeNotFound, "error.variable_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.delete_failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
