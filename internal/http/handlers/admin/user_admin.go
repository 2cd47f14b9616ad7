package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/i18n"
	"github.com/jifen-next/internal/repository"
	"github.com/jifen-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	Notes       *string `json:"notes"`
	Status      *string `json:"status"`
}

// AdjustUserPointsRequest 调整用户积分请求
type AdjustUserPointsRequest struct {
	PointsChange int64  `json:"points_change" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

// GetUsers 获取用户列表
func (h *Handler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	keyword := strings.TrimSpace(c.Query("keyword"))
	role := strings.TrimSpace(strings.ToLower(c.Query("role")))
	status := strings.TrimSpace(strings.ToLower(c.Query("status")))

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	users, total, err := h.UserAdminService.ListUsers(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     keyword,
		Role:        role,
		Status:      status,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, users, buildPagination(page, pageSize, total))
}

// GetUser 获取用户详情
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	user, err := h.UserAdminService.GetUser(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}

	response.Success(c, user)
}

// UpdateUser 更新用户资料/角色/状态
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserAdminService.UpdateUser(id, service.UpdateUserInput{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Notes:       req.Notes,
		Status:      req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.user_update_failed", err)
		}
		return
	}
	response.Success(c, user)
}

// DeleteUser 删除用户
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.UserAdminService.DeleteUser(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.user_delete_failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// AdjustUserPoints 管理员调整用户积分
func (h *Handler) AdjustUserPoints(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req AdjustUserPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	log, err := h.UserAdminService.AdjustPoints(service.AdjustPointsInput{
		UserID:       id,
		PointsChange: req.PointsChange,
		Reason:       req.Reason,
		OperatorID:   adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrPointsChangeZero):
			respondError(c, response.CodeBadRequest, "error.points_change_zero", nil)
		case errors.Is(err, service.ErrNegativeBalanceNotAllowed):
			respondError(c, response.CodeBadRequest, "error.negative_not_allowed", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, response.CodeBadRequest, "error.insufficient_balance", nil)
		default:
			respondError(c, response.CodeInternal, "error.points_adjust_failed", err)
		}
		return
	}
	response.Success(c, log)
}

// VerifyUserBalance 校验用户缓存余额与流水归约是否一致
func (h *Handler) VerifyUserBalance(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	cached, computed, err := h.PointsLedgerService.VerifyUserBalance(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrBalanceMismatch):
			response.ErrorWithData(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.balance_mismatch"), gin.H{
				"cached_balance":   cached,
				"computed_balance": computed,
			})
		default:
			respondError(c, response.CodeInternal, "error.points_log_fetch_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"cached_balance":   cached,
		"computed_balance": computed,
		"consistent":       true,
	})
}
