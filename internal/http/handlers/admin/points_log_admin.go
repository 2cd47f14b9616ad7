package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/repository"
	"github.com/jifen-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePointsLogRequest 管理端追加积分流水请求
type CreatePointsLogRequest struct {
	UserID       uint   `json:"user_id" binding:"required"`
	PointsChange int64  `json:"points_change" binding:"required"`
	ChangeType   string `json:"change_type" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
	TaskID       string `json:"task_id"`
	Reference    string `json:"reference"`
}

// GetPointsLogs 获取积分流水列表
func (h *Handler) GetPointsLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	changeType := strings.TrimSpace(strings.ToLower(c.Query("change_type")))
	direction := strings.TrimSpace(strings.ToLower(c.Query("direction")))
	keyword := strings.TrimSpace(c.Query("keyword"))
	sortBy := strings.TrimSpace(c.DefaultQuery("sort_by", constants.PointsLogSortCreatedAt))
	sortDesc := c.DefaultQuery("sort_order", "desc") != "asc"

	var userID uint
	if rawUserID := strings.TrimSpace(c.Query("user_id")); rawUserID != "" {
		parsed, err := strconv.ParseUint(rawUserID, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		userID = uint(parsed)
	}

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

	logs, total, err := h.PointsLedgerService.History(repository.PointsLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		ChangeType:  changeType,
		Direction:   direction,
		Keyword:     keyword,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		SortBy:      sortBy,
		SortDesc:    sortDesc,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.points_log_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, logs, buildPagination(page, pageSize, total))
}

// CreatePointsLog 管理端手工追加一条积分流水（扣费、退款等）
func (h *Handler) CreatePointsLog(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req CreatePointsLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	changeType := strings.TrimSpace(strings.ToLower(req.ChangeType))
	switch changeType {
	case constants.PointsChangeTypeFeatureUsage,
		constants.PointsChangeTypeRefund,
		constants.PointsChangeTypeAdminAdjust:
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	log, err := h.PointsLedgerService.Append(service.PointsAppendInput{
		UserID:       req.UserID,
		PointsChange: req.PointsChange,
		ChangeType:   changeType,
		Reason:       strings.TrimSpace(req.Reason),
		TaskID:       strings.TrimSpace(req.TaskID),
		OperatorID:   &adminID,
		Reference:    strings.TrimSpace(req.Reference),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrPointsChangeZero):
			respondError(c, response.CodeBadRequest, "error.points_change_zero", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, response.CodeBadRequest, "error.insufficient_balance", nil)
		case errors.Is(err, service.ErrNegativeBalanceNotAllowed):
			respondError(c, response.CodeBadRequest, "error.negative_not_allowed", nil)
		default:
			respondError(c, response.CodeInternal, "error.points_adjust_failed", err)
		}
		return
	}
	response.Success(c, log)
}
