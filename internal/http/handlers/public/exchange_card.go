package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/repository"
	"github.com/jifen-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RedeemExchangeCardRequest 兑换卡兑换请求
type RedeemExchangeCardRequest struct {
	CardNumber string `json:"card_number" binding:"required"`
}

// RedeemExchangeCard 用户兑换卡密
func (h *Handler) RedeemExchangeCard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req RedeemExchangeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.ExchangeCardService.Redeem(service.RedeemCardInput{
		UserID:     userID,
		CardNumber: strings.TrimSpace(req.CardNumber),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			respondError(c, response.CodeNotFound, "error.card_not_found", nil)
		case errors.Is(err, service.ErrCardRedeemed):
			respondError(c, response.CodeBadRequest, "error.card_already_redeemed", nil)
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeForbidden, "error.user_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.card_redeem_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"card_number":    result.Card.CardNumber,
		"card_name":      result.Card.CardName,
		"points_granted": result.PointsGranted,
		"new_balance":    result.NewBalance,
	})
}

// GetMyPointsLogs 获取当前用户积分流水
func (h *Handler) GetMyPointsLogs(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	logs, total, err := h.PointsLedgerService.History(repository.PointsLogListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		ChangeType: strings.TrimSpace(strings.ToLower(c.Query("change_type"))),
		Direction:  strings.TrimSpace(strings.ToLower(c.Query("direction"))),
		SortDesc:   true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.points_log_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetMyBalance 获取当前用户积分余额
func (h *Handler) GetMyBalance(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	balance, err := h.PointsLedgerService.BalanceOf(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.points_log_fetch_failed", err)
		return
	}

	response.Success(c, gin.H{"points": balance})
}
