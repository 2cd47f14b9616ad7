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

// BatchCreateExchangeCardsRequest 批量生成兑换卡请求
type BatchCreateExchangeCardsRequest struct {
	CardName    string `json:"card_name" binding:"required"`
	Points      int64  `json:"points" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
	Description string `json:"description"`
	Remark      string `json:"remark"`
}

// UpdateExchangeCardRequest 更新兑换卡请求
type UpdateExchangeCardRequest struct {
	CardName    *string `json:"card_name"`
	Points      *int64  `json:"points"`
	Description *string `json:"description"`
}

// BatchDeleteExchangeCardsRequest 批量删除兑换卡请求
type BatchDeleteExchangeCardsRequest struct {
	CardNumbers []string `json:"card_numbers" binding:"required"`
}

// BatchCreateExchangeCards 管理端批量生成兑换卡
func (h *Handler) BatchCreateExchangeCards(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req BatchCreateExchangeCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	batch, cards, err := h.ExchangeCardService.BatchCreate(service.BatchCreateCardsInput{
		CardName:    req.CardName,
		Points:      req.Points,
		Quantity:    req.Quantity,
		Description: req.Description,
		Remark:      req.Remark,
		CreatedBy:   adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired):
			respondError(c, response.CodeBadRequest, "error.name_required", nil)
		case errors.Is(err, service.ErrCardQuantityInvalid):
			respondError(c, response.CodeBadRequest, "error.card_quantity_invalid", nil)
		case errors.Is(err, service.ErrCardPointsInvalid):
			respondError(c, response.CodeBadRequest, "error.card_points_invalid", nil)
		case errors.Is(err, service.ErrCardNumberExhausted):
			respondError(c, response.CodeInternal, "error.card_number_exhausted", err)
		default:
			respondError(c, response.CodeInternal, "error.card_create_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"batch": batch,
		"cards": cards,
	})
}

// GetExchangeCards 获取兑换卡列表
func (h *Handler) GetExchangeCards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(strings.ToLower(c.Query("status")))
	keyword := strings.TrimSpace(c.Query("keyword"))

	var batchID uint
	if rawBatchID := strings.TrimSpace(c.Query("batch_id")); rawBatchID != "" {
		parsed, err := strconv.ParseUint(rawBatchID, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		batchID = uint(parsed)
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

	cards, total, err := h.ExchangeCardService.List(repository.ExchangeCardListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     keyword,
		Status:      status,
		BatchID:     batchID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.card_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, cards, buildPagination(page, pageSize, total))
}

// GetExchangeCard 获取兑换卡详情
func (h *Handler) GetExchangeCard(c *gin.Context) {
	cardNumber := strings.TrimSpace(c.Param("card_number"))
	if cardNumber == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	card, err := h.ExchangeCardService.Find(cardNumber)
	if err != nil {
		if errors.Is(err, service.ErrCardNotFound) {
			respondError(c, response.CodeNotFound, "error.card_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.card_fetch_failed", err)
		return
	}

	response.Success(c, card)
}

// UpdateExchangeCard 更新兑换卡
func (h *Handler) UpdateExchangeCard(c *gin.Context) {
	cardNumber := strings.TrimSpace(c.Param("card_number"))
	if cardNumber == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateExchangeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	card, err := h.ExchangeCardService.Update(cardNumber, service.UpdateCardInput{
		CardName:    req.CardName,
		Points:      req.Points,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCardNotFound):
			respondError(c, response.CodeNotFound, "error.card_not_found", nil)
		case errors.Is(err, service.ErrCardPointsLocked):
			respondError(c, response.CodeBadRequest, "error.card_points_locked", nil)
		case errors.Is(err, service.ErrCardPointsInvalid):
			respondError(c, response.CodeBadRequest, "error.card_points_invalid", nil)
		case errors.Is(err, service.ErrNameRequired):
			respondError(c, response.CodeBadRequest, "error.name_required", nil)
		default:
			respondError(c, response.CodeInternal, "error.card_update_failed", err)
		}
		return
	}
	response.Success(c, card)
}

// DeleteExchangeCard 删除兑换卡
func (h *Handler) DeleteExchangeCard(c *gin.Context) {
	cardNumber := strings.TrimSpace(c.Param("card_number"))
	if cardNumber == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.ExchangeCardService.Delete(cardNumber); err != nil {
		if errors.Is(err, service.ErrCardNotFound) {
			respondError(c, response.CodeNotFound, "error.card_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.card_delete_failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// BatchDeleteExchangeCards 批量删除兑换卡
func (h *Handler) BatchDeleteExchangeCards(c *gin.Context) {
	var req BatchDeleteExchangeCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	affected, err := h.ExchangeCardService.BatchDelete(req.CardNumbers)
	if err != nil {
		respondError(c, response.CodeInternal, "error.card_delete_failed", err)
		return
	}
	response.Success(c, gin.H{"affected": affected})
}
