package admin

import (
	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/queue"

	"github.com/gin-gonic/gin"
)

// EnqueueCleanupRequest 投递清理任务请求
type EnqueueCleanupRequest struct {
	Task      string `json:"task" binding:"required"`
	Days      int    `json:"days"`
	MaxPoints int64  `json:"max_points"`
	Status    string `json:"status"`
	Limit     int    `json:"limit"`
}

// RunCleanup 同步执行一轮全部清理
func (h *Handler) RunCleanup(c *gin.Context) {
	summary, err := h.CleanupService.RunAll()
	if err != nil {
		// 单项失败不影响其余项，汇总结果照常返回
		requestLog(c).Warnw("cleanup_partial_failure", "error", err)
	}
	response.Success(c, summary)
}

// EnqueueCleanup 把单项清理投递到异步队列
func (h *Handler) EnqueueCleanup(c *gin.Context) {
	if h.QueueClient == nil || !h.QueueClient.Enabled() {
		respondError(c, response.CodeBadRequest, "error.queue_unavailable", nil)
		return
	}

	var req EnqueueCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var err error
	switch req.Task {
	case "points_log_purge":
		err = h.QueueClient.EnqueuePointsLogPurge(queue.PointsLogPurgePayload{Days: req.Days})
	case "inactive_user_cleanup":
		maxPoints := req.MaxPoints
		if maxPoints == 0 {
			maxPoints = -1
		}
		err = h.QueueClient.EnqueueInactiveUserCleanup(queue.InactiveUserCleanupPayload{Days: req.Days, MaxPoints: maxPoints})
	case "exchange_card_cleanup":
		err = h.QueueClient.EnqueueExchangeCardCleanup(queue.ExchangeCardCleanupPayload{Days: req.Days, Status: req.Status})
	case "redemption_reconcile":
		err = h.QueueClient.EnqueueRedemptionReconcile(queue.RedemptionReconcilePayload{Limit: req.Limit})
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err != nil {
		respondError(c, response.CodeInternal, "error.cleanup_failed", err)
		return
	}
	response.Success(c, gin.H{"enqueued": true, "task": req.Task})
}
