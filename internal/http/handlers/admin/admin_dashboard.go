package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	forceRefresh, err := parseForceRefresh(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	data, err := h.DashboardService.GetOverview(c.Request.Context(), forceRefresh)
	if err != nil {
		respondError(c, response.CodeInternal, "error.dashboard_fetch_failed", err)
		return
	}

	response.Success(c, data)
}

// GetDashboardTrends 获取后台仪表盘趋势
func (h *Handler) GetDashboardTrends(c *gin.Context) {
	input, err := parseDashboardTrendQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	data, err := h.DashboardService.GetTrends(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrDashboardRangeInvalid) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.dashboard_fetch_failed", err)
		return
	}

	response.Success(c, data)
}

func parseDashboardTrendQuery(c *gin.Context) (service.DashboardTrendInput, error) {
	forceRefresh, err := parseForceRefresh(c)
	if err != nil {
		return service.DashboardTrendInput{}, err
	}

	rangeDays := 0
	if raw := strings.TrimSpace(c.DefaultQuery("range_days", c.Query("days"))); raw != "" {
		rangeDays, err = strconv.Atoi(raw)
		if err != nil {
			return service.DashboardTrendInput{}, err
		}
	}

	return service.DashboardTrendInput{
		Metric:       strings.TrimSpace(strings.ToLower(c.Query("metric"))),
		Granularity:  strings.TrimSpace(strings.ToLower(c.Query("granularity"))),
		RangeDays:    rangeDays,
		ForceRefresh: forceRefresh,
	}, nil
}

func parseForceRefresh(c *gin.Context) (bool, error) {
	raw := strings.TrimSpace(c.Query("force_refresh"))
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
