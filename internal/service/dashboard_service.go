package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jifen-next/internal/cache"
	"github.com/jifen-next/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	dashboardCacheTTL     = 45 * time.Second
	dashboardTrendMax     = 90
	dashboardTrendDefault = 7
)

// 趋势指标
const (
	DashboardMetricUsers       = "users"
	DashboardMetricRedemptions = "redemptions"
	DashboardMetricPoints      = "points"
)

// 趋势口径：cumulative 为截至当日的累计值，new 为当日增量
const (
	DashboardGranularityCumulative = "cumulative"
	DashboardGranularityNew        = "new"
)

// ErrDashboardRangeInvalid 趋势查询范围非法
var ErrDashboardRangeInvalid = fmt.Errorf("dashboard range invalid")

// DashboardService 仪表盘服务
// 说明：只做只读聚合，正确性以「对流水/卡表做朴素归约」为准。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Users  DashboardUserTotals  `json:"users"`
	Cards  DashboardCardTotals  `json:"cards"`
	Points DashboardPointsUsage `json:"points"`
}

// DashboardUserTotals 用户总览
type DashboardUserTotals struct {
	TotalUsers  int64  `json:"total_users"`
	PaidUsers   int64  `json:"paid_users"`
	PaymentRate string `json:"payment_rate"`
}

// DashboardCardTotals 兑换卡总览
type DashboardCardTotals struct {
	TotalCards           int64  `json:"total_cards"`
	RedeemedCards        int64  `json:"redeemed_cards"`
	CardRedemptionRate   string `json:"card_redemption_rate"`
	TotalPoints          int64  `json:"total_points"`
	RedeemedPoints       int64  `json:"redeemed_points"`
	PointsRedemptionRate string `json:"points_redemption_rate"`
}

// DashboardPointsUsage 积分使用总览
type DashboardPointsUsage struct {
	TotalUsagePoints  int64  `json:"total_usage_points"`
	TotalRedeemPoints int64  `json:"total_redeem_points"`
	UsageRate         string `json:"usage_rate"`
}

// DashboardTrendInput 趋势查询输入
type DashboardTrendInput struct {
	Metric       string
	Granularity  string
	RangeDays    int
	ForceRefresh bool
}

// DashboardTrendResponse 趋势响应
type DashboardTrendResponse struct {
	Metric      string                `json:"metric"`
	Granularity string                `json:"granularity"`
	From        string                `json:"from"`
	To          string                `json:"to"`
	Points      []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点（缺数据的日期填零，不省略）
type DashboardTrendPoint struct {
	Date          string `json:"date"`
	NewUsers      int64  `json:"new_users,omitempty"`
	RedeemedCards int64  `json:"redeemed_cards,omitempty"`
	GrantedPoints int64  `json:"granted_points,omitempty"`
	PointsIn      int64  `json:"points_in,omitempty"`
	PointsOut     int64  `json:"points_out,omitempty"`
}

// GetOverview 获取总览统计
func (s *DashboardService) GetOverview(ctx context.Context, forceRefresh bool) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}

	cacheKey := "dashboard:overview"
	if !forceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	userTotals, err := s.repo.GetUserTotals()
	if err != nil {
		return nil, err
	}
	cardTotals, err := s.repo.GetCardTotals()
	if err != nil {
		return nil, err
	}
	pointsUsage, err := s.repo.GetPointsUsage()
	if err != nil {
		return nil, err
	}

	response := &DashboardOverviewResponse{
		Users: DashboardUserTotals{
			TotalUsers:  userTotals.TotalUsers,
			PaidUsers:   userTotals.PaidUsers,
			PaymentRate: formatRate(userTotals.PaidUsers, userTotals.TotalUsers),
		},
		Cards: DashboardCardTotals{
			TotalCards:           cardTotals.TotalCards,
			RedeemedCards:        cardTotals.RedeemedCards,
			CardRedemptionRate:   formatRate(cardTotals.RedeemedCards, cardTotals.TotalCards),
			TotalPoints:          cardTotals.TotalPoints,
			RedeemedPoints:       cardTotals.RedeemedPoints,
			PointsRedemptionRate: formatRate(cardTotals.RedeemedPoints, cardTotals.TotalPoints),
		},
		Points: DashboardPointsUsage{
			TotalUsagePoints:  pointsUsage.TotalUsagePoints,
			TotalRedeemPoints: pointsUsage.TotalRedeemPoints,
			UsageRate:         formatRate(pointsUsage.TotalUsagePoints, pointsUsage.TotalRedeemPoints),
		},
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取趋势序列。总是返回 RangeDays 个点，无数据的日期填零。
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardTrendInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	metric := strings.TrimSpace(input.Metric)
	switch metric {
	case DashboardMetricUsers, DashboardMetricRedemptions, DashboardMetricPoints:
	default:
		return nil, ErrDashboardRangeInvalid
	}
	granularity := strings.TrimSpace(input.Granularity)
	if granularity == "" {
		granularity = DashboardGranularityNew
	}
	if granularity != DashboardGranularityNew && granularity != DashboardGranularityCumulative {
		return nil, ErrDashboardRangeInvalid
	}
	rangeDays := input.RangeDays
	if rangeDays <= 0 {
		rangeDays = dashboardTrendDefault
	}
	if rangeDays > dashboardTrendMax {
		return nil, ErrDashboardRangeInvalid
	}

	now := time.Now()
	endAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	startAt := endAt.AddDate(0, 0, -rangeDays)

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%s:%d:%s", metric, granularity, rangeDays, startAt.Format("2006-01-02"))
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	points, err := s.buildTrendPoints(metric, startAt, endAt)
	if err != nil {
		return nil, err
	}
	if granularity == DashboardGranularityCumulative {
		base, baseErr := s.trendBase(metric, startAt)
		if baseErr != nil {
			return nil, baseErr
		}
		accumulateTrendPoints(points, base)
	}

	response := &DashboardTrendResponse{
		Metric:      metric,
		Granularity: granularity,
		From:        startAt.Format("2006-01-02"),
		To:          endAt.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func (s *DashboardService) buildTrendPoints(metric string, startAt, endAt time.Time) ([]DashboardTrendPoint, error) {
	points := make([]DashboardTrendPoint, 0)
	switch metric {
	case DashboardMetricUsers:
		rows, err := s.repo.GetUserTrends(startAt, endAt)
		if err != nil {
			return nil, err
		}
		dayMap := make(map[string]repository.DashboardDayCountRow, len(rows))
		for _, item := range rows {
			dayMap[item.Day] = item
		}
		for cursor := startAt; cursor.Before(endAt); cursor = cursor.AddDate(0, 0, 1) {
			day := cursor.Format("2006-01-02")
			points = append(points, DashboardTrendPoint{
				Date:     day,
				NewUsers: dayMap[day].Total,
			})
		}
	case DashboardMetricRedemptions:
		rows, err := s.repo.GetRedemptionTrends(startAt, endAt)
		if err != nil {
			return nil, err
		}
		dayMap := make(map[string]repository.DashboardRedemptionTrendRow, len(rows))
		for _, item := range rows {
			dayMap[item.Day] = item
		}
		for cursor := startAt; cursor.Before(endAt); cursor = cursor.AddDate(0, 0, 1) {
			day := cursor.Format("2006-01-02")
			item := dayMap[day]
			points = append(points, DashboardTrendPoint{
				Date:          day,
				RedeemedCards: item.RedeemedCards,
				GrantedPoints: item.GrantedPoints,
			})
		}
	case DashboardMetricPoints:
		rows, err := s.repo.GetPointsTrends(startAt, endAt)
		if err != nil {
			return nil, err
		}
		dayMap := make(map[string]repository.DashboardPointsTrendRow, len(rows))
		for _, item := range rows {
			dayMap[item.Day] = item
		}
		for cursor := startAt; cursor.Before(endAt); cursor = cursor.AddDate(0, 0, 1) {
			day := cursor.Format("2006-01-02")
			item := dayMap[day]
			points = append(points, DashboardTrendPoint{
				Date:      day,
				PointsIn:  item.PointsIn,
				PointsOut: item.PointsOut,
			})
		}
	}
	return points, nil
}

// trendBase 查询窗口起点之前的累计基数，保证累计口径是「截至当日」而非「窗口内」
func (s *DashboardService) trendBase(metric string, startAt time.Time) (DashboardTrendPoint, error) {
	base := DashboardTrendPoint{}
	switch metric {
	case DashboardMetricUsers:
		total, err := s.repo.GetUserTrendBase(startAt)
		if err != nil {
			return base, err
		}
		base.NewUsers = total
	case DashboardMetricRedemptions:
		row, err := s.repo.GetRedemptionTrendBase(startAt)
		if err != nil {
			return base, err
		}
		base.RedeemedCards = row.RedeemedCards
		base.GrantedPoints = row.GrantedPoints
	case DashboardMetricPoints:
		row, err := s.repo.GetPointsTrendBase(startAt)
		if err != nil {
			return base, err
		}
		base.PointsIn = row.PointsIn
		base.PointsOut = row.PointsOut
	}
	return base, nil
}

func accumulateTrendPoints(points []DashboardTrendPoint, base DashboardTrendPoint) {
	if len(points) == 0 {
		return
	}
	points[0].NewUsers += base.NewUsers
	points[0].RedeemedCards += base.RedeemedCards
	points[0].GrantedPoints += base.GrantedPoints
	points[0].PointsIn += base.PointsIn
	points[0].PointsOut += base.PointsOut
	for i := 1; i < len(points); i++ {
		points[i].NewUsers += points[i-1].NewUsers
		points[i].RedeemedCards += points[i-1].RedeemedCards
		points[i].GrantedPoints += points[i-1].GrantedPoints
		points[i].PointsIn += points[i-1].PointsIn
		points[i].PointsOut += points[i-1].PointsOut
	}
}

// formatRate 计算百分比并保留两位小数，分母为 0 时返回 0.00
func formatRate(part, total int64) string {
	if total <= 0 {
		return "0.00"
	}
	rate := decimal.NewFromInt(part).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return rate.StringFixed(2)
}
