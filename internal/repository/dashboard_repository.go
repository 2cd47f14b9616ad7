package repository

import (
	"fmt"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetUserTotals() (DashboardUserTotalsRow, error)
	GetCardTotals() (DashboardCardTotalsRow, error)
	GetPointsUsage() (DashboardPointsUsageRow, error)
	GetUserTrends(startAt, endAt time.Time) ([]DashboardDayCountRow, error)
	GetRedemptionTrends(startAt, endAt time.Time) ([]DashboardRedemptionTrendRow, error)
	GetPointsTrends(startAt, endAt time.Time) ([]DashboardPointsTrendRow, error)
	GetUserTrendBase(before time.Time) (int64, error)
	GetRedemptionTrendBase(before time.Time) (DashboardRedemptionTrendRow, error)
	GetPointsTrendBase(before time.Time) (DashboardPointsTrendRow, error)
}

// DashboardUserTotalsRow 用户总览原始统计结果
type DashboardUserTotalsRow struct {
	TotalUsers int64
	PaidUsers  int64
}

// DashboardCardTotalsRow 兑换卡总览原始统计结果
type DashboardCardTotalsRow struct {
	TotalCards     int64
	RedeemedCards  int64
	TotalPoints    int64
	RedeemedPoints int64
}

// DashboardPointsUsageRow 积分使用原始统计结果
type DashboardPointsUsageRow struct {
	TotalUsagePoints  int64
	TotalRedeemPoints int64
}

// DashboardDayCountRow 按天计数统计
type DashboardDayCountRow struct {
	Day   string
	Total int64
}

// DashboardRedemptionTrendRow 兑换趋势统计
type DashboardRedemptionTrendRow struct {
	Day           string
	RedeemedCards int64
	GrantedPoints int64
}

// DashboardPointsTrendRow 积分流水趋势统计
type DashboardPointsTrendRow struct {
	Day       string
	PointsIn  int64
	PointsOut int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetUserTotals 获取用户总览统计
func (r *GormDashboardRepository) GetUserTotals() (DashboardUserTotalsRow, error) {
	result := DashboardUserTotalsRow{}

	if err := r.db.Model(&models.User{}).Count(&result.TotalUsers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.User{}).
		Where("role = ?", constants.UserRolePaid).
		Count(&result.PaidUsers).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetCardTotals 获取兑换卡总览统计
func (r *GormDashboardRepository) GetCardTotals() (DashboardCardTotalsRow, error) {
	result := DashboardCardTotalsRow{}

	if err := r.db.Model(&models.ExchangeCard{}).Count(&result.TotalCards).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExchangeCard{}).
		Where("status = ?", constants.ExchangeCardStatusRedeemed).
		Count(&result.RedeemedCards).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExchangeCard{}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&result.TotalPoints).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExchangeCard{}).
		Where("status = ?", constants.ExchangeCardStatusRedeemed).
		Select("COALESCE(SUM(points), 0)").
		Scan(&result.RedeemedPoints).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetPointsUsage 获取积分使用统计
func (r *GormDashboardRepository) GetPointsUsage() (DashboardPointsUsageRow, error) {
	result := DashboardPointsUsageRow{}

	if err := r.db.Model(&models.PointsLog{}).
		Where("direction = ?", constants.PointsDirectionOut).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.TotalUsagePoints).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.PointsLog{}).
		Where("change_type = ?", constants.PointsChangeTypeCardRedeem).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.TotalRedeemPoints).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetUserTrends 获取注册用户趋势
func (r *GormDashboardRepository) GetUserTrends(startAt, endAt time.Time) ([]DashboardDayCountRow, error) {
	dayExpr := dayExprByDialect(r.db, "created_at")
	var rows []DashboardDayCountRow
	if err := r.db.Model(&models.User{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRedemptionTrends 获取兑换趋势
func (r *GormDashboardRepository) GetRedemptionTrends(startAt, endAt time.Time) ([]DashboardRedemptionTrendRow, error) {
	dayExpr := dayExprByDialect(r.db, "redeemed_at")
	var rows []DashboardRedemptionTrendRow
	if err := r.db.Model(&models.ExchangeCard{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as redeemed_cards, COALESCE(SUM(points), 0) as granted_points", dayExpr)).
		Where("status = ? AND redeemed_at >= ? AND redeemed_at < ?", constants.ExchangeCardStatusRedeemed, startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetUserTrendBase 统计窗口起点之前的注册用户数（累计口径的基数）
func (r *GormDashboardRepository) GetUserTrendBase(before time.Time) (int64, error) {
	var total int64
	if err := r.db.Model(&models.User{}).
		Where("created_at < ?", before).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetRedemptionTrendBase 统计窗口起点之前的兑换累计值
func (r *GormDashboardRepository) GetRedemptionTrendBase(before time.Time) (DashboardRedemptionTrendRow, error) {
	row := DashboardRedemptionTrendRow{}
	if err := r.db.Model(&models.ExchangeCard{}).
		Select("COUNT(*) as redeemed_cards, COALESCE(SUM(points), 0) as granted_points").
		Where("status = ? AND redeemed_at < ?", constants.ExchangeCardStatusRedeemed, before).
		Scan(&row).Error; err != nil {
		return row, err
	}
	return row, nil
}

// GetPointsTrendBase 统计窗口起点之前的积分流水累计值
func (r *GormDashboardRepository) GetPointsTrendBase(before time.Time) (DashboardPointsTrendRow, error) {
	row := DashboardPointsTrendRow{}
	if err := r.db.Model(&models.PointsLog{}).
		Select(`
			COALESCE(SUM(CASE WHEN direction = 'in' THEN amount ELSE 0 END), 0) as points_in,
			COALESCE(SUM(CASE WHEN direction = 'out' THEN amount ELSE 0 END), 0) as points_out
		`).
		Where("created_at < ?", before).
		Scan(&row).Error; err != nil {
		return row, err
	}
	return row, nil
}

// GetPointsTrends 获取积分流水趋势
func (r *GormDashboardRepository) GetPointsTrends(startAt, endAt time.Time) ([]DashboardPointsTrendRow, error) {
	dayExpr := dayExprByDialect(r.db, "created_at")
	var rows []DashboardPointsTrendRow
	if err := r.db.Model(&models.PointsLog{}).
		Select(fmt.Sprintf(`
			%s as day,
			COALESCE(SUM(CASE WHEN direction = 'in' THEN amount ELSE 0 END), 0) as points_in,
			COALESCE(SUM(CASE WHEN direction = 'out' THEN amount ELSE 0 END), 0) as points_out
		`, dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
