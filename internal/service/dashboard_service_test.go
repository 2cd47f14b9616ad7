package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDashboardTest(t *testing.T) (*DashboardService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:dashboard_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointsLog{},
		&models.ExchangeCard{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewDashboardService(repository.NewDashboardRepository(db)), db
}

func TestDashboardOverviewEmpty(t *testing.T) {
	svc, _ := setupDashboardTest(t)

	overview, err := svc.GetOverview(context.Background(), true)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.Users.TotalUsers != 0 || overview.Cards.TotalCards != 0 {
		t.Fatalf("unexpected totals: %+v", overview)
	}
	// 分母为 0 时比率固定为 0.00，不出现除零
	if overview.Users.PaymentRate != "0.00" {
		t.Fatalf("unexpected payment rate: %s", overview.Users.PaymentRate)
	}
	if overview.Cards.CardRedemptionRate != "0.00" || overview.Cards.PointsRedemptionRate != "0.00" {
		t.Fatalf("unexpected card rates: %+v", overview.Cards)
	}
	if overview.Points.UsageRate != "0.00" {
		t.Fatalf("unexpected usage rate: %s", overview.Points.UsageRate)
	}
}

func TestDashboardOverviewRates(t *testing.T) {
	svc, db := setupDashboardTest(t)

	now := time.Now()
	users := []models.User{
		{Email: "a@example.com", PasswordHash: "hash", Role: "paid", Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
		{Email: "b@example.com", PasswordHash: "hash", Role: "normal", Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
		{Email: "c@example.com", PasswordHash: "hash", Role: "normal", Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
		{Email: "d@example.com", PasswordHash: "hash", Role: "normal", Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	redeemedBy := users[0].ID
	cards := []models.ExchangeCard{
		{CardNumber: "EC_RATE_1", CardName: "卡", Points: 60, Status: constants.ExchangeCardStatusRedeemed, RedeemedBy: &redeemedBy, RedeemedAt: &now, CreatedAt: now, UpdatedAt: now},
		{CardNumber: "EC_RATE_2", CardName: "卡", Points: 40, Status: constants.ExchangeCardStatusAvailable, CreatedAt: now, UpdatedAt: now},
	}
	for i := range cards {
		if err := db.Create(&cards[i]).Error; err != nil {
			t.Fatalf("create card failed: %v", err)
		}
	}

	logs := []models.PointsLog{
		{UserID: users[0].ID, ChangeType: constants.PointsChangeTypeCardRedeem, Direction: constants.PointsDirectionIn, Amount: 60, BalanceAfter: 60, Reference: strPtr("rate:in"), CreatedAt: now},
		{UserID: users[0].ID, ChangeType: constants.PointsChangeTypeFeatureUsage, Direction: constants.PointsDirectionOut, Amount: 15, BalanceBefore: 60, BalanceAfter: 45, Reference: strPtr("rate:out"), CreatedAt: now},
	}
	for i := range logs {
		if err := db.Create(&logs[i]).Error; err != nil {
			t.Fatalf("create log failed: %v", err)
		}
	}

	overview, err := svc.GetOverview(context.Background(), true)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.Users.TotalUsers != 4 || overview.Users.PaidUsers != 1 {
		t.Fatalf("unexpected user totals: %+v", overview.Users)
	}
	if overview.Users.PaymentRate != "25.00" {
		t.Fatalf("unexpected payment rate: %s", overview.Users.PaymentRate)
	}
	if overview.Cards.CardRedemptionRate != "50.00" {
		t.Fatalf("unexpected card redemption rate: %s", overview.Cards.CardRedemptionRate)
	}
	if overview.Cards.PointsRedemptionRate != "60.00" {
		t.Fatalf("unexpected points redemption rate: %s", overview.Cards.PointsRedemptionRate)
	}
	if overview.Points.TotalUsagePoints != 15 || overview.Points.TotalRedeemPoints != 60 {
		t.Fatalf("unexpected points usage: %+v", overview.Points)
	}
	if overview.Points.UsageRate != "25.00" {
		t.Fatalf("unexpected usage rate: %s", overview.Points.UsageRate)
	}
}

func TestDashboardTrendsZeroFilled(t *testing.T) {
	svc, db := setupDashboardTest(t)

	now := time.Now()
	user := models.User{Email: "trend@example.com", PasswordHash: "hash", Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	trends, err := svc.GetTrends(context.Background(), DashboardTrendInput{
		Metric:       DashboardMetricUsers,
		Granularity:  DashboardGranularityNew,
		RangeDays:    7,
		ForceRefresh: true,
	})
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	if len(trends.Points) != 7 {
		t.Fatalf("expected 7 points, got: %d", len(trends.Points))
	}
	today := now.Format("2006-01-02")
	var total int64
	for _, point := range trends.Points {
		if point.Date == "" {
			t.Fatalf("trend point missing date: %+v", point)
		}
		total += point.NewUsers
		if point.Date == today && point.NewUsers != 1 {
			t.Fatalf("expected 1 new user today, got: %d", point.NewUsers)
		}
	}
	if total != 1 {
		t.Fatalf("expected total 1 new user, got: %d", total)
	}
	if trends.Points[len(trends.Points)-1].Date != today {
		t.Fatalf("last point should be today: %s", trends.Points[len(trends.Points)-1].Date)
	}
}

func TestDashboardTrendsCumulative(t *testing.T) {
	svc, db := setupDashboardTest(t)

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	longAgo := now.AddDate(0, 0, -10)
	users := []models.User{
		// 窗口之前注册的用户计入累计基数
		{Email: "cum0@example.com", PasswordHash: "hash", Status: constants.UserStatusActive, CreatedAt: longAgo, UpdatedAt: longAgo},
		{Email: "cum1@example.com", PasswordHash: "hash", Status: constants.UserStatusActive, CreatedAt: yesterday, UpdatedAt: yesterday},
		{Email: "cum2@example.com", PasswordHash: "hash", Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	trends, err := svc.GetTrends(context.Background(), DashboardTrendInput{
		Metric:       DashboardMetricUsers,
		Granularity:  DashboardGranularityCumulative,
		RangeDays:    3,
		ForceRefresh: true,
	})
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	if len(trends.Points) != 3 {
		t.Fatalf("expected 3 points, got: %d", len(trends.Points))
	}
	if trends.Points[0].NewUsers != 1 {
		t.Fatalf("first point should carry the pre-window base, got: %d", trends.Points[0].NewUsers)
	}
	if trends.Points[1].NewUsers != 2 {
		t.Fatalf("second point should be 2, got: %d", trends.Points[1].NewUsers)
	}
	last := trends.Points[len(trends.Points)-1]
	if last.NewUsers != 3 {
		t.Fatalf("cumulative last point should be 3, got: %d", last.NewUsers)
	}
}

func TestDashboardTrendsValidation(t *testing.T) {
	svc, _ := setupDashboardTest(t)

	if _, err := svc.GetTrends(context.Background(), DashboardTrendInput{Metric: "unknown"}); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected ErrDashboardRangeInvalid for metric, got: %v", err)
	}
	if _, err := svc.GetTrends(context.Background(), DashboardTrendInput{Metric: DashboardMetricUsers, Granularity: "hourly"}); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected ErrDashboardRangeInvalid for granularity, got: %v", err)
	}
	if _, err := svc.GetTrends(context.Background(), DashboardTrendInput{Metric: DashboardMetricUsers, RangeDays: 91}); !errors.Is(err, ErrDashboardRangeInvalid) {
		t.Fatalf("expected ErrDashboardRangeInvalid for range, got: %v", err)
	}
}
