package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.PointsLog{}, &models.ExchangeCard{}); err != nil {
		t.Fatalf("migrate dashboard models failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func TestGetCardTotals(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	redeemedBy := uint(1)
	cards := []models.ExchangeCard{
		{CardNumber: "EC_T1", CardName: "卡", Points: 100, Status: constants.ExchangeCardStatusRedeemed, RedeemedBy: &redeemedBy, RedeemedAt: &now, CreatedAt: now, UpdatedAt: now},
		{CardNumber: "EC_T2", CardName: "卡", Points: 50, Status: constants.ExchangeCardStatusAvailable, CreatedAt: now, UpdatedAt: now},
		{CardNumber: "EC_T3", CardName: "卡", Points: 30, Status: constants.ExchangeCardStatusAvailable, CreatedAt: now, UpdatedAt: now},
	}
	for i := range cards {
		if err := db.Create(&cards[i]).Error; err != nil {
			t.Fatalf("create card failed: %v", err)
		}
	}

	totals, err := repo.GetCardTotals()
	if err != nil {
		t.Fatalf("get card totals failed: %v", err)
	}
	if totals.TotalCards != 3 || totals.RedeemedCards != 1 {
		t.Fatalf("unexpected card counts: %+v", totals)
	}
	if totals.TotalPoints != 180 || totals.RedeemedPoints != 100 {
		t.Fatalf("unexpected point sums: %+v", totals)
	}
}

func TestGetPointsTrendsGroupsByDay(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)

	ref1 := "trend:1"
	ref2 := "trend:2"
	ref3 := "trend:3"
	logs := []models.PointsLog{
		{UserID: 1, ChangeType: constants.PointsChangeTypeCardRedeem, Direction: constants.PointsDirectionIn, Amount: 100, Reference: &ref1, CreatedAt: yesterday},
		{UserID: 1, ChangeType: constants.PointsChangeTypeFeatureUsage, Direction: constants.PointsDirectionOut, Amount: 30, Reference: &ref2, CreatedAt: now},
		{UserID: 1, ChangeType: constants.PointsChangeTypeFeatureUsage, Direction: constants.PointsDirectionOut, Amount: 20, Reference: &ref3, CreatedAt: now},
	}
	for i := range logs {
		if err := db.Create(&logs[i]).Error; err != nil {
			t.Fatalf("create log failed: %v", err)
		}
	}

	startAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -2)
	endAt := startAt.AddDate(0, 0, 3)
	rows, err := repo.GetPointsTrends(startAt, endAt)
	if err != nil {
		t.Fatalf("get points trends failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 grouped days, got: %d", len(rows))
	}

	byDay := make(map[string]DashboardPointsTrendRow, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}
	today := now.Format("2006-01-02")
	if byDay[today].PointsOut != 50 || byDay[today].PointsIn != 0 {
		t.Fatalf("unexpected today row: %+v", byDay[today])
	}
	yesterdayKey := yesterday.Format("2006-01-02")
	if byDay[yesterdayKey].PointsIn != 100 {
		t.Fatalf("unexpected yesterday row: %+v", byDay[yesterdayKey])
	}
}

func TestGetUserTotalsCountsPaidRole(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	users := []models.User{
		{Email: "paid@example.com", PasswordHash: "hash", Role: constants.UserRolePaid, Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
		{Email: "normal@example.com", PasswordHash: "hash", Role: constants.UserRoleNormal, Status: constants.UserStatusActive, CreatedAt: now, UpdatedAt: now},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	totals, err := repo.GetUserTotals()
	if err != nil {
		t.Fatalf("get user totals failed: %v", err)
	}
	if totals.TotalUsers != 2 || totals.PaidUsers != 1 {
		t.Fatalf("unexpected user totals: %+v", totals)
	}
}
