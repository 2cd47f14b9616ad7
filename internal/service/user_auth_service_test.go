package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthTest(t *testing.T, cfg *config.Config) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointsLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.UserJWT.SecretKey == "" {
		cfg.UserJWT.SecretKey = "user-auth-test-secret-key-0123456789"
	}
	userRepo := repository.NewUserRepository(db)
	logRepo := repository.NewPointsLogRepository(db)
	ledger := NewPointsLedgerService(logRepo, userRepo, false)
	return NewUserAuthService(cfg, userRepo, ledger), db
}

func TestUserRegisterAndLogin(t *testing.T) {
	svc, _ := setupUserAuthTest(t, nil)

	user, token, expiresAt, err := svc.Register("New.User@Example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "new.user@example.com" {
		t.Fatalf("email should be normalized: %s", user.Email)
	}
	if user.DisplayName != "new.user" {
		t.Fatalf("unexpected default nickname: %s", user.DisplayName)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("invalid token or expiry: %q %v", token, expiresAt)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.LoginWithRememberMe("new.user@example.com", "Passw0rd!", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, _, _, err := svc.LoginWithRememberMe("new.user@example.com", "wrong-password", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestUserRegisterValidation(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true}
	svc, _ := setupUserAuthTest(t, cfg)

	if _, _, _, err := svc.Register("not-an-email", "Passw0rd!"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
	if _, _, _, err := svc.Register("weak@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got: %v", err)
	}
	if _, _, _, err := svc.Register("weak@example.com", "longenoughbutnodigits"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for missing number, got: %v", err)
	}

	if _, _, _, err := svc.Register("dup@example.com", "Passw0rd!"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, _, err := svc.Register("DUP@example.com", "Passw0rd!"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for case-insensitive duplicate, got: %v", err)
	}
}

func TestUserRegisterGiftPoints(t *testing.T) {
	cfg := &config.Config{}
	cfg.Points.RegisterGiftPoints = 20
	svc, db := setupUserAuthTest(t, cfg)

	user, _, _, err := svc.Register("gift@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Points != 20 {
		t.Fatalf("expected gift balance 20, got: %d", user.Points)
	}

	var log models.PointsLog
	if err := db.Where("user_id = ?", user.ID).First(&log).Error; err != nil {
		t.Fatalf("load gift log failed: %v", err)
	}
	if log.ChangeType != constants.PointsChangeTypeRegisterGift || log.Amount != 20 || log.BalanceAfter != 20 {
		t.Fatalf("unexpected gift log: %+v", log)
	}
}

func TestUserLoginDisabled(t *testing.T) {
	svc, db := setupUserAuthTest(t, nil)

	if _, _, _, err := svc.Register("disabled@example.com", "Passw0rd!"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).
		Where("email = ?", "disabled@example.com").
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	if _, _, _, err := svc.LoginWithRememberMe("disabled@example.com", "Passw0rd!", false); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got: %v", err)
	}
}

func TestUserChangePassword(t *testing.T) {
	svc, db := setupUserAuthTest(t, nil)

	user, _, _, err := svc.Register("change@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	oldVersion := user.TokenVersion

	if err := svc.ChangePassword(user.ID, "wrong-old", "NewPassw0rd!"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got: %v", err)
	}
	if err := svc.ChangePassword(user.ID, "Passw0rd!", "NewPassw0rd!"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	// 改密后 Token 版本提升，旧 Token 全部失效
	if reloaded.TokenVersion != oldVersion+1 || reloaded.TokenInvalidBefore == nil {
		t.Fatalf("token invalidation not recorded: version=%d invalid_before=%v", reloaded.TokenVersion, reloaded.TokenInvalidBefore)
	}

	if _, _, _, err := svc.LoginWithRememberMe("change@example.com", "Passw0rd!", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got: %v", err)
	}
	if _, _, _, err := svc.LoginWithRememberMe("change@example.com", "NewPassw0rd!", false); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	svc, _ := setupUserAuthTest(t, nil)

	user, _, _, err := svc.Register("profile@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	nickname := "  新昵称  "
	locale := "en-US"
	updated, err := svc.UpdateProfile(user.ID, &nickname, &locale)
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.DisplayName != "新昵称" || updated.Locale != "en-US" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	if _, err := svc.UpdateProfile(99999, &nickname, nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}
