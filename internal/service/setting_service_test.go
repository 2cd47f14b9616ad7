package service

import (
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

func setupSettingTest(t *testing.T) *SettingService {
	t.Helper()
	dsn := fmt.Sprintf("file:setting_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewSettingService(repository.NewSettingRepository(db))
}

func TestSettingGetConfigMergesDefaults(t *testing.T) {
	svc := setupSettingTest(t)

	defaults := map[string]interface{}{
		"locale":    "zh-CN",
		"site_name": "默认站点",
	}

	// 无配置时返回默认值
	config, err := svc.GetConfig(defaults)
	if err != nil {
		t.Fatalf("get config failed: %v", err)
	}
	if config["site_name"] != "默认站点" {
		t.Fatalf("defaults should be returned: %+v", config)
	}

	if _, err := svc.Update(constants.SettingKeySiteConfig, map[string]interface{}{
		"site_name": "积分商城",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	config, err = svc.GetConfig(defaults)
	if err != nil {
		t.Fatalf("get config failed: %v", err)
	}
	// 存储值覆盖默认值，未覆盖的保留
	if config["site_name"] != "积分商城" {
		t.Fatalf("stored value should override default: %+v", config)
	}
	if config["locale"] != "zh-CN" {
		t.Fatalf("untouched default should survive: %+v", config)
	}
}

func TestSettingUpdateValidation(t *testing.T) {
	svc := setupSettingTest(t)

	if _, err := svc.Update("  ", map[string]interface{}{"a": 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}

	value, err := svc.Update("custom_key", map[string]interface{}{"a": 1})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if value == nil {
		t.Fatalf("expected stored value")
	}

	loaded, err := svc.GetByKey("custom_key")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected value for stored key")
	}
}

func TestSettingGetPageSize(t *testing.T) {
	svc := setupSettingTest(t)

	size, err := svc.GetPageSize(20)
	if err != nil {
		t.Fatalf("get page size failed: %v", err)
	}
	if size != 20 {
		t.Fatalf("missing config should fall back to default, got: %d", size)
	}

	if _, err := svc.Update(constants.SettingKeyDisplayConfig, map[string]interface{}{
		constants.SettingFieldPageSize: "50",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	size, err = svc.GetPageSize(20)
	if err != nil {
		t.Fatalf("get page size failed: %v", err)
	}
	if size != 50 {
		t.Fatalf("string value should parse, got: %d", size)
	}

	// 非法值回退默认
	if _, err := svc.Update(constants.SettingKeyDisplayConfig, map[string]interface{}{
		constants.SettingFieldPageSize: "not-a-number",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	size, err = svc.GetPageSize(20)
	if err != nil {
		t.Fatalf("get page size failed: %v", err)
	}
	if size != 20 {
		t.Fatalf("invalid value should fall back to default, got: %d", size)
	}
}
