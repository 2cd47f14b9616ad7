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

func setupAppConfigTest(t *testing.T) *AppConfigService {
	t.Helper()
	dsn := fmt.Sprintf("file:app_config_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AppConfig{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewAppConfigService(repository.NewAppConfigRepository(db))
}

func TestAppConfigHierarchy(t *testing.T) {
	svc := setupAppConfigTest(t)

	category, err := svc.Upsert(UpsertAppConfigInput{
		Name: "图像处理",
		Type: constants.AppConfigTypeCategory,
	})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if !category.Enabled {
		t.Fatalf("new config should default to enabled")
	}

	function, err := svc.Upsert(UpsertAppConfigInput{
		Name:       "图片放大",
		Type:       constants.AppConfigTypeFunction,
		ParentID:   &category.ID,
		PointsCost: 10,
	})
	if err != nil {
		t.Fatalf("create function failed: %v", err)
	}
	if function.ParentID == nil || *function.ParentID != category.ID {
		t.Fatalf("function not linked to category: %+v", function)
	}

	functions, err := svc.GetFunctionsByCategory(category.ID, false)
	if err != nil {
		t.Fatalf("list functions failed: %v", err)
	}
	if len(functions) != 1 || functions[0].Name != "图片放大" {
		t.Fatalf("unexpected functions: %+v", functions)
	}

	// 功能被禁用后 enabledOnly 查询应过滤掉
	if _, err := svc.Toggle(function.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	enabledOnly, err := svc.GetFunctionsByCategory(category.ID, true)
	if err != nil {
		t.Fatalf("list enabled functions failed: %v", err)
	}
	if len(enabledOnly) != 0 {
		t.Fatalf("disabled function should be filtered: %+v", enabledOnly)
	}
}

func TestAppConfigParentValidation(t *testing.T) {
	svc := setupAppConfigTest(t)

	if _, err := svc.Upsert(UpsertAppConfigInput{
		Name: "孤儿功能",
		Type: constants.AppConfigTypeFunction,
	}); !errors.Is(err, ErrParentInvalid) {
		t.Fatalf("expected ErrParentInvalid for missing parent, got: %v", err)
	}

	missing := uint(9999)
	if _, err := svc.Upsert(UpsertAppConfigInput{
		Name:     "悬空功能",
		Type:     constants.AppConfigTypeFunction,
		ParentID: &missing,
	}); !errors.Is(err, ErrParentInvalid) {
		t.Fatalf("expected ErrParentInvalid for unknown parent, got: %v", err)
	}

	category, err := svc.Upsert(UpsertAppConfigInput{Name: "分类A", Type: constants.AppConfigTypeCategory})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	function, err := svc.Upsert(UpsertAppConfigInput{Name: "功能A", Type: constants.AppConfigTypeFunction, ParentID: &category.ID, PointsCost: 1})
	if err != nil {
		t.Fatalf("create function failed: %v", err)
	}

	// 功能不能作为父级
	if _, err := svc.Upsert(UpsertAppConfigInput{
		Name:     "二级功能",
		Type:     constants.AppConfigTypeFunction,
		ParentID: &function.ID,
	}); !errors.Is(err, ErrParentInvalid) {
		t.Fatalf("expected ErrParentInvalid for function parent, got: %v", err)
	}

	// 分类不允许有父级
	if _, err := svc.Upsert(UpsertAppConfigInput{
		Name:     "带父分类",
		Type:     constants.AppConfigTypeCategory,
		ParentID: &category.ID,
	}); !errors.Is(err, ErrParentInvalid) {
		t.Fatalf("expected ErrParentInvalid for category with parent, got: %v", err)
	}
}

func TestAppConfigUpsertByName(t *testing.T) {
	svc := setupAppConfigTest(t)

	category, err := svc.Upsert(UpsertAppConfigInput{Name: "分类B", Type: constants.AppConfigTypeCategory})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.Upsert(UpsertAppConfigInput{
		Name:        "分类B",
		Type:        constants.AppConfigTypeCategory,
		Description: "更新后的描述",
		SortOrder:   5,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if updated.ID != category.ID {
		t.Fatalf("upsert should reuse existing record: %d vs %d", updated.ID, category.ID)
	}
	if updated.Description != "更新后的描述" || updated.SortOrder != 5 {
		t.Fatalf("unexpected updated config: %+v", updated)
	}

	// 同名改类型不允许
	if _, err := svc.Upsert(UpsertAppConfigInput{Name: "分类B", Type: constants.AppConfigTypeFunction, ParentID: &category.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for type change, got: %v", err)
	}
}

func TestAppConfigDeleteCategoryWithChildren(t *testing.T) {
	svc := setupAppConfigTest(t)

	category, err := svc.Upsert(UpsertAppConfigInput{Name: "分类C", Type: constants.AppConfigTypeCategory})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	function, err := svc.Upsert(UpsertAppConfigInput{Name: "功能C", Type: constants.AppConfigTypeFunction, ParentID: &category.ID, PointsCost: 2})
	if err != nil {
		t.Fatalf("create function failed: %v", err)
	}

	if err := svc.Delete(category.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-empty category, got: %v", err)
	}
	if err := svc.Delete(function.ID); err != nil {
		t.Fatalf("delete function failed: %v", err)
	}
	if err := svc.Delete(category.ID); err != nil {
		t.Fatalf("delete empty category failed: %v", err)
	}
	if err := svc.Delete(category.ID); !errors.Is(err, ErrAppConfigNotFound) {
		t.Fatalf("expected ErrAppConfigNotFound, got: %v", err)
	}
}
