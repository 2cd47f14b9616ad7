package main

import (
	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/logger"
	"github.com/jifen-next/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 功能分类
	categories := []models.AppConfig{
		{Name: "图像处理", Type: constants.AppConfigTypeCategory, Description: "图片相关能力", SortOrder: 10},
		{Name: "文本处理", Type: constants.AppConfigTypeCategory, Description: "文本相关能力", SortOrder: 20},
	}

	categoryIDs := map[string]uint{}
	for _, category := range categories {
		var existing models.AppConfig
		if err := models.DB.Where("name = ?", category.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&category).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", category.Name, err)
				continue
			}
			stdLog.Printf("Created category: %s", category.Name)
			categoryIDs[category.Name] = category.ID
			continue
		}
		stdLog.Printf("Category already exists: %s", existing.Name)
		categoryIDs[existing.Name] = existing.ID
	}

	// 功能项（含单次积分消耗）
	functions := []struct {
		Name        string
		Category    string
		PointsCost  int64
		Description string
		SortOrder   int
	}{
		{"图片放大", "图像处理", 10, "超分辨率放大", 10},
		{"背景移除", "图像处理", 15, "自动抠图", 20},
		{"文本摘要", "文本处理", 5, "长文摘要", 10},
		{"文本翻译", "文本处理", 8, "多语种互译", 20},
	}
	for _, fn := range functions {
		parentID, ok := categoryIDs[fn.Category]
		if !ok {
			stdLog.Printf("Skip function %s: category %s missing", fn.Name, fn.Category)
			continue
		}
		var existing models.AppConfig
		if err := models.DB.Where("name = ?", fn.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Function already exists: %s", existing.Name)
			continue
		}
		record := models.AppConfig{
			Name:        fn.Name,
			Type:        constants.AppConfigTypeFunction,
			ParentID:    &parentID,
			PointsCost:  fn.PointsCost,
			Description: fn.Description,
			SortOrder:   fn.SortOrder,
		}
		if err := models.DB.Create(&record).Error; err != nil {
			stdLog.Printf("Failed to create function %s: %v", fn.Name, err)
			continue
		}
		stdLog.Printf("Created function: %s (cost=%d)", fn.Name, fn.PointsCost)
	}

	// 运行时变量
	variables := []models.Variable{
		{Name: "exchange_banner", Value: "兑换码限时活动进行中", Remark: "前台公告文案"},
		{Name: "maintenance_notice", Value: "", Remark: "维护公告，为空则不展示"},
	}
	for _, variable := range variables {
		var existing models.Variable
		if err := models.DB.Where("name = ?", variable.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Variable already exists: %s", existing.Name)
			continue
		}
		if err := models.DB.Create(&variable).Error; err != nil {
			stdLog.Printf("Failed to create variable %s: %v", variable.Name, err)
			continue
		}
		stdLog.Printf("Created variable: %s", variable.Name)
	}

	stdLog.Printf("Seed finished")
}
