package public

import (
	"time"

	"github.com/jifen-next/internal/cache"
	"github.com/jifen-next/internal/constants"
	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey  = "public:config"
	publicConfigCacheTTL  = 60 * time.Second
	publicCatalogCacheKey = "public:catalog"
	publicCatalogCacheTTL = 60 * time.Second

	catalogPageSize = 500
)

// GetConfig 获取站点公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	// 默认配置
	defaults := map[string]interface{}{
		"languages": []string{"zh-CN", "en-US"},
		"locale":    "zh-CN",
	}

	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data, err := h.SettingService.GetConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", err)
		return
	}

	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}

type catalogFunctionView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	PointsCost  int64  `json:"points_cost"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type catalogCategoryView struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	SortOrder   int                   `json:"sort_order"`
	Functions   []catalogFunctionView `json:"functions"`
}

// GetFunctionCatalog 获取启用中的功能目录（分类 + 功能及其积分单价）
func (h *Handler) GetFunctionCatalog(c *gin.Context) {
	var cached []catalogCategoryView
	if hit, err := cache.GetJSON(c.Request.Context(), publicCatalogCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	enabled := true
	categories, _, err := h.AppConfigService.List(repository.AppConfigListFilter{
		Page:     1,
		PageSize: catalogPageSize,
		Type:     constants.AppConfigTypeCategory,
		Enabled:  &enabled,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.query_failed", err)
		return
	}

	catalog := make([]catalogCategoryView, 0, len(categories))
	for _, category := range categories {
		functions, err := h.AppConfigService.GetFunctionsByCategory(category.ID, true)
		if err != nil {
			respondError(c, response.CodeInternal, "error.query_failed", err)
			return
		}
		views := make([]catalogFunctionView, 0, len(functions))
		for _, fn := range functions {
			views = append(views, catalogFunctionView{
				ID:          fn.ID,
				Name:        fn.Name,
				PointsCost:  fn.PointsCost,
				Description: fn.Description,
				SortOrder:   fn.SortOrder,
			})
		}
		catalog = append(catalog, catalogCategoryView{
			ID:          category.ID,
			Name:        category.Name,
			Description: category.Description,
			SortOrder:   category.SortOrder,
			Functions:   views,
		})
	}

	_ = cache.SetJSON(c.Request.Context(), publicCatalogCacheKey, catalog, publicCatalogCacheTTL)
	response.Success(c, catalog)
}
