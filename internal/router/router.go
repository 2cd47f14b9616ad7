package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jifen-next/internal/authz"
	"github.com/jifen-next/internal/cache"
	"github.com/jifen-next/internal/config"
	adminhandlers "github.com/jifen-next/internal/http/handlers/admin"
	publichandlers "github.com/jifen-next/internal/http/handlers/public"
	"github.com/jifen-next/internal/http/response"
	"github.com/jifen-next/internal/logger"
	"github.com/jifen-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "jf"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/catalog", publicHandler.GetFunctionCatalog)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetUserProfile)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.UpdateUserPassword)
			user.GET("/me/balance", publicHandler.GetMyBalance)
			user.GET("/me/points-logs", publicHandler.GetMyPointsLogs)
			user.POST("/exchange-cards/redeem", publicHandler.RedeemExchangeCard)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)

				// 兑换卡管理
				authorized.GET("/exchange-cards", adminHandler.GetExchangeCards)
				authorized.POST("/exchange-cards", adminHandler.BatchCreateExchangeCards)
				authorized.POST("/exchange-cards/batch-delete", adminHandler.BatchDeleteExchangeCards)
				authorized.GET("/exchange-cards/:card_number", adminHandler.GetExchangeCard)
				authorized.PUT("/exchange-cards/:card_number", adminHandler.UpdateExchangeCard)
				authorized.DELETE("/exchange-cards/:card_number", adminHandler.DeleteExchangeCard)

				// 积分流水管理
				authorized.GET("/points-logs", adminHandler.GetPointsLogs)
				authorized.POST("/points-logs", adminHandler.CreatePointsLog)

				// 用户管理
				authorized.GET("/users", adminHandler.GetUsers)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.PUT("/users/:id", adminHandler.UpdateUser)
				authorized.DELETE("/users/:id", adminHandler.DeleteUser)
				authorized.POST("/users/:id/points", adminHandler.AdjustUserPoints)
				authorized.GET("/users/:id/balance", adminHandler.VerifyUserBalance)

				// API 密钥管理
				authorized.GET("/api-keys", adminHandler.GetApiKeys)
				authorized.POST("/api-keys", adminHandler.UpsertApiKey)
				authorized.PUT("/api-keys/:name", adminHandler.UpdateApiKey)
				authorized.PATCH("/api-keys/:name/toggle", adminHandler.ToggleApiKey)
				authorized.DELETE("/api-keys/:name", adminHandler.DeleteApiKey)

				// 功能配置管理
				authorized.GET("/app-configs", adminHandler.GetAppConfigs)
				authorized.POST("/app-configs", adminHandler.UpsertAppConfig)
				authorized.GET("/app-configs/:id/functions", adminHandler.GetAppConfigFunctions)
				authorized.PATCH("/app-configs/:id/toggle", adminHandler.ToggleAppConfig)
				authorized.DELETE("/app-configs/:id", adminHandler.DeleteAppConfig)

				// 变量管理
				authorized.GET("/variables", adminHandler.GetVariables)
				authorized.POST("/variables", adminHandler.UpsertVariable)
				authorized.PUT("/variables/:name", adminHandler.UpdateVariable)
				authorized.PATCH("/variables/:name/toggle", adminHandler.ToggleVariable)
				authorized.DELETE("/variables/:name", adminHandler.DeleteVariable)

				// 设置管理
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword) // 修改密码

				// 数据清理
				authorized.POST("/cleanup/run", adminHandler.RunCleanup)
				authorized.POST("/cleanup/enqueue", adminHandler.EnqueueCleanup)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
