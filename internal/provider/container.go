package provider

import (
	"github.com/jifen-next/internal/authz"
	"github.com/jifen-next/internal/cache"
	"github.com/jifen-next/internal/config"
	"github.com/jifen-next/internal/logger"
	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/queue"
	"github.com/jifen-next/internal/repository"
	"github.com/jifen-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	PointsLogRepo    repository.PointsLogRepository
	ExchangeCardRepo repository.ExchangeCardRepository
	ApiKeyRepo       repository.ApiKeyRepository
	AppConfigRepo    repository.AppConfigRepository
	VariableRepo     repository.VariableRepository
	SettingRepo      repository.SettingRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	UserAdminService    *service.UserAdminService
	PointsLedgerService *service.PointsLedgerService
	ExchangeCardService *service.ExchangeCardService
	ApiKeyService       *service.ApiKeyService
	AppConfigService    *service.AppConfigService
	VariableService     *service.VariableService
	SettingService      *service.SettingService
	DashboardService    *service.DashboardService
	CleanupService      *service.CleanupService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.PointsLogRepo = repository.NewPointsLogRepository(db)
	c.ExchangeCardRepo = repository.NewExchangeCardRepository(db)
	c.ApiKeyRepo = repository.NewApiKeyRepository(db)
	c.AppConfigRepo = repository.NewAppConfigRepository(db)
	c.VariableRepo = repository.NewVariableRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.PointsLedgerService = service.NewPointsLedgerService(c.PointsLogRepo, c.UserRepo, c.Config.Points.AllowNegativeAdminAdjust)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.PointsLedgerService)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo, c.PointsLedgerService)
	c.ExchangeCardService = service.NewExchangeCardService(c.ExchangeCardRepo, c.UserRepo, c.PointsLedgerService, c.Config.Points.CardNumberMaxRetries)
	c.ApiKeyService = service.NewApiKeyService(c.ApiKeyRepo)
	c.AppConfigService = service.NewAppConfigService(c.AppConfigRepo)
	c.VariableService = service.NewVariableService(c.VariableRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
	c.CleanupService = service.NewCleanupService(c.Config.Retention, c.PointsLedgerService, c.UserAdminService, c.ExchangeCardService)
}
