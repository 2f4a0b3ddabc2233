package container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stargatehub/events-gin/internal/api"
	"github.com/stargatehub/events-gin/internal/cache"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/database"
	"github.com/stargatehub/events-gin/internal/repository"
	"github.com/stargatehub/events-gin/internal/service"
	"github.com/stargatehub/events-gin/internal/source"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、缓存、适配器注册表和服务
type Container struct {
	db            *gorm.DB
	logger        *logrus.Logger
	registry      *source.Registry
	responseCache cache.ResponseCache
	eventRepo     repository.EventRepository
	syncService   service.SyncService
	statusService service.StatusService
	queryService  service.EventQueryService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化日志
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 2. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. 初始化适配器注册表
	registry := source.BuildRegistry(cfg.Providers, logger)

	// 4. 初始化响应缓存
	responseCache := cache.NewMemoryCache()

	// 5. 初始化仓储与服务
	eventRepo := repository.NewEventRepository(db)
	syncService := service.NewSyncService(registry, responseCache, eventRepo, logger)
	statusService := service.NewStatusService(registry, eventRepo)
	queryService := service.NewEventQueryService(eventRepo)

	return &Container{
		db:            db,
		logger:        logger,
		registry:      registry,
		responseCache: responseCache,
		eventRepo:     eventRepo,
		syncService:   syncService,
		statusService: statusService,
		queryService:  queryService,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Registry 获取适配器注册表
func (c *Container) Registry() *source.Registry {
	return c.registry
}

// ResponseCache 获取响应缓存
func (c *Container) ResponseCache() cache.ResponseCache {
	return c.responseCache
}

// EventRepository 获取事件仓储
func (c *Container) EventRepository() repository.EventRepository {
	return c.eventRepo
}

// SyncService 获取同步服务
func (c *Container) SyncService() service.SyncService {
	return c.syncService
}

// StatusService 获取状态服务
func (c *Container) StatusService() service.StatusService {
	return c.statusService
}

// QueryService 获取查询服务
func (c *Container) QueryService() service.EventQueryService {
	return c.queryService
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
