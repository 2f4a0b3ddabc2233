package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/metrics"
	"gorm.io/gorm"
)

// SetupRoutes 配置路由
func SetupRoutes(
	cfg *config.Config,
	logger *logrus.Logger,
	db *gorm.DB,
	eventController *EventController,
	syncController *SyncController,
) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestLogMiddleware(logger))
	router.Use(CORSMiddleware(&cfg.CORS))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 事件查询路由
		events := v1.Group("/events")
		{
			events.GET("", eventController.ListEvents)
			events.GET("/:id", eventController.GetEvent)
		}

		// 同步路由, 触发接口单独限流
		syncLimiter := RateLimitMiddleware(cfg.Sync.RateLimitRPS, cfg.Sync.RateLimitBurst)
		sync := v1.Group("/sync")
		{
			sync.POST("", syncLimiter, syncController.SyncAll)
			sync.GET("/status", syncController.GetStatus)
			// 具体路径的路由必须在 /:source 之前注册
			sync.POST("/:source", syncLimiter, syncController.SyncSource)
		}

		// 来源连通性探测
		v1.GET("/sources/health", syncController.SourceHealth)
	}

	// 自定义 NoRoute 处理器,返回 JSON 格式的 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
