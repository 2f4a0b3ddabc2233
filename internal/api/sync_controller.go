package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stargatehub/events-gin/internal/service"
	"github.com/stargatehub/events-gin/internal/source"
)

// SyncController 同步控制器
type SyncController struct {
	syncService   service.SyncService
	statusService service.StatusService
	registry      *source.Registry
}

// NewSyncController 创建同步控制器
func NewSyncController(syncService service.SyncService, statusService service.StatusService, registry *source.Registry) *SyncController {
	return &SyncController{
		syncService:   syncService,
		statusService: statusService,
		registry:      registry,
	}
}

// SyncAll 触发全量同步
// force=true 时绕过缓存并在重新拉取前废弃旧条目
// 即便所有提供商都失败也返回结构化结果, 不返回裸 500
func (c *SyncController) SyncAll(ctx *gin.Context) {
	forced := parseForce(ctx)

	result := c.syncService.SyncAll(ctx.Request.Context(), forced)
	Success(ctx, result)
}

// SyncSource 触发单一来源同步
func (c *SyncController) SyncSource(ctx *gin.Context) {
	sourceName := ctx.Param("source")
	forced := parseForce(ctx)

	result, err := c.syncService.SyncOne(ctx.Request.Context(), sourceName, forced)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSource) {
			Error(ctx, http.StatusBadRequest, "unknown source", err.Error())
			return
		}
		Error(ctx, http.StatusInternalServerError, "sync failed", err.Error())
		return
	}

	Success(ctx, result)
}

// GetStatus 获取各来源同步状态
func (c *SyncController) GetStatus(ctx *gin.Context) {
	statuses, err := c.statusService.GetStatus()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get sync status", err.Error())
		return
	}

	Success(ctx, statuses)
}

// SourceHealth 探测各来源连通性
// 与同步路径独立, 不触碰缓存和仓储
func (c *SyncController) SourceHealth(ctx *gin.Context) {
	type sourceHealth struct {
		Source     string `json:"source"`
		Configured bool   `json:"configured"`
		OK         bool   `json:"ok"`
		Detail     string `json:"detail"`
	}

	results := make([]sourceHealth, 0, c.registry.Len())
	for _, name := range c.registry.Names() {
		adapter, ok := c.registry.Get(name)
		if !ok {
			continue
		}
		healthy, detail := adapter.TestConnection(ctx.Request.Context())
		results = append(results, sourceHealth{
			Source:     name,
			Configured: adapter.IsConfigured(),
			OK:         healthy,
			Detail:     detail,
		})
	}

	Success(ctx, results)
}

// parseForce 解析 force 查询参数
func parseForce(ctx *gin.Context) bool {
	force := ctx.Query("force")
	return force == "true" || force == "1"
}
