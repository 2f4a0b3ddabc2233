package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stargatehub/events-gin/internal/cache"
	"github.com/stargatehub/events-gin/internal/metrics"
	"github.com/stargatehub/events-gin/internal/model"
	"github.com/stargatehub/events-gin/internal/repository"
	"github.com/stargatehub/events-gin/internal/source"
)

// ErrUnknownSource 请求了未注册的来源
var ErrUnknownSource = errors.New("unknown source")

// SyncService 同步编排服务接口
// 单个来源的失败不会中断其它来源, 结果按来源独立上报
type SyncService interface {
	SyncAll(ctx context.Context, forced bool) *model.SyncResult
	SyncOne(ctx context.Context, sourceName string, forced bool) (*model.SyncResult, error)
}

// syncService 同步编排服务实现
type syncService struct {
	registry *source.Registry
	cache    cache.ResponseCache
	repo     repository.EventRepository
	logger   *logrus.Logger
}

// NewSyncService 创建同步编排服务
func NewSyncService(registry *source.Registry, responseCache cache.ResponseCache, repo repository.EventRepository, logger *logrus.Logger) SyncService {
	return &syncService{
		registry: registry,
		cache:    responseCache,
		repo:     repo,
		logger:   logger,
	}
}

// SyncAll 同步全部注册来源
// 每个来源一个 goroutine, 注册表规模固定且很小, 无需工作池
func (s *syncService) SyncAll(ctx context.Context, forced bool) *model.SyncResult {
	result := model.NewSyncResult(forced)
	start := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, name := range s.registry.Names() {
		adapter, ok := s.registry.Get(name)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(adapter source.Adapter) {
			defer wg.Done()
			outcome := s.syncSource(ctx, adapter, forced)
			if outcome == nil {
				// 取消发生在该来源启动之前, 不计入结果
				return
			}
			mu.Lock()
			result.Add(outcome)
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()
	result.Duration = time.Since(start).String()

	s.logger.WithFields(logrus.Fields{
		"forced":       forced,
		"sources":      len(result.PerSource),
		"total_synced": result.TotalSynced,
		"duration":     result.Duration,
	}).Info("sync completed")

	return result
}

// SyncOne 同步单个来源
// 未注册的来源直接报错, 不触碰缓存和仓储
func (s *syncService) SyncOne(ctx context.Context, sourceName string, forced bool) (*model.SyncResult, error) {
	adapter, ok := s.registry.Get(sourceName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceName)
	}

	result := model.NewSyncResult(forced)
	start := time.Now()
	result.Add(s.syncSource(ctx, adapter, forced))
	result.Duration = time.Since(start).String()

	return result, nil
}

// syncSource 同步单一来源
// 返回 nil 表示该来源在启动前已被取消
func (s *syncService) syncSource(ctx context.Context, adapter source.Adapter, forced bool) *model.SourceOutcome {
	if ctx.Err() != nil {
		return nil
	}

	name := adapter.Name()
	start := time.Now()
	key := cache.Key(name, start)

	if forced {
		// 强制刷新先废弃旧条目, 成功后仍会回写缓存
		s.cache.Invalidate(key)
	} else {
		if batch, found := s.cache.Get(key); found {
			metrics.RecordSyncRun(name, "cached", time.Since(start).Seconds())
			s.logger.WithFields(logrus.Fields{
				"source": name,
				"count":  len(batch),
			}).Debug("sync served from cache")
			return &model.SourceOutcome{
				Source: name,
				Status: model.SyncStatusSuccess,
				Count:  len(batch),
				Cached: true,
			}
		}
	}

	batch, fetchErr := adapter.Fetch(ctx)

	written := 0
	for _, event := range batch {
		if _, _, err := s.repo.Upsert(event); err != nil {
			// 存储故障中止该来源, 其余来源不受影响
			metrics.RecordSyncRun(name, model.SyncStatusError, time.Since(start).Seconds())
			s.logger.WithFields(logrus.Fields{
				"source": name,
				"forced": forced,
				"error":  err.Error(),
			}).Error("event upsert failed")
			return &model.SourceOutcome{
				Source: name,
				Status: model.SyncStatusError,
				Count:  0,
				Error:  fmt.Sprintf("upsert failed: %v", err),
			}
		}
		written++
	}
	metrics.RecordEventsUpserted(name, written)

	if fetchErr != nil {
		// 兜底批次已入库保证前端有内容, 但结果标记为 error 供运维定位
		metrics.RecordSyncRun(name, model.SyncStatusError, time.Since(start).Seconds())
		s.logger.WithFields(logrus.Fields{
			"source": name,
			"forced": forced,
			"count":  written,
			"error":  fetchErr.Error(),
		}).Warn("source sync degraded to fallback")
		return &model.SourceOutcome{
			Source: name,
			Status: model.SyncStatusError,
			Count:  written,
			Error:  fetchErr.Error(),
		}
	}

	s.cache.Put(key, batch, adapter.CacheTTL())
	metrics.RecordSyncRun(name, model.SyncStatusSuccess, time.Since(start).Seconds())
	s.logger.WithFields(logrus.Fields{
		"source": name,
		"forced": forced,
		"count":  written,
	}).Info("source synced")

	return &model.SourceOutcome{
		Source: name,
		Status: model.SyncStatusSuccess,
		Count:  written,
	}
}
