package service

import (
	"fmt"

	"github.com/stargatehub/events-gin/internal/model"
	"github.com/stargatehub/events-gin/internal/repository"
	"github.com/stargatehub/events-gin/internal/source"
)

// StatusService 来源同步状态服务接口
// 纯读侧投影, 不持有自己的状态, 每次都反映仓储当前内容
type StatusService interface {
	GetStatus() ([]*model.SourceStatus, error)
}

// statusService 来源同步状态服务实现
type statusService struct {
	registry *source.Registry
	repo     repository.EventRepository
}

// NewStatusService 创建来源同步状态服务
func NewStatusService(registry *source.Registry, repo repository.EventRepository) StatusService {
	return &statusService{
		registry: registry,
		repo:     repo,
	}
}

// GetStatus 返回每个注册来源的最近同步时间和事件计数
func (s *statusService) GetStatus() ([]*model.SourceStatus, error) {
	names := s.registry.Names()
	statuses := make([]*model.SourceStatus, 0, len(names))

	for _, name := range names {
		counts, err := s.repo.CountBySource(name)
		if err != nil {
			return nil, fmt.Errorf("failed to count events for %s: %w", name, err)
		}

		lastSync, err := s.repo.LastSyncedAt(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get last sync for %s: %w", name, err)
		}

		configured := false
		if adapter, ok := s.registry.Get(name); ok {
			configured = adapter.IsConfigured()
		}

		statuses = append(statuses, &model.SourceStatus{
			Source:         name,
			Configured:     configured,
			LastSync:       lastSync,
			TotalEvents:    counts.Total,
			ActiveEvents:   counts.Active,
			UpcomingEvents: counts.Upcoming,
		})
	}

	return statuses, nil
}
