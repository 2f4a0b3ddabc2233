package service

import (
	"errors"
	"fmt"

	"github.com/stargatehub/events-gin/internal/model"
	"github.com/stargatehub/events-gin/internal/repository"
)

// 分页上限, 控制器依据同一组值计算分页元数据
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// 过滤器取值错误, 控制器据此映射为 400
var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidSource   = errors.New("invalid source")
)

// ListEventsFilter 事件列表查询过滤器
// 字符串布尔已在控制器侧解析, 这里只做取值归一化
type ListEventsFilter struct {
	Category string
	Source   string
	Search   string
	Upcoming *bool
	Featured *bool
	Page     int
	PageSize int
}

// EventQueryService 事件查询服务接口
// API 层唯一的读入口
type EventQueryService interface {
	ListEvents(filter *ListEventsFilter) ([]*model.EventModel, int64, error)
	GetEvent(id string) (*model.EventModel, error)
}

// eventQueryService 事件查询服务实现
type eventQueryService struct {
	repo repository.EventRepository
}

// NewEventQueryService 创建事件查询服务
func NewEventQueryService(repo repository.EventRepository) EventQueryService {
	return &eventQueryService{repo: repo}
}

// ListEvents 按过滤器查询事件
// 过滤条件相互独立并以 AND 组合, 未设置即不约束
func (s *eventQueryService) ListEvents(filter *ListEventsFilter) ([]*model.EventModel, int64, error) {
	if filter == nil {
		filter = &ListEventsFilter{}
	}

	repoFilter := &repository.EventFilter{
		Search:   filter.Search,
		Upcoming: filter.Upcoming,
		Featured: filter.Featured,
	}

	if filter.Category != "" {
		if !model.ValidCategory(filter.Category) {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidCategory, filter.Category)
		}
		category := filter.Category
		repoFilter.Category = &category
	}
	if filter.Source != "" {
		if !model.ValidSource(filter.Source) {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidSource, filter.Source)
		}
		src := filter.Source
		repoFilter.Source = &src
	}

	// 归一化分页参数
	repoFilter.Page = filter.Page
	if repoFilter.Page <= 0 {
		repoFilter.Page = 1
	}
	repoFilter.PageSize = filter.PageSize
	if repoFilter.PageSize <= 0 {
		repoFilter.PageSize = DefaultPageSize
	}
	if repoFilter.PageSize > MaxPageSize {
		repoFilter.PageSize = MaxPageSize
	}

	return s.repo.Query(repoFilter)
}

// GetEvent 根据 ID 获取事件
func (s *eventQueryService) GetEvent(id string) (*model.EventModel, error) {
	return s.repo.FindByID(id)
}
