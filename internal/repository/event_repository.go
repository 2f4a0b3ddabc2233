package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stargatehub/events-gin/internal/model"
	"gorm.io/gorm"
)

// EventFilter 事件查询过滤器
// 所有条件相互独立, 以 AND 组合; 未设置的条件不参与过滤
type EventFilter struct {
	Category *string
	Source   *string
	Upcoming *bool
	Featured *bool
	Search   string
	Page     int
	PageSize int
}

// EventRepository 事件仓储接口
type EventRepository interface {
	Upsert(event *model.NormalizedEvent) (id string, created bool, err error)
	Query(filter *EventFilter) ([]*model.EventModel, int64, error)
	CountBySource(source string) (*model.SourceCounts, error)
	LastSyncedAt(source string) (*time.Time, error)
	FindByID(id string) (*model.EventModel, error)
}

// eventRepository 事件仓储实现
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Upsert 以 (source, external_id) 为键插入或更新事件
// 首次插入分配内部 ID, 之后的同步不再改变 ID
func (r *eventRepository) Upsert(event *model.NormalizedEvent) (string, bool, error) {
	if event == nil {
		return "", false, errors.New("event is required")
	}
	if event.Source == model.SourceInternal || !model.ValidSource(event.Source) {
		return "", false, fmt.Errorf("invalid sync source: %s", event.Source)
	}
	if event.ExternalID == "" {
		return "", false, errors.New("external ID is required for synced events")
	}
	if !model.ValidCategory(event.Category) {
		return "", false, fmt.Errorf("invalid event category: %s", event.Category)
	}
	if !model.ValidType(event.Type) {
		return "", false, fmt.Errorf("invalid event type: %s", event.Type)
	}

	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	now := time.Now()
	var eventTime *string
	if event.EventTime != "" {
		eventTime = &event.EventTime
	}

	var existing model.EventModel
	err = r.db.Where("source = ? AND external_id = ?", event.Source, event.ExternalID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		record := &model.EventModel{
			ID:           uuid.NewString(),
			ExternalID:   &event.ExternalID,
			Title:        event.Title,
			Description:  event.Description,
			Category:     event.Category,
			Type:         event.Type,
			EventDate:    event.EventDate,
			EventTime:    eventTime,
			Location:     event.Location,
			Organizer:    event.Organizer,
			Source:       event.Source,
			Metadata:     metadata,
			IsActive:     true,
			IsFeatured:   event.IsFeatured,
			LastSyncedAt: &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := r.db.Create(record).Error; err != nil {
			return "", false, fmt.Errorf("failed to insert event: %w", err)
		}
		return record.ID, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up event: %w", err)
	}

	// 更新所有可变字段并推进 last_synced_at
	// is_active 由内部下架流程维护, 同步不回写
	updates := map[string]interface{}{
		"title":          event.Title,
		"description":    event.Description,
		"category":       event.Category,
		"type":           event.Type,
		"event_date":     event.EventDate,
		"event_time":     eventTime,
		"location":       event.Location,
		"organizer":      event.Organizer,
		"metadata":       metadata,
		"is_featured":    event.IsFeatured,
		"last_synced_at": now,
		"updated_at":     now,
	}
	if err := r.db.Model(&model.EventModel{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return "", false, fmt.Errorf("failed to update event: %w", err)
	}

	return existing.ID, false, nil
}

// Query 按过滤器查询事件并返回总数
func (r *eventRepository) Query(filter *EventFilter) ([]*model.EventModel, int64, error) {
	if filter == nil {
		filter = &EventFilter{}
	}

	query := r.db.Model(&model.EventModel{})

	// 应用过滤条件
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.Upcoming != nil && *filter.Upcoming {
		query = query.Where("event_date >= ?", todayStart())
	}
	if filter.Search != "" {
		// 大小写不敏感的子串匹配, 覆盖标题/描述/地点/主办方
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ? OR LOWER(organizer) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	// 应用分页
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	query = query.Order("event_date ASC, created_at ASC").
		Offset((page - 1) * pageSize).Limit(pageSize)

	var events []*model.EventModel
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}

	return events, total, nil
}

// CountBySource 统计单一来源的事件数
func (r *eventRepository) CountBySource(source string) (*model.SourceCounts, error) {
	counts := &model.SourceCounts{}

	if err := r.db.Model(&model.EventModel{}).
		Where("source = ?", source).
		Count(&counts.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	if err := r.db.Model(&model.EventModel{}).
		Where("source = ? AND is_active = ?", source, true).
		Count(&counts.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active events: %w", err)
	}

	if err := r.db.Model(&model.EventModel{}).
		Where("source = ? AND event_date >= ?", source, todayStart()).
		Count(&counts.Upcoming).Error; err != nil {
		return nil, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	return counts, nil
}

// LastSyncedAt 返回单一来源最近一次成功同步时间
// 该来源没有任何同步记录时返回 nil
func (r *eventRepository) LastSyncedAt(source string) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.Model(&model.EventModel{}).
		Where("source = ?", source).
		Select("MAX(last_synced_at)").
		Scan(&last).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query last synced at: %w", err)
	}

	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// FindByID 根据 ID 查找事件
func (r *eventRepository) FindByID(id string) (*model.EventModel, error) {
	var event model.EventModel
	if err := r.db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// todayStart 返回今天零点
func todayStart() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
