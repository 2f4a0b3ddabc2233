package model

import (
	"errors"
	"time"
)

// 事件分类
const (
	CategoryStargate      = "stargate"
	CategoryCristal       = "cristal"
	CategoryConferences   = "conferences"
	CategoryMeetings      = "meetings"
	CategoryAnnouncements = "announcements"
)

// 事件类型
const (
	TypeConference   = "conference"
	TypeMeeting      = "meeting"
	TypeAnnouncement = "announcement"
	TypeWorkshop     = "workshop"
	TypeVideo        = "video"
)

// 事件来源
const (
	SourceInternal = "internal"
	SourceOpenAI   = "openai"
	SourceSoftBank = "softbank"
	SourceOracle   = "oracle"
	SourceMGX      = "mgx"
	SourceGemini   = "gemini"
	SourceCohere   = "cohere"
)

// EventModel 事件数据模型
// external_id 与 source 组成去重键; 内部创建的事件 external_id 为空
type EventModel struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ExternalID   *string    `gorm:"type:varchar(128);uniqueIndex:idx_events_source_external" json:"external_id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Category     string     `gorm:"type:varchar(32);not null;index" json:"category"`
	Type         string     `gorm:"type:varchar(32);not null" json:"type"`
	EventDate    time.Time  `gorm:"not null;index" json:"event_date"`
	EventTime    *string    `gorm:"type:varchar(16)" json:"event_time"`
	Location     string     `gorm:"type:varchar(255)" json:"location"`
	Organizer    string     `gorm:"type:varchar(255)" json:"organizer"`
	Source       string     `gorm:"type:varchar(32);not null;index;uniqueIndex:idx_events_source_external" json:"source"`
	Metadata     []byte     `gorm:"type:jsonb" json:"-"` // 序列化后的提供商附加信息
	IsActive     bool       `gorm:"not null;default:true;index" json:"is_active"`
	IsFeatured   bool       `gorm:"not null;default:false;index" json:"is_featured"`
	LastSyncedAt *time.Time `gorm:"index" json:"last_synced_at"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (EventModel) TableName() string {
	return "events"
}

// Validate 验证事件模型
func (em *EventModel) Validate() error {
	if em.ID == "" {
		return errors.New("event ID is required")
	}
	if em.Title == "" {
		return errors.New("event title is required")
	}
	if !ValidCategory(em.Category) {
		return errors.New("invalid event category")
	}
	if !ValidType(em.Type) {
		return errors.New("invalid event type")
	}
	if !ValidSource(em.Source) {
		return errors.New("invalid event source")
	}
	if em.EventDate.IsZero() {
		return errors.New("event date is required")
	}
	return nil
}

// NormalizedEvent 适配器归一化后的事件
// 不携带内部 ID 和时间戳, 由仓储在写入时分配
type NormalizedEvent struct {
	ExternalID  string
	Title       string
	Description string
	Category    string
	Type        string
	EventDate   time.Time
	EventTime   string
	Location    string
	Organizer   string
	Source      string
	Metadata    map[string]interface{}
	IsFeatured  bool
}

// ValidCategory 判断分类是否合法
func ValidCategory(category string) bool {
	switch category {
	case CategoryStargate, CategoryCristal, CategoryConferences, CategoryMeetings, CategoryAnnouncements:
		return true
	}
	return false
}

// ValidType 判断类型是否合法
func ValidType(eventType string) bool {
	switch eventType {
	case TypeConference, TypeMeeting, TypeAnnouncement, TypeWorkshop, TypeVideo:
		return true
	}
	return false
}

// ValidSource 判断来源是否合法
func ValidSource(source string) bool {
	switch source {
	case SourceInternal, SourceOpenAI, SourceSoftBank, SourceOracle, SourceMGX, SourceGemini, SourceCohere:
		return true
	}
	return false
}

// ExternalSources 返回所有外部来源名称
func ExternalSources() []string {
	return []string{SourceOpenAI, SourceSoftBank, SourceOracle, SourceMGX, SourceGemini, SourceCohere}
}
