package source

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stargatehub/events-gin/internal/model"
)

// eventPrompt AI 提供商共用的生成提示词
// 要求模型只输出 JSON 数组, 字段与 generatedEvent 对应
const eventPrompt = `List current and upcoming AI industry events related to the Stargate initiative ` +
	`(data center openings, partner conferences, product announcements, workshops). ` +
	`Reply with a JSON array only, no prose. Each element must have the fields: ` +
	`external_id, title, description, category (stargate|cristal|conferences|meetings|announcements), ` +
	`type (conference|meeting|announcement|workshop|video), date (YYYY-MM-DD), time (HH:MM, optional), ` +
	`location, organizer, featured (boolean).`

// generatedEvent 模型输出的事件条目
type generatedEvent struct {
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Organizer   string `json:"organizer"`
	Featured    bool   `json:"featured"`
}

// parseGeneratedEvents 解析模型文本输出并归一化
// 模型偶尔会包一层 markdown 代码块, 解析前剥掉
func parseGeneratedEvents(content, sourceName, modelName string) ([]*model.NormalizedEvent, error) {
	content = stripCodeFence(content)

	var items []generatedEvent
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, fmt.Errorf("failed to parse generated events: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("model returned no events")
	}

	generatedAt := time.Now().UTC().Format(time.RFC3339)
	events := make([]*model.NormalizedEvent, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}

		externalID := strings.TrimSpace(item.ExternalID)
		if externalID == "" {
			externalID = fmt.Sprintf("%s-gen-%d", sourceName, i+1)
		}

		events = append(events, &model.NormalizedEvent{
			ExternalID:  externalID,
			Title:       item.Title,
			Description: item.Description,
			Category:    normalizeCategory(item.Category),
			Type:        normalizeType(item.Type),
			EventDate:   parseEventDate(item.Date),
			EventTime:   item.Time,
			Location:    item.Location,
			Organizer:   item.Organizer,
			Source:      sourceName,
			IsFeatured:  item.Featured,
			Metadata: map[string]interface{}{
				"provider":     sourceName,
				"model":        modelName,
				"generated_at": generatedAt,
				"fallback":     false,
			},
		})
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("model returned no usable events")
	}
	return events, nil
}

// stripCodeFence 剥掉 markdown 代码块包装
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// normalizeCategory 非法分类归入公告
func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if model.ValidCategory(category) {
		return category
	}
	return model.CategoryAnnouncements
}

// normalizeType 非法类型归入公告
func normalizeType(eventType string) string {
	eventType = strings.ToLower(strings.TrimSpace(eventType))
	if model.ValidType(eventType) {
		return eventType
	}
	return model.TypeAnnouncement
}

// parseEventDate 解析日期, 解析失败时放到一周后
func parseEventDate(date string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(date)); err == nil {
			return t
		}
	}
	return time.Now().AddDate(0, 0, 7)
}

// fallbackMetadata 兜底事件的 metadata
func fallbackMetadata(sourceName string) map[string]interface{} {
	return map[string]interface{}{
		"provider": sourceName,
		"fallback": true,
	}
}
