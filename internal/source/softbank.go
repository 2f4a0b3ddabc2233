package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/model"
)

// SoftBankAdapter SoftBank 合作伙伴事件源适配器
// 对接合作伙伴 JSON feed, 字段命名与内部模型不同, 逐条归一化
type SoftBankAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
}

// softbankItem feed 条目
type softbankItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Venue    string `json:"venue"`
	Host     string `json:"host"`
	Featured bool   `json:"featured"`
}

// NewSoftBankAdapter 创建 SoftBank 适配器
func NewSoftBankAdapter(cfg config.ProviderConfig, logger *logrus.Logger) *SoftBankAdapter {
	return &SoftBankAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout()),
		logger: logger,
	}
}

// Name 返回来源名称
func (a *SoftBankAdapter) Name() string {
	return model.SourceSoftBank
}

// CacheTTL 返回该来源的缓存 TTL
func (a *SoftBankAdapter) CacheTTL() time.Duration {
	return a.cfg.CacheTTL()
}

// IsConfigured 判断凭证是否就绪
func (a *SoftBankAdapter) IsConfigured() bool {
	return !isPlaceholder(a.cfg.APIKey)
}

// Fetch 获取并归一化事件
func (a *SoftBankAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	if !a.IsConfigured() {
		return a.fallback(), fmt.Errorf("softbank API key is not configured")
	}

	var parsed struct {
		Items []softbankItem `json:"items"`
	}

	err := doJSON(ctx, a.client, http.MethodGet, a.cfg.BaseURL+"/events", a.headers(), nil, &parsed)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider fetch failed, serving fallback events")
		return a.fallback(), err
	}

	if len(parsed.Items) == 0 {
		return a.fallback(), fmt.Errorf("softbank feed returned no items")
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	events := make([]*model.NormalizedEvent, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}

		externalID := strings.TrimSpace(item.ID)
		if externalID == "" {
			externalID = fmt.Sprintf("softbank-%d", i+1)
		}

		category := normalizeCategory(item.Category)
		if item.Category == "" {
			// SoftBank 是 Stargate 出资方, 未分类条目归入 stargate
			category = model.CategoryStargate
		}

		events = append(events, &model.NormalizedEvent{
			ExternalID:  externalID,
			Title:       item.Name,
			Description: item.Summary,
			Category:    category,
			Type:        normalizeType(item.Kind),
			EventDate:   parseEventDate(item.Date),
			EventTime:   item.Time,
			Location:    item.Venue,
			Organizer:   firstNonEmpty(item.Host, "SoftBank Group"),
			Source:      model.SourceSoftBank,
			IsFeatured:  item.Featured,
			Metadata: map[string]interface{}{
				"provider":   model.SourceSoftBank,
				"fetched_at": fetchedAt,
				"fallback":   false,
			},
		})
	}

	if len(events) == 0 {
		return a.fallback(), fmt.Errorf("softbank feed returned no usable items")
	}
	return events, nil
}

// TestConnection 连通性探测
func (a *SoftBankAdapter) TestConnection(ctx context.Context) (bool, string) {
	if !a.IsConfigured() {
		return false, "API key is not configured"
	}
	return probe(ctx, a.client, a.cfg.BaseURL+"/status", a.headers())
}

// headers 构造认证头
func (a *SoftBankAdapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	}
}

// fallback 确定性兜底批次
func (a *SoftBankAdapter) fallback() []*model.NormalizedEvent {
	return []*model.NormalizedEvent{
		{
			ExternalID:  "softbank-fallback-1",
			Title:       "SoftBank World",
			Description: "Annual flagship conference covering AI infrastructure investment and the Stargate partnership.",
			Category:    model.CategoryStargate,
			Type:        model.TypeConference,
			EventDate:   time.Now().AddDate(0, 1, 10),
			EventTime:   "09:00",
			Location:    "Tokyo, Japan",
			Organizer:   "SoftBank Group",
			Source:      model.SourceSoftBank,
			IsFeatured:  true,
			Metadata:    fallbackMetadata(model.SourceSoftBank),
		},
		{
			ExternalID:  "softbank-fallback-2",
			Title:       "Cristal Intelligence Briefing",
			Description: "Joint briefing on Cristal Intelligence enterprise AI rollout across group companies.",
			Category:    model.CategoryCristal,
			Type:        model.TypeMeeting,
			EventDate:   time.Now().AddDate(0, 0, 12),
			EventTime:   "15:00",
			Location:    "Tokyo, Japan",
			Organizer:   "SoftBank Group",
			Source:      model.SourceSoftBank,
			Metadata:    fallbackMetadata(model.SourceSoftBank),
		},
	}
}

// firstNonEmpty 返回第一个非空字符串
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
