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

// MGXAdapter MGX 事件源适配器
type MGXAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
}

// mgxItem feed 条目
type mgxItem struct {
	Ref          string `json:"ref"`
	Headline     string `json:"headline"`
	Details      string `json:"details"`
	Theme        string `json:"theme"`
	Format       string `json:"format"`
	ScheduledFor string `json:"scheduled_for"`
	StartsAt     string `json:"starts_at"`
	City         string `json:"city"`
	Sponsor      string `json:"sponsor"`
}

// NewMGXAdapter 创建 MGX 适配器
func NewMGXAdapter(cfg config.ProviderConfig, logger *logrus.Logger) *MGXAdapter {
	return &MGXAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout()),
		logger: logger,
	}
}

// Name 返回来源名称
func (a *MGXAdapter) Name() string {
	return model.SourceMGX
}

// CacheTTL 返回该来源的缓存 TTL
func (a *MGXAdapter) CacheTTL() time.Duration {
	return a.cfg.CacheTTL()
}

// IsConfigured 判断凭证是否就绪
func (a *MGXAdapter) IsConfigured() bool {
	return !isPlaceholder(a.cfg.APIKey)
}

// Fetch 获取并归一化事件
func (a *MGXAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	if !a.IsConfigured() {
		return a.fallback(), fmt.Errorf("mgx API key is not configured")
	}

	var parsed struct {
		Data []mgxItem `json:"data"`
	}

	err := doJSON(ctx, a.client, http.MethodGet, a.cfg.BaseURL+"/events", a.headers(), nil, &parsed)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider fetch failed, serving fallback events")
		return a.fallback(), err
	}

	if len(parsed.Data) == 0 {
		return a.fallback(), fmt.Errorf("mgx feed returned no data")
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	events := make([]*model.NormalizedEvent, 0, len(parsed.Data))
	for i, item := range parsed.Data {
		if strings.TrimSpace(item.Headline) == "" {
			continue
		}

		externalID := strings.TrimSpace(item.Ref)
		if externalID == "" {
			externalID = fmt.Sprintf("mgx-%d", i+1)
		}

		category := normalizeCategory(item.Theme)
		if item.Theme == "" {
			// MGX 是 Stargate 出资方, 未分类条目归入 stargate
			category = model.CategoryStargate
		}

		events = append(events, &model.NormalizedEvent{
			ExternalID:  externalID,
			Title:       item.Headline,
			Description: item.Details,
			Category:    category,
			Type:        normalizeType(item.Format),
			EventDate:   parseEventDate(item.ScheduledFor),
			EventTime:   item.StartsAt,
			Location:    item.City,
			Organizer:   firstNonEmpty(item.Sponsor, "MGX"),
			Source:      model.SourceMGX,
			Metadata: map[string]interface{}{
				"provider":   model.SourceMGX,
				"fetched_at": fetchedAt,
				"fallback":   false,
			},
		})
	}

	if len(events) == 0 {
		return a.fallback(), fmt.Errorf("mgx feed returned no usable data")
	}
	return events, nil
}

// TestConnection 连通性探测
func (a *MGXAdapter) TestConnection(ctx context.Context) (bool, string) {
	if !a.IsConfigured() {
		return false, "API key is not configured"
	}
	return probe(ctx, a.client, a.cfg.BaseURL+"/status", a.headers())
}

// headers 构造认证头
func (a *MGXAdapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	}
}

// fallback 确定性兜底批次
func (a *MGXAdapter) fallback() []*model.NormalizedEvent {
	return []*model.NormalizedEvent{
		{
			ExternalID:  "mgx-fallback-1",
			Title:       "AI Infrastructure Investment Forum",
			Description: "Forum on sovereign AI infrastructure funds and data center co-investment.",
			Category:    model.CategoryStargate,
			Type:        model.TypeConference,
			EventDate:   time.Now().AddDate(0, 0, 20),
			EventTime:   "10:00",
			Location:    "Abu Dhabi, UAE",
			Organizer:   "MGX",
			Source:      model.SourceMGX,
			IsFeatured:  true,
			Metadata:    fallbackMetadata(model.SourceMGX),
		},
		{
			ExternalID:  "mgx-fallback-2",
			Title:       "Partner Portfolio Review",
			Description: "Closed-door review of AI portfolio companies with co-investors.",
			Category:    model.CategoryMeetings,
			Type:        model.TypeMeeting,
			EventDate:   time.Now().AddDate(0, 0, 11),
			EventTime:   "14:00",
			Location:    "Abu Dhabi, UAE",
			Organizer:   "MGX",
			Source:      model.SourceMGX,
			Metadata:    fallbackMetadata(model.SourceMGX),
		},
	}
}
