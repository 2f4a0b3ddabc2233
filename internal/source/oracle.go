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

// OracleAdapter Oracle 事件源适配器
type OracleAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
}

// oracleItem feed 条目
type oracleItem struct {
	GUID      string `json:"guid"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Track     string `json:"track"`
	EventType string `json:"event_type"`
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	Venue     string `json:"venue"`
	Organizer string `json:"organizer"`
}

// NewOracleAdapter 创建 Oracle 适配器
func NewOracleAdapter(cfg config.ProviderConfig, logger *logrus.Logger) *OracleAdapter {
	return &OracleAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout()),
		logger: logger,
	}
}

// Name 返回来源名称
func (a *OracleAdapter) Name() string {
	return model.SourceOracle
}

// CacheTTL 返回该来源的缓存 TTL
func (a *OracleAdapter) CacheTTL() time.Duration {
	return a.cfg.CacheTTL()
}

// IsConfigured 判断凭证是否就绪
func (a *OracleAdapter) IsConfigured() bool {
	return !isPlaceholder(a.cfg.APIKey)
}

// Fetch 获取并归一化事件
func (a *OracleAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	if !a.IsConfigured() {
		return a.fallback(), fmt.Errorf("oracle API key is not configured")
	}

	var parsed struct {
		Events []oracleItem `json:"events"`
	}

	err := doJSON(ctx, a.client, http.MethodGet, a.cfg.BaseURL+"/events", a.headers(), nil, &parsed)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider fetch failed, serving fallback events")
		return a.fallback(), err
	}

	if len(parsed.Events) == 0 {
		return a.fallback(), fmt.Errorf("oracle feed returned no events")
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	events := make([]*model.NormalizedEvent, 0, len(parsed.Events))
	for i, item := range parsed.Events {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}

		externalID := strings.TrimSpace(item.GUID)
		if externalID == "" {
			externalID = fmt.Sprintf("oracle-%d", i+1)
		}

		category := normalizeCategory(item.Track)
		if item.Track == "" {
			category = model.CategoryConferences
		}

		events = append(events, &model.NormalizedEvent{
			ExternalID:  externalID,
			Title:       item.Title,
			Description: item.Abstract,
			Category:    category,
			Type:        normalizeType(item.EventType),
			EventDate:   parseEventDate(item.StartDate),
			EventTime:   item.StartTime,
			Location:    item.Venue,
			Organizer:   firstNonEmpty(item.Organizer, "Oracle"),
			Source:      model.SourceOracle,
			Metadata: map[string]interface{}{
				"provider":   model.SourceOracle,
				"fetched_at": fetchedAt,
				"fallback":   false,
			},
		})
	}

	if len(events) == 0 {
		return a.fallback(), fmt.Errorf("oracle feed returned no usable events")
	}
	return events, nil
}

// TestConnection 连通性探测
func (a *OracleAdapter) TestConnection(ctx context.Context) (bool, string) {
	if !a.IsConfigured() {
		return false, "API key is not configured"
	}
	return probe(ctx, a.client, a.cfg.BaseURL+"/status", a.headers())
}

// headers 构造认证头
func (a *OracleAdapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	}
}

// fallback 确定性兜底批次
func (a *OracleAdapter) fallback() []*model.NormalizedEvent {
	return []*model.NormalizedEvent{
		{
			ExternalID:  "oracle-fallback-1",
			Title:       "Oracle CloudWorld",
			Description: "Cloud infrastructure keynotes including OCI capacity expansion for AI workloads.",
			Category:    model.CategoryConferences,
			Type:        model.TypeConference,
			EventDate:   time.Now().AddDate(0, 1, 0),
			EventTime:   "09:00",
			Location:    "Las Vegas, NV",
			Organizer:   "Oracle",
			Source:      model.SourceOracle,
			IsFeatured:  true,
			Metadata:    fallbackMetadata(model.SourceOracle),
		},
		{
			ExternalID:  "oracle-fallback-2",
			Title:       "Stargate Capacity Update",
			Description: "Update on data center capacity committed to the Stargate joint venture.",
			Category:    model.CategoryStargate,
			Type:        model.TypeAnnouncement,
			EventDate:   time.Now().AddDate(0, 0, 8),
			Location:    "Austin, TX",
			Organizer:   "Oracle",
			Source:      model.SourceOracle,
			Metadata:    fallbackMetadata(model.SourceOracle),
		},
	}
}
