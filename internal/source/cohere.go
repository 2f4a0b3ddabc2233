package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/model"
)

// CohereAdapter Cohere 事件适配器
type CohereAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
}

// NewCohereAdapter 创建 Cohere 适配器
func NewCohereAdapter(cfg config.ProviderConfig, logger *logrus.Logger) *CohereAdapter {
	return &CohereAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout()),
		logger: logger,
	}
}

// Name 返回来源名称
func (a *CohereAdapter) Name() string {
	return model.SourceCohere
}

// CacheTTL 返回该来源的缓存 TTL
func (a *CohereAdapter) CacheTTL() time.Duration {
	return a.cfg.CacheTTL()
}

// IsConfigured 判断凭证是否就绪
func (a *CohereAdapter) IsConfigured() bool {
	return !isPlaceholder(a.cfg.APIKey)
}

// Fetch 获取并归一化事件
func (a *CohereAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	if !a.IsConfigured() {
		return a.fallback(), fmt.Errorf("cohere API key is not configured")
	}

	reqBody := map[string]interface{}{
		"model":       a.cfg.Model,
		"message":     eventPrompt,
		"temperature": 0.2,
	}

	var parsed struct {
		Text string `json:"text"`
	}

	err := doJSON(ctx, a.client, http.MethodPost, a.cfg.BaseURL+"/chat", a.headers(), reqBody, &parsed)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider fetch failed, serving fallback events")
		return a.fallback(), err
	}

	events, err := parseGeneratedEvents(parsed.Text, a.Name(), a.cfg.Model)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider payload unusable, serving fallback events")
		return a.fallback(), err
	}

	return events, nil
}

// TestConnection 连通性探测
func (a *CohereAdapter) TestConnection(ctx context.Context) (bool, string) {
	if !a.IsConfigured() {
		return false, "API key is not configured"
	}
	return probe(ctx, a.client, a.cfg.BaseURL+"/models", a.headers())
}

// headers 构造认证头
func (a *CohereAdapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	}
}

// fallback 确定性兜底批次
func (a *CohereAdapter) fallback() []*model.NormalizedEvent {
	return []*model.NormalizedEvent{
		{
			ExternalID:  "cohere-fallback-1",
			Title:       "Enterprise RAG Workshop",
			Description: "Building retrieval-augmented generation pipelines for enterprise search.",
			Category:    model.CategoryConferences,
			Type:        model.TypeWorkshop,
			EventDate:   time.Now().AddDate(0, 0, 25),
			EventTime:   "13:00",
			Location:    "Toronto, Canada",
			Organizer:   "Cohere",
			Source:      model.SourceCohere,
			Metadata:    fallbackMetadata(model.SourceCohere),
		},
		{
			ExternalID:  "cohere-fallback-2",
			Title:       "Command Model Release Notes",
			Description: "Overview of the latest Command model family release and migration guidance.",
			Category:    model.CategoryAnnouncements,
			Type:        model.TypeAnnouncement,
			EventDate:   time.Now().AddDate(0, 0, 5),
			Location:    "Online",
			Organizer:   "Cohere",
			Source:      model.SourceCohere,
			Metadata:    fallbackMetadata(model.SourceCohere),
		},
	}
}
