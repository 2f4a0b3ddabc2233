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

// GeminiAdapter Google Gemini 事件适配器
// 认证通过 URL query 参数携带 key, 与其它提供商的 Bearer 头不同
type GeminiAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
}

// NewGeminiAdapter 创建 Gemini 适配器
func NewGeminiAdapter(cfg config.ProviderConfig, logger *logrus.Logger) *GeminiAdapter {
	return &GeminiAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout()),
		logger: logger,
	}
}

// Name 返回来源名称
func (a *GeminiAdapter) Name() string {
	return model.SourceGemini
}

// CacheTTL 返回该来源的缓存 TTL
func (a *GeminiAdapter) CacheTTL() time.Duration {
	return a.cfg.CacheTTL()
}

// IsConfigured 判断凭证是否就绪
func (a *GeminiAdapter) IsConfigured() bool {
	return !isPlaceholder(a.cfg.APIKey)
}

// Fetch 获取并归一化事件
func (a *GeminiAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	if !a.IsConfigured() {
		return a.fallback(), fmt.Errorf("gemini API key is not configured")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": eventPrompt},
				},
			},
		},
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.cfg.BaseURL, a.cfg.Model, a.cfg.APIKey)
	err := doJSON(ctx, a.client, http.MethodPost, url, nil, reqBody, &parsed)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider fetch failed, serving fallback events")
		return a.fallback(), err
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return a.fallback(), fmt.Errorf("gemini returned no candidates")
	}

	events, err := parseGeneratedEvents(parsed.Candidates[0].Content.Parts[0].Text, a.Name(), a.cfg.Model)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider payload unusable, serving fallback events")
		return a.fallback(), err
	}

	return events, nil
}

// TestConnection 连通性探测
func (a *GeminiAdapter) TestConnection(ctx context.Context) (bool, string) {
	if !a.IsConfigured() {
		return false, "API key is not configured"
	}
	url := fmt.Sprintf("%s/models?key=%s", a.cfg.BaseURL, a.cfg.APIKey)
	return probe(ctx, a.client, url, nil)
}

// fallback 确定性兜底批次
func (a *GeminiAdapter) fallback() []*model.NormalizedEvent {
	return []*model.NormalizedEvent{
		{
			ExternalID:  "gemini-fallback-1",
			Title:       "Multimodal AI Summit",
			Description: "Sessions on multimodal model capabilities and enterprise deployment patterns.",
			Category:    model.CategoryConferences,
			Type:        model.TypeConference,
			EventDate:   time.Now().AddDate(0, 0, 18),
			EventTime:   "09:30",
			Location:    "Mountain View, CA",
			Organizer:   "Google DeepMind",
			Source:      model.SourceGemini,
			Metadata:    fallbackMetadata(model.SourceGemini),
		},
		{
			ExternalID:  "gemini-fallback-2",
			Title:       "Gemini API Office Hours",
			Description: "Live Q&A for developers building on the Gemini API.",
			Category:    model.CategoryMeetings,
			Type:        model.TypeMeeting,
			EventDate:   time.Now().AddDate(0, 0, 9),
			EventTime:   "17:00",
			Location:    "Online",
			Organizer:   "Google DeepMind",
			Source:      model.SourceGemini,
			Metadata:    fallbackMetadata(model.SourceGemini),
		},
	}
}
