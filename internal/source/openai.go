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

// OpenAIAdapter OpenAI 事件适配器
// 调用 chat completions 接口生成结构化事件列表
type OpenAIAdapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
}

// NewOpenAIAdapter 创建 OpenAI 适配器
func NewOpenAIAdapter(cfg config.ProviderConfig, logger *logrus.Logger) *OpenAIAdapter {
	return &OpenAIAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout()),
		logger: logger,
	}
}

// Name 返回来源名称
func (a *OpenAIAdapter) Name() string {
	return model.SourceOpenAI
}

// CacheTTL 返回该来源的缓存 TTL
func (a *OpenAIAdapter) CacheTTL() time.Duration {
	return a.cfg.CacheTTL()
}

// IsConfigured 判断凭证是否就绪
func (a *OpenAIAdapter) IsConfigured() bool {
	return !isPlaceholder(a.cfg.APIKey)
}

// Fetch 获取并归一化事件
// 任何失败都降级为兜底批次, 同时返回原始错误供编排器记录
func (a *OpenAIAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	if !a.IsConfigured() {
		return a.fallback(), fmt.Errorf("openai API key is not configured")
	}

	reqBody := map[string]interface{}{
		"model": a.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an events data service. Output strict JSON only."},
			{"role": "user", "content": eventPrompt},
		},
		"temperature": 0.2,
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	err := doJSON(ctx, a.client, http.MethodPost, a.cfg.BaseURL+"/chat/completions",
		a.headers(), reqBody, &parsed)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider fetch failed, serving fallback events")
		return a.fallback(), err
	}

	if len(parsed.Choices) == 0 {
		err := fmt.Errorf("openai returned no choices")
		return a.fallback(), err
	}

	events, err := parseGeneratedEvents(parsed.Choices[0].Message.Content, a.Name(), a.cfg.Model)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"source": a.Name(), "error": err.Error()}).
			Warn("provider payload unusable, serving fallback events")
		return a.fallback(), err
	}

	return events, nil
}

// TestConnection 连通性探测
func (a *OpenAIAdapter) TestConnection(ctx context.Context) (bool, string) {
	if !a.IsConfigured() {
		return false, "API key is not configured"
	}
	return probe(ctx, a.client, a.cfg.BaseURL+"/models", a.headers())
}

// headers 构造认证头
func (a *OpenAIAdapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.cfg.APIKey,
	}
}

// fallback 确定性兜底批次
func (a *OpenAIAdapter) fallback() []*model.NormalizedEvent {
	return []*model.NormalizedEvent{
		{
			ExternalID:  "openai-fallback-1",
			Title:       "Stargate Infrastructure Briefing",
			Description: "Quarterly briefing on Stargate data center buildout and compute capacity milestones.",
			Category:    model.CategoryStargate,
			Type:        model.TypeConference,
			EventDate:   time.Now().AddDate(0, 0, 14),
			EventTime:   "10:00",
			Location:    "Abilene, Texas",
			Organizer:   "OpenAI",
			Source:      model.SourceOpenAI,
			IsFeatured:  true,
			Metadata:    fallbackMetadata(model.SourceOpenAI),
		},
		{
			ExternalID:  "openai-fallback-2",
			Title:       "Developer Platform Update",
			Description: "Walkthrough of the latest API platform changes for enterprise integrators.",
			Category:    model.CategoryAnnouncements,
			Type:        model.TypeAnnouncement,
			EventDate:   time.Now().AddDate(0, 0, 21),
			Location:    "Online",
			Organizer:   "OpenAI",
			Source:      model.SourceOpenAI,
			Metadata:    fallbackMetadata(model.SourceOpenAI),
		},
		{
			ExternalID:  "openai-fallback-3",
			Title:       "Applied AI Workshop",
			Description: "Hands-on workshop covering agentic workflows and structured output patterns.",
			Category:    model.CategoryConferences,
			Type:        model.TypeWorkshop,
			EventDate:   time.Now().AddDate(0, 1, 0),
			EventTime:   "14:00",
			Location:    "San Francisco, CA",
			Organizer:   "OpenAI",
			Source:      model.SourceOpenAI,
			Metadata:    fallbackMetadata(model.SourceOpenAI),
		},
	}
}
