package source

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/model"
)

// Adapter 外部事件提供商适配器
// Fetch 失败时返回该提供商的确定性兜底批次和原始错误,
// 由编排器决定如何记录; 兜底批次的 metadata.fallback 为 true
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]*model.NormalizedEvent, error)
	IsConfigured() bool
	TestConnection(ctx context.Context) (bool, string)
	CacheTTL() time.Duration
}

// Registry 适配器注册表
// 启动时解析一次, 未知来源的处理退化为一次 map 查找
type Registry struct {
	adapters map[string]Adapter
	names    []string
}

// NewRegistry 创建适配器注册表
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register 注册适配器, 同名覆盖
func (r *Registry) Register(adapter Adapter) {
	name := adapter.Name()
	if _, exists := r.adapters[name]; !exists {
		r.names = append(r.names, name)
	}
	r.adapters[name] = adapter
}

// Get 按名称查找适配器
func (r *Registry) Get(name string) (Adapter, bool) {
	adapter, ok := r.adapters[name]
	return adapter, ok
}

// Names 返回注册顺序的适配器名称
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len 返回注册的适配器数量
func (r *Registry) Len() int {
	return len(r.adapters)
}

// BuildRegistry 根据配置构建注册表
// 四个核心提供商总是注册; gemini/cohere 仅在配置了凭证时注册
func BuildRegistry(cfg config.ProvidersConfig, logger *logrus.Logger) *Registry {
	registry := NewRegistry()

	registry.Register(NewOpenAIAdapter(cfg.OpenAI, logger))
	registry.Register(NewSoftBankAdapter(cfg.SoftBank, logger))
	registry.Register(NewOracleAdapter(cfg.Oracle, logger))
	registry.Register(NewMGXAdapter(cfg.MGX, logger))

	if !isPlaceholder(cfg.Gemini.APIKey) {
		registry.Register(NewGeminiAdapter(cfg.Gemini, logger))
	}
	if !isPlaceholder(cfg.Cohere.APIKey) {
		registry.Register(NewCohereAdapter(cfg.Cohere, logger))
	}

	return registry
}
