package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stargatehub/events-gin/internal/config"
)

// TestDefault 测试默认配置
func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "events", cfg.Database.DBName)

	// 同步默认值
	assert.Equal(t, 60, cfg.Sync.IntervalMinutes)
	assert.Equal(t, 120, cfg.Sync.TimeoutSeconds)
	assert.Equal(t, 1.0, cfg.Sync.RateLimitRPS)
	assert.Equal(t, 5, cfg.Sync.RateLimitBurst)

	// 提供商默认值
	assert.Equal(t, "https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAI.Model)
	assert.Equal(t, "https://partners.softbank.jp/api/v1", cfg.Providers.SoftBank.BaseURL)
	assert.Equal(t, "https://events.oracle.com/api/v2", cfg.Providers.Oracle.BaseURL)
	assert.Equal(t, "https://api.mgx.ae/v1", cfg.Providers.MGX.BaseURL)
	assert.Equal(t, 180, cfg.Providers.MGX.CacheTTLMinutes)

	// 未配置密钥时为空
	assert.Empty(t, cfg.Providers.OpenAI.APIKey)
}

// TestProviderConfig_Timeout 测试超时兜底
func TestProviderConfig_Timeout(t *testing.T) {
	p := config.ProviderConfig{}
	assert.Equal(t, 30*time.Second, p.Timeout())

	p.TimeoutSeconds = 10
	assert.Equal(t, 10*time.Second, p.Timeout())
}

// TestProviderConfig_CacheTTL 测试缓存 TTL 兜底
func TestProviderConfig_CacheTTL(t *testing.T) {
	p := config.ProviderConfig{}
	assert.Equal(t, time.Hour, p.CacheTTL())

	p.CacheTTLMinutes = 120
	assert.Equal(t, 2*time.Hour, p.CacheTTL())
}

// TestLoad_EnvOverride 测试环境变量覆盖
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")
	t.Setenv("APP_PROVIDERS_MGX_BASE_URL", "http://localhost:9999/v1")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:9999/v1", cfg.Providers.MGX.BaseURL)
}

// TestIsProduction 测试环境判断
func TestIsProduction(t *testing.T) {
	assert.False(t, config.IsProduction(nil))
	assert.False(t, config.IsProduction(&config.Config{Env: "development"}))
	assert.True(t, config.IsProduction(&config.Config{Env: "production"}))
}

// TestLoad_ProductionLogDefaults 测试生产环境日志默认值
func TestLoad_ProductionLogDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}
