package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env       string          `mapstructure:"env"` // 环境: development, production
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres 或 sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"` // sqlite 数据文件路径
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 秒
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error
	Format string `mapstructure:"format"` // 日志格式: json, text
	Output string `mapstructure:"output"` // 输出位置: stdout, file, both
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// SyncConfig 同步配置
type SyncConfig struct {
	IntervalMinutes int     `mapstructure:"interval_minutes"` // 定时同步间隔, 0 表示关闭
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`  // 单次同步整体超时
	RateLimitRPS    float64 `mapstructure:"rate_limit_rps"`   // 同步触发接口限流
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
}

// ProviderConfig 单一外部提供商配置
type ProviderConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"` // AI 提供商使用的模型
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

// Timeout 返回请求超时时间
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// CacheTTL 返回缓存 TTL
func (p ProviderConfig) CacheTTL() time.Duration {
	if p.CacheTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}

// ProvidersConfig 全部提供商配置
type ProvidersConfig struct {
	OpenAI   ProviderConfig `mapstructure:"openai"`
	SoftBank ProviderConfig `mapstructure:"softbank"`
	Oracle   ProviderConfig `mapstructure:"oracle"`
	MGX      ProviderConfig `mapstructure:"mgx"`
	Gemini   ProviderConfig `mapstructure:"gemini"`
	Cohere   ProviderConfig `mapstructure:"cohere"`
}

// Load 加载配置,支持配置文件和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果提供了配置文件路径,从文件加载
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// 尝试从默认位置加载
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.events-gin")
		// 忽略配置文件不存在的错误,使用默认值
		_ = v.ReadInConfig()
	}

	// 支持环境变量
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// IsProduction 判断是否为生产环境
func IsProduction(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Env == "production"
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 环境变量
	env := v.GetString("env")
	if env == "" {
		env = os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
	}
	v.SetDefault("env", env)

	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// 数据库默认配置
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "events")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "./events.db")

	// 数据库连接池配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("database.max_idle_conns", 20)
		v.SetDefault("database.max_open_conns", 200)
		v.SetDefault("database.conn_max_lifetime", 3600) // 1 小时
		v.SetDefault("database.conn_max_idle_time", 300) // 5 分钟
	} else {
		v.SetDefault("database.max_idle_conns", 10)
		v.SetDefault("database.max_open_conns", 100)
		v.SetDefault("database.conn_max_lifetime", 3600) // 1 小时
		v.SetDefault("database.conn_max_idle_time", 600) // 10 分钟
	}

	// CORS 默认配置
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 86400)

	// 同步默认配置
	v.SetDefault("sync.interval_minutes", 60)
	v.SetDefault("sync.timeout_seconds", 120)
	v.SetDefault("sync.rate_limit_rps", 1.0)
	v.SetDefault("sync.rate_limit_burst", 5)

	// 提供商默认配置
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.timeout_seconds", 30)
	v.SetDefault("providers.openai.cache_ttl_minutes", 60)

	v.SetDefault("providers.softbank.base_url", "https://partners.softbank.jp/api/v1")
	v.SetDefault("providers.softbank.timeout_seconds", 30)
	v.SetDefault("providers.softbank.cache_ttl_minutes", 120)

	v.SetDefault("providers.oracle.base_url", "https://events.oracle.com/api/v2")
	v.SetDefault("providers.oracle.timeout_seconds", 30)
	v.SetDefault("providers.oracle.cache_ttl_minutes", 120)

	v.SetDefault("providers.mgx.base_url", "https://api.mgx.ae/v1")
	v.SetDefault("providers.mgx.timeout_seconds", 30)
	v.SetDefault("providers.mgx.cache_ttl_minutes", 180)

	v.SetDefault("providers.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("providers.gemini.model", "gemini-1.5-flash")
	v.SetDefault("providers.gemini.timeout_seconds", 30)
	v.SetDefault("providers.gemini.cache_ttl_minutes", 60)

	v.SetDefault("providers.cohere.base_url", "https://api.cohere.com/v1")
	v.SetDefault("providers.cohere.model", "command-r")
	v.SetDefault("providers.cohere.timeout_seconds", 30)
	v.SetDefault("providers.cohere.cache_ttl_minutes", 60)

	// 日志配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("log.level", "warn")
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.level", "debug")
		v.SetDefault("log.format", "text")
	}
	v.SetDefault("log.output", "stdout")
}
