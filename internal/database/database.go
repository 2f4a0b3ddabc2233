package database

import (
	"context"
	"fmt"
	"time"

	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
// driver 为 sqlite 时使用本地文件, 其余情况连接 PostgreSQL
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if cfg.Driver == "sqlite" {
		path := cfg.Path
		if path == "" {
			path = "./events.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	} else {
		db, err = gorm.Open(postgres.Open(BuildDSN(cfg)), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb，需要手动创建表
	// GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
	if dialector == "sqlite" || dialector == "sqlite3" {
		// 手动创建 SQLite 表（使用 TEXT 替代 jsonb）
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(&model.EventModel{}); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(64) PRIMARY KEY,
			external_id VARCHAR(128),
			title VARCHAR(255) NOT NULL,
			description TEXT,
			category VARCHAR(32) NOT NULL,
			type VARCHAR(32) NOT NULL,
			event_date DATETIME NOT NULL,
			event_time VARCHAR(16),
			location VARCHAR(255),
			organizer VARCHAR(255),
			source VARCHAR(32) NOT NULL,
			metadata TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			is_featured BOOLEAN NOT NULL DEFAULT 0,
			last_synced_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// (source, external_id) 唯一索引是同步去重的关键
	// external_id 为 NULL 的内部事件不受唯一约束限制
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_events_source_external ON events(source, external_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_source_external: %w", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_category ON events(category)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_category: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_source ON events(source)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_source: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_event_date: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_is_featured ON events(is_featured)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_is_featured: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_last_synced_at ON events(last_synced_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_last_synced_at: %w", err)
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
