package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stargatehub/events-gin/internal/config"
	"github.com/stargatehub/events-gin/internal/database"
)

// TestMigrate_Idempotent 测试迁移可重复执行
func TestMigrate_Idempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Migrate(db))

	assert.True(t, db.Migrator().HasTable("events"))
	assert.True(t, db.Migrator().HasIndex("events", "idx_events_source_external"))
}

// TestBuildDSN 测试 PostgreSQL DSN 拼装
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		DBName:   "events",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=events sslmode=disable", dsn)
}

// TestCheckHealth 测试健康检查
func TestCheckHealth(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.True(t, database.CheckHealth(db))
}
