package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB 打开并触碰一次连接池
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	return db
}

// TestUpdateDatabaseConnections 测试连接池指标刷新
func TestUpdateDatabaseConnections(t *testing.T) {
	assert.Error(t, UpdateDatabaseConnections(nil))

	db := openTestDB(t)
	require.NoError(t, UpdateDatabaseConnections(db))

	total := testutil.ToFloat64(databaseConnectionsActive) + testutil.ToFloat64(databaseConnectionsIdle)
	assert.GreaterOrEqual(t, total, 1.0)
}

// TestCollector_RefreshesGauges 测试采集循环让指标保持可见
func TestCollector_RefreshesGauges(t *testing.T) {
	db := openTestDB(t)

	databaseConnectionsActive.Set(0)
	databaseConnectionsIdle.Set(0)

	collector := NewCollector(db, 10*time.Millisecond)
	collector.Start()
	defer collector.Stop()

	assert.Eventually(t, func() bool {
		total := testutil.ToFloat64(databaseConnectionsActive) + testutil.ToFloat64(databaseConnectionsIdle)
		return total >= 1.0
	}, time.Second, 10*time.Millisecond)
}

// TestCollector_StopWaitsForExit 测试 Stop 等待循环退出
func TestCollector_StopWaitsForExit(t *testing.T) {
	collector := NewCollector(openTestDB(t), time.Hour)
	collector.Start()

	done := make(chan struct{})
	go func() {
		collector.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop in time")
	}
}
