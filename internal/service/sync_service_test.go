package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stargatehub/events-gin/internal/cache"
	"github.com/stargatehub/events-gin/internal/database"
	"github.com/stargatehub/events-gin/internal/model"
	"github.com/stargatehub/events-gin/internal/repository"
	"github.com/stargatehub/events-gin/internal/service"
	"github.com/stargatehub/events-gin/internal/source"
)

// fakeAdapter 可编程的测试适配器
type fakeAdapter struct {
	name       string
	batch      []*model.NormalizedEvent
	err        error
	fetchCount int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]*model.NormalizedEvent, error) {
	atomic.AddInt32(&f.fetchCount, 1)
	return f.batch, f.err
}

func (f *fakeAdapter) IsConfigured() bool { return true }

func (f *fakeAdapter) TestConnection(ctx context.Context) (bool, string) {
	return true, "ok"
}

func (f *fakeAdapter) CacheTTL() time.Duration { return time.Hour }

func (f *fakeAdapter) fetches() int {
	return int(atomic.LoadInt32(&f.fetchCount))
}

// fakeBatch 构造指定来源的事件批次
func fakeBatch(sourceName string, n int) []*model.NormalizedEvent {
	batch := make([]*model.NormalizedEvent, 0, n)
	for i := 1; i <= n; i++ {
		batch = append(batch, &model.NormalizedEvent{
			ExternalID:  fmt.Sprintf("%s-%d", sourceName, i),
			Title:       fmt.Sprintf("%s event %d", sourceName, i),
			Description: "test event",
			Category:    model.CategoryStargate,
			Type:        model.TypeConference,
			EventDate:   time.Now().AddDate(0, 0, 7),
			Source:      sourceName,
			Metadata:    map[string]interface{}{"provider": sourceName, "fallback": false},
		})
	}
	return batch
}

// newSyncFixture 组装同步服务及其依赖
func newSyncFixture(t *testing.T, adapters ...source.Adapter) (service.SyncService, repository.EventRepository, *source.Registry, cache.ResponseCache) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	registry := source.NewRegistry()
	for _, adapter := range adapters {
		registry.Register(adapter)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := repository.NewEventRepository(db)
	responseCache := cache.NewMemoryCache()
	return service.NewSyncService(registry, responseCache, repo, logger), repo, registry, responseCache
}

// countEvents 统计某来源入库的事件数
func countEvents(t *testing.T, repo repository.EventRepository, sourceName string) int64 {
	t.Helper()
	counts, err := repo.CountBySource(sourceName)
	require.NoError(t, err)
	return counts.Total
}

// TestSyncService_SyncOne 测试单来源同步把事件写入仓储
func TestSyncService_SyncOne(t *testing.T) {
	adapter := &fakeAdapter{name: model.SourceMGX, batch: fakeBatch(model.SourceMGX, 2)}
	svc, repo, _, _ := newSyncFixture(t, adapter)

	result, err := svc.SyncOne(context.Background(), model.SourceMGX, false)
	require.NoError(t, err)

	outcome := result.PerSource[model.SourceMGX]
	require.NotNil(t, outcome)
	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)
	assert.Equal(t, 2, outcome.Count)
	assert.False(t, outcome.Cached)
	assert.Equal(t, 2, result.TotalSynced)
	assert.Equal(t, int64(2), countEvents(t, repo, model.SourceMGX))
}

// TestSyncService_SecondSyncServedFromCache 测试缓存窗口内的重复同步不触发抓取
func TestSyncService_SecondSyncServedFromCache(t *testing.T) {
	adapter := &fakeAdapter{name: model.SourceMGX, batch: fakeBatch(model.SourceMGX, 2)}
	svc, repo, _, _ := newSyncFixture(t, adapter)

	_, err := svc.SyncOne(context.Background(), model.SourceMGX, false)
	require.NoError(t, err)

	result, err := svc.SyncOne(context.Background(), model.SourceMGX, false)
	require.NoError(t, err)

	outcome := result.PerSource[model.SourceMGX]
	require.NotNil(t, outcome)
	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)
	assert.True(t, outcome.Cached)
	// 计数仍反映批次大小
	assert.Equal(t, 2, outcome.Count)
	// 适配器只被调用了一次
	assert.Equal(t, 1, adapter.fetches())
	// 仓储里没有重复记录
	assert.Equal(t, int64(2), countEvents(t, repo, model.SourceMGX))
}

// TestSyncService_ForcedBypassesCache 测试强制同步绕过缓存
func TestSyncService_ForcedBypassesCache(t *testing.T) {
	adapter := &fakeAdapter{name: model.SourceOracle, batch: fakeBatch(model.SourceOracle, 3)}
	svc, repo, _, _ := newSyncFixture(t, adapter)

	_, err := svc.SyncOne(context.Background(), model.SourceOracle, false)
	require.NoError(t, err)
	require.Equal(t, 1, adapter.fetches())

	result, err := svc.SyncOne(context.Background(), model.SourceOracle, true)
	require.NoError(t, err)

	outcome := result.PerSource[model.SourceOracle]
	require.NotNil(t, outcome)
	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)
	assert.False(t, outcome.Cached)
	assert.Equal(t, 2, adapter.fetches())
	// 幂等: 重复同步后记录数不变
	assert.Equal(t, int64(3), countEvents(t, repo, model.SourceOracle))
}

// TestSyncService_PartialFailureIsolation 测试单来源失败不影响其它来源
func TestSyncService_PartialFailureIsolation(t *testing.T) {
	openai := &fakeAdapter{name: model.SourceOpenAI, batch: fakeBatch(model.SourceOpenAI, 2)}
	softbank := &fakeAdapter{name: model.SourceSoftBank, batch: fakeBatch(model.SourceSoftBank, 1)}
	oracle := &fakeAdapter{
		name:  model.SourceOracle,
		batch: fakeBatch(model.SourceOracle, 1),
		err:   errors.New("upstream returned 503"),
	}
	mgx := &fakeAdapter{name: model.SourceMGX, batch: fakeBatch(model.SourceMGX, 2)}

	svc, repo, _, _ := newSyncFixture(t, openai, softbank, oracle, mgx)

	result := svc.SyncAll(context.Background(), false)
	require.Len(t, result.PerSource, 4)

	assert.Equal(t, model.SyncStatusSuccess, result.PerSource[model.SourceOpenAI].Status)
	assert.Equal(t, model.SyncStatusSuccess, result.PerSource[model.SourceSoftBank].Status)
	assert.Equal(t, model.SyncStatusSuccess, result.PerSource[model.SourceMGX].Status)

	failed := result.PerSource[model.SourceOracle]
	assert.Equal(t, model.SyncStatusError, failed.Status)
	assert.Contains(t, failed.Error, "503")
	// 兜底批次仍被写入
	assert.Equal(t, 1, failed.Count)
	assert.Equal(t, int64(1), countEvents(t, repo, model.SourceOracle))

	// 其它来源的数据不受影响
	assert.Equal(t, int64(2), countEvents(t, repo, model.SourceOpenAI))
	assert.Equal(t, int64(1), countEvents(t, repo, model.SourceSoftBank))
	assert.Equal(t, int64(2), countEvents(t, repo, model.SourceMGX))
}

// TestSyncService_FetchErrorNotCached 测试失败的批次不会写入缓存
func TestSyncService_FetchErrorNotCached(t *testing.T) {
	adapter := &fakeAdapter{
		name:  model.SourceSoftBank,
		batch: fakeBatch(model.SourceSoftBank, 1),
		err:   errors.New("connection refused"),
	}
	svc, _, _, _ := newSyncFixture(t, adapter)

	_, err := svc.SyncOne(context.Background(), model.SourceSoftBank, false)
	require.NoError(t, err)
	require.Equal(t, 1, adapter.fetches())

	// 上一次失败未被缓存, 再次同步会重新抓取
	_, err = svc.SyncOne(context.Background(), model.SourceSoftBank, false)
	require.NoError(t, err)
	assert.Equal(t, 2, adapter.fetches())
}

// TestSyncService_UnknownSource 测试未注册来源
func TestSyncService_UnknownSource(t *testing.T) {
	adapter := &fakeAdapter{name: model.SourceOpenAI, batch: fakeBatch(model.SourceOpenAI, 1)}
	svc, repo, _, _ := newSyncFixture(t, adapter)

	result, err := svc.SyncOne(context.Background(), "closedai", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUnknownSource))
	assert.Nil(t, result)

	// 未触碰仓储
	assert.Equal(t, int64(0), countEvents(t, repo, model.SourceOpenAI))
	assert.Equal(t, 0, adapter.fetches())
}

// TestSyncService_UpsertFailureAbortsSource 测试存储失败时该来源计数为零
func TestSyncService_UpsertFailureAbortsSource(t *testing.T) {
	bad := fakeBatch(model.SourceOpenAI, 1)
	bad[0].Category = "not-a-category"
	adapter := &fakeAdapter{name: model.SourceOpenAI, batch: bad}
	svc, repo, _, _ := newSyncFixture(t, adapter)

	result, err := svc.SyncOne(context.Background(), model.SourceOpenAI, false)
	require.NoError(t, err)

	outcome := result.PerSource[model.SourceOpenAI]
	require.NotNil(t, outcome)
	assert.Equal(t, model.SyncStatusError, outcome.Status)
	assert.Equal(t, 0, outcome.Count)
	assert.Contains(t, outcome.Error, "upsert failed")
	assert.Equal(t, int64(0), countEvents(t, repo, model.SourceOpenAI))
}

// TestSyncService_CancelledContext 测试启动前取消的来源不计入结果
func TestSyncService_CancelledContext(t *testing.T) {
	adapter := &fakeAdapter{name: model.SourceMGX, batch: fakeBatch(model.SourceMGX, 2)}
	svc, repo, _, _ := newSyncFixture(t, adapter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.SyncAll(ctx, false)
	assert.Empty(t, result.PerSource)
	assert.Equal(t, 0, result.TotalSynced)
	assert.Equal(t, 0, adapter.fetches())
	assert.Equal(t, int64(0), countEvents(t, repo, model.SourceMGX))
}

// TestSyncService_SyncAllAggregates 测试总量聚合
func TestSyncService_SyncAllAggregates(t *testing.T) {
	openai := &fakeAdapter{name: model.SourceOpenAI, batch: fakeBatch(model.SourceOpenAI, 2)}
	mgx := &fakeAdapter{name: model.SourceMGX, batch: fakeBatch(model.SourceMGX, 3)}
	svc, _, _, _ := newSyncFixture(t, openai, mgx)

	result := svc.SyncAll(context.Background(), false)
	require.Len(t, result.PerSource, 2)
	assert.Equal(t, 5, result.TotalSynced)
	assert.NotEmpty(t, result.Duration)
	assert.False(t, result.Forced)
}
