package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/stargatehub/events-gin/internal/model"
)

// ResponseCache 按来源缓存最近一次归一化成功的事件批次
// 缓存未命中不是错误, 只表示需要重新调用适配器
type ResponseCache interface {
	Get(key string) ([]*model.NormalizedEvent, bool)
	Put(key string, batch []*model.NormalizedEvent, ttl time.Duration)
	Invalidate(key string)
}

// Key 生成缓存键: 来源名 + 小时桶
// 同一小时内的重复同步直接命中, 跨小时自然滚动失效
func Key(source string, now time.Time) string {
	return fmt.Sprintf("%s:%s", source, now.UTC().Format("2006010215"))
}

// cacheEntry 缓存条目
type cacheEntry struct {
	batch     []*model.NormalizedEvent
	expiresAt time.Time
}

// MemoryCache 进程内响应缓存
type MemoryCache struct {
	entries *sync.Map
}

// NewMemoryCache 创建进程内响应缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: &sync.Map{},
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(key string) ([]*model.NormalizedEvent, bool) {
	val, found := c.entries.Load(key)
	if !found {
		return nil, false
	}

	entry := val.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		// 已过期，删除
		c.entries.Delete(key)
		return nil, false
	}

	return entry.batch, true
}

// Put 设置缓存
func (c *MemoryCache) Put(key string, batch []*model.NormalizedEvent, ttl time.Duration) {
	entry := &cacheEntry{
		batch:     batch,
		expiresAt: time.Now().Add(ttl),
	}
	c.entries.Store(key, entry)
}

// Invalidate 删除缓存条目
func (c *MemoryCache) Invalidate(key string) {
	c.entries.Delete(key)
}

// Clear 清空缓存
func (c *MemoryCache) Clear() {
	c.entries.Range(func(key, value interface{}) bool {
		c.entries.Delete(key)
		return true
	})
}
