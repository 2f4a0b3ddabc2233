package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector 数据库连接池指标采集器
// 连接数是瞬时状态, 无法在请求路径上打点, 由后台循环定期刷新
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标采集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动采集循环
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止采集循环并等待退出
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期刷新连接池指标
// 启动时先刷新一次, 避免第一个采集周期内指标一直为零
func (c *Collector) collect() {
	defer close(c.done)

	_ = UpdateDatabaseConnections(c.db)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
		}
	}
}
