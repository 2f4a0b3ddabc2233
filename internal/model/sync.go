package model

import "time"

// 单一来源同步结果状态
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SourceOutcome 单一来源的同步结果
type SourceOutcome struct {
	Source string `json:"source"`
	Status string `json:"status"` // success 或 error
	Count  int    `json:"count"`  // 本次写入(或命中缓存)的事件数
	Cached bool   `json:"cached"` // 是否来自缓存
	Error  string `json:"error,omitempty"`
}

// SyncResult 一次同步调用的汇总结果
// 只存在于响应和日志中, 不落库
type SyncResult struct {
	PerSource   map[string]*SourceOutcome `json:"per_source"`
	TotalSynced int                       `json:"total_synced"`
	RequestedAt time.Time                 `json:"requested_at"`
	Forced      bool                      `json:"forced"`
	Duration    string                    `json:"duration"`
}

// NewSyncResult 创建同步结果
func NewSyncResult(forced bool) *SyncResult {
	return &SyncResult{
		PerSource:   make(map[string]*SourceOutcome),
		RequestedAt: time.Now(),
		Forced:      forced,
	}
}

// Add 记录单一来源的结果并累加总数
func (r *SyncResult) Add(outcome *SourceOutcome) {
	if outcome == nil {
		return
	}
	r.PerSource[outcome.Source] = outcome
	r.TotalSynced += outcome.Count
}

// SourceCounts 来源事件计数
type SourceCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Upcoming int64 `json:"upcoming"`
}

// SourceStatus 来源同步状态(只读投影)
type SourceStatus struct {
	Source         string     `json:"source"`
	Configured     bool       `json:"configured"`
	LastSync       *time.Time `json:"last_sync"`
	TotalEvents    int64      `json:"total_events"`
	ActiveEvents   int64      `json:"active_events"`
	UpcomingEvents int64      `json:"upcoming_events"`
}
