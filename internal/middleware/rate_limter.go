package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 冷却限流器
// 防止前端重复点击触发同一会话的重复生成，浪费模型调用费用
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &SyncRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "session:abc123:generate"
// interval: 冷却间隔
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{
		Allowed:    true,
		RetryAfter: 0,
	}
}

// Reset 重置指定 key 的限流
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// TaskType 任务类型
type TaskType string

const (
	TaskTypeGenerate   TaskType = "generate"
	TaskTypeTranscribe TaskType = "transcribe"
)

// SessionTaskKey 生成会话级限流 Key
func SessionTaskKey(sessionID string, taskType TaskType) string {
	return fmt.Sprintf("session:%s:%s", sessionID, taskType)
}

// ==================== 默认限流间隔 ====================

// DefaultIntervals 默认限流间隔配置
var DefaultIntervals = map[TaskType]time.Duration{
	TaskTypeGenerate:   30 * time.Second, // 全量生成一轮至少半分钟
	TaskTypeTranscribe: 10 * time.Second,
}

// GetInterval 获取任务类型的默认间隔
func GetInterval(taskType TaskType) time.Duration {
	if interval, ok := DefaultIntervals[taskType]; ok {
		return interval
	}
	return 30 * time.Second
}
