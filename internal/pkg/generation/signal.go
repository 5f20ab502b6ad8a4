package generation

import "sync/atomic"

// Signal 批次的取消与配额信号
// 说明：由调用方显式传入 Runner；UI 动作写入，Runner 读取。
// stopping 在每次批次开始和结束时被清除；quotaExceeded 只能由 ClearQuota 清除
type Signal struct {
	stopping      atomic.Bool
	quotaExceeded atomic.Bool
}

// NewSignal 创建信号
func NewSignal() *Signal {
	return &Signal{}
}

// Stop 请求停止当前批次（在下一个任务开始前生效）
func (s *Signal) Stop() {
	s.stopping.Store(true)
}

// Stopping 是否已请求停止
func (s *Signal) Stopping() bool {
	return s.stopping.Load()
}

// QuotaExceeded 是否处于配额耗尽状态
func (s *Signal) QuotaExceeded() bool {
	return s.quotaExceeded.Load()
}

// MarkQuotaExceeded 标记配额耗尽
func (s *Signal) MarkQuotaExceeded() {
	s.quotaExceeded.Store(true)
}

// ClearQuota 操作者确认后清除配额状态（重试、加载项目时调用）
func (s *Signal) ClearQuota() {
	s.quotaExceeded.Store(false)
}

// Reset 清除停止请求（批次开始和结束时调用），不影响配额状态
func (s *Signal) Reset() {
	s.stopping.Store(false)
}
