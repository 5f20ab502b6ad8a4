package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
)

// DefaultPacingDelay 相邻两次外部调用之间的默认间隔
const DefaultPacingDelay = 2500 * time.Millisecond

// Executor 执行单个任务，返回产物URL
type Executor interface {
	Execute(ctx context.Context, task Task) (string, error)
}

// ExecutorFunc 函数形式的 Executor
type ExecutorFunc func(ctx context.Context, task Task) (string, error)

// Execute 实现 Executor
func (f ExecutorFunc) Execute(ctx context.Context, task Task) (string, error) {
	return f(ctx, task)
}

// Sleeper 节流等待（单测中替换为记录型实现）
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type clockSleeper struct{}

func (clockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options Runner 配置
type Options struct {
	PacingDelay time.Duration // 任务间隔，<0 按 0 处理
	CallTimeout time.Duration // 单次外部调用的超时，0 表示不限制
	Sleeper     Sleeper
}

// Runner 顺序生成执行器
// 说明：同一批次内严格串行，任意时刻至多一个外部调用在进行中
type Runner struct {
	pacing      time.Duration
	callTimeout time.Duration
	sleeper     Sleeper
}

// NewRunner 创建执行器
func NewRunner(opts Options) *Runner {
	r := &Runner{
		pacing:      opts.PacingDelay,
		callTimeout: opts.CallTimeout,
		sleeper:     opts.Sleeper,
	}
	if r.pacing < 0 {
		r.pacing = 0
	}
	if r.sleeper == nil {
		r.sleeper = clockSleeper{}
	}
	return r
}

// Batch 一次 Runner 调用的任务列表及其上下文
type Batch struct {
	Name        string // 批次名称（日志用）
	Tasks       []Task
	Ledger      *Ledger
	Executor    Executor
	Signal      *Signal
	Attribution string // 成功结果的署名
	Retry       bool   // 占位使用 retrying 状态
}

// Report 批次执行结果
type Report struct {
	Total         int
	Succeeded     int
	Failed        int
	Cancelled     int
	Stopped       bool
	QuotaExceeded bool
	LastError     string
}

// StepFunc 执行第 index 个任务
type StepFunc func(ctx context.Context, index int) error

// CancelFunc 将 [from, n) 中尚未处理的任务标记为取消
type CancelFunc func(from int, reason string)

// Outcome 顺序循环的结束方式
type Outcome struct {
	Processed     int
	Stopped       bool
	QuotaExceeded bool
}

// Run 写入占位后执行整个批次
func (r *Runner) Run(ctx context.Context, b *Batch) *Report {
	r.Seed(b)
	return r.Drain(ctx, b)
}

// Seed 为批次内所有任务写入占位，在任何外部调用之前完成
// 同时清除上一次遗留的停止请求
func (r *Runner) Seed(b *Batch) {
	if b.Signal == nil {
		b.Signal = NewSignal()
	}
	b.Signal.Reset()

	status := studio.ImageStatusGenerating
	if b.Retry {
		status = studio.ImageStatusRetrying
	}
	for _, t := range b.Tasks {
		b.Ledger.Seed(t.TargetImageID, t.PromptID, status)
	}
}

// Drain 依次执行已写入占位的任务
func (r *Runner) Drain(ctx context.Context, b *Batch) *Report {
	report := &Report{Total: len(b.Tasks)}
	if len(b.Tasks) == 0 {
		return report
	}

	start := time.Now()
	log.Info().Str("batch", b.Name).Int("tasks", len(b.Tasks)).Msg("generation batch started")

	step := func(ctx context.Context, i int) error {
		task := b.Tasks[i]
		url, err := b.Executor.Execute(ctx, task)
		if err != nil {
			msg := errorMessage(err)
			b.Ledger.Fail(task.TargetImageID, msg)
			report.Failed++
			report.LastError = msg
			log.Error().
				Err(err).
				Str("batch", b.Name).
				Str("image_id", task.TargetImageID).
				Str("prompt_id", task.PromptID).
				Msg("generation task failed")
			return err
		}
		b.Ledger.Succeed(task.TargetImageID, url, b.Attribution)
		report.Succeeded++
		return nil
	}

	cancel := func(from int, reason string) {
		for _, t := range b.Tasks[from:] {
			if b.Ledger.Cancel(t.TargetImageID, reason) {
				report.Cancelled++
			}
		}
	}

	out := r.Sequence(ctx, b.Signal, len(b.Tasks), step, cancel)
	report.Stopped = out.Stopped
	report.QuotaExceeded = out.QuotaExceeded

	log.Info().
		Str("batch", b.Name).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("cancelled", report.Cancelled).
		Bool("quota_exceeded", report.QuotaExceeded).
		Dur("elapsed", time.Since(start)).
		Msg("generation batch finished")

	return report
}

// Sequence 通用的顺序执行状态机（系列图片、角色预览、视频提示词共用）
//   - 每个任务开始前检查停止请求（或 ctx 已取消），命中则取消当前及其后的任务
//   - 任务返回配额类错误时标记配额耗尽，取消其后的任务并退出
//   - 其他错误只影响当前任务，循环继续
//   - 非最后一个任务之后等待节流间隔
//
// 循环结束后总是清除停止请求，配额状态保持不变
func (r *Runner) Sequence(ctx context.Context, sig *Signal, n int, step StepFunc, cancel CancelFunc) Outcome {
	if sig == nil {
		sig = NewSignal()
	}
	defer sig.Reset()

	var out Outcome
	for i := 0; i < n; i++ {
		if sig.Stopping() || ctx.Err() != nil {
			log.Info().Int("remaining", n-i).Msg("generation stopped by user")
			cancel(i, ReasonUserStopped)
			out.Stopped = true
			return out
		}

		err := r.call(ctx, i, step)
		out.Processed++

		if err != nil && IsQuotaError(err) {
			log.Warn().Err(err).Int("remaining", n-i-1).Msg("generation quota exceeded, aborting batch")
			sig.MarkQuotaExceeded()
			cancel(i+1, ReasonQuota)
			out.QuotaExceeded = true
			return out
		}

		if i < n-1 {
			// ctx 在等待期间被取消时，由下一轮的检查负责收尾
			_ = r.sleeper.Sleep(ctx, r.pacing)
		}
	}
	return out
}

func (r *Runner) call(ctx context.Context, i int, step StepFunc) error {
	if r.callTimeout <= 0 {
		return step(ctx, i)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return step(callCtx, i)
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "unknown error"
}
