package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"tmmedia/internal/model/studio"
)

// recordingSleeper 记录等待时长，不真正等待
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return nil
}

// scriptedExecutor 按任务ID返回预设结果，并记录调用顺序
type scriptedExecutor struct {
	calls   []Task
	errs    map[string]error
	onCall  func(task Task)
	ctxSeen []context.Context
}

func (e *scriptedExecutor) Execute(ctx context.Context, task Task) (string, error) {
	e.calls = append(e.calls, task)
	e.ctxSeen = append(e.ctxSeen, ctx)
	if e.onCall != nil {
		e.onCall(task)
	}
	if err, ok := e.errs[task.TargetImageID]; ok {
		return "", err
	}
	return "https://cdn.example.com/" + task.TargetImageID + ".jpeg", nil
}

func TestRunner(t *testing.T) {
	Convey("顺序生成执行器", t, func() {
		sleeper := &recordingSleeper{}
		runner := NewRunner(Options{PacingDelay: 2500 * time.Millisecond, Sleeper: sleeper})
		exec := &scriptedExecutor{errs: map[string]error{}}
		ctx := context.Background()

		prompts := []studio.SeriesPrompt{
			{ID: "a", Value: "Cockpit view", Variations: 2},
			{ID: "b", Value: "Runway", Variations: 1},
			{ID: "c", Value: "Hangar", Variations: 1},
		}
		ledger := NewLedger(nil)
		sig := NewSignal()

		newBatch := func(tasks []Task) *Batch {
			return &Batch{Name: "series", Tasks: tasks, Ledger: ledger, Executor: exec, Signal: sig, Attribution: "Lan"}
		}

		Convey("单提示词两个变体：两次调用按序执行，只在中间等待一次", func() {
			tasks, _ := CompilePrompt(prompts, "a")
			report := runner.Run(ctx, newBatch(tasks))

			So(len(exec.calls), ShouldEqual, 2)
			So(exec.calls[0].TargetImageID, ShouldEqual, "series-a-var-0")
			So(exec.calls[0].VariationSuffix, ShouldEqual, "(Shot 1/2, different cinematic angle)")
			So(exec.calls[1].TargetImageID, ShouldEqual, "series-a-var-1")
			So(exec.calls[1].VariationSuffix, ShouldEqual, "(Shot 2/2, different cinematic angle)")
			So(sleeper.delays, ShouldResemble, []time.Duration{2500 * time.Millisecond})

			So(report.Succeeded, ShouldEqual, 2)
			for _, r := range ledger.Snapshot() {
				So(r.Status, ShouldEqual, studio.ImageStatusSuccess)
				So(r.GeneratedBy, ShouldEqual, "Lan")
				So(r.URL, ShouldNotBeEmpty)
			}
		})

		Convey("所有占位在第一次调用之前写入", func() {
			var statuses []studio.ImageStatus
			exec.onCall = func(task Task) {
				if len(statuses) > 0 {
					return
				}
				for _, r := range ledger.Snapshot() {
					statuses = append(statuses, r.Status)
				}
			}
			runner.Run(ctx, newBatch(CompileSeries(prompts, ledger)))

			So(statuses, ShouldResemble, []studio.ImageStatus{
				studio.ImageStatusGenerating,
				studio.ImageStatusGenerating,
				studio.ImageStatusGenerating,
				studio.ImageStatusGenerating,
			})
		})

		Convey("重试批次的占位为 retrying", func() {
			var seen studio.ImageStatus
			exec.onCall = func(task Task) {
				r, _ := ledger.Get(task.TargetImageID)
				seen = r.Status
			}
			b := newBatch([]Task{newSeriesTask(prompts[1], 0)})
			b.Retry = true
			runner.Run(ctx, b)
			So(seen, ShouldEqual, studio.ImageStatusRetrying)
		})

		Convey("普通失败只影响当前任务，批次继续", func() {
			exec.errs["series-a-var-1"] = errors.New("connection reset")
			report := runner.Run(ctx, newBatch(CompileSeries(prompts, ledger)))

			So(len(exec.calls), ShouldEqual, 4)
			So(report.Failed, ShouldEqual, 1)
			So(report.Succeeded, ShouldEqual, 3)
			r, _ := ledger.Get("series-a-var-1")
			So(r.Status, ShouldEqual, studio.ImageStatusError)
			So(r.Error, ShouldEqual, "connection reset")
			So(sig.QuotaExceeded(), ShouldBeFalse)
			So(len(sleeper.delays), ShouldEqual, 3)
		})

		Convey("配额错误：当前任务失败，其后任务取消，批次退出", func() {
			exec.errs["series-a-var-1"] = errors.New("429 quota exhausted")
			report := runner.Run(ctx, newBatch(CompileSeries(prompts, ledger)))

			So(len(exec.calls), ShouldEqual, 2)
			So(report.QuotaExceeded, ShouldBeTrue)
			So(report.Cancelled, ShouldEqual, 2)
			So(sig.QuotaExceeded(), ShouldBeTrue)

			r, _ := ledger.Get("series-a-var-1")
			So(r.Status, ShouldEqual, studio.ImageStatusError)
			for _, id := range []string{"series-b-var-0", "series-c-var-0"} {
				r, _ := ledger.Get(id)
				So(r.Status, ShouldEqual, studio.ImageStatusCancelled)
				So(r.Error, ShouldEqual, ReasonQuota)
			}
			So(len(sleeper.delays), ShouldEqual, 1)

			Convey("配额状态在下一个批次中保持，直到显式清除", func() {
				runner.Run(ctx, newBatch(nil))
				So(sig.QuotaExceeded(), ShouldBeTrue)
				sig.ClearQuota()
				So(sig.QuotaExceeded(), ShouldBeFalse)
			})
		})

		Convey("停止请求在当前调用完成后生效", func() {
			exec.onCall = func(task Task) {
				if task.TargetImageID == "series-a-var-0" {
					sig.Stop()
				}
			}
			report := runner.Run(ctx, newBatch(CompileSeries(prompts, ledger)))

			So(len(exec.calls), ShouldEqual, 1)
			So(report.Stopped, ShouldBeTrue)
			So(report.Cancelled, ShouldEqual, 3)

			r, _ := ledger.Get("series-a-var-0")
			So(r.Status, ShouldEqual, studio.ImageStatusSuccess)
			for _, id := range []string{"series-a-var-1", "series-b-var-0", "series-c-var-0"} {
				r, _ := ledger.Get(id)
				So(r.Status, ShouldEqual, studio.ImageStatusCancelled)
				So(r.Error, ShouldEqual, ReasonUserStopped)
			}

			Convey("批次结束后停止请求被清除", func() {
				So(sig.Stopping(), ShouldBeFalse)
			})
		})

		Convey("批次开始前遗留的停止请求不会影响新批次", func() {
			sig.Stop()
			report := runner.Run(ctx, newBatch(CompileSeries(prompts, ledger)))
			So(report.Stopped, ShouldBeFalse)
			So(report.Succeeded, ShouldEqual, 4)
		})

		Convey("ctx 取消等同于停止", func() {
			cctx, cancel := context.WithCancel(ctx)
			exec.onCall = func(Task) { cancel() }
			report := runner.Run(cctx, newBatch(CompileSeries(prompts, ledger)))

			So(len(exec.calls), ShouldEqual, 1)
			So(report.Stopped, ShouldBeTrue)
			So(report.Cancelled, ShouldEqual, 3)
		})

		Convey("空批次不发起调用也不等待", func() {
			report := runner.Run(ctx, newBatch(nil))
			So(report.Total, ShouldEqual, 0)
			So(exec.calls, ShouldBeEmpty)
			So(sleeper.delays, ShouldBeEmpty)
		})

		Convey("每次调用携带独立的超时", func() {
			timed := NewRunner(Options{CallTimeout: time.Minute, Sleeper: sleeper})
			tasks, _ := CompilePrompt(prompts, "a")
			timed.Run(ctx, newBatch(tasks))

			So(len(exec.ctxSeen), ShouldEqual, 2)
			for _, c := range exec.ctxSeen {
				_, ok := c.Deadline()
				So(ok, ShouldBeTrue)
			}
			So(exec.ctxSeen[0].Err(), ShouldNotBeNil)
		})
	})
}

func TestClockSleeper(t *testing.T) {
	Convey("默认等待实现响应 ctx 取消", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := clockSleeper{}.Sleep(ctx, time.Hour)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		So(clockSleeper{}.Sleep(context.Background(), 0), ShouldBeNil)
	})
}
