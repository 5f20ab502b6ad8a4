package generation

import (
	"sync"

	"tmmedia/internal/model/studio"
)

// Observer 账本条目变更回调（在锁外调用）
type Observer func(result studio.ImageResult)

// Ledger 结果账本：稳定ID -> 当前 ImageResult
// 说明：
//   - 同一ID至多存在一个条目；插入已有ID会原位替换为新的占位（旧的 url/error 被丢弃）
//   - 保留首次插入的顺序，便于审阅和导出
//   - 读写均加锁，Runner 在后台写入时 HTTP 层可以并发读取快照
type Ledger struct {
	mu       sync.RWMutex
	order    []string
	entries  map[string]studio.ImageResult
	observer Observer
}

// NewLedger 用已有结果创建账本（重复ID以后出现者为准）
func NewLedger(results []studio.ImageResult) *Ledger {
	l := &Ledger{entries: make(map[string]studio.ImageResult, len(results))}
	for _, r := range results {
		l.put(r)
	}
	return l
}

// SetObserver 设置变更回调
func (l *Ledger) SetObserver(fn Observer) {
	l.mu.Lock()
	l.observer = fn
	l.mu.Unlock()
}

// Get 根据ID获取条目
func (l *Ledger) Get(id string) (studio.ImageResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.entries[id]
	return r, ok
}

// HasSuccess 指定ID是否已有成功结果
func (l *Ledger) HasSuccess(id string) bool {
	r, ok := l.Get(id)
	return ok && r.Status == studio.ImageStatusSuccess
}

// Len 条目数量
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Snapshot 按插入顺序返回所有条目的副本
func (l *Ledger) Snapshot() []studio.ImageResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]studio.ImageResult, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.entries[id])
	}
	return out
}

// Retryable 返回状态为 error/cancelled 且带有 promptId 的条目
func (l *Ledger) Retryable() []studio.ImageResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []studio.ImageResult
	for _, id := range l.order {
		r := l.entries[id]
		if r.Status.IsRetryable() && r.PromptID != "" {
			out = append(out, r)
		}
	}
	return out
}

// FirstSuccessFor 返回某个提示词的第一张成功图片
func (l *Ledger) FirstSuccessFor(promptID string) (studio.ImageResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, id := range l.order {
		r := l.entries[id]
		if r.PromptID == promptID && r.Status == studio.ImageStatusSuccess {
			return r, true
		}
	}
	return studio.ImageResult{}, false
}

// Put 插入或替换条目
func (l *Ledger) Put(result studio.ImageResult) {
	l.mu.Lock()
	l.put(result)
	fn := l.observer
	l.mu.Unlock()
	notify(fn, result)
}

// Seed 写入占位条目（替换同ID的旧条目）
func (l *Ledger) Seed(id, promptID string, status studio.ImageStatus) {
	l.Put(studio.ImageResult{ID: id, PromptID: promptID, Status: status})
}

// Succeed 将条目标记为成功
func (l *Ledger) Succeed(id, url, generatedBy string) bool {
	return l.update(id, func(r *studio.ImageResult) bool {
		r.Status = studio.ImageStatusSuccess
		r.URL = url
		r.Error = ""
		r.GeneratedBy = generatedBy
		return true
	})
}

// Fail 将条目标记为失败，署名只保留在成功条目上
func (l *Ledger) Fail(id, message string) bool {
	return l.update(id, func(r *studio.ImageResult) bool {
		r.Status = studio.ImageStatusError
		r.URL = ""
		r.Error = message
		r.GeneratedBy = ""
		return true
	})
}

// Cancel 将仍处于等待中的条目标记为取消，已到达终态的条目保持不变
func (l *Ledger) Cancel(id, reason string) bool {
	return l.update(id, func(r *studio.ImageResult) bool {
		if !r.Status.IsPending() {
			return false
		}
		r.Status = studio.ImageStatusCancelled
		r.URL = ""
		r.Error = reason
		r.GeneratedBy = ""
		return true
	})
}

func (l *Ledger) update(id string, mutate func(r *studio.ImageResult) bool) bool {
	l.mu.Lock()
	r, ok := l.entries[id]
	if !ok || !mutate(&r) {
		l.mu.Unlock()
		return false
	}
	l.entries[id] = r
	fn := l.observer
	l.mu.Unlock()

	notify(fn, r)
	return true
}

func (l *Ledger) put(r studio.ImageResult) {
	if _, exists := l.entries[r.ID]; !exists {
		l.order = append(l.order, r.ID)
	}
	l.entries[r.ID] = r
}

func notify(fn Observer, r studio.ImageResult) {
	if fn != nil {
		fn(r)
	}
}
