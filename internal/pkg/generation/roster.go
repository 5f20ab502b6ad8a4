package generation

import (
	"sync"

	"tmmedia/internal/model/studio"
)

// CharacterObserver 角色变更回调（在锁外调用）
type CharacterObserver func(c studio.Character)

// Roster 角色列表（按角色ID寻址，每个角色持有单例预览图）
type Roster struct {
	mu       sync.RWMutex
	chars    []studio.Character
	observer CharacterObserver
}

// NewRoster 用已有角色创建列表
func NewRoster(chars []studio.Character) *Roster {
	r := &Roster{chars: make([]studio.Character, 0, len(chars))}
	for _, c := range chars {
		r.chars = append(r.chars, cloneCharacter(c))
	}
	return r
}

// SetObserver 设置变更回调
func (r *Roster) SetObserver(fn CharacterObserver) {
	r.mu.Lock()
	r.observer = fn
	r.mu.Unlock()
}

// Len 角色数量
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chars)
}

// Snapshot 返回全部角色的副本
func (r *Roster) Snapshot() []studio.Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]studio.Character, 0, len(r.chars))
	for _, c := range r.chars {
		out = append(out, cloneCharacter(c))
	}
	return out
}

// Get 根据ID获取角色
func (r *Roster) Get(id string) (studio.Character, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return cloneCharacter(r.chars[i]), true
	}
	return studio.Character{}, false
}

// WithoutSuccessPreview 返回预览图尚未成功的角色ID（按列表顺序）
func (r *Roster) WithoutSuccessPreview() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for i := range r.chars {
		if !r.chars[i].HasSuccessPreview() {
			ids = append(ids, r.chars[i].ID)
		}
	}
	return ids
}

// Add 追加角色
func (r *Roster) Add(c studio.Character) {
	r.mu.Lock()
	r.chars = append(r.chars, cloneCharacter(c))
	fn := r.observer
	r.mu.Unlock()
	notifyCharacter(fn, c)
}

// Update 修改角色，角色不存在时返回 false
func (r *Roster) Update(id string, mutate func(c *studio.Character)) bool {
	r.mu.Lock()
	i := r.index(id)
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	mutate(&r.chars[i])
	c := cloneCharacter(r.chars[i])
	fn := r.observer
	r.mu.Unlock()

	notifyCharacter(fn, c)
	return true
}

// Remove 删除角色
func (r *Roster) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.chars = append(r.chars[:i], r.chars[i+1:]...)
	return true
}

// SetPreview 替换角色的预览图（预览图ID固定为角色ID）
func (r *Roster) SetPreview(id string, preview studio.ImageResult) bool {
	preview.ID = id
	return r.Update(id, func(c *studio.Character) {
		c.Preview = &preview
	})
}

// CancelPreview 预览图缺失或仍在等待时标记为取消
func (r *Roster) CancelPreview(id, reason string) bool {
	changed := false
	r.Update(id, func(c *studio.Character) {
		if c.Preview != nil && !c.Preview.Status.IsPending() {
			return
		}
		c.Preview = &studio.ImageResult{ID: id, Status: studio.ImageStatusCancelled, Error: reason}
		changed = true
	})
	return changed
}

func (r *Roster) index(id string) int {
	for i := range r.chars {
		if r.chars[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneCharacter(c studio.Character) studio.Character {
	if c.Preview != nil {
		p := *c.Preview
		c.Preview = &p
	}
	return c
}

func notifyCharacter(fn CharacterObserver, c studio.Character) {
	if fn != nil {
		fn(c)
	}
}
