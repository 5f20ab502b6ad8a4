package studio

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/sse"
)

// session 单个项目在内存中的工作状态
// 说明：账本和角色列表自带锁，其余标量字段由 mu 保护；
// 同一时刻至多一个批次（running）持有会话
type session struct {
	id        string
	contextID string

	mu      sync.Mutex
	project studio.Project // 不含账本管理的字段
	running bool
	batch   string
	idle    chan struct{}
	cancel  context.CancelFunc
	lastErr string

	series   *generation.Ledger
	thumbs   *generation.Ledger
	ctxImage *generation.Ledger
	roster   *generation.Roster
	signal   *generation.Signal

	saveMu sync.Mutex
}

func newSession(p *studio.Project, contextID string) *session {
	base := *p
	base.Characters = nil
	base.GeneratedImages = nil
	base.ThumbnailResults = nil
	base.ContextPreview = nil
	base.SelectedImageIDs = append([]string(nil), p.SelectedImageIDs...)
	base.VideoPrompts = append([]string(nil), p.VideoPrompts...)
	base.TeamMembers = append([]studio.TeamMember(nil), p.TeamMembers...)
	base.ReferenceImages = append([]studio.ImageResult(nil), p.ReferenceImages...)
	base.SeriesPrompts = append([]studio.SeriesPrompt(nil), p.SeriesPrompts...)

	var ctxResults []studio.ImageResult
	if p.ContextPreview != nil {
		preview := *p.ContextPreview
		preview.ID = contextID
		ctxResults = append(ctxResults, preview)
	}

	idle := make(chan struct{})
	close(idle)

	return &session{
		id:        p.ID,
		contextID: contextID,
		project:   base,
		idle:      idle,
		series:    generation.NewLedger(p.GeneratedImages),
		thumbs:    generation.NewLedger(p.ThumbnailResults),
		ctxImage:  generation.NewLedger(ctxResults),
		roster:    generation.NewRoster(p.Characters),
		signal:    generation.NewSignal(),
	}
}

// snapshot 组装完整的项目状态
func (s *session) snapshot() *studio.Project {
	s.mu.Lock()
	p := s.project
	p.SelectedImageIDs = append([]string{}, s.project.SelectedImageIDs...)
	p.VideoPrompts = append([]string{}, s.project.VideoPrompts...)
	p.TeamMembers = append([]studio.TeamMember{}, s.project.TeamMembers...)
	p.ReferenceImages = append([]studio.ImageResult{}, s.project.ReferenceImages...)
	p.SeriesPrompts = append([]studio.SeriesPrompt{}, s.project.SeriesPrompts...)
	thumbs := s.thumbs
	s.mu.Unlock()

	p.Characters = s.roster.Snapshot()
	p.GeneratedImages = s.series.Snapshot()
	p.ThumbnailResults = thumbs.Snapshot()
	if preview, ok := s.ctxImage.Get(s.contextID); ok {
		p.ContextPreview = &preview
	}
	return &p
}

func (s *session) view() *ProjectView {
	p := s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return &ProjectView{
		Project:       p,
		Running:       s.running,
		Batch:         s.batch,
		QuotaExceeded: s.signal.QuotaExceeded(),
		LastError:     s.lastErr,
	}
}

// with 在锁内读写项目标量字段
func (s *session) with(fn func(p *studio.Project)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.project)
}

func (s *session) prompts() []studio.SeriesPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]studio.SeriesPrompt(nil), s.project.SeriesPrompts...)
}

func (s *session) language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.ScriptLanguage
}

func (s *session) activeMemberName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.project.ActiveMember(); m != nil {
		return m.Name
	}
	return ""
}

func (s *session) styleReferences() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]string, 0, len(s.project.ReferenceImages))
	for _, r := range s.project.ReferenceImages {
		if r.URL != "" {
			refs = append(refs, r.URL)
		}
	}
	return refs
}

func (s *session) thumbnails() *generation.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thumbs
}

// begin 占用会话，已有批次时返回 false
func (s *session) begin(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.batch = name
	s.idle = make(chan struct{})
	return true
}

// end 释放会话
func (s *session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.batch = ""
	s.cancel = nil
	close(s.idle)
}

func (s *session) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *session) idleChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

func (s *session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

func (s *session) cancelBatch() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *session) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// observe 把会话内的账本变更转为事件推送
func (s *studioService) observe(sess *session) {
	sess.series.SetObserver(s.ledgerObserver(sess.id, studio.LedgerSeries))
	sess.thumbs.SetObserver(s.ledgerObserver(sess.id, studio.LedgerThumbnails))
	sess.ctxImage.SetObserver(s.ledgerObserver(sess.id, studio.LedgerContext))
	sess.roster.SetObserver(func(c studio.Character) {
		s.publish(sess.id, LedgerEvent{
			Type:      EventCharacterUpdated,
			Ledger:    studio.LedgerCharacters,
			Character: &c,
		})
	})
}

func (s *studioService) ledgerObserver(projectID string, ledger studio.Ledger) generation.Observer {
	return func(r studio.ImageResult) {
		s.publish(projectID, LedgerEvent{Type: EventLedgerUpdated, Ledger: ledger, Image: &r})
	}
}

func (s *studioService) publishBatch(sess *session, eventType, batch string, report *generation.Report) {
	s.publish(sess.id, LedgerEvent{Type: eventType, Batch: batch, Report: report})
}

func (s *studioService) publish(projectID string, event LedgerEvent) {
	if s.events == nil {
		return
	}
	event.ProjectID = projectID
	if err := s.events.PublishJSON(sse.ProjectTopic(projectID), event); err != nil {
		log.Warn().Err(err).Str("project_id", projectID).Str("event", event.Type).Msg("publish project event failed")
	}
}
