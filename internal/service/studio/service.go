package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/config"
	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/ctxutil"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/id"
	"tmmedia/internal/pkg/storage"
	studiorepo "tmmedia/internal/repository/studio"
)

var (
	// ErrProjectNotFound 项目不存在
	ErrProjectNotFound = studiorepo.ErrProjectNotFound
	// ErrPromptNotFound 提示词不存在
	ErrPromptNotFound = generation.ErrPromptNotFound
	// ErrCharacterNotFound 角色不存在
	ErrCharacterNotFound = generation.ErrCharacterNotFound
	// ErrQuotaExceeded 配额耗尽后需要先重试失败项
	ErrQuotaExceeded = generation.ErrQuotaExceeded

	// ErrBatchRunning 项目已有批次在运行
	ErrBatchRunning = errors.New("a generation batch is already running")
	// ErrNothingToDo 没有可以处理的内容
	ErrNothingToDo = errors.New("nothing to generate")
	// ErrImageNotFound 图片不存在
	ErrImageNotFound = errors.New("image not found")
	// ErrMemberNotFound 团队成员不存在
	ErrMemberNotFound = errors.New("team member not found")
	// ErrLastMember 不能删除最后一个成员
	ErrLastMember = errors.New("cannot remove the last team member")
	// ErrLastCharacter 不能删除最后一个角色
	ErrLastCharacter = errors.New("cannot remove the last character")
	// ErrInvalidProjectFile 项目文件格式错误
	ErrInvalidProjectFile = errors.New("invalid project file format")
	// ErrInvalidInput 参数错误
	ErrInvalidInput = errors.New("invalid input")
)

// StudioService 制作向导服务接口
// 定义 studio 模块 service 层提供的能力
type StudioService interface {
	// CreateProject 创建项目
	CreateProject(ctx context.Context, req CreateProjectRequest) (*ProjectView, error)
	// GetProject 获取项目当前状态（含运行中的批次）
	GetProject(ctx context.Context, projectID string) (*ProjectView, error)
	// ListProjects 按更新时间倒序列出项目
	ListProjects(ctx context.Context, limit int64) ([]ProjectSummary, error)
	// DeleteProject 删除项目
	DeleteProject(ctx context.Context, projectID string) error
	// SetStep 跳转向导步骤（限制在 1..8）
	SetStep(ctx context.Context, projectID string, step int) (int, error)

	// AddMember 添加团队成员
	AddMember(ctx context.Context, projectID, name string) (*studio.TeamMember, error)
	// RemoveMember 删除团队成员，活跃成员被删除时回落到第一个成员
	RemoveMember(ctx context.Context, projectID, memberID string) error
	// SetActiveMember 切换当前操作者
	SetActiveMember(ctx context.Context, projectID, memberID string) error

	// AddReferenceImage 上传风格参考图
	AddReferenceImage(ctx context.Context, projectID, image string) (*studio.ImageResult, error)
	// DeleteReferenceImage 删除风格参考图
	DeleteReferenceImage(ctx context.Context, projectID, refID string) error

	// AnalyzeScript 识别语言并提取背景设定与角色
	AnalyzeScript(ctx context.Context, projectID, script string) (*AnalysisResult, error)

	// GenerateContextImage 生成背景图（异步）
	GenerateContextImage(ctx context.Context, projectID, prompt string) (*BatchStatus, error)
	// UploadContextImage 上传背景图
	UploadContextImage(ctx context.Context, projectID, image string) (*studio.ImageResult, error)

	// AddCharacter 添加角色
	AddCharacter(ctx context.Context, projectID string, input CharacterInput) (*studio.Character, error)
	// UpdateCharacter 修改角色档案
	UpdateCharacter(ctx context.Context, projectID, charID string, input CharacterInput) (*studio.Character, error)
	// RemoveCharacter 删除角色（最后一个角色不能删除）
	RemoveCharacter(ctx context.Context, projectID, charID string) error
	// UploadCharacterImage 上传角色图片，同时设为参考图
	UploadCharacterImage(ctx context.Context, projectID, charID, image string) (*studio.Character, error)
	// SetCharacterReference 设置角色参考图
	SetCharacterReference(ctx context.Context, projectID, charID, imageURL string) (*studio.Character, error)
	// GenerateCharacterPreview 重新生成单个角色的预览图（异步）
	GenerateCharacterPreview(ctx context.Context, projectID, charID string) (*BatchStatus, error)
	// GenerateAllCharacterPreviews 依次为尚无成功预览的角色生成预览图（异步）
	GenerateAllCharacterPreviews(ctx context.Context, projectID string) (*BatchStatus, error)

	// ProceedToSeries 按剧本行创建系列提示词
	ProceedToSeries(ctx context.Context, projectID string) ([]studio.SeriesPrompt, error)
	// UpdateSeriesPrompt 修改提示词文本或镜头数量
	UpdateSeriesPrompt(ctx context.Context, projectID, promptID string, input SeriesPromptInput) (*studio.SeriesPrompt, error)
	// GenerateSeries 全量生成（跳过已成功的图片）
	GenerateSeries(ctx context.Context, projectID string) (*BatchStatus, error)
	// GeneratePromptVariations 重新生成某个提示词的全部镜头
	GeneratePromptVariations(ctx context.Context, projectID, promptID string) (*BatchStatus, error)
	// RegenerateSeriesImage 重新生成单张图片
	RegenerateSeriesImage(ctx context.Context, projectID, imageID string) (*BatchStatus, error)
	// RetryFailedSeriesImages 清除配额状态并重试失败与取消的图片
	RetryFailedSeriesImages(ctx context.Context, projectID string) (*BatchStatus, error)
	// ToggleImageSelection 切换图片选中状态，返回切换后的状态
	ToggleImageSelection(ctx context.Context, projectID, imageID string) (bool, error)
	// Stop 请求停止当前批次（当前调用完成后生效）
	Stop(ctx context.Context, projectID string) error

	// GenerateVideoPrompts 为每个已有成功图片的场景生成视频提示词（异步）
	GenerateVideoPrompts(ctx context.Context, projectID string) (*BatchStatus, error)
	// VideoPromptsText 导出视频提示词（每行一条）
	VideoPromptsText(ctx context.Context, projectID string) (string, error)

	// GenerateThumbnails 生成缩略图（异步）
	GenerateThumbnails(ctx context.Context, projectID, topic string) (*BatchStatus, error)

	// ApplyEdit 用编辑后的图片替换所有账本中的同ID条目
	ApplyEdit(ctx context.Context, projectID string, input EditInput) (*studio.ImageResult, error)

	// ExportProject 导出项目文件（gzip JSON）
	ExportProject(ctx context.Context, projectID string) (*ExportedProject, error)
	// ImportProject 导入项目文件（gzip 或纯 JSON）
	ImportProject(ctx context.Context, data []byte) (*ProjectView, error)

	// WaitIdle 等待项目当前批次结束
	WaitIdle(ctx context.Context, projectID string) error
	// Close 取消所有运行中的批次并等待退出
	Close()
}

// ProjectCache 项目快照缓存与批次锁（由 cache.RedisCache 实现）
type ProjectCache interface {
	GetProject(ctx context.Context, projectID string, dest any) error
	SetProject(ctx context.Context, projectID string, project any) error
	DeleteProject(ctx context.Context, projectID string) error
	AcquireBatchLock(ctx context.Context, projectID, owner string) (bool, error)
	ReleaseBatchLock(ctx context.Context, projectID, owner string) error
}

// EventPublisher 账本事件推送（由 sse.Hub 实现）
type EventPublisher interface {
	PublishJSON(topic string, v any) error
}

// Deps 服务依赖
// Cache 与 Events 可以为空
type Deps struct {
	Projects studiorepo.ProjectRepository
	Cache    ProjectCache
	Events   EventPublisher
	Store    storage.Storage
	Images   generation.Generator
	Text     generation.TextProvider
	Vision   generation.VisionProvider
	Runner   *generation.Runner
	Config   config.GenerationConfig
}

// studioService 制作向导服务实现
type studioService struct {
	projects studiorepo.ProjectRepository
	cache    ProjectCache
	events   EventPublisher
	store    storage.Storage
	images   generation.Generator
	text     generation.TextProvider
	vision   generation.VisionProvider
	runner   *generation.Runner
	cfg      config.GenerationConfig

	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

// NewStudioService 创建制作向导服务
func NewStudioService(deps Deps) (StudioService, error) {
	if deps.Projects == nil {
		return nil, fmt.Errorf("project repository is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Images == nil || deps.Text == nil || deps.Vision == nil {
		return nil, fmt.Errorf("image, text and vision providers are required")
	}

	cfg := deps.Config
	if cfg.ThumbnailCount <= 0 {
		cfg.ThumbnailCount = 4
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = LanguageVietnamese
	}
	if cfg.ContextImageID == "" {
		cfg.ContextImageID = "context-preview"
	}

	runner := deps.Runner
	if runner == nil {
		runner = generation.NewRunner(generation.Options{
			PacingDelay: cfg.PacingDelay,
			CallTimeout: cfg.CallTimeout,
		})
	}

	return &studioService{
		projects: deps.Projects,
		cache:    deps.Cache,
		events:   deps.Events,
		store:    deps.Store,
		images:   deps.Images,
		text:     deps.Text,
		vision:   deps.Vision,
		runner:   runner,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}, nil
}

// session 加载（或创建）项目会话
func (s *studioService) session(ctx context.Context, projectID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[projectID]; ok {
		return sess, nil
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sess := newSession(project, s.cfg.ContextImageID)
	s.observe(sess)
	s.sessions[projectID] = sess
	return sess, nil
}

func (s *studioService) loadProject(ctx context.Context, projectID string) (*studio.Project, error) {
	if s.cache != nil {
		var cached studio.Project
		if err := s.cache.GetProject(ctx, projectID, &cached); err == nil && cached.ID == projectID {
			return &cached, nil
		}
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, studiorepo.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	s.cacheProject(ctx, project)
	return project, nil
}

// register 用新的项目状态替换会话（创建、导入）
func (s *studioService) register(ctx context.Context, project *studio.Project) (*session, error) {
	s.mu.Lock()
	if old, ok := s.sessions[project.ID]; ok && old.isRunning() {
		s.mu.Unlock()
		return nil, ErrBatchRunning
	}
	sess := newSession(project, s.cfg.ContextImageID)
	s.observe(sess)
	s.sessions[project.ID] = sess
	s.mu.Unlock()

	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// mutate 修改会话后立即保存
func (s *studioService) mutate(ctx context.Context, projectID string, fn func(sess *session) error) (*session, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// persist 保存项目快照到 Mongo 并刷新缓存
func (s *studioService) persist(ctx context.Context, sess *session) error {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()

	project := sess.snapshot()
	if err := s.projects.Save(ctx, project); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	s.cacheProject(ctx, project)
	return nil
}

func (s *studioService) cacheProject(ctx context.Context, project *studio.Project) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetProject(ctx, project.ID, project); err != nil {
		log.Warn().Err(err).Str("project_id", project.ID).Msg("cache project snapshot failed")
	}
}

// GetProject 获取项目当前状态
func (s *studioService) GetProject(ctx context.Context, projectID string) (*ProjectView, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// ListProjects 列出项目
func (s *studioService) ListProjects(ctx context.Context, limit int64) ([]ProjectSummary, error) {
	projects, err := s.projects.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, summarize(p))
	}
	return out, nil
}

// DeleteProject 删除项目
func (s *studioService) DeleteProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	if sess, ok := s.sessions[projectID]; ok {
		if sess.isRunning() {
			s.mu.Unlock()
			return ErrBatchRunning
		}
		delete(s.sessions, projectID)
	}
	s.mu.Unlock()

	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, studiorepo.ErrProjectNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteProject(ctx, projectID); err != nil {
			log.Warn().Err(err).Str("project_id", projectID).Msg("delete project cache failed")
		}
	}
	log.Info().Str("project_id", projectID).Msg("project deleted")
	return nil
}

// batchPlan 一次异步批次
type batchPlan struct {
	name  string
	retry bool // 重试批次不受配额状态限制
	// prepare 编排任务并写入占位，返回任务数；在持有批次所有权后同步执行
	prepare func(sess *session) (int, error)
	run     func(ctx context.Context, sess *session) *generation.Report
}

// launch 获取批次所有权，同步写入占位后在后台执行
func (s *studioService) launch(ctx context.Context, projectID string, plan batchPlan) (*BatchStatus, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !plan.retry && sess.signal.QuotaExceeded() {
		return nil, ErrQuotaExceeded
	}

	release, err := s.claim(ctx, sess, plan.name)
	if err != nil {
		return nil, err
	}

	sess.signal.Reset()
	total, err := plan.prepare(sess)
	if err != nil || total == 0 {
		release()
		if err != nil {
			return nil, err
		}
		return &BatchStatus{ProjectID: projectID, Batch: plan.name}, nil
	}

	batchCtx, cancel := context.WithCancel(ctxutil.Detach(ctx))
	sess.setCancel(cancel)
	s.publishBatch(sess, EventBatchStarted, plan.name, nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		report := plan.run(batchCtx, sess)
		s.finish(sess, plan.name, report)
		release()
	}()

	return &BatchStatus{ProjectID: projectID, Batch: plan.name, Tasks: total, Running: true}, nil
}

// claim 标记会话进入批次，并在配置了缓存时获取分布式批次锁
func (s *studioService) claim(ctx context.Context, sess *session, name string) (func(), error) {
	if !sess.begin(name) {
		return nil, ErrBatchRunning
	}

	owner := id.New()
	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireBatchLock(ctx, sess.id, owner)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("project_id", sess.id).Msg("batch lock unavailable, continuing with local guard")
		case !ok:
			sess.end()
			return nil, ErrBatchRunning
		default:
			locked = true
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if locked {
				if err := s.cache.ReleaseBatchLock(context.Background(), sess.id, owner); err != nil {
					log.Warn().Err(err).Str("project_id", sess.id).Msg("release batch lock failed")
				}
			}
			sess.end()
		})
	}, nil
}

// exclusive 在没有批次运行时执行手动修改，期间不能启动新批次
// 运行中的批次独占其账本条目，手动修改不能覆盖
func (s *studioService) exclusive(sess *session, fn func() error) error {
	if !sess.begin(batchManual) {
		return ErrBatchRunning
	}
	defer sess.end()
	return fn()
}

// finish 批次结束：记录配额提示、保存项目、推送结束事件
func (s *studioService) finish(sess *session, name string, report *generation.Report) {
	if report != nil && report.QuotaExceeded {
		sess.setLastError(generation.QuotaAdvisory)
	}

	if err := s.persist(context.Background(), sess); err != nil {
		log.Error().Err(err).Str("project_id", sess.id).Str("batch", name).Msg("save project after batch failed")
	}
	s.publishBatch(sess, EventBatchFinished, name, report)
}

// WaitIdle 等待项目当前批次结束
func (s *studioService) WaitIdle(ctx context.Context, projectID string) error {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return err
	}
	select {
	case <-sess.idleChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop 请求停止当前批次
func (s *studioService) Stop(ctx context.Context, projectID string) error {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return err
	}
	if sess.isRunning() {
		sess.signal.Stop()
		log.Info().Str("project_id", projectID).Msg("stop requested")
	}
	return nil
}

// Close 取消所有运行中的批次并等待退出
func (s *studioService) Close() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.cancelBatch()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// attribution 当前操作者名称
func attribution(sess *session) string {
	return sess.activeMemberName()
}
