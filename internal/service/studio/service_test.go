package studio

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"tmmedia/internal/config"
	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/storage/local"
	studiorepo "tmmedia/internal/repository/studio"
)

// fakeRepo 内存版项目仓库
type fakeRepo struct {
	mu       sync.Mutex
	projects map[string]*studio.Project
	saves    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projects: make(map[string]*studio.Project)}
}

func (r *fakeRepo) Save(ctx context.Context, p *studio.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.projects[p.ID] = &cp
	r.saves++
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id string) (*studio.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, studiorepo.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, limit int64) ([]*studio.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*studio.Project, 0, len(r.projects))
	for _, p := range r.projects {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return studiorepo.ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}

// fakeImages 记录调用的图片生成器
// errs 按调用顺序返回错误；gate 非空时每次调用先等待放行
type fakeImages struct {
	mu           sync.Mutex
	instructions []string
	entities     [][]generation.EntityReference
	errs         []error
	started      chan struct{}
	gate         chan struct{}
}

func (f *fakeImages) call(ctx context.Context, req generation.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.instructions = append(f.instructions, req.Instruction)
	n := len(f.instructions)
	var err error
	if n <= len(f.errs) {
		err = f.errs[n-1]
	}
	started, gate := f.started, f.gate
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return "https://cdn/" + req.ProjectID + ".jpeg", nil
}

func (f *fakeImages) Generate(ctx context.Context, req generation.GenerateRequest) (string, error) {
	return f.call(ctx, req)
}

func (f *fakeImages) GenerateWithEntityReferences(ctx context.Context, req generation.GenerateRequest, entities []generation.EntityReference) (string, error) {
	f.mu.Lock()
	f.entities = append(f.entities, entities)
	f.mu.Unlock()
	return f.call(ctx, req)
}

func (f *fakeImages) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.instructions...)
}

// fakeText 按提示词关键字返回固定回答
type fakeText struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
}

func (f *fakeText) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, err := range f.errs {
		if strings.Contains(prompt, key) {
			return "", err
		}
	}
	for key, answer := range f.answers {
		if strings.Contains(prompt, key) {
			return answer, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

type fakeVision struct {
	mu    sync.Mutex
	urls  []string
	errs  []error
	reply string
}

func (f *fakeVision) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, imageURL)
	if n := len(f.urls); n <= len(f.errs) && f.errs[n-1] != nil {
		return "", f.errs[n-1]
	}
	return f.reply, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []LedgerEvent
}

func (f *fakeEvents) PublishJSON(topic string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := v.(LedgerEvent); ok {
		f.events = append(f.events, e)
	}
	return nil
}

type fixture struct {
	svc    StudioService
	repo   *fakeRepo
	images *fakeImages
	text   *fakeText
	vision *fakeVision
	events *fakeEvents
}

func newFixture(t *testing.T) *fixture {
	store, err := local.NewLocalStorage(t.TempDir(), "http://localhost:8080/storage")
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		repo:   newFakeRepo(),
		images: &fakeImages{},
		text:   &fakeText{answers: map[string]string{}, errs: map[string]error{}},
		vision: &fakeVision{reply: "Slow push-in on the cockpit"},
		events: &fakeEvents{},
	}
	svc, err := NewStudioService(Deps{
		Projects: f.repo,
		Events:   f.events,
		Store:    store,
		Images:   f.images,
		Text:     f.text,
		Vision:   f.vision,
		Runner:   generation.NewRunner(generation.Options{}),
		Config:   config.GenerationConfig{ThumbnailCount: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.svc = svc
	return f
}

func waitIdle(svc StudioService, projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	So(svc.WaitIdle(ctx, projectID), ShouldBeNil)
}

func seriesProject(f *fixture, script string) *ProjectView {
	ctx := context.Background()
	view, err := f.svc.CreateProject(ctx, CreateProjectRequest{Script: script, MemberName: "Lan"})
	So(err, ShouldBeNil)
	_, err = f.svc.ProceedToSeries(ctx, view.ID)
	So(err, ShouldBeNil)
	view, err = f.svc.GetProject(ctx, view.ID)
	So(err, ShouldBeNil)
	return view
}

func TestProjectLifecycle(t *testing.T) {
	Convey("项目与团队", t, func() {
		f := newFixture(t)
		ctx := context.Background()

		view, err := f.svc.CreateProject(ctx, CreateProjectRequest{Script: "Line one"})
		So(err, ShouldBeNil)
		So(view.CurrentStep, ShouldEqual, studio.MinStep)
		So(view.TeamMembers, ShouldHaveLength, 1)
		So(view.TeamMembers[0].Name, ShouldEqual, "Thành viên 1")
		So(view.ScriptLanguage, ShouldEqual, LanguageVietnamese)

		Convey("步骤限制在 1..8", func() {
			step, err := f.svc.SetStep(ctx, view.ID, 42)
			So(err, ShouldBeNil)
			So(step, ShouldEqual, studio.MaxStep)
			step, _ = f.svc.SetStep(ctx, view.ID, -1)
			So(step, ShouldEqual, studio.MinStep)
		})

		Convey("删除活跃成员后回落到第一个成员", func() {
			m, err := f.svc.AddMember(ctx, view.ID, "Minh")
			So(err, ShouldBeNil)
			So(f.svc.SetActiveMember(ctx, view.ID, m.ID), ShouldBeNil)
			So(f.svc.RemoveMember(ctx, view.ID, m.ID), ShouldBeNil)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.ActiveUserID, ShouldEqual, view.TeamMembers[0].ID)
		})

		Convey("最后一个成员不能删除", func() {
			err := f.svc.RemoveMember(ctx, view.ID, view.TeamMembers[0].ID)
			So(errors.Is(err, ErrLastMember), ShouldBeTrue)
		})

		Convey("上传参考图记录上传者", func() {
			ref, err := f.svc.AddReferenceImage(ctx, view.ID, "data:image/png;base64,aGVsbG8=")
			So(err, ShouldBeNil)
			So(ref.URL, ShouldEndWith, ".png")
			So(ref.GeneratedBy, ShouldEqual, "Uploaded by Thành viên 1")
			So(f.svc.DeleteReferenceImage(ctx, view.ID, ref.ID), ShouldBeNil)
			So(errors.Is(f.svc.DeleteReferenceImage(ctx, view.ID, ref.ID), ErrImageNotFound), ShouldBeTrue)
		})

		Convey("未知项目", func() {
			_, err := f.svc.GetProject(ctx, "missing")
			So(errors.Is(err, ErrProjectNotFound), ShouldBeTrue)
		})

		Convey("删除项目", func() {
			So(f.svc.DeleteProject(ctx, view.ID), ShouldBeNil)
			_, err := f.svc.GetProject(ctx, view.ID)
			So(errors.Is(err, ErrProjectNotFound), ShouldBeTrue)
		})
	})
}

func TestAnalyzeScript(t *testing.T) {
	Convey("剧本分析", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		script := "The cargo jet lost hydraulic pressure shortly after takeoff from runway 22L."
		view, err := f.svc.CreateProject(ctx, CreateProjectRequest{Script: script})
		So(err, ShouldBeNil)

		Convey("提取背景设定与角色并进入第三步", func() {
			f.text.answers["Detect the primary language"] = "English"
			f.text.answers["SCRIPT:"] = "```json\n" + `{
				"setting": {"place": "Louisville", "time": "August 14, 5:13 AM", "weather": "fog", "season": "summer", "mood": "tense"},
				"characters": [{"name": "Captain Reed", "isMain": "true", "appearanceAndBehavior": "grey uniform"}, {"name": "Engine 2", "isMain": false}]
			}` + "\n```"

			res, err := f.svc.AnalyzeScript(ctx, view.ID, "")
			So(err, ShouldBeNil)
			So(res.Language, ShouldEqual, LanguageEnglish)
			So(res.ContextPrompt, ShouldEqual, "Main setting: Louisville at August 14, 5:13 AM. Weather: fog (summer). Mood tense.")
			So(res.Characters, ShouldHaveLength, 2)
			So(res.Characters[0].IsMain, ShouldBeTrue)
			So(res.Characters[0].ID, ShouldNotBeEmpty)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.CurrentStep, ShouldEqual, 3)
			So(got.Characters, ShouldHaveLength, 2)
		})

		Convey("失败时清空背景设定和角色", func() {
			f.text.answers["Detect the primary language"] = "Vietnamese"
			f.text.answers["KỊCH BẢN:"] = "not json"
			_, err := f.svc.AddCharacter(ctx, view.ID, CharacterInput{})
			So(err, ShouldBeNil)

			_, err = f.svc.AnalyzeScript(ctx, view.ID, "")
			So(err, ShouldNotBeNil)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.SettingDetails, ShouldBeNil)
			So(got.Characters, ShouldBeEmpty)
			So(got.LastError, ShouldContainSubstring, "parse script details")
		})

		Convey("过短的剧本使用默认语言", func() {
			f.text.answers["KỊCH BẢN:"] = `{"setting": {"place": "Hà Nội"}, "characters": []}`
			res, err := f.svc.AnalyzeScript(ctx, view.ID, "Ngắn")
			So(err, ShouldBeNil)
			So(res.Language, ShouldEqual, LanguageVietnamese)
			So(res.ContextPrompt, ShouldStartWith, "Bối cảnh chính: Hà Nội")
		})

		Convey("配额错误设置配额状态", func() {
			f.text.errs["Detect the primary language"] = errors.New("RESOURCE_EXHAUSTED: quota")
			_, err := f.svc.AnalyzeScript(ctx, view.ID, "")
			So(generation.IsQuotaError(err), ShouldBeTrue)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.QuotaExceeded, ShouldBeTrue)
			_, err = f.svc.AnalyzeScript(ctx, view.ID, "")
			So(errors.Is(err, ErrQuotaExceeded), ShouldBeTrue)
		})
	})
}

func TestCharacters(t *testing.T) {
	Convey("角色", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view, _ := f.svc.CreateProject(ctx, CreateProjectRequest{Script: "x"})

		name, appearance := "Captain Reed", "grey uniform"
		c, err := f.svc.AddCharacter(ctx, view.ID, CharacterInput{Name: &name, AppearanceAndBehavior: &appearance})
		So(err, ShouldBeNil)

		Convey("最后一个角色不能删除", func() {
			So(errors.Is(f.svc.RemoveCharacter(ctx, view.ID, c.ID), ErrLastCharacter), ShouldBeTrue)
			other, _ := f.svc.AddCharacter(ctx, view.ID, CharacterInput{})
			So(other.Name, ShouldEqual, "Nhân vật mới")
			So(f.svc.RemoveCharacter(ctx, view.ID, other.ID), ShouldBeNil)
		})

		Convey("上传图片同时设为参考图", func() {
			got, err := f.svc.UploadCharacterImage(ctx, view.ID, c.ID, "https://cdn/reed.png")
			So(err, ShouldBeNil)
			So(got.Preview.Status, ShouldEqual, studio.ImageStatusSuccess)
			So(got.ReferenceImageURL, ShouldEqual, "https://cdn/reed.png")
		})

		Convey("批量生成只处理没有成功预览的角色", func() {
			_, err := f.svc.UploadCharacterImage(ctx, view.ID, c.ID, "https://cdn/reed.png")
			So(err, ShouldBeNil)
			other, _ := f.svc.AddCharacter(ctx, view.ID, CharacterInput{AppearanceAndBehavior: &appearance})

			status, err := f.svc.GenerateAllCharacterPreviews(ctx, view.ID)
			So(err, ShouldBeNil)
			So(status.Tasks, ShouldEqual, 1)
			waitIdle(f.svc, view.ID)

			got, _ := f.svc.GetProject(ctx, view.ID)
			for _, ch := range got.Characters {
				So(ch.Preview.Status, ShouldEqual, studio.ImageStatusSuccess)
				if ch.ID == other.ID {
					So(ch.Preview.GeneratedBy, ShouldEqual, "Thành viên 1")
				}
			}
			So(f.images.calls(), ShouldHaveLength, 1)
		})

		Convey("单个角色总是重新生成", func() {
			_, err := f.svc.UploadCharacterImage(ctx, view.ID, c.ID, "https://cdn/reed.png")
			So(err, ShouldBeNil)
			_, err = f.svc.GenerateCharacterPreview(ctx, view.ID, c.ID)
			So(err, ShouldBeNil)
			waitIdle(f.svc, view.ID)
			So(f.images.calls(), ShouldResemble, []string{"grey uniform"})
		})
	})
}

func TestSeriesGeneration(t *testing.T) {
	Convey("系列图片", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view := seriesProject(f, "Cockpit view\n\nRunway at dusk\n")
		So(view.SeriesPrompts, ShouldHaveLength, 2)
		So(view.CurrentStep, ShouldEqual, 2)
		first := view.SeriesPrompts[0]

		variations := 2
		_, err := f.svc.UpdateSeriesPrompt(ctx, view.ID, first.ID, SeriesPromptInput{Variations: &variations})
		So(err, ShouldBeNil)

		Convey("全量生成按顺序写入账本", func() {
			status, err := f.svc.GenerateSeries(ctx, view.ID)
			So(err, ShouldBeNil)
			So(status.Tasks, ShouldEqual, 3)
			So(status.Running, ShouldBeTrue)
			waitIdle(f.svc, view.ID)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.GeneratedImages, ShouldHaveLength, 3)
			So(got.GeneratedImages[0].ID, ShouldEqual, generation.SeriesImageID(first.ID, 0))
			for _, img := range got.GeneratedImages {
				So(img.Status, ShouldEqual, studio.ImageStatusSuccess)
				So(img.GeneratedBy, ShouldEqual, "Lan")
			}
			So(f.images.calls()[0], ShouldEqual, "Cockpit view (Shot 1/2, different cinematic angle)")
			So(f.images.calls()[2], ShouldEqual, "Runway at dusk")

			Convey("已成功的图片不会被全量编排重新生成", func() {
				status, err := f.svc.GenerateSeries(ctx, view.ID)
				So(err, ShouldBeNil)
				So(status.Tasks, ShouldEqual, 0)
				So(status.Running, ShouldBeFalse)
			})

			Convey("单张重新生成", func() {
				_, err := f.svc.RegenerateSeriesImage(ctx, view.ID, generation.SeriesImageID(first.ID, 1))
				So(err, ShouldBeNil)
				waitIdle(f.svc, view.ID)
				calls := f.images.calls()
				So(calls[len(calls)-1], ShouldEqual, "Cockpit view (Shot 2/2, different cinematic angle)")
			})

			Convey("切换选中", func() {
				imageID := got.GeneratedImages[0].ID
				selected, err := f.svc.ToggleImageSelection(ctx, view.ID, imageID)
				So(err, ShouldBeNil)
				So(selected, ShouldBeTrue)
				selected, _ = f.svc.ToggleImageSelection(ctx, view.ID, imageID)
				So(selected, ShouldBeFalse)
			})

			Convey("编辑图片替换账本条目", func() {
				imageID := got.GeneratedImages[1].ID
				res, err := f.svc.ApplyEdit(ctx, view.ID, EditInput{ImageID: imageID, Image: "data:image/jpeg;base64,aGVsbG8="})
				So(err, ShouldBeNil)
				So(res.PromptID, ShouldEqual, first.ID)
				So(res.GeneratedBy, ShouldEqual, "Edited by Lan")

				_, err = f.svc.ApplyEdit(ctx, view.ID, EditInput{ImageID: "nope", Image: "https://cdn/x.png"})
				So(errors.Is(err, ErrImageNotFound), ShouldBeTrue)
			})
		})

		Convey("背景提示词和角色参考图参与指令", func() {
			name := "Cockpit"
			c, _ := f.svc.AddCharacter(ctx, view.ID, CharacterInput{Name: &name})
			_, err := f.svc.SetCharacterReference(ctx, view.ID, c.ID, "https://cdn/cockpit.png")
			So(err, ShouldBeNil)
			_, err = f.svc.GenerateContextImage(ctx, view.ID, "Bối cảnh chính: sân bay")
			So(err, ShouldBeNil)
			waitIdle(f.svc, view.ID)

			_, err = f.svc.GeneratePromptVariations(ctx, view.ID, first.ID)
			So(err, ShouldBeNil)
			waitIdle(f.svc, view.ID)

			calls := f.images.calls()
			So(calls[0], ShouldEqual, "Bối cảnh chính: sân bay")
			So(calls[1], ShouldEqual, "Cockpit view (Shot 1/2, different cinematic angle). Bối cảnh: Bối cảnh chính: sân bay")
			So(f.images.entities[0][0].ImageURL, ShouldEqual, "https://cdn/cockpit.png")

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.ContextPreview.Status, ShouldEqual, studio.ImageStatusSuccess)
		})

		Convey("未知提示词", func() {
			_, err := f.svc.GeneratePromptVariations(ctx, view.ID, "missing")
			So(errors.Is(err, ErrPromptNotFound), ShouldBeTrue)
			_, err = f.svc.RegenerateSeriesImage(ctx, view.ID, "series-missing-var-0")
			So(errors.Is(err, ErrPromptNotFound), ShouldBeTrue)
		})
	})
}

func TestQuotaAndRetry(t *testing.T) {
	Convey("配额耗尽与重试", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view := seriesProject(f, "A\nB\nC")
		f.images.errs = []error{nil, errors.New("429 rate limit exceeded")}

		_, err := f.svc.GenerateSeries(ctx, view.ID)
		So(err, ShouldBeNil)
		waitIdle(f.svc, view.ID)

		got, _ := f.svc.GetProject(ctx, view.ID)
		So(got.QuotaExceeded, ShouldBeTrue)
		So(got.LastError, ShouldEqual, generation.QuotaAdvisory)
		So(got.GeneratedImages[0].Status, ShouldEqual, studio.ImageStatusSuccess)
		So(got.GeneratedImages[1].Status, ShouldEqual, studio.ImageStatusError)
		So(got.GeneratedImages[2].Status, ShouldEqual, studio.ImageStatusCancelled)
		So(got.GeneratedImages[2].Error, ShouldEqual, generation.ReasonQuota)
		So(f.images.calls(), ShouldHaveLength, 2)

		Convey("配额状态下拒绝新的生成", func() {
			_, err := f.svc.GenerateSeries(ctx, view.ID)
			So(errors.Is(err, ErrQuotaExceeded), ShouldBeTrue)
			_, err = f.svc.GenerateThumbnails(ctx, view.ID, "Topic")
			So(errors.Is(err, ErrQuotaExceeded), ShouldBeTrue)
		})

		Convey("重试清除配额状态并重新生成失败项", func() {
			status, err := f.svc.RetryFailedSeriesImages(ctx, view.ID)
			So(err, ShouldBeNil)
			So(status.Tasks, ShouldEqual, 2)
			waitIdle(f.svc, view.ID)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.QuotaExceeded, ShouldBeFalse)
			So(got.LastError, ShouldBeEmpty)
			for _, img := range got.GeneratedImages {
				So(img.Status, ShouldEqual, studio.ImageStatusSuccess)
			}
		})
	})
}

func TestStopAndExclusiveBatch(t *testing.T) {
	Convey("停止与批次互斥", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view := seriesProject(f, "A\nB\nC")
		f.images.started = make(chan struct{}, 1)
		f.images.gate = make(chan struct{})

		_, err := f.svc.GenerateSeries(ctx, view.ID)
		So(err, ShouldBeNil)
		<-f.images.started

		_, err = f.svc.GenerateThumbnails(ctx, view.ID, "Topic")
		So(errors.Is(err, ErrBatchRunning), ShouldBeTrue)

		So(f.svc.Stop(ctx, view.ID), ShouldBeNil)
		close(f.images.gate)
		waitIdle(f.svc, view.ID)

		got, _ := f.svc.GetProject(ctx, view.ID)
		So(got.Running, ShouldBeFalse)
		So(got.GeneratedImages[0].Status, ShouldEqual, studio.ImageStatusSuccess)
		So(got.GeneratedImages[1].Status, ShouldEqual, studio.ImageStatusCancelled)
		So(got.GeneratedImages[1].Error, ShouldEqual, generation.ReasonUserStopped)
		So(got.GeneratedImages[2].Status, ShouldEqual, studio.ImageStatusCancelled)
		So(f.images.calls(), ShouldHaveLength, 1)
	})
}

func TestManualEditsDuringBatch(t *testing.T) {
	Convey("批次运行时拒绝手动修改", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view := seriesProject(f, "A\nB")
		imageID := generation.SeriesImageID(view.SeriesPrompts[0].ID, 0)
		const pixel = "data:image/png;base64,aGVsbG8="

		f.images.errs = []error{errors.New("connection reset")}
		f.images.started = make(chan struct{}, 1)
		f.images.gate = make(chan struct{})

		_, err := f.svc.GenerateSeries(ctx, view.ID)
		So(err, ShouldBeNil)
		<-f.images.started

		_, err = f.svc.ApplyEdit(ctx, view.ID, EditInput{ImageID: imageID, Image: pixel})
		So(errors.Is(err, ErrBatchRunning), ShouldBeTrue)
		_, err = f.svc.UploadContextImage(ctx, view.ID, pixel)
		So(errors.Is(err, ErrBatchRunning), ShouldBeTrue)

		close(f.images.gate)
		waitIdle(f.svc, view.ID)

		got, _ := f.svc.GetProject(ctx, view.ID)
		So(got.GeneratedImages[0].ID, ShouldEqual, imageID)
		So(got.GeneratedImages[0].Status, ShouldEqual, studio.ImageStatusError)
		So(got.GeneratedImages[0].Error, ShouldEqual, "connection reset")
		So(got.GeneratedImages[0].GeneratedBy, ShouldBeEmpty)

		Convey("批次结束后可以保存编辑结果", func() {
			img, err := f.svc.ApplyEdit(ctx, view.ID, EditInput{ImageID: imageID, Image: pixel})
			So(err, ShouldBeNil)
			So(img.Status, ShouldEqual, studio.ImageStatusSuccess)
			So(img.GeneratedBy, ShouldEqual, "Edited by Lan")

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.Running, ShouldBeFalse)
			So(got.GeneratedImages[0].URL, ShouldEqual, img.URL)
		})
	})
}

func TestVideoPromptsAndThumbnails(t *testing.T) {
	Convey("视频提示词与缩略图", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view := seriesProject(f, "Cockpit view\nRunway at dusk\nTower")
		f.images.errs = []error{nil, nil, errors.New("safety filter")}

		Convey("没有成功图片时无事可做", func() {
			_, err := f.svc.GenerateVideoPrompts(ctx, view.ID)
			So(errors.Is(err, ErrNothingToDo), ShouldBeTrue)
		})

		Convey("每个有成功图片的场景生成一条，失败时使用通用提示词", func() {
			_, err := f.svc.GenerateSeries(ctx, view.ID)
			So(err, ShouldBeNil)
			waitIdle(f.svc, view.ID)

			f.text.answers["Please summarize"] = "A cargo jet incident."
			f.vision.errs = []error{nil, errors.New("blocked")}
			status, err := f.svc.GenerateVideoPrompts(ctx, view.ID)
			So(err, ShouldBeNil)
			So(status.Tasks, ShouldEqual, 2)
			waitIdle(f.svc, view.ID)

			text, err := f.svc.VideoPromptsText(ctx, view.ID)
			So(err, ShouldBeNil)
			lines := strings.Split(text, "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[0], ShouldEqual, "Slow push-in on the cockpit")
			So(lines[1], ShouldStartWith, "Một video clip tài liệu kỹ thuật về \"Runway at dusk\"")
		})

		Convey("缩略图整体替换上一批", func() {
			status, err := f.svc.GenerateThumbnails(ctx, view.ID, "Cockpit failure")
			So(err, ShouldBeNil)
			So(status.Tasks, ShouldEqual, 2)
			waitIdle(f.svc, view.ID)

			got, _ := f.svc.GetProject(ctx, view.ID)
			So(got.ThumbnailResults, ShouldHaveLength, 2)
			So(got.ThumbnailResults[0].ID, ShouldStartWith, "thumbnail-")
			So(got.ThumbnailTopic, ShouldEqual, "Cockpit failure")
			So(f.images.calls()[0], ShouldContainSubstring, `"Cockpit failure"`)

			_, err = f.svc.GenerateThumbnails(ctx, view.ID, "")
			So(err, ShouldBeNil)
			waitIdle(f.svc, view.ID)
			again, _ := f.svc.GetProject(ctx, view.ID)
			So(again.ThumbnailResults, ShouldHaveLength, 2)
			So(again.ThumbnailResults[0].ID, ShouldNotEqual, got.ThumbnailResults[0].ID)
		})

		Convey("批次事件推送", func() {
			_, err := f.svc.GenerateThumbnails(ctx, view.ID, "Topic")
			So(err, ShouldBeNil)
			waitIdle(f.svc, view.ID)

			f.events.mu.Lock()
			defer f.events.mu.Unlock()
			last := f.events.events[len(f.events.events)-1]
			So(last.Type, ShouldEqual, EventBatchFinished)
			So(last.Report.Succeeded, ShouldEqual, 2)
			So(f.events.events[0].Type, ShouldEqual, EventLedgerUpdated)
		})
	})
}

func TestExportImport(t *testing.T) {
	Convey("项目文件", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		view := seriesProject(f, "Cockpit view")

		Convey("导出为 gzip 信封并可重新导入", func() {
			out, err := f.svc.ExportProject(ctx, view.ID)
			So(err, ShouldBeNil)
			So(out.Filename, ShouldStartWith, "tm-media-project-")
			So(out.Filename, ShouldEndWith, ".tmproj")

			zr, err := gzip.NewReader(bytes.NewReader(out.Data))
			So(err, ShouldBeNil)
			var envelope studio.ProjectEnvelope
			So(json.NewDecoder(zr).Decode(&envelope), ShouldBeNil)
			So(envelope.Metadata.SavedBy, ShouldEqual, "Lan")
			So(envelope.AppState.Script, ShouldEqual, "Cockpit view")

			imported, err := f.svc.ImportProject(ctx, out.Data)
			So(err, ShouldBeNil)
			So(imported.ID, ShouldEqual, view.ID)
			So(imported.SeriesPrompts, ShouldHaveLength, 1)
		})

		Convey("纯 JSON 项目状态补齐默认值", func() {
			imported, err := f.svc.ImportProject(ctx, []byte(`{"script": "Hello"}`))
			So(err, ShouldBeNil)
			So(imported.ID, ShouldNotBeEmpty)
			So(imported.CurrentStep, ShouldEqual, 1)
			So(imported.TeamMembers[0].Name, ShouldEqual, "Thành viên 1")
			So(imported.ActiveUserID, ShouldEqual, imported.TeamMembers[0].ID)
			So(imported.ScriptLanguage, ShouldEqual, LanguageVietnamese)
			So(imported.QuotaExceeded, ShouldBeFalse)
		})

		Convey("既没有剧本也没有步骤的文件无效", func() {
			_, err := f.svc.ImportProject(ctx, []byte(`{"appState": {"characters": []}}`))
			So(errors.Is(err, ErrInvalidProjectFile), ShouldBeTrue)
			_, err = f.svc.ImportProject(ctx, []byte("garbage"))
			So(errors.Is(err, ErrInvalidProjectFile), ShouldBeTrue)
		})
	})
}
