package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/storage/local"
)

type fakeImageClient struct {
	prompt string
	refs   []string
	err    error
}

func (f *fakeImageClient) GenerateImage(ctx context.Context, prompt string, references []string) ([]byte, error) {
	f.prompt = prompt
	f.refs = references
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg"), nil
}

type fakeGenerator struct {
	errs         []error
	instructions []string
	entities     [][]generation.EntityReference
}

func (f *fakeGenerator) next(req generation.GenerateRequest) (string, error) {
	f.instructions = append(f.instructions, req.Instruction)
	n := len(f.instructions)
	if n <= len(f.errs) && f.errs[n-1] != nil {
		return "", f.errs[n-1]
	}
	return "https://cdn/img.jpeg", nil
}

func (f *fakeGenerator) Generate(ctx context.Context, req generation.GenerateRequest) (string, error) {
	return f.next(req)
}

func (f *fakeGenerator) GenerateWithEntityReferences(ctx context.Context, req generation.GenerateRequest, entities []generation.EntityReference) (string, error) {
	f.entities = append(f.entities, entities)
	return f.next(req)
}

type fakeText struct {
	out   string
	err   error
	calls int
}

func (f *fakeText) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestStyleSuffix(t *testing.T) {
	Convey("信息框日期时间", t, func() {
		Convey("没有背景设定时使用默认值", func() {
			date, clock := OverlayDateTime(nil)
			So(date, ShouldEqual, "NOVEMBER 2ND, 1993")
			So(clock, ShouldEqual, "5:13 PM EST")
		})

		Convey("按逗号拆分 time 字段并转为大写", func() {
			date, clock := OverlayDateTime(&studio.Setting{Time: "March 3rd 2001, 9:40 am local"})
			So(date, ShouldEqual, "MARCH 3RD 2001")
			So(clock, ShouldEqual, "9:40 AM LOCAL")
		})

		Convey("缺少时间部分时保留默认时间", func() {
			_, clock := OverlayDateTime(&studio.Setting{Time: "July 1999"})
			So(clock, ShouldEqual, "5:13 PM EST")
		})
	})

	Convey("按语言选择风格指南", t, func() {
		So(StyleSuffix(nil, "English"), ShouldContainSubstring, "STYLE GUIDE")
		So(StyleSuffix(nil, "Vietnamese"), ShouldContainSubstring, "HƯỚNG DẪN PHONG CÁCH")
		So(StyleSuffix(nil, ""), ShouldContainSubstring, "HƯỚNG DẪN PHONG CÁCH")
		So(StyleSuffix(&studio.Setting{Time: "May 5, 6 PM"}, "English"), ShouldContainSubstring, "DATE: MAY 5")
	})
}

func TestArkImageGenerator(t *testing.T) {
	Convey("Ark 图片生成", t, func() {
		store, err := local.NewLocalStorage(t.TempDir(), "http://localhost:8080/storage")
		So(err, ShouldBeNil)
		client := &fakeImageClient{}
		g := NewArkImageGenerator(client, store)
		ctx := context.Background()

		Convey("结果写入项目目录并返回URL", func() {
			url, err := g.Generate(ctx, generation.GenerateRequest{
				ProjectID:       "p1",
				Instruction:     "Cockpit view",
				StyleReferences: []string{"https://cdn/ref.png"},
				Language:        "English",
			})

			So(err, ShouldBeNil)
			So(url, ShouldStartWith, "http://localhost:8080/storage/projects/p1/images/")
			So(url, ShouldEndWith, ".jpeg")
			So(client.refs, ShouldResemble, []string{"https://cdn/ref.png"})
			So(client.prompt, ShouldContainSubstring, `"Cockpit view"`)
			So(client.prompt, ShouldContainSubstring, "MUST match the style")
		})

		Convey("没有风格参考图时直接使用指令", func() {
			_, err := g.Generate(ctx, generation.GenerateRequest{ProjectID: "p1", Instruction: "Runway at dusk", Language: "English"})
			So(err, ShouldBeNil)
			So(client.prompt, ShouldStartWith, "Runway at dusk")
			So(client.refs, ShouldBeEmpty)
		})

		Convey("只传入指令中提到的实体参考图", func() {
			entities := []generation.EntityReference{
				{Name: "Captain Lee", ImageURL: "https://cdn/lee.png"},
				{Name: "Tower", ImageURL: "https://cdn/tower.png"},
				{Name: "Engine 2"},
			}
			_, err := g.GenerateWithEntityReferences(ctx, generation.GenerateRequest{
				ProjectID:       "p1",
				Instruction:     "captain lee checks engine 2",
				StyleReferences: []string{"https://cdn/ref.png"},
				Language:        "English",
			}, entities)

			So(err, ShouldBeNil)
			So(client.refs, ShouldResemble, []string{"https://cdn/ref.png", "https://cdn/lee.png"})
			So(client.prompt, ShouldContainSubstring, "Reference image 2 is the character: Captain Lee")
			So(client.prompt, ShouldNotContainSubstring, "Tower")
		})

		Convey("客户端错误原样返回", func() {
			client.err = errors.New("Quota exceeded for today")
			_, err := g.Generate(ctx, generation.GenerateRequest{ProjectID: "p1", Instruction: "x"})
			So(generation.IsQuotaError(err), ShouldBeTrue)
		})
	})
}

func TestRetryingGenerator(t *testing.T) {
	Convey("生成重试", t, func() {
		ctx := context.Background()
		req := generation.GenerateRequest{Instruction: "Cockpit view", Language: "English"}

		Convey("失败后改写提示词再试一次", func() {
			next := &fakeGenerator{errs: []error{errors.New("safety filter")}}
			text := &fakeText{out: `"A tense cockpit at night with glowing instruments"`}
			g := NewRetryingGenerator(next, text, 2).WithBackoff(time.Millisecond)

			url, err := g.Generate(ctx, req)

			So(err, ShouldBeNil)
			So(url, ShouldEqual, "https://cdn/img.jpeg")
			So(next.instructions, ShouldResemble, []string{"Cockpit view", "A tense cockpit at night with glowing instruments"})
		})

		Convey("配额错误不重试", func() {
			next := &fakeGenerator{errs: []error{errors.New("rate limit reached")}}
			text := &fakeText{out: "unused rewrite result"}
			g := NewRetryingGenerator(next, text, 3).WithBackoff(time.Millisecond)

			_, err := g.Generate(ctx, req)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "rate limit reached")
			So(len(next.instructions), ShouldEqual, 1)
			So(text.calls, ShouldEqual, 0)
		})

		Convey("次数用尽后包装最后一次错误", func() {
			next := &fakeGenerator{errs: []error{errors.New("boom"), errors.New("still broken")}}
			g := NewRetryingGenerator(next, &fakeText{err: errors.New("down")}, 2).WithBackoff(time.Millisecond)

			_, err := g.GenerateWithEntityReferences(ctx, req, []generation.EntityReference{{Name: "A", ImageURL: "u"}})

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "generate image: still broken")
			So(next.instructions[1], ShouldEqual, "A cinematic, hyper-detailed photograph of: Cockpit view")
			So(len(next.entities), ShouldEqual, 2)
		})
	})
}

func TestRewritePrompt(t *testing.T) {
	Convey("提示词改写兜底规则", t, func() {
		ctx := context.Background()
		fallback := "A cinematic, hyper-detailed photograph of: Cockpit view"

		So(RewritePrompt(ctx, nil, "Cockpit view", "English"), ShouldEqual, fallback)
		So(RewritePrompt(ctx, &fakeText{out: "short"}, "Cockpit view", "English"), ShouldEqual, fallback)
		So(RewritePrompt(ctx, &fakeText{out: "Cockpit view"}, "Cockpit view", "English"), ShouldEqual, fallback)
		So(RewritePrompt(ctx, &fakeText{err: errors.New("x")}, "Cockpit view", "English"), ShouldEqual, fallback)

		rewritten := RewritePrompt(ctx, &fakeText{out: "  A wide shot of the cockpit  "}, "Cockpit view", "English")
		So(rewritten, ShouldEqual, "A wide shot of the cockpit")
		So(strings.HasPrefix(rewritten, "A cinematic"), ShouldBeFalse)
	})
}
