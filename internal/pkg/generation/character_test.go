package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"tmmedia/internal/model/studio"
)

func TestRunCharacters(t *testing.T) {
	Convey("角色预览批次", t, func() {
		sleeper := &recordingSleeper{}
		runner := NewRunner(Options{PacingDelay: time.Second, Sleeper: sleeper})
		sig := NewSignal()
		ctx := context.Background()

		roster := NewRoster([]studio.Character{
			{ID: "c1", Name: "Minh", AppearanceAndBehavior: "tall pilot"},
			{ID: "c2", Name: "Lan", Preview: &studio.ImageResult{ID: "c2", Status: studio.ImageStatusSuccess, URL: "u2"}},
			{ID: "c3", Name: "Hoa", Preview: &studio.ImageResult{ID: "c3", Status: studio.ImageStatusError, Error: "old"}},
			{ID: "c4", Name: "Tuan"},
		})

		var calls []string
		errs := map[string]error{}
		var onCall func(c studio.Character)
		exec := CharacterExecutorFunc(func(_ context.Context, c studio.Character) (string, error) {
			calls = append(calls, c.ID)
			if onCall != nil {
				onCall(c)
			}
			if err := errs[c.ID]; err != nil {
				return "", err
			}
			return "https://cdn.example.com/" + c.ID, nil
		})
		batch := &CharacterBatch{Roster: roster, Executor: exec, Signal: sig, Attribution: "Lan"}

		Convey("只为尚无成功预览的角色生成", func() {
			report := runner.RunCharacters(ctx, batch)

			So(calls, ShouldResemble, []string{"c1", "c3", "c4"})
			So(report.Succeeded, ShouldEqual, 3)
			So(len(sleeper.delays), ShouldEqual, 2)

			c2, _ := roster.Get("c2")
			So(c2.Preview.URL, ShouldEqual, "u2")
			for _, id := range []string{"c1", "c3", "c4"} {
				c, _ := roster.Get(id)
				So(c.Preview.ID, ShouldEqual, id)
				So(c.Preview.Status, ShouldEqual, studio.ImageStatusSuccess)
				So(c.Preview.GeneratedBy, ShouldEqual, "Lan")
			}
		})

		Convey("轮到某个角色时才进入 generating", func() {
			var statuses []studio.ImageStatus
			onCall = func(c studio.Character) {
				if c.ID != "c1" {
					return
				}
				self, _ := roster.Get("c1")
				next, _ := roster.Get("c4")
				statuses = append(statuses, self.Preview.Status)
				So(next.Preview, ShouldBeNil)
			}
			runner.RunCharacters(ctx, batch)
			So(statuses, ShouldResemble, []studio.ImageStatus{studio.ImageStatusGenerating})
		})

		Convey("配额错误时其余角色被取消", func() {
			errs["c1"] = errors.New("Quota exceeded for requests")
			report := runner.RunCharacters(ctx, batch)

			So(calls, ShouldResemble, []string{"c1"})
			So(report.QuotaExceeded, ShouldBeTrue)
			So(sig.QuotaExceeded(), ShouldBeTrue)

			c1, _ := roster.Get("c1")
			So(c1.Preview.Status, ShouldEqual, studio.ImageStatusError)

			// 已有错误结果的角色保持原状，缺失预览的角色被标记为取消
			c3, _ := roster.Get("c3")
			So(c3.Preview.Status, ShouldEqual, studio.ImageStatusError)
			c4, _ := roster.Get("c4")
			So(c4.Preview.Status, ShouldEqual, studio.ImageStatusCancelled)
			So(c4.Preview.Error, ShouldEqual, ReasonQuota)
		})

		Convey("停止请求在当前角色完成后生效", func() {
			onCall = func(studio.Character) { sig.Stop() }
			report := runner.RunCharacters(ctx, batch)

			So(calls, ShouldResemble, []string{"c1"})
			So(report.Stopped, ShouldBeTrue)
			c4, _ := roster.Get("c4")
			So(c4.Preview.Status, ShouldEqual, studio.ImageStatusCancelled)
			So(c4.Preview.Error, ShouldEqual, ReasonUserStopped)
			So(sig.Stopping(), ShouldBeFalse)
		})

		Convey("普通失败不影响其他角色", func() {
			errs["c3"] = errors.New("bad gateway")
			report := runner.RunCharacters(ctx, batch)

			So(len(calls), ShouldEqual, 3)
			So(report.Failed, ShouldEqual, 1)
			c3, _ := roster.Get("c3")
			So(c3.Preview.Error, ShouldEqual, "bad gateway")
		})

		Convey("批次进行中被删除的角色直接跳过", func() {
			onCall = func(c studio.Character) {
				if c.ID == "c1" {
					roster.Remove("c3")
				}
			}
			report := runner.RunCharacters(ctx, batch)
			So(calls, ShouldResemble, []string{"c1", "c4"})
			So(report.Failed, ShouldEqual, 0)
		})

		Convey("单个角色生成返回错误", func() {
			errs["c2"] = errors.New("boom")
			err := runner.GenerateCharacter(ctx, roster, "c2", exec, "Lan")
			So(err, ShouldNotBeNil)
			c2, _ := roster.Get("c2")
			So(c2.Preview.Status, ShouldEqual, studio.ImageStatusError)

			err = runner.GenerateCharacter(ctx, roster, "missing", exec, "Lan")
			So(errors.Is(err, ErrCharacterNotFound), ShouldBeTrue)
		})
	})
}

func TestRoster(t *testing.T) {
	Convey("角色列表返回的是副本", t, func() {
		roster := NewRoster([]studio.Character{{ID: "c1", Preview: &studio.ImageResult{ID: "c1", Status: studio.ImageStatusSuccess}}})

		c, _ := roster.Get("c1")
		c.Preview.Status = studio.ImageStatusError
		again, _ := roster.Get("c1")
		So(again.Preview.Status, ShouldEqual, studio.ImageStatusSuccess)

		So(roster.Remove("c1"), ShouldBeTrue)
		So(roster.Remove("c1"), ShouldBeFalse)
		So(roster.Len(), ShouldEqual, 0)
	})
}
