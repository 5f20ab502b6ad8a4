package sse

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHub(t *testing.T) {
	Convey("按 topic 广播消息", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		hub := NewHub()
		go hub.Run(ctx)

		a := make(chan []byte, 4)
		b := make(chan []byte, 4)
		So(hub.Subscribe(ctx, a, ProjectTopic("p1")), ShouldBeNil)
		So(hub.Subscribe(ctx, b, ProjectTopic("p2")), ShouldBeNil)

		So(hub.PublishJSON(ProjectTopic("p1"), map[string]string{"ledger": "series"}), ShouldBeNil)

		select {
		case msg := <-a:
			So(string(msg), ShouldEqual, `{"ledger":"series"}`)
		case <-time.After(time.Second):
			So("timeout", ShouldBeEmpty)
		}
		So(len(b), ShouldEqual, 0)

		Convey("取消订阅后不再收到消息", func() {
			hub.Unsubscribe(a, ProjectTopic("p1"))
			hub.PublishTopic(ProjectTopic("p1"), []byte("x"))
			hub.PublishTopic(ProjectTopic("p2"), []byte("y"))

			select {
			case msg := <-b:
				So(string(msg), ShouldEqual, "y")
			case <-time.After(time.Second):
				So("timeout", ShouldBeEmpty)
			}
			So(len(a), ShouldEqual, 0)
		})
	})

	Convey("topic 名称", t, func() {
		So(ProjectTopic("abc"), ShouldEqual, "project:abc")
	})
}
