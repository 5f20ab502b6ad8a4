package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("就绪检查", t, func() {
		serve := func(h *HealthHandler) *httptest.ResponseRecorder {
			engine := gin.New()
			engine.GET("/ready", h.Ready)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			return w
		}

		Convey("所有依赖正常时返回 200", func() {
			h := NewHealthHandler(map[string]Pinger{
				"mongo": pingerFunc(func(context.Context) error { return nil }),
				"redis": nil,
			})
			w := serve(h)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"mongo":"ok"`)
			So(w.Body.String(), ShouldNotContainSubstring, "redis")
		})

		Convey("依赖不可用时返回 503", func() {
			h := NewHealthHandler(map[string]Pinger{
				"mongo": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			})
			w := serve(h)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "connection refused")
		})
	})
}
