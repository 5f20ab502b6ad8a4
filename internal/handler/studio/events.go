package studio

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tmmedia/internal/pkg/sse"
)

// Events 订阅项目事件流
// @Summary      项目事件流
// @Description  以 Server-Sent Events 推送账本变化、批次开始和结束事件
// @Tags         事件
// @Produce      text/event-stream
// @Param        id   path      string  true  "项目ID"
// @Success      200  {string}  string  "事件流"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/events [get]
func (h *Handler) Events(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := h.studioService.GetProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	topic := sse.ProjectTopic(projectID)
	msgCh := make(chan []byte, 16)
	if err := h.hub.Subscribe(ctx, msgCh, topic); err != nil {
		return
	}
	defer h.hub.Unsubscribe(msgCh, topic)

	// 事件流不受服务器写超时限制
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	// 设置 SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"projectId": projectID})
	c.Writer.Flush()
	log.Debug().Str("project_id", projectID).Msg("event stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg := <-msgCh:
			c.SSEvent("message", json.RawMessage(msg))
			return true
		}
	})
	log.Debug().Str("project_id", projectID).Msg("event stream closed")
}
