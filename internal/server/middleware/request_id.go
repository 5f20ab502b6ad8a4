package middleware

import (
	"github.com/gin-gonic/gin"

	"tmmedia/internal/pkg/ctxutil"
	"tmmedia/internal/pkg/id"
)

const (
	// RequestIDHeader 请求ID头
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey gin.Context 中保存请求ID的键
	RequestIDKey = "request_id"
)

// RequestID 为每个请求分配请求ID
// 客户端带了 X-Request-ID 时沿用，并写入 request context 供 service 层日志使用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.New()
		}

		c.Set(RequestIDKey, rid)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), rid))
		c.Header(RequestIDHeader, rid)

		c.Next()
	}
}
