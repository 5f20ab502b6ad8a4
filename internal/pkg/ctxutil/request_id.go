package ctxutil

import "context"

// requestIDKeyType 使用私有类型避免与其他 context key 冲突
type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// WithRequestID 将 requestID 注入到 context 中
// 说明：由 RequestID 中间件调用，之后 service 层的日志可以带上同一个 request_id
//
//	ctx := ctxutil.WithRequestID(c.Request.Context(), rid)
//	c.Request = c.Request.WithContext(ctx)
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID 从 context 中解析 requestID
// 返回值：
//   - string: 解析到的 requestID
//   - bool  : 是否存在有效的 requestID
func GetRequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Detach 返回一个不随请求取消的 context，保留 requestID
// 后台批次在 HTTP 请求返回后继续运行时使用
func Detach(ctx context.Context) context.Context {
	out := context.Background()
	if rid, ok := GetRequestID(ctx); ok {
		out = WithRequestID(out, rid)
	}
	return out
}
