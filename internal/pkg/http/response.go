package http

// 业务错误码：前三位与 HTTP 状态码一致，后两位区分具体原因
const (
	CodeSuccess = 0

	CodeInvalidParam   = 40001 // 请求参数错误
	CodeInvalidFile    = 40002 // 项目文件或图片格式错误
	CodeNothingToDo    = 40003 // 没有可处理的内容
	CodeLastCharacter  = 40004 // 不能删除最后一个角色
	CodeLastMember     = 40005 // 不能删除最后一个成员
	CodeNotFound       = 40401 // 项目不存在
	CodeEntityNotFound = 40402 // 提示词、角色、图片或成员不存在
	CodeBatchRunning   = 40901 // 已有批次在运行
	CodeQuotaExceeded  = 40902 // 配额耗尽，需要先重试失败项确认
	CodeInternal       = 50001 // 服务器内部错误
	CodePanic          = 50000 // 未捕获的 panic
)

// ErrorResponse 错误响应（所有API共用）
// 用于统一错误响应格式
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码（非0表示错误）
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情（可选）
}

// SuccessResponse 成功响应（所有API共用）
type SuccessResponse struct {
	Code    int         `json:"code"`           // 状态码（0表示成功）
	Message string      `json:"message"`        // 响应消息
	Data    interface{} `json:"data,omitempty"` // 响应数据（可选）
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(message string, data interface{}) *SuccessResponse {
	return &SuccessResponse{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string, detail ...string) *ErrorResponse {
	resp := &ErrorResponse{
		Code:    code,
		Message: message,
	}
	if len(detail) > 0 && detail[0] != "" {
		resp.Detail = detail[0]
	}
	return resp
}

// StatusOf 由业务错误码推导 HTTP 状态码
func StatusOf(code int) int {
	if code < 10000 {
		return 200
	}
	return code / 100
}
