package generation

import (
	"errors"
	"strings"
)

const (
	// ReasonUserStopped 用户主动停止
	ReasonUserStopped = "Stopped by user"
	// ReasonQuota 因 API 配额耗尽被取消
	ReasonQuota = "Cancelled due to API limit"

	// QuotaAdvisory 配额耗尽时展示给操作者的提示
	QuotaAdvisory = "API quota reached. Save the project and hand it to another team member to upload and continue."
)

// ErrQuotaExceeded 外部服务配额已耗尽
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// IsQuotaMessage 判断错误消息是否表示配额/限流（不区分大小写匹配 quota 或 limit）
func IsQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "limit")
}

// IsQuotaError 判断错误是否属于配额类
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	return IsQuotaMessage(err.Error())
}
