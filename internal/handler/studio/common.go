package studio

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "tmmedia/internal/pkg/http"
	studiosvc "tmmedia/internal/service/studio"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// ImageRequest 图片上传请求（data URL 或 http(s) 地址）
type ImageRequest struct {
	Image string `json:"image" binding:"required"` // 图片内容
}

// errorCode 服务层错误对应的业务错误码
func errorCode(err error) int {
	switch {
	case errors.Is(err, studiosvc.ErrProjectNotFound):
		return httputil.CodeNotFound
	case errors.Is(err, studiosvc.ErrPromptNotFound),
		errors.Is(err, studiosvc.ErrCharacterNotFound),
		errors.Is(err, studiosvc.ErrImageNotFound),
		errors.Is(err, studiosvc.ErrMemberNotFound):
		return httputil.CodeEntityNotFound
	case errors.Is(err, studiosvc.ErrBatchRunning):
		return httputil.CodeBatchRunning
	case errors.Is(err, studiosvc.ErrQuotaExceeded):
		return httputil.CodeQuotaExceeded
	case errors.Is(err, studiosvc.ErrNothingToDo):
		return httputil.CodeNothingToDo
	case errors.Is(err, studiosvc.ErrLastCharacter):
		return httputil.CodeLastCharacter
	case errors.Is(err, studiosvc.ErrLastMember):
		return httputil.CodeLastMember
	case errors.Is(err, studiosvc.ErrInvalidProjectFile):
		return httputil.CodeInvalidFile
	case errors.Is(err, studiosvc.ErrInvalidInput):
		return httputil.CodeInvalidParam
	default:
		return httputil.CodeInternal
	}
}

// respondError 按错误类型返回错误响应
func respondError(c *gin.Context, err error) {
	code := errorCode(err)
	if code == httputil.CodeInternal {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("studio request failed")
	}
	c.JSON(httputil.StatusOf(code), ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

// respondBindError 请求体解析失败
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    httputil.CodeInvalidParam,
		Message: "Invalid request body",
		Detail:  err.Error(),
	})
}

// respondOK 成功响应
func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, httputil.NewSuccessResponse(message, data))
}

// respondAccepted 异步批次已受理；没有任务时直接返回 200
func respondAccepted(c *gin.Context, status *studiosvc.BatchStatus) {
	if status == nil || !status.Running {
		respondOK(c, http.StatusOK, "nothing to generate", status)
		return
	}
	respondOK(c, http.StatusAccepted, "batch started", status)
}
