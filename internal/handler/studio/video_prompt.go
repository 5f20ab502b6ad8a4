package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const videoPromptsFilename = "video-prompts.txt"

// GenerateVideoPrompts 生成视频提示词
// @Summary      生成视频提示词
// @Description  为每个已有成功图片的场景依次生成视频提示词
// @Tags         视频提示词
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      202  {object}  map[string]interface{}  "已受理"
// @Failure      400  {object}  ErrorResponse  "没有已生成的图片"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Failure      409  {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/video-prompts [post]
func (h *Handler) GenerateVideoPrompts(c *gin.Context) {
	status, err := h.studioService.GenerateVideoPrompts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// DownloadVideoPrompts 下载视频提示词
// @Summary      下载视频提示词
// @Description  每行一条提示词的纯文本文件
// @Tags         视频提示词
// @Produce      plain
// @Param        id   path      string  true  "项目ID"
// @Success      200  {string}  string  "提示词文本"
// @Failure      400  {object}  ErrorResponse  "尚未生成视频提示词"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/video-prompts/download [get]
func (h *Handler) DownloadVideoPrompts(c *gin.Context) {
	text, err := h.studioService.VideoPromptsText(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+videoPromptsFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}
