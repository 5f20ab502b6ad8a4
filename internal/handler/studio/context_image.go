package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GenerateContextImageRequest 背景图生成请求
type GenerateContextImageRequest struct {
	Prompt string `json:"prompt"` // 背景提示词（为空时使用分析得到的提示词）
}

// GenerateContextImage 生成背景图
// @Summary      生成背景图
// @Description  异步生成背景设定图，进度通过事件流推送
// @Tags         背景设定
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true   "项目ID"
// @Param        request  body      GenerateContextImageRequest  false  "提示词"
// @Success      202      {object}  map[string]interface{}  "已受理"
// @Failure      400      {object}  ErrorResponse  "提示词为空"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Failure      409      {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/context/image [post]
func (h *Handler) GenerateContextImage(c *gin.Context) {
	var req GenerateContextImageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	status, err := h.studioService.GenerateContextImage(c.Request.Context(), c.Param("id"), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// UploadContextImage 上传背景图
// @Summary      上传背景图
// @Tags         背景设定
// @Accept       json
// @Produce      json
// @Param        id       path      string        true  "项目ID"
// @Param        request  body      ImageRequest  true  "图片"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "图片格式错误"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/context/image [put]
func (h *Handler) UploadContextImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	img, err := h.studioService.UploadContextImage(c.Request.Context(), c.Param("id"), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", img)
}
