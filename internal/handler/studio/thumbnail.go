package studio

import (
	"github.com/gin-gonic/gin"
)

// GenerateThumbnailsRequest 缩略图生成请求
type GenerateThumbnailsRequest struct {
	Topic string `json:"topic"` // 主题（为空时使用上次的主题）
}

// GenerateThumbnails 生成缩略图
// @Summary      生成缩略图
// @Description  按主题生成一组缩略图，结果整体替换上一批
// @Tags         缩略图
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true   "项目ID"
// @Param        request  body      GenerateThumbnailsRequest  false  "主题"
// @Success      202      {object}  map[string]interface{}  "已受理"
// @Failure      400      {object}  ErrorResponse  "主题为空"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Failure      409      {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/thumbnails [post]
func (h *Handler) GenerateThumbnails(c *gin.Context) {
	var req GenerateThumbnailsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	status, err := h.studioService.GenerateThumbnails(c.Request.Context(), c.Param("id"), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}
