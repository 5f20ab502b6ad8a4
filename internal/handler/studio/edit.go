package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"

	studiosvc "tmmedia/internal/service/studio"
)

// ApplyEditRequest 图片编辑结果
type ApplyEditRequest struct {
	ImageID string `json:"imageId" binding:"required"` // 被编辑的图片ID
	Image   string `json:"image" binding:"required"`   // 编辑后的图片（data URL 或 http(s) 地址）
}

// ApplyEdit 保存编辑后的图片
// @Summary      保存编辑结果
// @Description  替换系列、背景、缩略图和角色预览中所有同ID的图片
// @Tags         图片编辑
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "项目ID"
// @Param        request  body      ApplyEditRequest  true  "编辑结果"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "图片格式错误"
// @Failure      404      {object}  ErrorResponse  "图片不存在"
// @Router       /api/v1/projects/{id}/edits [post]
func (h *Handler) ApplyEdit(c *gin.Context) {
	var req ApplyEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	img, err := h.studioService.ApplyEdit(c.Request.Context(), c.Param("id"), studiosvc.EditInput{
		ImageID: req.ImageID,
		Image:   req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", img)
}
