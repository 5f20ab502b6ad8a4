package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AddReferenceImage 上传风格参考图
// @Summary      上传风格参考图
// @Tags         风格参考
// @Accept       json
// @Produce      json
// @Param        id       path      string        true  "项目ID"
// @Param        request  body      ImageRequest  true  "图片"
// @Success      201      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "图片格式错误"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/references [post]
func (h *Handler) AddReferenceImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ref, err := h.studioService.AddReferenceImage(c.Request.Context(), c.Param("id"), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "success", ref)
}

// DeleteReferenceImage 删除风格参考图
// @Summary      删除风格参考图
// @Tags         风格参考
// @Produce      json
// @Param        id      path      string  true  "项目ID"
// @Param        ref_id  path      string  true  "参考图ID"
// @Success      200     {object}  map[string]interface{}  "成功响应"
// @Failure      404     {object}  ErrorResponse  "参考图不存在"
// @Router       /api/v1/projects/{id}/references/{ref_id} [delete]
func (h *Handler) DeleteReferenceImage(c *gin.Context) {
	if err := h.studioService.DeleteReferenceImage(c.Request.Context(), c.Param("id"), c.Param("ref_id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", nil)
}
