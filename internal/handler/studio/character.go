package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"

	studiosvc "tmmedia/internal/service/studio"
)

// CharacterRequest 角色档案请求，修改时未提供的字段保持不变
type CharacterRequest struct {
	Name                  *string `json:"name"`
	IsMain                *bool   `json:"isMain"`
	Goal                  *string `json:"goal"`
	Motivation            *string `json:"motivation"`
	Conflict              *string `json:"conflict"`
	AppearanceAndBehavior *string `json:"appearanceAndBehavior"`
	Backstory             *string `json:"backstory"`
	CharacterArc          *string `json:"characterArc"`
}

func (r CharacterRequest) input() studiosvc.CharacterInput {
	return studiosvc.CharacterInput{
		Name:                  r.Name,
		IsMain:                r.IsMain,
		Goal:                  r.Goal,
		Motivation:            r.Motivation,
		Conflict:              r.Conflict,
		AppearanceAndBehavior: r.AppearanceAndBehavior,
		Backstory:             r.Backstory,
		CharacterArc:          r.CharacterArc,
	}
}

// SetReferenceRequest 设置角色参考图请求
type SetReferenceRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"` // 参考图地址
}

// AddCharacter 添加角色
// @Summary      添加角色
// @Tags         角色
// @Accept       json
// @Produce      json
// @Param        id       path      string            true   "项目ID"
// @Param        request  body      CharacterRequest  false  "角色档案"
// @Success      201      {object}  map[string]interface{}  "成功响应"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/characters [post]
func (h *Handler) AddCharacter(c *gin.Context) {
	var req CharacterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	char, err := h.studioService.AddCharacter(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "success", char)
}

// UpdateCharacter 修改角色档案
// @Summary      修改角色档案
// @Tags         角色
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "项目ID"
// @Param        char_id  path      string            true  "角色ID"
// @Param        request  body      CharacterRequest  true  "角色档案"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      404      {object}  ErrorResponse  "角色不存在"
// @Router       /api/v1/projects/{id}/characters/{char_id} [put]
func (h *Handler) UpdateCharacter(c *gin.Context) {
	var req CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	char, err := h.studioService.UpdateCharacter(c.Request.Context(), c.Param("id"), c.Param("char_id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", char)
}

// RemoveCharacter 删除角色
// @Summary      删除角色
// @Description  最后一个角色不能删除
// @Tags         角色
// @Produce      json
// @Param        id       path      string  true  "项目ID"
// @Param        char_id  path      string  true  "角色ID"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "最后一个角色"
// @Failure      404      {object}  ErrorResponse  "角色不存在"
// @Router       /api/v1/projects/{id}/characters/{char_id} [delete]
func (h *Handler) RemoveCharacter(c *gin.Context) {
	if err := h.studioService.RemoveCharacter(c.Request.Context(), c.Param("id"), c.Param("char_id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", nil)
}

// UploadCharacterImage 上传角色图片
// @Summary      上传角色图片
// @Description  上传的图片同时作为角色预览图和参考图
// @Tags         角色
// @Accept       json
// @Produce      json
// @Param        id       path      string        true  "项目ID"
// @Param        char_id  path      string        true  "角色ID"
// @Param        request  body      ImageRequest  true  "图片"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "图片格式错误"
// @Failure      404      {object}  ErrorResponse  "角色不存在"
// @Router       /api/v1/projects/{id}/characters/{char_id}/image [post]
func (h *Handler) UploadCharacterImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	char, err := h.studioService.UploadCharacterImage(c.Request.Context(), c.Param("id"), c.Param("char_id"), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", char)
}

// SetCharacterReference 设置角色参考图
// @Summary      设置角色参考图
// @Tags         角色
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "项目ID"
// @Param        char_id  path      string               true  "角色ID"
// @Param        request  body      SetReferenceRequest  true  "参考图"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      404      {object}  ErrorResponse  "角色不存在"
// @Router       /api/v1/projects/{id}/characters/{char_id}/reference [put]
func (h *Handler) SetCharacterReference(c *gin.Context) {
	var req SetReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	char, err := h.studioService.SetCharacterReference(c.Request.Context(), c.Param("id"), c.Param("char_id"), req.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", char)
}

// GenerateCharacterPreview 生成单个角色预览图
// @Summary      生成角色预览图
// @Tags         角色
// @Produce      json
// @Param        id       path      string  true  "项目ID"
// @Param        char_id  path      string  true  "角色ID"
// @Success      202      {object}  map[string]interface{}  "已受理"
// @Failure      404      {object}  ErrorResponse  "角色不存在"
// @Failure      409      {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/characters/{char_id}/preview [post]
func (h *Handler) GenerateCharacterPreview(c *gin.Context) {
	status, err := h.studioService.GenerateCharacterPreview(c.Request.Context(), c.Param("id"), c.Param("char_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// GenerateAllCharacterPreviews 依次生成所有角色的预览图
// @Summary      生成全部角色预览图
// @Description  跳过已有成功预览图的角色，遇到配额错误时停止
// @Tags         角色
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      202  {object}  map[string]interface{}  "已受理"
// @Success      200  {object}  map[string]interface{}  "没有需要生成的角色"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Failure      409  {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/characters/previews [post]
func (h *Handler) GenerateAllCharacterPreviews(c *gin.Context) {
	status, err := h.studioService.GenerateAllCharacterPreviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}
