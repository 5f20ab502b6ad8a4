package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	Name string `json:"name" binding:"required"` // 成员名称
}

// SetActiveMemberRequest 切换当前操作者请求
type SetActiveMemberRequest struct {
	MemberID string `json:"memberId" binding:"required"` // 成员ID
}

// AddMember 添加团队成员
// @Summary      添加团队成员
// @Tags         团队
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "项目ID"
// @Param        request  body      AddMemberRequest  true  "成员"
// @Success      201      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	member, err := h.studioService.AddMember(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "success", member)
}

// RemoveMember 删除团队成员
// @Summary      删除团队成员
// @Description  最后一个成员不能删除；删除当前操作者时切换到第一个成员
// @Tags         团队
// @Produce      json
// @Param        id         path      string  true  "项目ID"
// @Param        member_id  path      string  true  "成员ID"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      400        {object}  ErrorResponse  "最后一个成员"
// @Failure      404        {object}  ErrorResponse  "成员不存在"
// @Router       /api/v1/projects/{id}/members/{member_id} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	if err := h.studioService.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("member_id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", nil)
}

// SetActiveMember 切换当前操作者
// @Summary      切换当前操作者
// @Description  之后生成的结果署名为该成员
// @Tags         团队
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "项目ID"
// @Param        request  body      SetActiveMemberRequest  true  "成员"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      404      {object}  ErrorResponse  "成员不存在"
// @Router       /api/v1/projects/{id}/members/active [put]
func (h *Handler) SetActiveMember(c *gin.Context) {
	var req SetActiveMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.studioService.SetActiveMember(c.Request.Context(), c.Param("id"), req.MemberID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", nil)
}
