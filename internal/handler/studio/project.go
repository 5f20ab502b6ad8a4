package studio

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httputil "tmmedia/internal/pkg/http"
	studiosvc "tmmedia/internal/service/studio"
)

const defaultListLimit = 50

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Script     string `json:"script"`     // 剧本（可选，分析前可再提交）
	MemberName string `json:"memberName"` // 第一个团队成员名称（可选）
	Language   string `json:"language"`   // 剧本语言（可选，默认取配置）
}

// SetStepRequest 切换步骤请求
type SetStepRequest struct {
	Step int `json:"step" binding:"required"` // 目标步骤（1..8）
}

// CreateProject 创建项目
// @Summary      创建项目
// @Description  创建一个新的制作项目，自动创建第一个团队成员并设为当前操作者
// @Tags         项目管理
// @Accept       json
// @Produce      json
// @Param        request  body      CreateProjectRequest  true  "创建项目请求"
// @Success      201      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.studioService.CreateProject(c.Request.Context(), studiosvc.CreateProjectRequest{
		Script:     req.Script,
		MemberName: req.MemberName,
		Language:   req.Language,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "项目创建成功", view)
}

// ListProjects 列出项目
// @Summary      项目列表
// @Description  按更新时间倒序列出项目摘要
// @Tags         项目管理
// @Produce      json
// @Param        limit  query     int  false  "返回数量（默认50）"
// @Success      200    {object}  map[string]interface{}  "成功响应"
// @Failure      500    {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/projects [get]
func (h *Handler) ListProjects(c *gin.Context) {
	limit := int64(defaultListLimit)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    httputil.CodeInvalidParam,
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	projects, err := h.studioService.ListProjects(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", projects)
}

// GetProject 获取项目
// @Summary      获取项目
// @Description  获取项目完整状态，包括各账本条目、运行中的批次和配额状态
// @Tags         项目管理
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	view, err := h.studioService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", view)
}

// DeleteProject 删除项目
// @Summary      删除项目
// @Description  删除项目；有批次运行时拒绝
// @Tags         项目管理
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Failure      409  {object}  ErrorResponse  "批次运行中"
// @Router       /api/v1/projects/{id} [delete]
func (h *Handler) DeleteProject(c *gin.Context) {
	if err := h.studioService.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "项目已删除", nil)
}

// SetStep 切换向导步骤
// @Summary      切换步骤
// @Description  跳转到指定步骤，超出范围时限制在 1..8
// @Tags         项目管理
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "项目ID"
// @Param        request  body      SetStepRequest  true  "步骤"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/step [put]
func (h *Handler) SetStep(c *gin.Context) {
	var req SetStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	step, err := h.studioService.SetStep(c.Request.Context(), c.Param("id"), req.Step)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", gin.H{"currentStep": step})
}
