package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnalyzeScriptRequest 剧本分析请求
type AnalyzeScriptRequest struct {
	Script string `json:"script"` // 剧本（为空时使用项目中已保存的剧本）
}

// AnalyzeScript 分析剧本
// @Summary      分析剧本
// @Description  识别剧本语言，提取背景设定和角色档案，完成后进入背景设定步骤
// @Tags         剧本分析
// @Accept       json
// @Produce      json
// @Param        id       path      string                true   "项目ID"
// @Param        request  body      AnalyzeScriptRequest  false  "剧本"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "剧本为空"
// @Failure      404      {object}  ErrorResponse  "项目不存在"
// @Failure      409      {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Failure      500      {object}  ErrorResponse  "分析失败"
// @Router       /api/v1/projects/{id}/analyze [post]
func (h *Handler) AnalyzeScript(c *gin.Context) {
	var req AnalyzeScriptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	result, err := h.studioService.AnalyzeScript(c.Request.Context(), c.Param("id"), req.Script)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "剧本分析完成", result)
}
