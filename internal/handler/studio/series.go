package studio

import (
	"net/http"

	"github.com/gin-gonic/gin"

	studiosvc "tmmedia/internal/service/studio"
)

// UpdateSeriesPromptRequest 修改提示词请求
type UpdateSeriesPromptRequest struct {
	Value      *string `json:"value"`      // 场景描述
	Variations *int    `json:"variations"` // 镜头数量（至少为1）
}

// ProceedToSeries 按剧本行生成系列提示词
// @Summary      创建系列提示词
// @Description  剧本每个非空行生成一个提示词，默认1个镜头
// @Tags         系列
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Failure      400  {object}  ErrorResponse  "剧本为空"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/series [post]
func (h *Handler) ProceedToSeries(c *gin.Context) {
	prompts, err := h.studioService.ProceedToSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", prompts)
}

// UpdateSeriesPrompt 修改提示词
// @Summary      修改提示词
// @Tags         系列
// @Accept       json
// @Produce      json
// @Param        id         path      string                     true  "项目ID"
// @Param        prompt_id  path      string                     true  "提示词ID"
// @Param        request    body      UpdateSeriesPromptRequest  true  "提示词"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      404        {object}  ErrorResponse  "提示词不存在"
// @Router       /api/v1/projects/{id}/series/prompts/{prompt_id} [put]
func (h *Handler) UpdateSeriesPrompt(c *gin.Context) {
	var req UpdateSeriesPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	prompt, err := h.studioService.UpdateSeriesPrompt(c.Request.Context(), c.Param("id"), c.Param("prompt_id"), studiosvc.SeriesPromptInput{
		Value:      req.Value,
		Variations: req.Variations,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", prompt)
}

// GenerateSeries 全量生成系列图片
// @Summary      全量生成
// @Description  依次生成所有提示词的所有镜头，已成功的图片保留
// @Tags         系列
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      202  {object}  map[string]interface{}  "已受理"
// @Success      200  {object}  map[string]interface{}  "全部已生成"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Failure      409  {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/series/images [post]
func (h *Handler) GenerateSeries(c *gin.Context) {
	status, err := h.studioService.GenerateSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// GeneratePromptVariations 重新生成某个提示词的全部镜头
// @Summary      生成提示词镜头
// @Tags         系列
// @Produce      json
// @Param        id         path      string  true  "项目ID"
// @Param        prompt_id  path      string  true  "提示词ID"
// @Success      202        {object}  map[string]interface{}  "已受理"
// @Failure      404        {object}  ErrorResponse  "提示词不存在"
// @Failure      409        {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/series/prompts/{prompt_id}/images [post]
func (h *Handler) GeneratePromptVariations(c *gin.Context) {
	status, err := h.studioService.GeneratePromptVariations(c.Request.Context(), c.Param("id"), c.Param("prompt_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// RegenerateSeriesImage 重新生成单张图片
// @Summary      重新生成图片
// @Tags         系列
// @Produce      json
// @Param        id        path      string  true  "项目ID"
// @Param        image_id  path      string  true  "图片ID"
// @Success      202       {object}  map[string]interface{}  "已受理"
// @Failure      404       {object}  ErrorResponse  "图片不存在"
// @Failure      409       {object}  ErrorResponse  "批次运行中或配额耗尽"
// @Router       /api/v1/projects/{id}/series/images/{image_id}/regenerate [post]
func (h *Handler) RegenerateSeriesImage(c *gin.Context) {
	status, err := h.studioService.RegenerateSeriesImage(c.Request.Context(), c.Param("id"), c.Param("image_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// RetryFailedSeriesImages 重试失败的图片
// @Summary      重试失败图片
// @Description  清除配额状态后重试失败和已取消的图片，提示词已不存在的图片会被跳过
// @Tags         系列
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      202  {object}  map[string]interface{}  "已受理"
// @Success      200  {object}  map[string]interface{}  "没有失败的图片"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Failure      409  {object}  ErrorResponse  "批次运行中"
// @Router       /api/v1/projects/{id}/series/retry [post]
func (h *Handler) RetryFailedSeriesImages(c *gin.Context) {
	status, err := h.studioService.RetryFailedSeriesImages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondAccepted(c, status)
}

// ToggleImageSelection 切换图片选中状态
// @Summary      选中/取消选中图片
// @Tags         系列
// @Produce      json
// @Param        id        path      string  true  "项目ID"
// @Param        image_id  path      string  true  "图片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      404       {object}  ErrorResponse  "图片不存在"
// @Router       /api/v1/projects/{id}/series/images/{image_id}/select [post]
func (h *Handler) ToggleImageSelection(c *gin.Context) {
	selected, err := h.studioService.ToggleImageSelection(c.Request.Context(), c.Param("id"), c.Param("image_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "success", gin.H{"imageId": c.Param("image_id"), "selected": selected})
}

// Stop 停止当前批次
// @Summary      停止生成
// @Description  当前调用完成后停止，剩余任务标记为已取消
// @Tags         系列
// @Produce      json
// @Param        id   path      string  true  "项目ID"
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/stop [post]
func (h *Handler) Stop(c *gin.Context) {
	if err := h.studioService.Stop(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "stop requested", nil)
}
