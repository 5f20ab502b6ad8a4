package studio

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册项目相关路由
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.POST("/import", h.ImportProject)
		projects.GET("/:id", h.GetProject)
		projects.DELETE("/:id", h.DeleteProject)
		projects.PUT("/:id/step", h.SetStep)
		projects.GET("/:id/export", h.ExportProject)
		projects.GET("/:id/events", h.Events)

		projects.POST("/:id/members", h.AddMember)
		projects.PUT("/:id/members/active", h.SetActiveMember)
		projects.DELETE("/:id/members/:member_id", h.RemoveMember)

		projects.POST("/:id/references", h.AddReferenceImage)
		projects.DELETE("/:id/references/:ref_id", h.DeleteReferenceImage)

		projects.POST("/:id/analyze", h.AnalyzeScript)
		projects.POST("/:id/context/image", h.GenerateContextImage)
		projects.PUT("/:id/context/image", h.UploadContextImage)

		projects.POST("/:id/characters", h.AddCharacter)
		projects.POST("/:id/characters/previews", h.GenerateAllCharacterPreviews)
		projects.PUT("/:id/characters/:char_id", h.UpdateCharacter)
		projects.DELETE("/:id/characters/:char_id", h.RemoveCharacter)
		projects.POST("/:id/characters/:char_id/image", h.UploadCharacterImage)
		projects.PUT("/:id/characters/:char_id/reference", h.SetCharacterReference)
		projects.POST("/:id/characters/:char_id/preview", h.GenerateCharacterPreview)

		projects.POST("/:id/series", h.ProceedToSeries)
		projects.PUT("/:id/series/prompts/:prompt_id", h.UpdateSeriesPrompt)
		projects.POST("/:id/series/prompts/:prompt_id/images", h.GeneratePromptVariations)
		projects.POST("/:id/series/images", h.GenerateSeries)
		projects.POST("/:id/series/images/:image_id/regenerate", h.RegenerateSeriesImage)
		projects.POST("/:id/series/images/:image_id/select", h.ToggleImageSelection)
		projects.POST("/:id/series/retry", h.RetryFailedSeriesImages)
		projects.POST("/:id/stop", h.Stop)

		projects.POST("/:id/video-prompts", h.GenerateVideoPrompts)
		projects.GET("/:id/video-prompts/download", h.DownloadVideoPrompts)
		projects.POST("/:id/thumbnails", h.GenerateThumbnails)
		projects.POST("/:id/edits", h.ApplyEdit)
	}
}
