package studio

import (
	"time"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Script     string `json:"script"`
	MemberName string `json:"memberName"`
	Language   string `json:"language"`
}

// ProjectView 项目状态视图
type ProjectView struct {
	*studio.Project
	Running       bool   `json:"running"`
	Batch         string `json:"batch,omitempty"`
	QuotaExceeded bool   `json:"quotaExceeded"`
	LastError     string `json:"lastError,omitempty"`
}

// ProjectSummary 项目列表项
type ProjectSummary struct {
	ID            string    `json:"id"`
	CurrentStep   int       `json:"currentStep"`
	ScriptPreview string    `json:"scriptPreview"`
	Language      string    `json:"scriptLanguage"`
	Characters    int       `json:"characters"`
	Images        int       `json:"images"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BatchStatus 异步批次的受理结果
type BatchStatus struct {
	ProjectID string   `json:"projectId"`
	Batch     string   `json:"batch"`
	Tasks     int      `json:"tasks"`
	Running   bool     `json:"running"`
	Skipped   []string `json:"skipped,omitempty"`
}

// AnalysisResult 剧本分析结果
type AnalysisResult struct {
	Language      string             `json:"language"`
	Setting       *studio.Setting    `json:"settingDetails"`
	ContextPrompt string             `json:"contextPrompt"`
	Characters    []studio.Character `json:"characters"`
	CurrentStep   int                `json:"currentStep"`
}

// CharacterInput 角色档案（新增或修改）
// 修改时为 nil 的字段保持不变
type CharacterInput struct {
	Name                  *string `json:"name"`
	IsMain                *bool   `json:"isMain"`
	Goal                  *string `json:"goal"`
	Motivation            *string `json:"motivation"`
	Conflict              *string `json:"conflict"`
	AppearanceAndBehavior *string `json:"appearanceAndBehavior"`
	Backstory             *string `json:"backstory"`
	CharacterArc          *string `json:"characterArc"`
}

// SeriesPromptInput 提示词修改
type SeriesPromptInput struct {
	Value      *string `json:"value"`
	Variations *int    `json:"variations"`
}

// EditInput 图片编辑结果
type EditInput struct {
	ImageID string `json:"imageId"`
	Image   string `json:"image"` // data URL 或 http(s) 地址
}

// ExportedProject 导出的项目文件
type ExportedProject struct {
	Filename string
	Data     []byte
}

// 事件类型
const (
	EventLedgerUpdated    = "ledger_updated"
	EventCharacterUpdated = "character_updated"
	EventVideoPrompt      = "video_prompt"
	EventBatchStarted     = "batch_started"
	EventBatchFinished    = "batch_finished"
)

// LedgerEvent 推送给订阅者的项目事件
type LedgerEvent struct {
	Type        string              `json:"type"`
	ProjectID   string              `json:"projectId"`
	Ledger      studio.Ledger       `json:"ledger,omitempty"`
	Batch       string              `json:"batch,omitempty"`
	Image       *studio.ImageResult `json:"image,omitempty"`
	Character   *studio.Character   `json:"character,omitempty"`
	VideoPrompt string              `json:"videoPrompt,omitempty"`
	Report      *generation.Report  `json:"report,omitempty"`
}

// stepContext 分析完成后进入背景设定步骤
const stepContext = 3

// 批次名称
const (
	batchAnalysis      = "analysis"
	batchContext       = "context_image"
	batchCharacter     = "character_preview"
	batchCharacters    = "character_previews"
	batchSeries        = "series"
	batchPrompt        = "series_prompt"
	batchRegenerate    = "series_regenerate"
	batchRetry         = "series_retry"
	batchVideoPrompts  = "video_prompts"
	batchThumbnails    = "thumbnails"
	batchManual        = "manual_edit"
	scriptPreviewRunes = 120
)
