package generation

import (
	"context"

	"tmmedia/internal/model/studio"
)

// EntityReference 参与一致性约束的参考实体（角色、背景）
type EntityReference struct {
	Name     string // 实体名称，写入指令中
	ImageURL string // 参考图地址
}

// GenerateRequest 一次图片生成请求
type GenerateRequest struct {
	ProjectID       string
	Instruction     string          // 完整的渲染指令
	Setting         *studio.Setting // 背景设定，可为空
	StyleReferences []string        // 风格参考图地址
	Language        string          // 剧本语言
}

// Generator 图片生成提供方
// 返回可以直接访问的图片地址
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// GenerateWithEntityReferences 附带实体参考图生成，用于保持角色外观一致
	GenerateWithEntityReferences(ctx context.Context, req GenerateRequest, entities []EntityReference) (string, error)
}

// TextProvider 文本生成提供方（剧本分析、提示词改写、视频提示词）
type TextProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VisionProvider 图片理解提供方
type VisionProvider interface {
	DescribeImage(ctx context.Context, prompt, imageURL string) (string, error)
}
