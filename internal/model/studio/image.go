package studio

// ImageResult 单个生成产物（或其占位）
// 说明：ID 在所属账本内唯一；系列图片的 ID 由 (promptId, variationIndex) 推导
type ImageResult struct {
	ID          string      `bson:"id" json:"id"`
	PromptID    string      `bson:"prompt_id,omitempty" json:"promptId,omitempty"` // 关联的 SeriesPrompt（背景图等一次性产物为空）
	Status      ImageStatus `bson:"status" json:"status"`
	URL         string      `bson:"url,omitempty" json:"url,omitempty"`                  // 仅 success 时存在
	Error       string      `bson:"error,omitempty" json:"error,omitempty"`              // 仅 error/cancelled 时存在
	GeneratedBy string      `bson:"generated_by,omitempty" json:"generatedBy,omitempty"` // 生成者（团队成员名称）
}

// Succeeded 是否已成功生成
func (r *ImageResult) Succeeded() bool {
	return r != nil && r.Status == ImageStatusSuccess
}

// SeriesPrompt 用户可编辑的场景描述
type SeriesPrompt struct {
	ID         string `bson:"id" json:"id"`
	Value      string `bson:"value" json:"value"`
	Variations int    `bson:"variations" json:"variations"` // 需要生成的镜头数量（>=1）
}

// VariationCount 返回有效的变体数量（非法值按 1 处理）
func (p SeriesPrompt) VariationCount() int {
	if p.Variations < 1 {
		return 1
	}
	return p.Variations
}

// TeamMember 团队成员（生成结果的署名来源）
type TeamMember struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}
