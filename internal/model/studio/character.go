package studio

// Character 角色档案
// 说明：每个角色持有一个单例预览图（preview.id == 角色 id），以及可选的参考图，
// 参考图用于在后续的系列图片中保持外观一致
type Character struct {
	ID                    string       `bson:"id" json:"id"`
	Name                  string       `bson:"name" json:"name"`
	IsMain                bool         `bson:"is_main" json:"isMain"`
	Goal                  string       `bson:"goal" json:"goal"`
	Motivation            string       `bson:"motivation" json:"motivation"`
	Conflict              string       `bson:"conflict" json:"conflict"`
	AppearanceAndBehavior string       `bson:"appearance_and_behavior" json:"appearanceAndBehavior"`
	Backstory             string       `bson:"backstory" json:"backstory"`
	CharacterArc          string       `bson:"character_arc" json:"characterArc"`
	Preview               *ImageResult `bson:"preview,omitempty" json:"preview,omitempty"`
	ReferenceImageURL     string       `bson:"reference_image_url,omitempty" json:"referenceImageUrl,omitempty"`
}

// HasSuccessPreview 预览图是否已成功生成
func (c *Character) HasSuccessPreview() bool {
	return c.Preview.Succeeded()
}

// Setting 剧本背景设定（由剧本分析提取）
type Setting struct {
	Place         string `bson:"place" json:"place"`
	Time          string `bson:"time" json:"time"`
	Weather       string `bson:"weather" json:"weather"`
	Season        string `bson:"season" json:"season"`
	Mood          string `bson:"mood" json:"mood"`
	SocialContext string `bson:"social_context" json:"socialContext"`
	Theme         Theme  `bson:"theme" json:"theme"`
}

// Theme 主题
type Theme struct {
	CentralIdea      string `bson:"central_idea" json:"centralIdea"`
	ThematicQuestion string `bson:"thematic_question" json:"thematicQuestion"`
}
