package studio

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Project 项目实体（向导的全部持久化状态）
// 说明：JSON 字段名与导出的 .tmproj 文件保持一致，便于团队成员之间交接项目
type Project struct {
	ID string `bson:"id" json:"id"`

	CurrentStep    int            `bson:"current_step" json:"currentStep"`
	Script         string         `bson:"script" json:"script"`
	ScriptLanguage string         `bson:"script_language" json:"scriptLanguage"`
	SettingDetails *Setting       `bson:"setting_details,omitempty" json:"settingDetails"`
	ContextPrompt  string         `bson:"context_prompt" json:"contextPrompt"`
	ContextPreview *ImageResult   `bson:"context_preview,omitempty" json:"contextPreview"`
	Characters     []Character    `bson:"characters" json:"characters"`
	SeriesPrompts  []SeriesPrompt `bson:"series_prompts" json:"seriesPrompts"`

	GeneratedImages  []ImageResult `bson:"generated_images" json:"generatedImages"`
	SelectedImageIDs []string      `bson:"selected_image_ids" json:"selectedImageIds"`
	VideoPrompts     []string      `bson:"video_prompts" json:"videoPrompts"`
	ThumbnailTopic   string        `bson:"thumbnail_topic" json:"thumbnailTopic"`
	ThumbnailResults []ImageResult `bson:"thumbnail_results" json:"thumbnailResults"`

	TeamMembers     []TeamMember  `bson:"team_members" json:"teamMembers"`
	ActiveUserID    string        `bson:"active_user_id" json:"activeUserId"`
	ReferenceImages []ImageResult `bson:"reference_images" json:"referenceImages"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ActiveMember 返回当前活跃成员（不存在时返回 nil）
func (p *Project) ActiveMember() *TeamMember {
	for i := range p.TeamMembers {
		if p.TeamMembers[i].ID == p.ActiveUserID {
			return &p.TeamMembers[i]
		}
	}
	return nil
}

// Collection 返回集合名称
func (p *Project) Collection() string { return "projects" }

// EnsureIndexes 创建和维护索引
func (p *Project) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(p.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_updated_at"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// ProjectEnvelope 项目导出文件结构
type ProjectEnvelope struct {
	Metadata ProjectMetadata `json:"metadata"`
	AppState *Project        `json:"appState"`
}

// ProjectMetadata 导出元信息
type ProjectMetadata struct {
	SavedBy string    `json:"savedBy"`
	SavedAt time.Time `json:"savedAt"`
}
