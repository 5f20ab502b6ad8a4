package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/id"
	"tmmedia/internal/pkg/storage"
)

// maxReferenceImages 单次请求可携带的参考图上限
const maxReferenceImages = 10

// ImageClient 图片生成客户端（由 ark.ImageClient 实现）
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, references []string) ([]byte, error)
}

// ArkImageGenerator 基于 Ark 的图片生成提供者
// 适配层：拼接风格指令与参考图，调用 ark.ImageClient，并把结果写入存储
type ArkImageGenerator struct {
	client ImageClient
	store  storage.Storage
}

// NewArkImageGenerator 创建 Ark 图片生成提供者
func NewArkImageGenerator(client ImageClient, store storage.Storage) *ArkImageGenerator {
	return &ArkImageGenerator{
		client: client,
		store:  store,
	}
}

// Generate 按风格参考图生成图片，返回存储后的URL
func (g *ArkImageGenerator) Generate(ctx context.Context, req generation.GenerateRequest) (string, error) {
	refs := limitReferences(req.StyleReferences, maxReferenceImages)
	return g.render(ctx, req.ProjectID, styledPrompt(req, len(refs) > 0), refs)
}

// GenerateWithEntityReferences 附带实体参考图生成图片
// 只有名称出现在指令中且带参考图的实体才会被传入
func (g *ArkImageGenerator) GenerateWithEntityReferences(ctx context.Context, req generation.GenerateRequest, entities []generation.EntityReference) (string, error) {
	mentioned := MentionedEntities(req.Instruction, entities)
	if len(mentioned) == 0 {
		return g.Generate(ctx, req)
	}
	if len(mentioned) > maxReferenceImages {
		mentioned = mentioned[:maxReferenceImages]
	}

	styleRefs := limitReferences(req.StyleReferences, maxReferenceImages-len(mentioned))
	refs := make([]string, 0, len(styleRefs)+len(mentioned))
	refs = append(refs, styleRefs...)
	for _, e := range mentioned {
		refs = append(refs, e.ImageURL)
	}

	return g.render(ctx, req.ProjectID, entityPrompt(req, len(styleRefs), mentioned), refs)
}

func (g *ArkImageGenerator) render(ctx context.Context, projectID, prompt string, refs []string) (string, error) {
	data, err := g.client.GenerateImage(ctx, prompt, refs)
	if err != nil {
		return "", err
	}

	if projectID == "" {
		projectID = "shared"
	}
	key := fmt.Sprintf("projects/%s/images/%s.jpeg", projectID, id.New())
	url, err := g.store.Upload(ctx, key, bytes.NewReader(data), "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("upload generated image: %w", err)
	}

	log.Info().
		Str("project_id", projectID).
		Str("key", key).
		Int("size", len(data)).
		Int("references", len(refs)).
		Msg("Ark 图片生成成功")

	return url, nil
}

// MentionedEntities 返回名称出现在指令中（不区分大小写）且带参考图的实体
func MentionedEntities(instruction string, entities []generation.EntityReference) []generation.EntityReference {
	lower := strings.ToLower(instruction)
	var out []generation.EntityReference
	for _, e := range entities {
		name := strings.TrimSpace(e.Name)
		if name == "" || e.ImageURL == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			out = append(out, e)
		}
	}
	return out
}

func limitReferences(refs []string, max int) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if len(out) >= max {
			break
		}
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func styledPrompt(req generation.GenerateRequest, hasStyleRefs bool) string {
	var sb strings.Builder
	vi := IsVietnamese(req.Language)
	if hasStyleRefs {
		if vi {
			sb.WriteString("Phân tích phong cách (màu sắc, ánh sáng, bố cục) của các hình tham khảo được cung cấp. ")
			fmt.Fprintf(&sb, "Sau đó tạo một hình ảnh mới theo prompt sau: %q. Hình mới PHẢI khớp với phong cách tham khảo.", req.Instruction)
		} else {
			sb.WriteString("Analyze the style (color, lighting, composition) from the provided reference images. ")
			fmt.Fprintf(&sb, "Then, create a new image based on the following prompt: %q. The new image MUST match the style of the references.", req.Instruction)
		}
	} else {
		sb.WriteString(req.Instruction)
	}
	sb.WriteString("\n\n")
	sb.WriteString(StyleSuffix(req.Setting, req.Language))
	return sb.String()
}

func entityPrompt(req generation.GenerateRequest, styleRefs int, entities []generation.EntityReference) string {
	var sb strings.Builder
	if IsVietnamese(req.Language) {
		fmt.Fprintf(&sb, "**YÊU CẦU:** Phân tích kỹ các hình tham khảo PHONG CÁCH và NGOẠI HÌNH NHÂN VẬT, sau đó tạo hình ảnh mới theo prompt: %q.\n", req.Instruction)
		sb.WriteString("**QUY TẮC BẮT BUỘC:** giữ đúng phong cách của hình tham khảo phong cách; các nhân vật được nhắc tới phải giống hệt hình tham khảo của họ.\n")
		for i, e := range entities {
			fmt.Fprintf(&sb, "Hình tham khảo %d là nhân vật: %s\n", styleRefs+i+1, e.Name)
		}
	} else {
		fmt.Fprintf(&sb, "**REQUEST:** Thoroughly analyze the STYLE references and CHARACTER APPEARANCE references, then create a new image based on the following prompt: %q.\n", req.Instruction)
		sb.WriteString("**MANDATORY RULES:** strictly follow the style of the style references; mentioned characters must look exactly like their reference images.\n")
		for i, e := range entities {
			fmt.Fprintf(&sb, "Reference image %d is the character: %s\n", styleRefs+i+1, e.Name)
		}
	}
	sb.WriteString("\n")
	sb.WriteString(StyleSuffix(req.Setting, req.Language))
	return sb.String()
}
