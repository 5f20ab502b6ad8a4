package providers

import (
	"context"
	"fmt"
	"strings"

	"tmmedia/internal/pkg/ark"
)

// ArkProvider Ark 实现的文本与图片理解提供者（使用 pkg/ark 的 Client）
// 实现了 generation.TextProvider 和 generation.VisionProvider 接口
// 注意：纯文本场景推荐使用 EinoProvider，视频提示词需要看图，走这里
type ArkProvider struct {
	client *ark.Client
}

// NewArkProvider 创建基于 Ark 的提供者
//
// Args:
//   - client: Ark 客户端实例（通过 ark.NewClient 创建）
func NewArkProvider(client *ark.Client) *ArkProvider {
	return &ArkProvider{
		client: client,
	}
}

// Generate 根据提示词生成文本
func (p *ArkProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("ark client is required")
	}
	return p.client.Generate(ctx, prompt)
}

// DescribeImage 结合图片生成文本
func (p *ArkProvider) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("ark client is required")
	}
	if strings.TrimSpace(imageURL) == "" {
		return "", fmt.Errorf("image url is required")
	}
	return p.client.DescribeImage(ctx, prompt, imageURL)
}
