package ark

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"

	"tmmedia/internal/config"
)

const (
	defaultImageModel = "doubao-seedream-4-0-250828"
	defaultImageSize  = "1280x720"
)

// ErrNoImageData 响应中没有图片数据
var ErrNoImageData = errors.New("no image data in response")

// ImageClient Ark 图片生成客户端
// 用于调用火山引擎的 Ark API 生成图片，支持传入参考图（风格参考、角色参考）
type ImageClient struct {
	client *arkruntime.Client
	model  string
	size   string
}

// NewImageClient 创建 Ark 图片生成客户端
func NewImageClient(cfg *config.ArkConfig) (*ImageClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ARK_API_KEY is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	size := cfg.ImageSize
	if size == "" {
		size = defaultImageSize
	}

	return &ImageClient{
		client: arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL)),
		model:  imageModel,
		size:   size,
	}, nil
}

// GenerateImage 生成一张图片，返回解码后的图片字节
// references 为参考图地址（http(s) 或 data URL），为空时为纯文生图
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string, references []string) ([]byte, error) {
	input := model.GenerateImagesRequest{
		Model:          c.model,
		Prompt:         prompt,
		Size:           volcengine.String(c.size),
		ResponseFormat: volcengine.String("b64_json"),
		Watermark:      volcengine.Bool(false),
	}
	switch len(references) {
	case 0:
	case 1:
		input.Image = references[0]
	default:
		input.Image = references
	}

	output, err := c.client.GenerateImages(ctx, input)
	if err != nil {
		log.Error().Err(err).Int("references", len(references)).Msg("failed to call Ark GenerateImages API")
		return nil, fmt.Errorf("Ark GenerateImages API call failed: %w", err)
	}
	if output.Error != nil {
		return nil, fmt.Errorf("Ark GenerateImages error %s: %s", output.Error.Code, output.Error.Message)
	}

	if len(output.Data) == 0 {
		return nil, ErrNoImageData
	}
	firstImage := output.Data[0]
	if firstImage.B64Json == nil {
		return nil, ErrNoImageData
	}

	imageData, err := base64.StdEncoding.DecodeString(*firstImage.B64Json)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}

	return imageData, nil
}
