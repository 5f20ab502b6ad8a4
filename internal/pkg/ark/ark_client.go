package ark

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"tmmedia/internal/config"
)

const (
	defaultBaseURL     = "https://ark.cn-beijing.volces.com/api/v3"
	defaultChatModel   = "doubao-seed-1-6-flash-250615"
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
)

// Client Ark 对话客户端封装
// 用于调用火山引擎的 Ark API（豆包大模型），支持纯文本与图文混合输入
// 参考: https://github.com/volcengine/volcengine-go-sdk
type Client struct {
	client *arkruntime.Client
	model  string
}

// NewClient 创建 Ark 对话客户端
// model 为空时使用默认的多模态模型
func NewClient(cfg *config.ArkConfig, model string) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Ark API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultChatModel
	}

	arkClient := arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL))

	return &Client{
		client: arkClient,
		model:  model,
	}, nil
}

// Message 消息结构
type Message struct {
	Role     string // user, assistant, system
	Content  string // 文本内容
	ImageURL string // 可选的图片地址（http(s) 或 data URL）
}

// CreateChatCompletion 创建聊天完成，返回第一个候选的文本
func (c *Client) CreateChatCompletion(ctx context.Context, messages []Message) (string, error) {
	maxTokens := defaultMaxTokens
	temperature := float32(defaultTemperature)

	input := model.CreateChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(messages),
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	output, err := c.client.CreateChatCompletion(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("failed to call Ark ChatCompletion API")
		return "", fmt.Errorf("Ark API call failed: %w", err)
	}

	if len(output.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	msg := output.Choices[0].Message
	if msg.Content == nil || msg.Content.StringValue == nil {
		return "", fmt.Errorf("empty content in response")
	}
	return *msg.Content.StringValue, nil
}

// Generate 单轮文本生成
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.CreateChatCompletion(ctx, []Message{{Role: model.ChatMessageRoleUser, Content: prompt}})
}

// DescribeImage 图文混合输入：根据 prompt 描述图片
func (c *Client) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	return c.CreateChatCompletion(ctx, []Message{{Role: model.ChatMessageRoleUser, Content: prompt, ImageURL: imageURL}})
}

// convertMessages 转换消息格式，带图片的消息使用多段内容
func convertMessages(messages []Message) []*model.ChatCompletionMessage {
	result := make([]*model.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		text := msg.Content
		content := &model.ChatCompletionMessageContent{StringValue: &text}
		if msg.ImageURL != "" {
			content = &model.ChatCompletionMessageContent{
				ListValue: []*model.ChatCompletionMessageContentPart{
					{
						Type:     model.ChatCompletionMessageContentPartTypeImageURL,
						ImageURL: &model.ChatMessageImageURL{URL: msg.ImageURL},
					},
					{
						Type: model.ChatCompletionMessageContentPartTypeText,
						Text: text,
					},
				},
			}
		}
		result[i] = &model.ChatCompletionMessage{
			Role:    msg.Role,
			Content: content,
		}
	}
	return result
}
