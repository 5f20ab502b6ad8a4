package component

import (
	"context"
	"fmt"
	"strings"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"tmmedia/internal/config"
)

// 文本模型 Provider
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderArk    = "ark"
)

const (
	defaultArkBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
	defaultArkTextModel = "doubao-seed-1-6-flash-250615"
)

// TextModelConfig 解析后的文本模型配置
type TextModelConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Options  config.AIOptionsConfig
}

// ResolveTextModel 校验 ai 配置并补齐默认值
// provider 为 ark 时未配置的 key 和 base_url 沿用图片生成的 ark 账号
func ResolveTextModel(ai *config.AIConfig, ark *config.ArkConfig) (*TextModelConfig, error) {
	resolved := &TextModelConfig{
		Provider: strings.ToLower(strings.TrimSpace(ai.Provider)),
		APIKey:   ai.APIKey,
		Model:    ai.Model,
		BaseURL:  ai.BaseURL,
		Options:  ai.Options,
	}
	if resolved.Provider == "" {
		resolved.Provider = ProviderOpenAI
	}

	switch resolved.Provider {
	case ProviderOpenAI:
	case ProviderAzure:
		if resolved.BaseURL == "" {
			return nil, fmt.Errorf("ai.base_url is required for provider %q", resolved.Provider)
		}
	case ProviderArk:
		if ark != nil {
			if resolved.APIKey == "" {
				resolved.APIKey = ark.APIKey
			}
			if resolved.BaseURL == "" {
				resolved.BaseURL = ark.BaseURL
			}
		}
		if resolved.BaseURL == "" {
			resolved.BaseURL = defaultArkBaseURL
		}
		if resolved.Model == "" {
			resolved.Model = defaultArkTextModel
		}
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", ai.Provider)
	}

	if resolved.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required for provider %q", resolved.Provider)
	}
	// 剧本分析和提示词改写都依赖具体模型，openai/azure 没有合理的默认值
	if resolved.Model == "" {
		return nil, fmt.Errorf("ai.model is required for provider %q", resolved.Provider)
	}
	return resolved, nil
}

// NewChatModel 创建文本模型，用于语言识别、剧本分析和提示词改写
// 支持多种 Provider: openai, azure, ark
func NewChatModel(ctx context.Context, ai *config.AIConfig, ark *config.ArkConfig) (model.ChatModel, error) {
	cfg, err := ResolveTextModel(ai, ark)
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderAzure:
		return newOpenAIChatModel(ctx, cfg, true)
	case ProviderArk:
		return newArkChatModel(ctx, cfg)
	default:
		return newOpenAIChatModel(ctx, cfg, false)
	}
}

// newOpenAIChatModel 创建 OpenAI 或 Azure OpenAI ChatModel
func newOpenAIChatModel(ctx context.Context, cfg *TextModelConfig, byAzure bool) (model.ChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		ByAzure: byAzure,
	}
	modelCfg.Temperature, modelCfg.MaxTokens, modelCfg.TopP = sampling(cfg.Options)

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（使用 eino-ext 模块）
func newArkChatModel(ctx context.Context, cfg *TextModelConfig) (model.ChatModel, error) {
	modelCfg := &arkext.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	}
	modelCfg.Temperature, modelCfg.MaxTokens, modelCfg.TopP = sampling(cfg.Options)

	return arkext.NewChatModel(ctx, modelCfg)
}

// sampling 未配置的参数返回 nil，交给模型默认值
func sampling(opts config.AIOptionsConfig) (temperature *float32, maxTokens *int, topP *float32) {
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		temperature = &t
	}
	if opts.MaxTokens > 0 {
		n := opts.MaxTokens
		maxTokens = &n
	}
	if opts.TopP > 0 {
		p := float32(opts.TopP)
		topP = &p
	}
	return temperature, maxTokens, topP
}
