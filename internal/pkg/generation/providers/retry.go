package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"tmmedia/internal/pkg/generation"
)

const (
	defaultMaxAttempts = 2
	retryBackoff       = 500 * time.Millisecond

	fallbackRewritePrefix = "A cinematic, hyper-detailed photograph of: "
	minRewriteLength      = 10
)

// RetryingGenerator 单次生成调用内部的重试装饰器
// 非配额错误时先改写提示词再重试；配额错误立即返回，交给 Runner 终止批次
type RetryingGenerator struct {
	next        generation.Generator
	text        generation.TextProvider
	maxAttempts int
	backoff     time.Duration
}

// NewRetryingGenerator 创建重试装饰器，maxAttempts 包含首次调用
func NewRetryingGenerator(next generation.Generator, text generation.TextProvider, maxAttempts int) *RetryingGenerator {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &RetryingGenerator{
		next:        next,
		text:        text,
		maxAttempts: maxAttempts,
		backoff:     retryBackoff,
	}
}

// WithBackoff 设置两次尝试之间的间隔（单测使用）
func (g *RetryingGenerator) WithBackoff(d time.Duration) *RetryingGenerator {
	if d <= 0 {
		d = time.Millisecond
	}
	g.backoff = d
	return g
}

// Generate 实现 generation.Generator
func (g *RetryingGenerator) Generate(ctx context.Context, req generation.GenerateRequest) (string, error) {
	return g.do(ctx, req, g.next.Generate)
}

// GenerateWithEntityReferences 实现 generation.Generator
func (g *RetryingGenerator) GenerateWithEntityReferences(ctx context.Context, req generation.GenerateRequest, entities []generation.EntityReference) (string, error) {
	return g.do(ctx, req, func(ctx context.Context, r generation.GenerateRequest) (string, error) {
		return g.next.GenerateWithEntityReferences(ctx, r, entities)
	})
}

func (g *RetryingGenerator) do(ctx context.Context, req generation.GenerateRequest, call func(context.Context, generation.GenerateRequest) (string, error)) (string, error) {
	var (
		url     string
		attempt int
		current = req
	)

	backoff := retry.WithMaxRetries(uint64(g.maxAttempts-1), retry.NewConstant(g.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			current.Instruction = RewritePrompt(ctx, g.text, req.Instruction, req.Language)
		}

		out, err := call(ctx, current)
		if err == nil {
			url = out
			return nil
		}
		if generation.IsQuotaError(err) || ctx.Err() != nil {
			return err
		}

		log.Warn().
			Err(err).
			Str("project_id", req.ProjectID).
			Int("attempt", attempt).
			Int("max_attempts", g.maxAttempts).
			Msg("image generation attempt failed")
		return retry.RetryableError(err)
	})
	if err != nil {
		if generation.IsQuotaError(err) {
			return "", err
		}
		return "", fmt.Errorf("generate image: %w", err)
	}
	return url, nil
}

// RewritePrompt 让文本模型改写失败的提示词
// 改写失败、结果过短或与原文相同时使用固定的兜底写法
func RewritePrompt(ctx context.Context, text generation.TextProvider, original, language string) string {
	fallback := fallbackRewritePrefix + original
	if text == nil {
		return fallback
	}

	if language == "" {
		language = "Vietnamese"
	}
	instruction := fmt.Sprintf(rewriteTemplate, language, original)

	out, err := text.Generate(ctx, instruction)
	if err != nil {
		log.Warn().Err(err).Msg("rewrite prompt failed, using fallback")
		return fallback
	}

	rewritten := strings.Trim(strings.TrimSpace(out), `"`)
	if len(rewritten) <= minRewriteLength || rewritten == original {
		return fallback
	}

	log.Debug().Str("original", original).Str("rewritten", rewritten).Msg("prompt rewritten")
	return rewritten
}

const rewriteTemplate = `You are a prompt engineer. The following image generation prompt has failed. Rewrite it in %s to be more descriptive, clear, and specific. The new prompt should have a higher chance of generating a successful image while preserving the original intent.

Original prompt: "%s"

Return only the rewritten prompt, without any explanations, quotation marks, or extra formatting.`
