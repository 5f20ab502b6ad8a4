package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
)

// ErrCharacterNotFound 角色不存在
var ErrCharacterNotFound = errors.New("character not found")

// CharacterExecutor 为单个角色生成预览图，返回图片URL
type CharacterExecutor interface {
	ExecuteCharacter(ctx context.Context, c studio.Character) (string, error)
}

// CharacterExecutorFunc 函数形式的 CharacterExecutor
type CharacterExecutorFunc func(ctx context.Context, c studio.Character) (string, error)

// ExecuteCharacter 实现 CharacterExecutor
func (f CharacterExecutorFunc) ExecuteCharacter(ctx context.Context, c studio.Character) (string, error) {
	return f(ctx, c)
}

// CharacterBatch 角色预览批次
type CharacterBatch struct {
	Roster      *Roster
	Executor    CharacterExecutor
	Signal      *Signal
	Attribution string
}

// RunCharacters 为所有尚无成功预览的角色依次生成预览图
// 说明：与系列图片共用 Sequence 的停止、配额与节流语义；
// 每个角色在轮到它时才进入 generating 状态
func (r *Runner) RunCharacters(ctx context.Context, b *CharacterBatch) *Report {
	ids := b.Roster.WithoutSuccessPreview()
	report := &Report{Total: len(ids)}
	if len(ids) == 0 {
		return report
	}

	start := time.Now()
	log.Info().Int("characters", len(ids)).Msg("character preview batch started")

	step := func(ctx context.Context, i int) error {
		err := r.GenerateCharacter(ctx, b.Roster, ids[i], b.Executor, b.Attribution)
		switch {
		case err == nil:
			report.Succeeded++
		case errors.Is(err, ErrCharacterNotFound):
			// 批次进行中被删除的角色直接跳过
			return nil
		default:
			report.Failed++
			report.LastError = errorMessage(err)
		}
		return err
	}

	cancel := func(from int, reason string) {
		for _, id := range ids[from:] {
			if b.Roster.CancelPreview(id, reason) {
				report.Cancelled++
			}
		}
	}

	out := r.Sequence(ctx, b.Signal, len(ids), step, cancel)
	report.Stopped = out.Stopped
	report.QuotaExceeded = out.QuotaExceeded

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("cancelled", report.Cancelled).
		Bool("quota_exceeded", report.QuotaExceeded).
		Dur("elapsed", time.Since(start)).
		Msg("character preview batch finished")

	return report
}

// GenerateCharacter 为单个角色生成预览图并写回列表，返回生成错误
func (r *Runner) GenerateCharacter(ctx context.Context, roster *Roster, id string, exec CharacterExecutor, attribution string) error {
	c, ok := roster.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
	}

	roster.SetPreview(id, studio.ImageResult{Status: studio.ImageStatusGenerating})

	url, err := exec.ExecuteCharacter(ctx, c)
	if err != nil {
		roster.SetPreview(id, studio.ImageResult{Status: studio.ImageStatusError, Error: errorMessage(err)})
		log.Error().Err(err).Str("character_id", id).Str("name", c.Name).Msg("character preview failed")
		return err
	}

	roster.SetPreview(id, studio.ImageResult{Status: studio.ImageStatusSuccess, URL: url, GeneratedBy: attribution})
	return nil
}
