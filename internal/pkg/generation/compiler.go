package generation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
)

// ErrPromptNotFound 找不到图片对应的提示词
var ErrPromptNotFound = errors.New("prompt not found")

// CompileSeries 全量编排：为每个提示词的每个变体生成任务
// 已成功的条目不会被隐式重新生成；顺序为提示词存储顺序、变体序号升序
func CompileSeries(prompts []studio.SeriesPrompt, ledger *Ledger) []Task {
	tasks := make([]Task, 0, len(prompts))
	for _, p := range prompts {
		for i := 0; i < p.VariationCount(); i++ {
			if ledger != nil && ledger.HasSuccess(SeriesImageID(p.ID, i)) {
				continue
			}
			tasks = append(tasks, newSeriesTask(p, i))
		}
	}
	return tasks
}

// CompilePrompt 单提示词编排：总是重新生成该提示词的全部变体
// 提示词不存在时返回空列表和 false
func CompilePrompt(prompts []studio.SeriesPrompt, promptID string) ([]Task, bool) {
	p, ok := findPrompt(prompts, promptID)
	if !ok {
		return nil, false
	}

	tasks := make([]Task, 0, p.VariationCount())
	for i := 0; i < p.VariationCount(); i++ {
		tasks = append(tasks, newSeriesTask(p, i))
	}
	return tasks, true
}

// CompileRegenerate 针对单张图片重新编排
func CompileRegenerate(prompts []studio.SeriesPrompt, ledger *Ledger, imageID string) (Task, error) {
	image, ok := ledger.Get(imageID)
	if !ok || image.PromptID == "" {
		return Task{}, fmt.Errorf("%w: no prompt info for image %s", ErrPromptNotFound, imageID)
	}

	p, ok := findPrompt(prompts, image.PromptID)
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrPromptNotFound, image.PromptID)
	}

	return retaskFor(p, imageID), nil
}

// CompileRetry 扫描账本中 error/cancelled 的条目并还原为等价任务
// 无法找到原提示词的条目会被跳过，其ID通过 skipped 返回
func CompileRetry(prompts []studio.SeriesPrompt, ledger *Ledger) (tasks []Task, skipped []string) {
	for _, image := range ledger.Retryable() {
		p, ok := findPrompt(prompts, image.PromptID)
		if !ok {
			log.Warn().
				Str("image_id", image.ID).
				Str("prompt_id", image.PromptID).
				Msg("retry skipped: prompt not found")
			skipped = append(skipped, image.ID)
			continue
		}
		tasks = append(tasks, retaskFor(p, image.ID))
	}
	return tasks, skipped
}

// retaskFor 为已有图片ID重建任务，变体序号从ID中解析
func retaskFor(p studio.SeriesPrompt, imageID string) Task {
	index := ParseVariationIndex(imageID)
	return Task{
		PromptID:        p.ID,
		SourceValue:     p.Value,
		TargetImageID:   imageID,
		VariationSuffix: VariationSuffix(index, p.VariationCount()),
	}
}

func findPrompt(prompts []studio.SeriesPrompt, id string) (studio.SeriesPrompt, bool) {
	for _, p := range prompts {
		if p.ID == id {
			return p, true
		}
	}
	return studio.SeriesPrompt{}, false
}
