package studio

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/id"
)

// ProceedToSeries 按剧本行创建系列提示词（每行一个场景，镜头数为 1），并进入下一步
func (s *studioService) ProceedToSeries(ctx context.Context, projectID string) ([]studio.SeriesPrompt, error) {
	var prompts []studio.SeriesPrompt
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		sess.with(func(p *studio.Project) {
			for _, line := range strings.Split(p.Script, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				prompts = append(prompts, studio.SeriesPrompt{ID: id.New(), Value: line, Variations: 1})
			}
			p.SeriesPrompts = prompts
			p.CurrentStep = clampStep(p.CurrentStep + 1)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prompts, nil
}

// UpdateSeriesPrompt 修改提示词文本或镜头数量（镜头数小于 1 时按 1 处理）
func (s *studioService) UpdateSeriesPrompt(ctx context.Context, projectID, promptID string, input SeriesPromptInput) (*studio.SeriesPrompt, error) {
	var out studio.SeriesPrompt
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		found := false
		sess.with(func(p *studio.Project) {
			for i := range p.SeriesPrompts {
				sp := &p.SeriesPrompts[i]
				if sp.ID != promptID {
					continue
				}
				if input.Value != nil {
					sp.Value = *input.Value
				}
				if input.Variations != nil {
					sp.Variations = max(*input.Variations, 1)
				}
				out = *sp
				found = true
				return
			}
		})
		if !found {
			return ErrPromptNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateSeries 全量生成
func (s *studioService) GenerateSeries(ctx context.Context, projectID string) (*BatchStatus, error) {
	return s.launchSeries(ctx, projectID, batchSeries, false, func(sess *session) ([]generation.Task, error) {
		return generation.CompileSeries(sess.prompts(), sess.series), nil
	})
}

// GeneratePromptVariations 重新生成某个提示词的全部镜头
func (s *studioService) GeneratePromptVariations(ctx context.Context, projectID, promptID string) (*BatchStatus, error) {
	return s.launchSeries(ctx, projectID, batchPrompt, false, func(sess *session) ([]generation.Task, error) {
		tasks, ok := generation.CompilePrompt(sess.prompts(), promptID)
		if !ok {
			return nil, ErrPromptNotFound
		}
		return tasks, nil
	})
}

// RegenerateSeriesImage 重新生成单张图片
func (s *studioService) RegenerateSeriesImage(ctx context.Context, projectID, imageID string) (*BatchStatus, error) {
	return s.launchSeries(ctx, projectID, batchRegenerate, false, func(sess *session) ([]generation.Task, error) {
		task, err := generation.CompileRegenerate(sess.prompts(), sess.series, imageID)
		if err != nil {
			return nil, err
		}
		return []generation.Task{task}, nil
	})
}

// RetryFailedSeriesImages 清除配额状态和提示后重试失败与取消的图片
func (s *studioService) RetryFailedSeriesImages(ctx context.Context, projectID string) (*BatchStatus, error) {
	var skipped []string
	status, err := s.launchSeries(ctx, projectID, batchRetry, true, func(sess *session) ([]generation.Task, error) {
		sess.signal.ClearQuota()
		sess.setLastError("")
		var tasks []generation.Task
		tasks, skipped = generation.CompileRetry(sess.prompts(), sess.series)
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	status.Skipped = skipped
	return status, nil
}

// launchSeries 编排系列任务并交给 Runner
func (s *studioService) launchSeries(ctx context.Context, projectID, name string, retry bool, compile func(sess *session) ([]generation.Task, error)) (*BatchStatus, error) {
	var batch *generation.Batch
	return s.launch(ctx, projectID, batchPlan{
		name:  name,
		retry: retry,
		prepare: func(sess *session) (int, error) {
			tasks, err := compile(sess)
			if err != nil {
				return 0, err
			}
			batch = &generation.Batch{
				Name:        name,
				Tasks:       tasks,
				Ledger:      sess.series,
				Executor:    s.seriesExecutor(sess),
				Signal:      sess.signal,
				Attribution: attribution(sess),
				Retry:       retry,
			}
			s.runner.Seed(batch)
			return len(tasks), nil
		},
		run: func(ctx context.Context, sess *session) *generation.Report {
			return s.runner.Drain(ctx, batch)
		},
	})
}

// seriesExecutor 系列图片指令：提示词、镜头后缀、背景提示词，附带角色参考图
func (s *studioService) seriesExecutor(sess *session) generation.Executor {
	return generation.ExecutorFunc(func(ctx context.Context, task generation.Task) (string, error) {
		value := strings.TrimSpace(task.SourceValue + " " + task.VariationSuffix)
		instruction := withContext(value, s.contextPromptOf(sess), sess.language())
		return s.images.GenerateWithEntityReferences(ctx, s.request(sess, instruction), entities(sess))
	})
}

// ToggleImageSelection 切换图片选中状态
func (s *studioService) ToggleImageSelection(ctx context.Context, projectID, imageID string) (bool, error) {
	var selected bool
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		if _, ok := sess.series.Get(imageID); !ok {
			return ErrImageNotFound
		}
		sess.with(func(p *studio.Project) {
			for i, sid := range p.SelectedImageIDs {
				if sid == imageID {
					p.SelectedImageIDs = append(p.SelectedImageIDs[:i], p.SelectedImageIDs[i+1:]...)
					return
				}
			}
			p.SelectedImageIDs = append(p.SelectedImageIDs, imageID)
			selected = true
		})
		return nil
	})
	if err != nil {
		return false, err
	}
	log.Debug().Str("project_id", projectID).Str("image_id", imageID).Bool("selected", selected).Msg("image selection toggled")
	return selected, nil
}
