package studio

import (
	"context"
	"fmt"
	"strings"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
)

// GenerateContextImage 生成背景图
// prompt 非空时先覆盖项目的背景提示词
func (s *studioService) GenerateContextImage(ctx context.Context, projectID, prompt string) (*BatchStatus, error) {
	var batch *generation.Batch
	return s.launch(ctx, projectID, batchPlan{
		name: batchContext,
		prepare: func(sess *session) (int, error) {
			if strings.TrimSpace(prompt) != "" {
				sess.with(func(p *studio.Project) { p.ContextPrompt = prompt })
			}
			var current string
			sess.with(func(p *studio.Project) { current = p.ContextPrompt })
			if strings.TrimSpace(current) == "" {
				return 0, fmt.Errorf("%w: context prompt is required", ErrInvalidInput)
			}

			batch = &generation.Batch{
				Name:        batchContext,
				Tasks:       []generation.Task{{SourceValue: current, TargetImageID: sess.contextID}},
				Ledger:      sess.ctxImage,
				Signal:      sess.signal,
				Attribution: attribution(sess),
				Executor: generation.ExecutorFunc(func(ctx context.Context, task generation.Task) (string, error) {
					return s.images.Generate(ctx, s.request(sess, task.SourceValue))
				}),
			}
			s.runner.Seed(batch)
			return len(batch.Tasks), nil
		},
		run: func(ctx context.Context, sess *session) *generation.Report {
			return s.runner.Drain(ctx, batch)
		},
	})
}

// UploadContextImage 上传背景图
func (s *studioService) UploadContextImage(ctx context.Context, projectID, image string) (*studio.ImageResult, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if sess.isRunning() {
		return nil, ErrBatchRunning
	}
	url, err := s.storeImage(ctx, projectID, "context", image)
	if err != nil {
		return nil, err
	}

	result := studio.ImageResult{
		ID:          sess.contextID,
		Status:      studio.ImageStatusSuccess,
		URL:         url,
		GeneratedBy: uploadedBy(attribution(sess)),
	}
	err = s.exclusive(sess, func() error {
		sess.ctxImage.Put(result)
		return s.persist(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// request 组装一次图片生成请求（背景设定、风格参考图、语言取自项目）
func (s *studioService) request(sess *session, instruction string) generation.GenerateRequest {
	req := generation.GenerateRequest{
		ProjectID:       sess.id,
		Instruction:     instruction,
		StyleReferences: sess.styleReferences(),
	}
	sess.with(func(p *studio.Project) {
		if p.SettingDetails != nil {
			setting := *p.SettingDetails
			req.Setting = &setting
		}
		req.Language = p.ScriptLanguage
	})
	return req
}

func (s *studioService) contextPromptOf(sess *session) string {
	var out string
	sess.with(func(p *studio.Project) { out = p.ContextPrompt })
	return out
}
