package studio

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
)

// scene 视频提示词的输入：场景描述及其关键帧
type scene struct {
	value    string
	imageURL string
}

// GenerateVideoPrompts 为每个已有成功图片的场景依次生成视频提示词
func (s *studioService) GenerateVideoPrompts(ctx context.Context, projectID string) (*BatchStatus, error) {
	var scenes []scene
	return s.launch(ctx, projectID, batchPlan{
		name: batchVideoPrompts,
		prepare: func(sess *session) (int, error) {
			for _, p := range sess.prompts() {
				if img, ok := sess.series.FirstSuccessFor(p.ID); ok {
					scenes = append(scenes, scene{value: p.Value, imageURL: img.URL})
				}
			}
			if len(scenes) == 0 {
				return 0, ErrNothingToDo
			}
			sess.with(func(p *studio.Project) { p.VideoPrompts = nil })
			return len(scenes), nil
		},
		run: func(ctx context.Context, sess *session) *generation.Report {
			return s.runVideoPrompts(ctx, sess, scenes)
		},
	})
}

func (s *studioService) runVideoPrompts(ctx context.Context, sess *session, scenes []scene) *generation.Report {
	var script string
	sess.with(func(p *studio.Project) { script = p.Script })
	language := sess.language()
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	summary, err := s.text.Generate(ctx, summaryPrompt(script, language))
	summary = strings.TrimSpace(summary)
	if err != nil || summary == "" {
		log.Warn().Err(err).Str("project_id", sess.id).Msg("summarize script failed, using script excerpt")
		summary = summaryFallbackText(script)
	}

	var mains []studio.Character
	for _, c := range sess.roster.Snapshot() {
		if c.IsMain {
			mains = append(mains, c)
		}
	}

	report := &generation.Report{Total: len(scenes)}
	step := func(ctx context.Context, i int) error {
		sc := scenes[i]
		text, err := s.vision.DescribeImage(ctx, videoPrompt(sc.value, summary, mains, language), sc.imageURL)
		text = strings.TrimSpace(text)
		if err != nil || text == "" {
			if generation.IsQuotaError(err) {
				report.Failed++
				report.LastError = err.Error()
				return err
			}
			log.Warn().Err(err).Str("project_id", sess.id).Int("scene", i).Msg("video prompt failed, using generic prompt")
			text = videoFallback(sc.value, language)
		}

		sess.with(func(p *studio.Project) { p.VideoPrompts = append(p.VideoPrompts, text) })
		report.Succeeded++
		s.publish(sess.id, LedgerEvent{Type: EventVideoPrompt, Ledger: studio.LedgerVideo, VideoPrompt: text})
		return nil
	}
	cancel := func(from int, _ string) {
		report.Cancelled += len(scenes) - from
	}

	out := s.runner.Sequence(ctx, sess.signal, len(scenes), step, cancel)
	report.Stopped = out.Stopped
	report.QuotaExceeded = out.QuotaExceeded
	return report
}

// VideoPromptsText 导出视频提示词（每行一条）
func (s *studioService) VideoPromptsText(ctx context.Context, projectID string) (string, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return "", err
	}
	var prompts []string
	sess.with(func(p *studio.Project) { prompts = append(prompts, p.VideoPrompts...) })
	if len(prompts) == 0 {
		return "", ErrNothingToDo
	}
	return strings.Join(prompts, "\n"), nil
}
