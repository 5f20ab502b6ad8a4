package studio

import (
	"context"
	"fmt"
	"strings"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/id"
)

// GenerateThumbnails 生成缩略图，新的结果整体替换上一批
func (s *studioService) GenerateThumbnails(ctx context.Context, projectID, topic string) (*BatchStatus, error) {
	var batch *generation.Batch
	return s.launch(ctx, projectID, batchPlan{
		name: batchThumbnails,
		prepare: func(sess *session) (int, error) {
			topic = strings.TrimSpace(topic)
			var script string
			sess.with(func(p *studio.Project) {
				if topic == "" {
					topic = p.ThumbnailTopic
				}
				p.ThumbnailTopic = topic
				script = p.Script
			})
			if topic == "" {
				return 0, fmt.Errorf("%w: thumbnail topic is required", ErrInvalidInput)
			}

			instruction := thumbnailPrompt(topic, script, sess.roster.Snapshot(), sess.language())
			tasks := make([]generation.Task, 0, s.cfg.ThumbnailCount)
			for i := 0; i < s.cfg.ThumbnailCount; i++ {
				tasks = append(tasks, generation.Task{SourceValue: instruction, TargetImageID: id.NewWithPrefix("thumbnail")})
			}

			ledger := generation.NewLedger(nil)
			ledger.SetObserver(s.ledgerObserver(sess.id, studio.LedgerThumbnails))
			sess.mu.Lock()
			sess.thumbs = ledger
			sess.mu.Unlock()

			batch = &generation.Batch{
				Name:        batchThumbnails,
				Tasks:       tasks,
				Ledger:      ledger,
				Signal:      sess.signal,
				Attribution: attribution(sess),
				Executor: generation.ExecutorFunc(func(ctx context.Context, task generation.Task) (string, error) {
					return s.images.Generate(ctx, s.request(sess, task.SourceValue))
				}),
			}
			s.runner.Seed(batch)
			return len(tasks), nil
		},
		run: func(ctx context.Context, sess *session) *generation.Report {
			return s.runner.Drain(ctx, batch)
		},
	})
}
