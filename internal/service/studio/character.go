package studio

import (
	"context"
	"errors"
	"fmt"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/generation/providers"
	"tmmedia/internal/pkg/id"
)

// AddCharacter 添加角色
func (s *studioService) AddCharacter(ctx context.Context, projectID string, input CharacterInput) (*studio.Character, error) {
	var c studio.Character
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		c = studio.Character{ID: id.New(), Name: newCharacterName(sess.language())}
		input.apply(&c)
		sess.roster.Add(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCharacter 修改角色档案
func (s *studioService) UpdateCharacter(ctx context.Context, projectID, charID string, input CharacterInput) (*studio.Character, error) {
	var out studio.Character
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		ok := sess.roster.Update(charID, func(c *studio.Character) {
			input.apply(c)
			out = *c
		})
		if !ok {
			return ErrCharacterNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCharacter 删除角色
func (s *studioService) RemoveCharacter(ctx context.Context, projectID, charID string) error {
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		if _, ok := sess.roster.Get(charID); !ok {
			return ErrCharacterNotFound
		}
		if sess.roster.Len() <= 1 {
			return ErrLastCharacter
		}
		sess.roster.Remove(charID)
		return nil
	})
	return err
}

// UploadCharacterImage 上传角色图片，同时设为参考图
func (s *studioService) UploadCharacterImage(ctx context.Context, projectID, charID, image string) (*studio.Character, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, ok := sess.roster.Get(charID); !ok {
		return nil, ErrCharacterNotFound
	}
	if sess.isRunning() {
		return nil, ErrBatchRunning
	}
	url, err := s.storeImage(ctx, projectID, "characters", image)
	if err != nil {
		return nil, err
	}

	by := uploadedBy(attribution(sess))
	err = s.exclusive(sess, func() error {
		ok := sess.roster.Update(charID, func(c *studio.Character) {
			c.Preview = &studio.ImageResult{ID: charID, Status: studio.ImageStatusSuccess, URL: url, GeneratedBy: by}
			c.ReferenceImageURL = url
		})
		if !ok {
			return ErrCharacterNotFound
		}
		return s.persist(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	c, _ := sess.roster.Get(charID)
	return &c, nil
}

// SetCharacterReference 设置角色参考图，空地址表示清除
func (s *studioService) SetCharacterReference(ctx context.Context, projectID, charID, imageURL string) (*studio.Character, error) {
	var out studio.Character
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		ok := sess.roster.Update(charID, func(c *studio.Character) {
			c.ReferenceImageURL = imageURL
			out = *c
		})
		if !ok {
			return ErrCharacterNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCharacterPreview 重新生成单个角色的预览图
func (s *studioService) GenerateCharacterPreview(ctx context.Context, projectID, charID string) (*BatchStatus, error) {
	return s.launch(ctx, projectID, batchPlan{
		name: batchCharacter,
		prepare: func(sess *session) (int, error) {
			if _, ok := sess.roster.Get(charID); !ok {
				return 0, ErrCharacterNotFound
			}
			sess.roster.SetPreview(charID, studio.ImageResult{Status: studio.ImageStatusGenerating})
			return 1, nil
		},
		run: func(ctx context.Context, sess *session) *generation.Report {
			report := &generation.Report{Total: 1}
			exec := s.characterExecutor(sess)
			by := attribution(sess)

			step := func(ctx context.Context, _ int) error {
				err := s.runner.GenerateCharacter(ctx, sess.roster, charID, exec, by)
				switch {
				case err == nil:
					report.Succeeded++
				case errors.Is(err, generation.ErrCharacterNotFound):
					return nil
				default:
					report.Failed++
					report.LastError = err.Error()
				}
				return err
			}
			cancel := func(from int, reason string) {
				if from == 0 && sess.roster.CancelPreview(charID, reason) {
					report.Cancelled++
				}
			}

			out := s.runner.Sequence(ctx, sess.signal, 1, step, cancel)
			report.Stopped = out.Stopped
			report.QuotaExceeded = out.QuotaExceeded
			return report
		},
	})
}

// GenerateAllCharacterPreviews 依次为尚无成功预览的角色生成预览图
func (s *studioService) GenerateAllCharacterPreviews(ctx context.Context, projectID string) (*BatchStatus, error) {
	return s.launch(ctx, projectID, batchPlan{
		name: batchCharacters,
		prepare: func(sess *session) (int, error) {
			return len(sess.roster.WithoutSuccessPreview()), nil
		},
		run: func(ctx context.Context, sess *session) *generation.Report {
			return s.runner.RunCharacters(ctx, &generation.CharacterBatch{
				Roster:      sess.roster,
				Executor:    s.characterExecutor(sess),
				Signal:      sess.signal,
				Attribution: attribution(sess),
			})
		},
	})
}

// characterExecutor 角色预览指令：外观描述加背景提示词
func (s *studioService) characterExecutor(sess *session) generation.CharacterExecutor {
	return generation.CharacterExecutorFunc(func(ctx context.Context, c studio.Character) (string, error) {
		instruction := withContext(c.AppearanceAndBehavior, s.contextPromptOf(sess), sess.language())
		if instruction == "" {
			return "", fmt.Errorf("character %q has no appearance description", c.Name)
		}
		return s.images.Generate(ctx, s.request(sess, instruction))
	})
}

// entities 角色参考实体（生成器只使用指令中提到且带参考图的角色）
func entities(sess *session) []generation.EntityReference {
	chars := sess.roster.Snapshot()
	out := make([]generation.EntityReference, 0, len(chars))
	for _, c := range chars {
		out = append(out, generation.EntityReference{Name: c.Name, ImageURL: c.ReferenceImageURL})
	}
	return out
}

func newCharacterName(language string) string {
	if providers.IsVietnamese(language) {
		return "Nhân vật mới"
	}
	return "New character"
}

func (in CharacterInput) apply(c *studio.Character) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.IsMain != nil {
		c.IsMain = *in.IsMain
	}
	if in.Goal != nil {
		c.Goal = *in.Goal
	}
	if in.Motivation != nil {
		c.Motivation = *in.Motivation
	}
	if in.Conflict != nil {
		c.Conflict = *in.Conflict
	}
	if in.AppearanceAndBehavior != nil {
		c.AppearanceAndBehavior = *in.AppearanceAndBehavior
	}
	if in.Backstory != nil {
		c.Backstory = *in.Backstory
	}
	if in.CharacterArc != nil {
		c.CharacterArc = *in.CharacterArc
	}
}
