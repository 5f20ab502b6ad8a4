package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
)

// ApplyEdit 用编辑后的图片替换所有账本中的同ID条目
// 角色参考图指向旧预览图时一并替换
func (s *studioService) ApplyEdit(ctx context.Context, projectID string, input EditInput) (*studio.ImageResult, error) {
	if strings.TrimSpace(input.ImageID) == "" {
		return nil, fmt.Errorf("%w: image id is required", ErrInvalidInput)
	}
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !hasImage(sess, input.ImageID) {
		return nil, ErrImageNotFound
	}
	if sess.isRunning() {
		return nil, ErrBatchRunning
	}

	url, err := s.storeImage(ctx, projectID, "edits", input.Image)
	if err != nil {
		return nil, err
	}
	by := editedBy(attribution(sess))
	replace := func(old studio.ImageResult) studio.ImageResult {
		return studio.ImageResult{
			ID:          old.ID,
			PromptID:    old.PromptID,
			Status:      studio.ImageStatusSuccess,
			URL:         url,
			GeneratedBy: by,
		}
	}

	var result studio.ImageResult
	err = s.exclusive(sess, func() error {
		if !hasImage(sess, input.ImageID) {
			return ErrImageNotFound
		}
		if old, ok := sess.series.Get(input.ImageID); ok {
			result = replace(old)
			sess.series.Put(result)
		}
		if old, ok := sess.ctxImage.Get(input.ImageID); ok {
			result = replace(old)
			sess.ctxImage.Put(result)
		}
		thumbs := sess.thumbnails()
		if old, ok := thumbs.Get(input.ImageID); ok {
			result = replace(old)
			thumbs.Put(result)
		}
		if char, ok := sess.roster.Get(input.ImageID); ok && char.Preview != nil {
			sess.roster.Update(input.ImageID, func(c *studio.Character) {
				oldURL := c.Preview.URL
				result = replace(*c.Preview)
				preview := result
				c.Preview = &preview
				if oldURL != "" && c.ReferenceImageURL == oldURL {
					c.ReferenceImageURL = url
				}
			})
		}
		return s.persist(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("project_id", projectID).Str("image_id", input.ImageID).Msg("image edit applied")
	return &result, nil
}

// hasImage 图片是否存在于系列、背景、缩略图或角色预览中
func hasImage(sess *session, imageID string) bool {
	if _, ok := sess.series.Get(imageID); ok {
		return true
	}
	if _, ok := sess.ctxImage.Get(imageID); ok {
		return true
	}
	if _, ok := sess.thumbnails().Get(imageID); ok {
		return true
	}
	char, ok := sess.roster.Get(imageID)
	return ok && char.Preview != nil
}
