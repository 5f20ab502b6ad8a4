package studio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/id"
	"tmmedia/internal/pkg/storage"
)

const defaultMemberName = "Thành viên 1"

// CreateProject 创建项目
func (s *studioService) CreateProject(ctx context.Context, req CreateProjectRequest) (*ProjectView, error) {
	name := strings.TrimSpace(req.MemberName)
	if name == "" {
		name = defaultMemberName
	}
	language := req.Language
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	member := studio.TeamMember{ID: id.New(), Name: name}
	project := &studio.Project{
		ID:             id.New(),
		CurrentStep:    studio.MinStep,
		Script:         req.Script,
		ScriptLanguage: language,
		TeamMembers:    []studio.TeamMember{member},
		ActiveUserID:   member.ID,
	}

	sess, err := s.register(ctx, project)
	if err != nil {
		return nil, err
	}
	log.Info().Str("project_id", project.ID).Str("member", name).Msg("project created")
	return sess.view(), nil
}

// SetStep 跳转向导步骤
func (s *studioService) SetStep(ctx context.Context, projectID string, step int) (int, error) {
	step = clampStep(step)
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		sess.with(func(p *studio.Project) { p.CurrentStep = step })
		return nil
	})
	if err != nil {
		return 0, err
	}
	return step, nil
}

func clampStep(step int) int {
	if step < studio.MinStep {
		return studio.MinStep
	}
	if step > studio.MaxStep {
		return studio.MaxStep
	}
	return step
}

// AddMember 添加团队成员
func (s *studioService) AddMember(ctx context.Context, projectID, name string) (*studio.TeamMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	member := studio.TeamMember{ID: id.New(), Name: name}
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		sess.with(func(p *studio.Project) { p.TeamMembers = append(p.TeamMembers, member) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember 删除团队成员
func (s *studioService) RemoveMember(ctx context.Context, projectID, memberID string) error {
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		var err error
		sess.with(func(p *studio.Project) {
			idx := memberIndex(p.TeamMembers, memberID)
			switch {
			case idx < 0:
				err = ErrMemberNotFound
			case len(p.TeamMembers) == 1:
				err = ErrLastMember
			default:
				p.TeamMembers = append(p.TeamMembers[:idx], p.TeamMembers[idx+1:]...)
				if p.ActiveUserID == memberID {
					p.ActiveUserID = p.TeamMembers[0].ID
				}
			}
		})
		return err
	})
	return err
}

// SetActiveMember 切换当前操作者
func (s *studioService) SetActiveMember(ctx context.Context, projectID, memberID string) error {
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		var err error
		sess.with(func(p *studio.Project) {
			if memberIndex(p.TeamMembers, memberID) < 0 {
				err = ErrMemberNotFound
				return
			}
			p.ActiveUserID = memberID
		})
		return err
	})
	return err
}

func memberIndex(members []studio.TeamMember, memberID string) int {
	for i := range members {
		if members[i].ID == memberID {
			return i
		}
	}
	return -1
}

// AddReferenceImage 上传风格参考图
func (s *studioService) AddReferenceImage(ctx context.Context, projectID, image string) (*studio.ImageResult, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	url, err := s.storeImage(ctx, projectID, "references", image)
	if err != nil {
		return nil, err
	}

	ref := studio.ImageResult{
		ID:          id.NewWithPrefix("ref"),
		Status:      studio.ImageStatusSuccess,
		URL:         url,
		GeneratedBy: uploadedBy(attribution(sess)),
	}
	sess.with(func(p *studio.Project) { p.ReferenceImages = append(p.ReferenceImages, ref) })
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return &ref, nil
}

// DeleteReferenceImage 删除风格参考图
func (s *studioService) DeleteReferenceImage(ctx context.Context, projectID, refID string) error {
	_, err := s.mutate(ctx, projectID, func(sess *session) error {
		found := false
		sess.with(func(p *studio.Project) {
			kept := p.ReferenceImages[:0]
			for _, r := range p.ReferenceImages {
				if r.ID == refID {
					found = true
					continue
				}
				kept = append(kept, r)
			}
			p.ReferenceImages = kept
		})
		if !found {
			return ErrImageNotFound
		}
		return nil
	})
	return err
}

// storeImage 保存上传的图片，http(s) 地址原样返回
func (s *studioService) storeImage(ctx context.Context, projectID, folder, image string) (string, error) {
	image = strings.TrimSpace(image)
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image, nil
	}

	data, contentType, err := storage.DecodeDataURL(image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	key := fmt.Sprintf("projects/%s/%s/%s%s", projectID, folder, id.New(), storage.ExtensionFor(contentType))
	url, err := s.store.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

func uploadedBy(name string) string {
	return "Uploaded by " + name
}

func editedBy(name string) string {
	return "Edited by " + name
}

func summarize(p *studio.Project) ProjectSummary {
	preview := strings.TrimSpace(p.Script)
	if utf8.RuneCountInString(preview) > scriptPreviewRunes {
		preview = string([]rune(preview)[:scriptPreviewRunes]) + "..."
	}
	return ProjectSummary{
		ID:            p.ID,
		CurrentStep:   p.CurrentStep,
		ScriptPreview: preview,
		Language:      p.ScriptLanguage,
		Characters:    len(p.Characters),
		Images:        len(p.GeneratedImages),
		UpdatedAt:     p.UpdatedAt,
	}
}
