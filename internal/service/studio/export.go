package studio

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/id"
)

const (
	unknownSaver   = "Không rõ"
	maxProjectFile = 64 << 20
)

// ExportProject 导出项目文件（gzip 压缩的 JSON）
func (s *studioService) ExportProject(ctx context.Context, projectID string) (*ExportedProject, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}

	savedBy := attribution(sess)
	if savedBy == "" {
		savedBy = unknownSaver
	}
	now := time.Now().UTC()
	envelope := studio.ProjectEnvelope{
		Metadata: studio.ProjectMetadata{SavedBy: savedBy, SavedAt: now},
		AppState: sess.snapshot(),
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress project: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress project: %w", err)
	}

	return &ExportedProject{
		Filename: fmt.Sprintf("tm-media-project-%d.tmproj", now.UnixMilli()),
		Data:     buf.Bytes(),
	}, nil
}

// ImportProject 导入项目文件
// 支持 gzip 或纯 JSON，内容可以是导出信封，也可以直接是项目状态
func (s *studioService) ImportProject(ctx context.Context, data []byte) (*ProjectView, error) {
	raw := decompress(data)

	var probe struct {
		AppState json.RawMessage `json:"appState"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProjectFile, err)
	}
	state := raw
	if len(probe.AppState) > 0 && string(probe.AppState) != "null" {
		state = probe.AppState
	}

	var project studio.Project
	if err := json.Unmarshal(state, &project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProjectFile, err)
	}
	if project.Script == "" && project.CurrentStep == 0 {
		return nil, ErrInvalidProjectFile
	}
	s.normalizeImported(&project)

	sess, err := s.register(ctx, &project)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("project_id", project.ID).
		Int("step", project.CurrentStep).
		Int("images", len(project.GeneratedImages)).
		Msg("project imported")
	return sess.view(), nil
}

// decompress 非 gzip 内容按纯文本处理
func decompress(data []byte) []byte {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxProjectFile))
	if err != nil {
		return data
	}
	return out
}

// normalizeImported 补齐缺省字段
func (s *studioService) normalizeImported(p *studio.Project) {
	if p.ID == "" {
		p.ID = id.New()
	}
	if p.CurrentStep == 0 {
		p.CurrentStep = studio.MinStep
	}
	p.CurrentStep = clampStep(p.CurrentStep)
	if len(p.TeamMembers) == 0 {
		p.TeamMembers = []studio.TeamMember{{ID: id.New(), Name: defaultMemberName}}
	}
	if p.ActiveMember() == nil {
		p.ActiveUserID = p.TeamMembers[0].ID
	}
	if p.ScriptLanguage == "" {
		p.ScriptLanguage = LanguageVietnamese
	}
}
