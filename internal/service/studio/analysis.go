package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/id"
)

// extraction 剧本分析的模型输出
type extraction struct {
	Setting    studio.Setting       `json:"setting"`
	Characters []extractedCharacter `json:"characters"`
}

type extractedCharacter struct {
	Name                  string   `json:"name"`
	IsMain                flexBool `json:"isMain"`
	Goal                  string   `json:"goal"`
	Motivation            string   `json:"motivation"`
	Conflict              string   `json:"conflict"`
	AppearanceAndBehavior string   `json:"appearanceAndBehavior"`
	Backstory             string   `json:"backstory"`
	CharacterArc          string   `json:"characterArc"`
}

// flexBool 兼容模型返回的 true 与 "true"
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.ToLower(string(data)), `"`)
	*b = flexBool(s == "true")
	return nil
}

// AnalyzeScript 识别语言并提取背景设定与角色
func (s *studioService) AnalyzeScript(ctx context.Context, projectID, script string) (*AnalysisResult, error) {
	sess, err := s.session(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if sess.signal.QuotaExceeded() {
		return nil, ErrQuotaExceeded
	}

	release, err := s.claim(ctx, sess, batchAnalysis)
	if err != nil {
		return nil, err
	}
	defer release()

	if strings.TrimSpace(script) != "" {
		sess.with(func(p *studio.Project) { p.Script = script })
	}
	sess.with(func(p *studio.Project) { script = p.Script })
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("%w: script is required", ErrInvalidInput)
	}
	sess.setLastError("")

	result, err := s.analyze(ctx, script)
	if err != nil {
		if generation.IsQuotaError(err) {
			sess.signal.MarkQuotaExceeded()
			sess.setLastError(generation.QuotaAdvisory)
		} else {
			sess.setLastError(err.Error())
		}
		sess.with(func(p *studio.Project) { p.SettingDetails = nil })
		for _, c := range sess.roster.Snapshot() {
			sess.roster.Remove(c.ID)
		}
		if perr := s.persist(ctx, sess); perr != nil {
			log.Error().Err(perr).Str("project_id", projectID).Msg("save project after failed analysis failed")
		}
		return nil, err
	}

	for _, c := range sess.roster.Snapshot() {
		sess.roster.Remove(c.ID)
	}
	for _, c := range result.Characters {
		sess.roster.Add(c)
	}
	sess.with(func(p *studio.Project) {
		p.ScriptLanguage = result.Language
		p.SettingDetails = result.Setting
		p.ContextPrompt = result.ContextPrompt
		p.CurrentStep = result.CurrentStep
	})
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().
		Str("project_id", projectID).
		Str("language", result.Language).
		Int("characters", len(result.Characters)).
		Msg("script analyzed")
	return result, nil
}

func (s *studioService) analyze(ctx context.Context, script string) (*AnalysisResult, error) {
	language, err := s.detectLanguage(ctx, script)
	if err != nil {
		return nil, err
	}

	answer, err := s.text.Generate(ctx, extractPrompt(script, language))
	if err != nil {
		return nil, fmt.Errorf("extract script details: %w", err)
	}

	var out extraction
	if err := json.Unmarshal([]byte(stripJSONFence(answer)), &out); err != nil {
		return nil, fmt.Errorf("parse script details: %w", err)
	}

	chars := make([]studio.Character, 0, len(out.Characters))
	for _, c := range out.Characters {
		chars = append(chars, studio.Character{
			ID:                    id.New(),
			Name:                  c.Name,
			IsMain:                bool(c.IsMain),
			Goal:                  c.Goal,
			Motivation:            c.Motivation,
			Conflict:              c.Conflict,
			AppearanceAndBehavior: c.AppearanceAndBehavior,
			Backstory:             c.Backstory,
			CharacterArc:          c.CharacterArc,
		})
	}

	setting := out.Setting
	return &AnalysisResult{
		Language:      language,
		Setting:       &setting,
		ContextPrompt: contextPrompt(&setting, language),
		Characters:    chars,
		CurrentStep:   stepContext,
	}, nil
}

// detectLanguage 剧本过短时使用默认语言；识别失败按越南语处理，配额错误向上返回
func (s *studioService) detectLanguage(ctx context.Context, script string) (string, error) {
	if len([]rune(strings.TrimSpace(script))) < minDetectLength {
		return s.cfg.DefaultLanguage, nil
	}
	answer, err := s.text.Generate(ctx, detectLanguagePrompt(script))
	if err != nil {
		if generation.IsQuotaError(err) {
			return "", err
		}
		log.Warn().Err(err).Msg("detect script language failed, using Vietnamese")
		return LanguageVietnamese, nil
	}
	return parseLanguage(answer), nil
}
