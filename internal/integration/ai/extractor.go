package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
)

// Model 文本生成后端（Gemini / OpenAI）
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Extractor 简历 -> CandidateProfile
type Extractor struct {
	model Model
	log   *zap.Logger
}

func NewExtractor(m Model, log *zap.Logger) *Extractor {
	return &Extractor{model: m, log: log}
}

func (e *Extractor) ExtractProfile(ctx context.Context, fileName string, data []byte) (*domain.CandidateProfile, error) {
	text, err := ExtractText(fileName, data)
	if err != nil {
		return nil, err
	}
	resp, err := e.model.Generate(ctx, buildPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}
	p, err := parseProfile(resp)
	if err != nil {
		e.log.Warn("unparseable model output", zap.String("model", e.model.Name()), zap.Int("len", len(resp)))
		return nil, err
	}
	return p, nil
}
