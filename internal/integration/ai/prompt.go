package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/pipeline"
)

// 送进模型的简历最多这么多字符
const maxPromptChars = 24000

func buildPrompt(cv string) string {
	if r := []rune(cv); len(r) > maxPromptChars {
		cv = string(r[:maxPromptChars])
	}
	var sb strings.Builder
	sb.WriteString("Eres un analista de selección de personal. Lee el siguiente CV y extrae sus datos.\n\n")
	sb.WriteString("## CV\n")
	sb.WriteString(cv)
	sb.WriteString("\n\n## FORMATO\n")
	sb.WriteString("Responde SOLO con un objeto JSON con estas claves:\n")
	sb.WriteString(`{"name": "", "email": "", "phone": "", "location": "", "current_position": "",` + "\n")
	sb.WriteString(` "education": [""], "work_history": [""], "skills": [""], "score": <0-10>,` + "\n")
	sb.WriteString(` "suggested_stage": "", "strengths": [""], "concerns": [""], "recommendation": ""}` + "\n\n")
	sb.WriteString("suggested_stage debe ser una de: ")
	labels := make([]string, 0, 7)
	for _, s := range pipeline.Stages() {
		labels = append(labels, s.DisplayName)
	}
	sb.WriteString(strings.Join(labels, ", "))
	sb.WriteString(".\nSi un dato no aparece en el CV deja la cadena vacía.\n")
	return sb.String()
}

var errNoJSON = errors.New("no JSON object in model response")

// cleanJSON 去掉 markdown 围栏和前后多余文字
func cleanJSON(resp string) (string, error) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end < start {
		return "", errNoJSON
	}
	return resp[start : end+1], nil
}

func parseProfile(resp string) (*domain.CandidateProfile, error) {
	raw, err := cleanJSON(resp)
	if err != nil {
		return nil, err
	}
	var p domain.CandidateProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if math.IsNaN(p.Score) || p.Score < 0 {
		p.Score = 0
	}
	if p.Score > 10 {
		p.Score = 10
	}
	p.Score = math.Round(p.Score*10) / 10
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Name = strings.TrimSpace(p.Name)
	// 模型给的阶段不认识就回到初始阶段
	if st, ok := pipeline.Resolve(p.SuggestedStage); ok {
		p.SuggestedStage = st.DisplayName
	} else {
		p.SuggestedStage = pipeline.Label(pipeline.PreInterview)
	}
	return &p, nil
}
