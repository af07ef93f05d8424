package domain

import (
	"context"
	"math"
	"time"
)

type EvaluationType string

const (
	EvalGeneral   EvaluationType = "general"
	EvalTechnical EvaluationType = "technical"
	EvalCultural  EvaluationType = "cultural"
	EvalInterview EvaluationType = "interview"
)

func (t EvaluationType) Valid() bool {
	switch t {
	case EvalGeneral, EvalTechnical, EvalCultural, EvalInterview:
		return true
	}
	return false
}

type Evaluation struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	CandidateID string         `gorm:"size:36;index" json:"candidateId"`
	EvaluatorID *string        `gorm:"size:36" json:"evaluatorId"`
	Type        EvaluationType `gorm:"size:16" json:"type"`
	Score       float64        `json:"score"`
	Feedback    string         `gorm:"type:text" json:"feedback"`
	Stage       string         `gorm:"size:64" json:"stage"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (Evaluation) TableName() string { return "evaluations" }

type EvaluationRepository interface {
	Create(ctx context.Context, e *Evaluation) error
	ListByCandidate(ctx context.Context, candidateID string) ([]Evaluation, error)
	DeleteByCandidates(ctx context.Context, candidateIDs []string) error
}

// AverageScore 平均分保留一位小数；无评估时 ok=false
func AverageScore(evals []Evaluation) (avg float64, ok bool) {
	if len(evals) == 0 {
		return 0, false
	}
	var sum float64
	for _, e := range evals {
		sum += e.Score
	}
	return Round1(sum / float64(len(evals))), true
}

func Round1(v float64) float64 { return math.Round(v*10) / 10 }
