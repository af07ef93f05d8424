package domain

import (
	"context"
	"time"
)

type CandidateStatus string

const (
	CandidatePending   CandidateStatus = "pending"
	CandidateScheduled CandidateStatus = "scheduled"
	CandidateStalled   CandidateStatus = "stalled"
	CandidateCompleted CandidateStatus = "completed"
	CandidateRejected  CandidateStatus = "rejected"
	CandidateOnHold    CandidateStatus = "on-hold"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidateScheduled, CandidateStalled,
		CandidateCompleted, CandidateRejected, CandidateOnHold:
		return true
	}
	return false
}

// Candidate 旧模型：一行候选人对应一个职位；email 在多职位场景下会重复
type Candidate struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	Name          string          `gorm:"size:128;not null" json:"name"`
	Email         string          `gorm:"size:191;index" json:"email"`
	Phone         string          `gorm:"size:64" json:"phone"`
	Position      string          `gorm:"size:128" json:"position"`
	Stage         string          `gorm:"size:64" json:"stage"` // 存的是展示名，不是 stage id
	Score         *float64        `json:"score"`
	Status        CandidateStatus `gorm:"size:16;default:pending" json:"status"`
	AssigneeID    *string         `gorm:"size:36;index" json:"assigneeId"`
	ApplicationID string          `gorm:"size:36;index" json:"applicationId"`
	Experience    string          `gorm:"type:text" json:"experience"`
	Location      string          `gorm:"size:128" json:"location"`
	AppliedAt     time.Time       `json:"appliedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Candidate) TableName() string { return "candidates" }

type CandidateRepository interface {
	Create(ctx context.Context, c *Candidate) error
	FindByID(ctx context.Context, id string) (*Candidate, error)
	FindByEmail(ctx context.Context, email string) ([]Candidate, error)
	// ListByApplication 按 created_at desc 返回
	ListByApplication(ctx context.Context, applicationID string) ([]Candidate, error)
	CountByApplication(ctx context.Context, applicationID string) (int64, error)
	Update(ctx context.Context, c *Candidate) error
	UpdateStage(ctx context.Context, id, stage string, assigneeID *string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// CandidateView 某个职位下的候选人视图（stage/score/assignee 已按数据来源投影）
type CandidateView struct {
	Candidate
	PostulationID    *string `json:"postulationId,omitempty"`
	ApplicationTitle string  `json:"applicationTitle,omitempty"`
	StageID          string  `json:"stageId"`
	EvaluationCount  int     `json:"evaluationCount"`
	Source           string  `json:"source"` // "postulation" | "legacy"
}

const (
	ViewSourcePostulation = "postulation"
	ViewSourceLegacy      = "legacy"
)
