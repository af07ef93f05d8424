package domain

import (
	"context"
	"time"
)

// Postulation 候选人 x 职位 关联（可选表，部分部署没有）
type Postulation struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	CandidateID   string          `gorm:"size:36;uniqueIndex:uk_postulation" json:"candidateId"`
	ApplicationID string          `gorm:"size:36;uniqueIndex:uk_postulation;index" json:"applicationId"`
	Stage         string          `gorm:"size:64" json:"stage"`
	Score         *float64        `json:"score"`
	Status        CandidateStatus `gorm:"size:16;default:pending" json:"status"`
	AssigneeID    *string         `gorm:"size:36" json:"assigneeId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Candidate   *Candidate   `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Application *Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
}

func (Postulation) TableName() string { return "postulations" }

type PostulationRepository interface {
	Create(ctx context.Context, p *Postulation) error
	Find(ctx context.Context, candidateID, applicationID string) (*Postulation, error)
	// ListByApplication 预加载 Candidate/Application，按 created_at desc
	ListByApplication(ctx context.Context, applicationID string) ([]Postulation, error)
	ListByCandidates(ctx context.Context, candidateIDs []string) ([]Postulation, error)
	CountByApplication(ctx context.Context, applicationID string) (int64, error)
	UpdateStage(ctx context.Context, id, stage string, score *float64, assigneeID *string) error
	Delete(ctx context.Context, candidateID, applicationID string) (int64, error)
	DeleteByCandidates(ctx context.Context, candidateIDs []string) error
}
