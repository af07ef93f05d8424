package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

type AnalysisStatus string

const (
	AnalysisNone    AnalysisStatus = "none"
	AnalysisPending AnalysisStatus = "pending"
	AnalysisDone    AnalysisStatus = "done"
	AnalysisFailed  AnalysisStatus = "failed"
)

type Attachment struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	CandidateID    string         `gorm:"size:36;index" json:"candidateId"`
	FileName       string         `gorm:"size:255" json:"fileName"`
	StoragePath    string         `gorm:"size:512" json:"storagePath"`
	Size           int64          `json:"size"`
	MimeType       string         `gorm:"size:128" json:"mimeType"`
	Description    string         `gorm:"size:512" json:"description"`
	UploadedBy     string         `gorm:"size:36" json:"uploadedBy"`
	AnalysisStatus AnalysisStatus `gorm:"size:16;default:none" json:"analysisStatus"`
	Analysis       datatypes.JSON `json:"analysis,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func (Attachment) TableName() string { return "attachments" }

type AttachmentRepository interface {
	Create(ctx context.Context, a *Attachment) error
	FindByID(ctx context.Context, id string) (*Attachment, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]Attachment, error)
	ListByCandidates(ctx context.Context, candidateIDs []string) ([]Attachment, error)
	UpdateAnalysis(ctx context.Context, id string, status AnalysisStatus, analysis datatypes.JSON) error
	Delete(ctx context.Context, id string) error
	DeleteByCandidates(ctx context.Context, candidateIDs []string) error
}

type Note struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	CandidateID string    `gorm:"size:36;index" json:"candidateId"`
	AuthorID    string    `gorm:"size:36" json:"authorId"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Note) TableName() string { return "notes" }

type NoteRepository interface {
	Create(ctx context.Context, n *Note) error
	ListByCandidate(ctx context.Context, candidateID string) ([]Note, error)
	DeleteByCandidates(ctx context.Context, candidateIDs []string) error
}
