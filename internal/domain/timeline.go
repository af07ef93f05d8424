package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

type TimelineAction string

const (
	ActionCandidateCreated   TimelineAction = "candidate_created"
	ActionCandidateUpdated   TimelineAction = "candidate_updated"
	ActionCandidateDeleted   TimelineAction = "candidate_deleted"
	ActionPostulationCreated TimelineAction = "postulation_created"
	ActionPostulationUpdated TimelineAction = "postulation_updated"
	ActionPostulationDeleted TimelineAction = "postulation_deleted"
	ActionEvaluationCreated  TimelineAction = "evaluation_created"
	ActionEvaluationUpdated  TimelineAction = "evaluation_updated"
	ActionEvaluationDeleted  TimelineAction = "evaluation_deleted"
	ActionNoteCreated        TimelineAction = "note_created"
	ActionNoteUpdated        TimelineAction = "note_updated"
	ActionNoteDeleted        TimelineAction = "note_deleted"
	ActionAttachmentCreated  TimelineAction = "attachment_created"
	ActionAttachmentUpdated  TimelineAction = "attachment_updated"
	ActionAttachmentDeleted  TimelineAction = "attachment_deleted"
	ActionStageUpdate        TimelineAction = "stage_update"
	ActionScoreUpdate        TimelineAction = "score_update"
	ActionAssigneeUpdate     TimelineAction = "assignee_update"
)

const EntityCandidate = "candidate"

// EventSource 时间线条目的来源
type EventSource string

const (
	SourcePersisted   EventSource = "persisted"
	SourceEvaluation  EventSource = "evaluation"
	SourceSynthesized EventSource = "synthesized"
)

// TimelineEvent 审计日志，只追加
type TimelineEvent struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	EntityType    string            `gorm:"size:32;index:idx_timeline_entity" json:"entityType"`
	EntityID      string            `gorm:"size:36;index:idx_timeline_entity" json:"entityId"`
	Action        TimelineAction    `gorm:"size:32" json:"action"`
	Description   string            `gorm:"type:text" json:"description"`
	ActorID       *string           `gorm:"size:36" json:"actorId"`
	ActorEmail    string            `gorm:"size:191" json:"actorEmail"`
	PreviousValue string            `gorm:"size:255" json:"previousValue"`
	NewValue      string            `gorm:"size:255" json:"newValue"`
	Metadata      datatypes.JSONMap `json:"metadata"`
	CreatedAt     time.Time         `json:"createdAt"`

	Source EventSource `gorm:"-" json:"source"`
}

func (TimelineEvent) TableName() string { return "timeline_events" }

// CandidateEvent 简化版事件表（timeline_events 不可用时的降级写入）
type CandidateEvent struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	CandidateID string    `gorm:"size:36;index" json:"candidateId"`
	EventType   string    `gorm:"size:32" json:"eventType"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   string    `gorm:"size:191" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (CandidateEvent) TableName() string { return "candidate_events" }

type TimelineRepository interface {
	Append(ctx context.Context, e *TimelineEvent) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]TimelineEvent, error)
}

type CandidateEventRepository interface {
	Append(ctx context.Context, e *CandidateEvent) error
	ListByCandidate(ctx context.Context, candidateID string) ([]CandidateEvent, error)
}
