package repo

import (
	"context"

	"gorm.io/gorm"

	"ats-pipeline/internal/domain"
)

type TimelineRepo struct{ db *gorm.DB }

func NewTimelineRepo(db *gorm.DB) *TimelineRepo { return &TimelineRepo{db: db} }

func (r *TimelineRepo) Append(ctx context.Context, e *domain.TimelineEvent) error {
	return classify(r.db.WithContext(ctx).Create(e).Error)
}

func (r *TimelineRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.TimelineEvent, error) {
	var out []domain.TimelineEvent
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&out).Error
	return out, classify(err)
}

type CandidateEventRepo struct{ db *gorm.DB }

func NewCandidateEventRepo(db *gorm.DB) *CandidateEventRepo { return &CandidateEventRepo{db: db} }

func (r *CandidateEventRepo) Append(ctx context.Context, e *domain.CandidateEvent) error {
	return classify(r.db.WithContext(ctx).Create(e).Error)
}

func (r *CandidateEventRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.CandidateEvent, error) {
	var out []domain.CandidateEvent
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&out).Error
	return out, classify(err)
}
