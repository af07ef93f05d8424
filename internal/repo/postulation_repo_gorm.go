package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"ats-pipeline/internal/domain"
)

type PostulationRepo struct{ db *gorm.DB }

func NewPostulationRepo(db *gorm.DB) *PostulationRepo { return &PostulationRepo{db: db} }

func (r *PostulationRepo) Create(ctx context.Context, p *domain.Postulation) error {
	return classify(r.db.WithContext(ctx).Omit("Candidate", "Application").Create(p).Error)
}

func (r *PostulationRepo) Find(ctx context.Context, candidateID, applicationID string) (*domain.Postulation, error) {
	var p domain.Postulation
	err := r.db.WithContext(ctx).
		First(&p, "candidate_id = ? AND application_id = ?", candidateID, applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, classify(err)
}

func (r *PostulationRepo) ListByApplication(ctx context.Context, applicationID string) ([]domain.Postulation, error) {
	var out []domain.Postulation
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Application").
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&out).Error
	return out, classify(err)
}

func (r *PostulationRepo) ListByCandidates(ctx context.Context, candidateIDs []string) ([]domain.Postulation, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	var out []domain.Postulation
	err := r.db.WithContext(ctx).Where("candidate_id IN ?", candidateIDs).Find(&out).Error
	return out, classify(err)
}

func (r *PostulationRepo) CountByApplication(ctx context.Context, applicationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Postulation{}).Where("application_id = ?", applicationID).Count(&n).Error
	return n, classify(err)
}

func (r *PostulationRepo) UpdateStage(ctx context.Context, id, stage string, score *float64, assigneeID *string) error {
	cols := map[string]any{"stage": stage}
	if score != nil {
		cols["score"] = *score
	}
	if assigneeID != nil {
		cols["assignee_id"] = *assigneeID
	}
	return classify(r.db.WithContext(ctx).Model(&domain.Postulation{}).Where("id = ?", id).Updates(cols).Error)
}

func (r *PostulationRepo) Delete(ctx context.Context, candidateID, applicationID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("candidate_id = ? AND application_id = ?", candidateID, applicationID).
		Delete(&domain.Postulation{})
	return res.RowsAffected, classify(res.Error)
}

func (r *PostulationRepo) DeleteByCandidates(ctx context.Context, candidateIDs []string) error {
	if len(candidateIDs) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("candidate_id IN ?", candidateIDs).Delete(&domain.Postulation{}).Error)
}
