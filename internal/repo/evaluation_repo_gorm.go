package repo

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ats-pipeline/internal/domain"
)

type EvaluationRepo struct{ db *gorm.DB }

func NewEvaluationRepo(db *gorm.DB) *EvaluationRepo { return &EvaluationRepo{db: db} }

func (r *EvaluationRepo) Create(ctx context.Context, e *domain.Evaluation) error {
	return classify(r.db.WithContext(ctx).Create(e).Error)
}

func (r *EvaluationRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.Evaluation, error) {
	var out []domain.Evaluation
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&out).Error
	return out, classify(err)
}

func (r *EvaluationRepo) DeleteByCandidates(ctx context.Context, candidateIDs []string) error {
	if len(candidateIDs) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("candidate_id IN ?", candidateIDs).Delete(&domain.Evaluation{}).Error)
}

type AttachmentRepo struct{ db *gorm.DB }

func NewAttachmentRepo(db *gorm.DB) *AttachmentRepo { return &AttachmentRepo{db: db} }

func (r *AttachmentRepo) Create(ctx context.Context, a *domain.Attachment) error {
	return classify(r.db.WithContext(ctx).Create(a).Error)
}

func (r *AttachmentRepo) FindByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var a domain.Attachment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if err = classify(err); err == domain.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttachmentRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&out).Error
	return out, classify(err)
}

func (r *AttachmentRepo) ListByCandidates(ctx context.Context, candidateIDs []string) ([]domain.Attachment, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	var out []domain.Attachment
	err := r.db.WithContext(ctx).Where("candidate_id IN ?", candidateIDs).Find(&out).Error
	return out, classify(err)
}

func (r *AttachmentRepo) UpdateAnalysis(ctx context.Context, id string, status domain.AnalysisStatus, analysis datatypes.JSON) error {
	cols := map[string]any{"analysis_status": status}
	if analysis != nil {
		cols["analysis"] = analysis
	}
	return classify(r.db.WithContext(ctx).Model(&domain.Attachment{}).Where("id = ?", id).Updates(cols).Error)
}

func (r *AttachmentRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Attachment{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AttachmentRepo) DeleteByCandidates(ctx context.Context, candidateIDs []string) error {
	if len(candidateIDs) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("candidate_id IN ?", candidateIDs).Delete(&domain.Attachment{}).Error)
}

type NoteRepo struct{ db *gorm.DB }

func NewNoteRepo(db *gorm.DB) *NoteRepo { return &NoteRepo{db: db} }

func (r *NoteRepo) Create(ctx context.Context, n *domain.Note) error {
	return classify(r.db.WithContext(ctx).Create(n).Error)
}

func (r *NoteRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.Note, error) {
	var out []domain.Note
	err := r.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&out).Error
	return out, classify(err)
}

func (r *NoteRepo) DeleteByCandidates(ctx context.Context, candidateIDs []string) error {
	if len(candidateIDs) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("candidate_id IN ?", candidateIDs).Delete(&domain.Note{}).Error)
}
