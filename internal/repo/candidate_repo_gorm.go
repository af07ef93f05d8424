package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"ats-pipeline/internal/domain"
)

type CandidateRepo struct{ db *gorm.DB }

func NewCandidateRepo(db *gorm.DB) *CandidateRepo { return &CandidateRepo{db: db} }

func (r *CandidateRepo) Create(ctx context.Context, c *domain.Candidate) error {
	return classify(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CandidateRepo) FindByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var c domain.Candidate
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, classify(err)
}

func (r *CandidateRepo) FindByEmail(ctx context.Context, email string) ([]domain.Candidate, error) {
	var out []domain.Candidate
	// 历史数据里有大小写不一致的 email
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC").
		Find(&out).Error
	return out, classify(err)
}

func (r *CandidateRepo) ListByApplication(ctx context.Context, applicationID string) ([]domain.Candidate, error) {
	var out []domain.Candidate
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&out).Error
	return out, classify(err)
}

func (r *CandidateRepo) CountByApplication(ctx context.Context, applicationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Candidate{}).Where("application_id = ?", applicationID).Count(&n).Error
	return n, classify(err)
}

func (r *CandidateRepo) Update(ctx context.Context, c *domain.Candidate) error {
	return classify(r.db.WithContext(ctx).Save(c).Error)
}

// UpdateStage 只改 stage（以及合法的负责人）
func (r *CandidateRepo) UpdateStage(ctx context.Context, id, stage string, assigneeID *string) error {
	cols := map[string]any{"stage": stage}
	if assigneeID != nil {
		cols["assignee_id"] = *assigneeID
	}
	// MySQL 值未变化时 RowsAffected 为 0，这里不据此判断不存在
	return classify(r.db.WithContext(ctx).Model(&domain.Candidate{}).Where("id = ?", id).Updates(cols).Error)
}

func (r *CandidateRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Candidate{})
	return res.RowsAffected, classify(res.Error)
}
