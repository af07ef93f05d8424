package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/pipeline"
	"ats-pipeline/pkg/utils"
)

// CandidateLayout 候选人数据的两种存储形态
type CandidateLayout interface {
	Name() string
	// List 某职位下的候选人视图，未做评分聚合
	List(ctx context.Context, s domain.Store, applicationID string) ([]domain.CandidateView, error)
	// Current 读当前阶段；postulation 为 nil 表示走旧模型
	Current(ctx context.Context, s domain.Store, c *domain.Candidate, applicationID string) (StagePosition, error)
	// Apply 写入新阶段，调用方负责开事务
	Apply(ctx context.Context, tx domain.Store, w StageWrite) error
}

type StagePosition struct {
	Label       string
	AssigneeID  *string
	Postulation *domain.Postulation
}

type StageWrite struct {
	Candidate   *domain.Candidate
	Postulation *domain.Postulation
	Label       string
	Score       *float64
	AssigneeID  *string
}

// LegacyCandidateStore 每行候选人绑定一个职位
type LegacyCandidateStore struct{}

func (LegacyCandidateStore) Name() string { return "legacy" }

func (LegacyCandidateStore) List(ctx context.Context, s domain.Store, applicationID string) ([]domain.CandidateView, error) {
	rows, err := s.Candidates().ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CandidateView, 0, len(rows))
	for _, c := range rows {
		out = append(out, legacyView(c))
	}
	return dedupByEmail(out), nil
}

func (LegacyCandidateStore) Current(_ context.Context, _ domain.Store, c *domain.Candidate, _ string) (StagePosition, error) {
	return StagePosition{Label: c.Stage, AssigneeID: c.AssigneeID}, nil
}

func (LegacyCandidateStore) Apply(ctx context.Context, tx domain.Store, w StageWrite) error {
	var assignee *string
	// 旧表 assignee_id 只接受真实用户 id
	if w.AssigneeID != nil && utils.IsID(*w.AssigneeID) {
		assignee = w.AssigneeID
	}
	return tx.Candidates().UpdateStage(ctx, w.Candidate.ID, w.Label, assignee)
}

// PostulationLinkedStore 候选人 x 职位 关联表为主，旧行兜底
type PostulationLinkedStore struct {
	legacy LegacyCandidateStore
}

func (PostulationLinkedStore) Name() string { return "postulation" }

func (p PostulationLinkedStore) List(ctx context.Context, s domain.Store, applicationID string) ([]domain.CandidateView, error) {
	links, err := s.Postulations().ListByApplication(ctx, applicationID)
	if err != nil && !errors.Is(err, domain.ErrUnavailable) {
		return nil, err
	}
	legacy, err := p.legacy.List(ctx, s, applicationID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return legacy, nil
	}

	out := make([]domain.CandidateView, 0, len(links)+len(legacy))
	for _, l := range links {
		if l.Candidate == nil {
			continue
		}
		out = append(out, postulationView(l))
	}
	out = append(out, legacy...)
	return dedupByEmail(out), nil
}

func (p PostulationLinkedStore) Current(ctx context.Context, s domain.Store, c *domain.Candidate, applicationID string) (StagePosition, error) {
	link, err := s.Postulations().Find(ctx, c.ID, applicationID)
	if err != nil && !errors.Is(err, domain.ErrUnavailable) {
		return StagePosition{}, err
	}
	if link == nil {
		return p.legacy.Current(ctx, s, c, applicationID)
	}
	return StagePosition{Label: link.Stage, AssigneeID: link.AssigneeID, Postulation: link}, nil
}

func (p PostulationLinkedStore) Apply(ctx context.Context, tx domain.Store, w StageWrite) error {
	if w.Postulation != nil {
		if err := tx.Postulations().UpdateStage(ctx, w.Postulation.ID, w.Label, w.Score, w.AssigneeID); err != nil {
			return err
		}
	}
	return p.legacy.Apply(ctx, tx, w)
}

// Resolver 屏蔽两种存储形态；形态在启动时按探测结果选定
type Resolver struct {
	store  domain.Store
	layout CandidateLayout
	log    *zap.Logger
}

func NewResolver(store domain.Store, log *zap.Logger) *Resolver {
	var layout CandidateLayout = LegacyCandidateStore{}
	if store.Capabilities().Postulations {
		layout = PostulationLinkedStore{}
	}
	log.Info("candidate layout selected", zap.String("layout", layout.Name()))
	return &Resolver{store: store, layout: layout, log: log}
}

func (r *Resolver) Layout() CandidateLayout { return r.layout }

// ListCandidatesForApplication 评分有评估时取评估平均值（一位小数），否则用存储值
func (r *Resolver) ListCandidatesForApplication(ctx context.Context, applicationID string) ([]domain.CandidateView, error) {
	views, err := r.layout.List(ctx, r.store, applicationID)
	if err != nil {
		return nil, domain.Persist("list candidates", err)
	}
	for i := range views {
		evals, err := r.store.Evaluations().ListByCandidate(ctx, views[i].ID)
		if err != nil {
			return nil, domain.Persist("list evaluations", err)
		}
		applyDisplayedScore(&views[i], evals)
	}
	return views, nil
}

func applyDisplayedScore(v *domain.CandidateView, evals []domain.Evaluation) {
	v.EvaluationCount = len(evals)
	if avg, ok := domain.AverageScore(evals); ok {
		v.Score = &avg
		return
	}
	if v.Score == nil {
		zero := 0.0
		v.Score = &zero
	}
}

func legacyView(c domain.Candidate) domain.CandidateView {
	v := domain.CandidateView{Candidate: c, Source: domain.ViewSourceLegacy}
	if st, ok := pipeline.Resolve(c.Stage); ok {
		v.StageID = string(st.ID)
	}
	return v
}

func postulationView(p domain.Postulation) domain.CandidateView {
	v := domain.CandidateView{Candidate: *p.Candidate, Source: domain.ViewSourcePostulation}
	id := p.ID
	v.PostulationID = &id
	v.ApplicationID = p.ApplicationID
	v.Stage = p.Stage
	v.Score = p.Score
	v.AssigneeID = p.AssigneeID
	if p.Status != "" {
		v.Status = p.Status
	}
	if p.Application != nil {
		v.ApplicationTitle = p.Application.Title
	}
	if st, ok := pipeline.Resolve(p.Stage); ok {
		v.StageID = string(st.ID)
	}
	return v
}

// dedupByEmail 保留首次出现；没有 email 的按 id 区分
func dedupByEmail(in []domain.CandidateView) []domain.CandidateView {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		key := emailKey(v.Email)
		if key == "" {
			key = "id:" + v.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func emailKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
