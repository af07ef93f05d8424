package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ats-pipeline/internal/domain"
	"ats-pipeline/pkg/utils"
)

// Recorder 时间线写入与读取
// 写入：timeline_events -> candidate_events -> 静默放弃，永不向调用方报错
type Recorder struct {
	store domain.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewRecorder(store domain.Store, log *zap.Logger) *Recorder {
	return &Recorder{store: store, log: log, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, e domain.TimelineEvent) {
	if e.ID == "" {
		e.ID = utils.NewID()
	}
	if e.EntityType == "" {
		e.EntityType = domain.EntityCandidate
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	caps := r.store.Capabilities()

	if caps.TimelineLog {
		err := r.store.Timeline().Append(ctx, &e)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrUnavailable) {
			r.dropped(e, err)
			return
		}
		r.log.Debug("timeline_events unavailable, falling back", zap.Error(err))
	}

	if !caps.CandidateEvents || e.EntityType != domain.EntityCandidate {
		return
	}
	ce := domain.CandidateEvent{
		ID:          e.ID,
		CandidateID: e.EntityID,
		EventType:   string(e.Action),
		Description: e.Description,
		CreatedBy:   e.ActorEmail,
		CreatedAt:   e.CreatedAt,
	}
	if err := r.store.CandidateEvents().Append(ctx, &ce); err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			r.log.Debug("candidate_events unavailable, event dropped", zap.Error(err))
			return
		}
		r.dropped(e, err)
	}
}

func (r *Recorder) dropped(e domain.TimelineEvent, err error) {
	bestEffortFailures.WithLabelValues("timeline").Inc()
	r.log.Warn("timeline append failed",
		zap.String("action", string(e.Action)),
		zap.String("entity_id", e.EntityID),
		zap.Error(err))
}

// CompleteTimeline 持久化事件 + 评估事件；没有持久化事件时从候选人字段合成
func (r *Recorder) CompleteTimeline(ctx context.Context, candidateID string) ([]domain.TimelineEvent, error) {
	c, err := r.store.Candidates().FindByID(ctx, candidateID)
	if err != nil {
		return nil, domain.Persist("load candidate", err)
	}
	if c == nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, domain.ErrNotFound)
	}

	persisted, err := r.persisted(ctx, c.ID)
	if err != nil {
		return nil, domain.Persist("load timeline", err)
	}
	evals, err := r.store.Evaluations().ListByCandidate(ctx, c.ID)
	if err != nil {
		return nil, domain.Persist("load evaluations", err)
	}

	out := make([]domain.TimelineEvent, 0, len(persisted)+len(evals)+4)
	seen := map[string]bool{}
	for _, e := range persisted {
		e.Source = domain.SourcePersisted
		if id, ok := e.Metadata["evaluation_id"].(string); ok {
			seen[id] = true
		}
		out = append(out, e)
	}
	for _, ev := range evals {
		if seen[ev.ID] {
			continue
		}
		out = append(out, evaluationEvent(ev))
	}
	if len(persisted) == 0 {
		out = append(out, synthesize(c)...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// persisted 每个候选人只取一个来源：timeline_events 有数据就不再看 candidate_events
func (r *Recorder) persisted(ctx context.Context, candidateID string) ([]domain.TimelineEvent, error) {
	caps := r.store.Capabilities()
	if caps.TimelineLog {
		events, err := r.store.Timeline().ListByEntity(ctx, domain.EntityCandidate, candidateID)
		switch {
		case err == nil && len(events) > 0:
			return events, nil
		case err != nil && !errors.Is(err, domain.ErrUnavailable):
			return nil, err
		}
	}
	if !caps.CandidateEvents {
		return nil, nil
	}
	rows, err := r.store.CandidateEvents().ListByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]domain.TimelineEvent, 0, len(rows))
	for _, ce := range rows {
		out = append(out, domain.TimelineEvent{
			ID:          ce.ID,
			EntityType:  domain.EntityCandidate,
			EntityID:    ce.CandidateID,
			Action:      domain.TimelineAction(ce.EventType),
			Description: ce.Description,
			ActorEmail:  ce.CreatedBy,
			CreatedAt:   ce.CreatedAt,
		})
	}
	return out, nil
}

func evaluationEvent(ev domain.Evaluation) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:          "evaluation-" + ev.ID,
		EntityType:  domain.EntityCandidate,
		EntityID:    ev.CandidateID,
		Action:      domain.ActionEvaluationCreated,
		Description: fmt.Sprintf("Evaluación %s: %s", ev.Type, ev.Feedback),
		ActorID:     ev.EvaluatorID,
		NewValue:    formatScore(ev.Score),
		Metadata: datatypes.JSONMap{
			"evaluation_id": ev.ID,
			"type":          string(ev.Type),
			"stage":         ev.Stage,
			"score":         ev.Score,
		},
		CreatedAt: ev.CreatedAt,
		Source:    domain.SourceEvaluation,
	}
}

// synthesize 旧数据没有事件表时，按字段推一条大致的历史
func synthesize(c *domain.Candidate) []domain.TimelineEvent {
	mk := func(action domain.TimelineAction, desc, val string, at time.Time) domain.TimelineEvent {
		return domain.TimelineEvent{
			ID:          "synthetic-" + string(action) + "-" + c.ID,
			EntityType:  domain.EntityCandidate,
			EntityID:    c.ID,
			Action:      action,
			Description: desc,
			NewValue:    val,
			CreatedAt:   at,
			Source:      domain.SourceSynthesized,
		}
	}

	out := []domain.TimelineEvent{
		mk(domain.ActionCandidateCreated, "Candidato creado: "+c.Name, c.Stage, c.CreatedAt),
	}
	if c.UpdatedAt.After(c.CreatedAt) {
		out = append(out, mk(domain.ActionStageUpdate, "Etapa actual: "+c.Stage, c.Stage, c.UpdatedAt))
	}
	if c.Score != nil && *c.Score > 0 {
		out = append(out, mk(domain.ActionScoreUpdate, "Puntuación: "+formatScore(*c.Score), formatScore(*c.Score), c.UpdatedAt))
	}
	if c.AssigneeID != nil && *c.AssigneeID != "" {
		out = append(out, mk(domain.ActionAssigneeUpdate, "Responsable asignado", *c.AssigneeID, c.UpdatedAt))
	}
	return out
}

func formatScore(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
