package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/pipeline"
	"ats-pipeline/pkg/utils"
)

type StageService struct {
	store    domain.Store
	resolver *Resolver
	recorder *Recorder
	fx       effects
	log      *zap.Logger
}

func NewStageService(store domain.Store, resolver *Resolver, recorder *Recorder, notifier Notifier, log *zap.Logger) *StageService {
	return &StageService{
		store:    store,
		resolver: resolver,
		recorder: recorder,
		fx:       effects{notifier: notifier, log: log},
		log:      log,
	}
}

type MoveInput struct {
	CandidateID   string
	ApplicationID string // 为空时取候选人行上的职位
	To            string
	Confirmation  pipeline.Confirmation
}

type MoveResult struct {
	Decision     pipeline.Decision `json:"decision"`
	Stage        string            `json:"stage"`
	StageID      pipeline.StageID  `json:"stageId"`
	Score        *float64          `json:"score,omitempty"`
	AssigneeID   *string           `json:"assigneeId,omitempty"`
	EvaluationID string            `json:"evaluationId,omitempty"`
	NoteID       string            `json:"noteId,omitempty"`
}

// Preview 只做判定不写入，前端据此决定是否弹确认框
func (s *StageService) Preview(ctx context.Context, candidateID, applicationID, to string) (pipeline.Decision, error) {
	c, appID, err := s.loadCandidate(ctx, candidateID, applicationID)
	if err != nil {
		return pipeline.Decision{}, err
	}
	pos, err := s.position(ctx, c, appID)
	if err != nil {
		return pipeline.Decision{}, err
	}
	return pipeline.DecideLabels(pos.Label, to)
}

// Move 判定 -> 校验 -> 评估(尽力) -> 事务内写阶段 -> 时间线/通知(尽力)
func (s *StageService) Move(ctx context.Context, actor Actor, in MoveInput) (*MoveResult, error) {
	c, appID, err := s.loadCandidate(ctx, in.CandidateID, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	pos, err := s.position(ctx, c, appID)
	if err != nil {
		return nil, err
	}

	d, err := pipeline.DecideLabels(pos.Label, in.To)
	if err != nil {
		stageTransitions.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}
	res := &MoveResult{Decision: d, Stage: pipeline.Label(d.To.ID), StageID: d.To.ID, AssigneeID: pos.AssigneeID}
	if d.NoOp {
		stageTransitions.WithLabelValues(d.Rule, "noop").Inc()
		return res, nil
	}

	conf, err := pipeline.Validate(d, in.Confirmation, pos.AssigneeID)
	if err != nil {
		var denied *domain.TransitionDeniedError
		if errors.As(err, &denied) {
			stageTransitions.WithLabelValues(d.Rule, "denied").Inc()
		} else {
			stageTransitions.WithLabelValues(d.Rule, "invalid").Inc()
		}
		return nil, err
	}
	res.Score, res.AssigneeID = conf.Score, conf.AssigneeID

	// 没有分数的反馈记成备注，不参与平均分
	switch {
	case conf.Score != nil:
		res.EvaluationID = s.addEvaluation(ctx, actor, c, res.Stage, conf)
	case conf.Feedback != "":
		res.NoteID = s.addNote(ctx, actor, c, res.Stage, conf.Feedback)
	}

	w := StageWrite{Candidate: c, Postulation: pos.Postulation, Label: res.Stage, Score: conf.Score, AssigneeID: conf.AssigneeID}
	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		return s.resolver.Layout().Apply(ctx, tx, w)
	})
	if err != nil {
		stageTransitions.WithLabelValues(d.Rule, "error").Inc()
		return nil, domain.Persist("update candidate stage", err)
	}
	stageTransitions.WithLabelValues(d.Rule, "moved").Inc()

	s.log.Info("candidate stage moved",
		zap.String("candidate_id", c.ID),
		zap.String("application_id", appID),
		zap.String("from", pos.Label),
		zap.String("to", res.Stage),
		zap.String("rule", d.Rule),
		zap.String("actor", actor.Email))

	s.recordMove(ctx, actor, c, appID, pos, res)
	s.notifyMove(ctx, c, appID, pos.Label, res)
	return res, nil
}

func (s *StageService) loadCandidate(ctx context.Context, id, applicationID string) (*domain.Candidate, string, error) {
	c, err := s.store.Candidates().FindByID(ctx, id)
	if err != nil {
		return nil, "", domain.Persist("load candidate", err)
	}
	if c == nil {
		return nil, "", fmt.Errorf("candidate %s: %w", id, domain.ErrNotFound)
	}
	if applicationID == "" {
		applicationID = c.ApplicationID
	}
	return c, applicationID, nil
}

// position 读当前阶段；既不是旧行上的职位又没有关联记录时按不存在处理
func (s *StageService) position(ctx context.Context, c *domain.Candidate, appID string) (StagePosition, error) {
	pos, err := s.resolver.Layout().Current(ctx, s.store, c, appID)
	if err != nil {
		return StagePosition{}, domain.Persist("load current stage", err)
	}
	if pos.Postulation == nil && appID != c.ApplicationID {
		return StagePosition{}, fmt.Errorf("candidate %s in application %s: %w", c.ID, appID, domain.ErrNotFound)
	}
	return pos, nil
}

func (s *StageService) addEvaluation(ctx context.Context, actor Actor, c *domain.Candidate, stage string, conf pipeline.Resolved) string {
	ev := &domain.Evaluation{
		ID:          utils.NewID(),
		CandidateID: c.ID,
		EvaluatorID: actor.idPtr(),
		Type:        domain.EvalInterview,
		Score:       *conf.Score,
		Feedback:    conf.Feedback,
		Stage:       stage,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Evaluations().Create(ctx, ev); err != nil {
		bestEffortFailures.WithLabelValues("evaluation").Inc()
		s.log.Warn("stage evaluation insert failed", zap.String("candidate_id", c.ID), zap.Error(err))
		return ""
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionEvaluationCreated,
		Description: "Evaluación registrada al pasar a " + stage,
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		NewValue:    formatScore(ev.Score),
		Metadata:    datatypes.JSONMap{"evaluation_id": ev.ID, "stage": stage, "score": ev.Score},
	})
	return ev.ID
}

func (s *StageService) addNote(ctx context.Context, actor Actor, c *domain.Candidate, stage, content string) string {
	n := &domain.Note{ID: utils.NewID(), CandidateID: c.ID, AuthorID: actor.ID, Content: content, CreatedAt: time.Now()}
	if err := s.store.Notes().Create(ctx, n); err != nil {
		bestEffortFailures.WithLabelValues("note").Inc()
		s.log.Warn("stage note insert failed", zap.String("candidate_id", c.ID), zap.Error(err))
		return ""
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionNoteCreated,
		Description: "Nota añadida al pasar a " + stage,
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"note_id": n.ID, "stage": stage},
	})
	return n.ID
}

func (s *StageService) recordMove(ctx context.Context, actor Actor, c *domain.Candidate, appID string, pos StagePosition, res *MoveResult) {
	meta := datatypes.JSONMap{"application_id": appID, "rule": res.Decision.Rule, "stage_id": string(res.StageID)}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:      c.ID,
		Action:        domain.ActionStageUpdate,
		Description:   fmt.Sprintf("Etapa: %s → %s", pos.Label, res.Stage),
		ActorID:       actor.idPtr(),
		ActorEmail:    actor.Email,
		PreviousValue: pos.Label,
		NewValue:      res.Stage,
		Metadata:      meta,
	})
	if res.Score != nil {
		s.recorder.Record(ctx, domain.TimelineEvent{
			EntityID:    c.ID,
			Action:      domain.ActionScoreUpdate,
			Description: "Puntuación: " + formatScore(*res.Score),
			ActorID:     actor.idPtr(),
			ActorEmail:  actor.Email,
			NewValue:    formatScore(*res.Score),
			Metadata:    datatypes.JSONMap{"application_id": appID},
		})
	}
	if res.AssigneeID != nil && !sameID(res.AssigneeID, pos.AssigneeID) {
		prev := ""
		if pos.AssigneeID != nil {
			prev = *pos.AssigneeID
		}
		s.recorder.Record(ctx, domain.TimelineEvent{
			EntityID:      c.ID,
			Action:        domain.ActionAssigneeUpdate,
			Description:   "Responsable asignado",
			ActorID:       actor.idPtr(),
			ActorEmail:    actor.Email,
			PreviousValue: prev,
			NewValue:      *res.AssigneeID,
			Metadata:      datatypes.JSONMap{"application_id": appID},
		})
	}
}

// notifyMove 进入面试阶段且有负责人时通知面试官，其余通知职位负责人
func (s *StageService) notifyMove(ctx context.Context, c *domain.Candidate, appID, from string, res *MoveResult) {
	n := domain.Notification{
		Kind:           domain.NotifyStageChanged,
		CandidateID:    c.ID,
		CandidateName:  c.Name,
		CandidateEmail: c.Email,
		ApplicationID:  appID,
		Stage:          res.Stage,
		PreviousStage:  from,
		CreatedAt:      time.Now(),
	}
	app, err := s.store.Applications().FindByID(ctx, appID)
	if err != nil {
		s.log.Warn("notification: load application", zap.String("application_id", appID), zap.Error(err))
	}
	if app != nil {
		n.ApplicationTitle = app.Title
	}

	interview := res.StageID == pipeline.FirstInterview || res.StageID == pipeline.SecondInterview
	if interview && res.AssigneeID != nil {
		n.Kind = domain.NotifyNextInterview
		if u := s.user(ctx, *res.AssigneeID); u != nil {
			n.InterviewerEmail = u.Email
			n.To = []string{u.Email}
		}
	} else if app != nil && app.ResponsibleID != nil {
		if u := s.user(ctx, *app.ResponsibleID); u != nil {
			n.To = []string{u.Email}
		}
	}
	if len(n.To) == 0 {
		s.log.Debug("notification skipped, no recipient", zap.String("candidate_id", c.ID))
		return
	}
	s.fx.notify(ctx, n)
}

func (s *StageService) user(ctx context.Context, id string) *domain.User {
	if !utils.IsID(id) {
		return nil
	}
	u, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		s.log.Warn("notification: load user", zap.String("user_id", id), zap.Error(err))
		return nil
	}
	return u
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
