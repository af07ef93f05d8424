package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/pipeline"
	"ats-pipeline/pkg/utils"
)

type CandidateService struct {
	store     domain.Store
	resolver  *Resolver
	recorder  *Recorder
	files     FileStore
	extractor Extractor
	fx        effects
	log       *zap.Logger
}

type CandidateDeps struct {
	Store     domain.Store
	Resolver  *Resolver
	Recorder  *Recorder
	Files     FileStore
	Extractor Extractor
	Notifier  Notifier
	Log       *zap.Logger
}

func NewCandidateService(d CandidateDeps) *CandidateService {
	return &CandidateService{
		store:     d.Store,
		resolver:  d.Resolver,
		recorder:  d.Recorder,
		files:     d.Files,
		extractor: d.Extractor,
		fx:        effects{notifier: d.Notifier, log: d.Log},
		log:       d.Log,
	}
}

type CreateCandidateInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Position      string `json:"position"`
	ApplicationID string `json:"applicationId"`
	Experience    string `json:"experience"`
	Location      string `json:"location"`
	Stage         string `json:"stage"`
}

// Create 同一职位下 email 不可重复；新模型同时写关联行
func (s *CandidateService) Create(ctx context.Context, actor Actor, in CreateCandidateInput) (*domain.Candidate, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = emailKey(in.Email)
	if in.Name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, domain.Invalid("email", "a valid email is required")
	}
	if in.ApplicationID == "" {
		return nil, domain.Invalid("applicationId", "application is required")
	}
	app, err := s.application(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}

	stage := pipeline.Label(pipeline.PreInterview)
	if in.Stage != "" {
		st, ok := pipeline.Resolve(in.Stage)
		if !ok {
			return nil, domain.Invalid("stage", "unknown stage "+in.Stage)
		}
		stage = st.DisplayName
	}

	if err := s.ensureNotInApplication(ctx, in.Email, app.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &domain.Candidate{
		ID:            utils.NewID(),
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Position:      in.Position,
		Stage:         stage,
		Status:        domain.CandidatePending,
		ApplicationID: app.ID,
		Experience:    in.Experience,
		Location:      in.Location,
		AppliedAt:     now,
	}
	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if err := tx.Candidates().Create(ctx, c); err != nil {
			return err
		}
		if !s.store.Capabilities().Postulations {
			return nil
		}
		return tx.Postulations().Create(ctx, &domain.Postulation{
			ID:            utils.NewID(),
			CandidateID:   c.ID,
			ApplicationID: app.ID,
			Stage:         stage,
			Status:        domain.CandidatePending,
		})
	})
	if err != nil {
		return nil, domain.Persist("create candidate", err)
	}

	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionCandidateCreated,
		Description: "Candidato creado para " + app.Title,
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		NewValue:    stage,
		Metadata:    datatypes.JSONMap{"application_id": app.ID},
	})
	s.notifyNewProcess(ctx, c, app)
	return c, nil
}

func (s *CandidateService) ensureNotInApplication(ctx context.Context, email, appID string) error {
	rows, err := s.store.Candidates().FindByEmail(ctx, email)
	if err != nil {
		return domain.Persist("find candidate by email", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.ApplicationID == appID {
			return fmt.Errorf("candidate %s already applied to this application: %w", email, domain.ErrConflict)
		}
		ids = append(ids, r.ID)
	}
	if !s.store.Capabilities().Postulations || len(ids) == 0 {
		return nil
	}
	links, err := s.store.Postulations().ListByCandidates(ctx, ids)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			return nil
		}
		return domain.Persist("find postulations", err)
	}
	for _, l := range links {
		if l.ApplicationID == appID {
			return fmt.Errorf("candidate %s already applied to this application: %w", email, domain.ErrConflict)
		}
	}
	return nil
}

type CandidateDetail struct {
	domain.CandidateView
	Postulations []domain.Postulation `json:"postulations,omitempty"`
	Evaluations  []domain.Evaluation  `json:"evaluations"`
}

// Get 详情页；score 为评估平均值
func (s *CandidateService) Get(ctx context.Context, id string) (*CandidateDetail, error) {
	c, err := s.candidate(ctx, id)
	if err != nil {
		return nil, err
	}
	evals, err := s.store.Evaluations().ListByCandidate(ctx, c.ID)
	if err != nil {
		return nil, domain.Persist("list evaluations", err)
	}
	out := &CandidateDetail{CandidateView: legacyView(*c), Evaluations: evals}
	applyDisplayedScore(&out.CandidateView, evals)
	if app, err := s.store.Applications().FindByID(ctx, c.ApplicationID); err == nil && app != nil {
		out.ApplicationTitle = app.Title
	}

	if s.store.Capabilities().Postulations {
		links, err := s.store.Postulations().ListByCandidates(ctx, []string{c.ID})
		if err != nil && !errors.Is(err, domain.ErrUnavailable) {
			return nil, domain.Persist("list postulations", err)
		}
		out.Postulations = links
	}
	return out, nil
}

type UpdateCandidateInput struct {
	Name       *string                 `json:"name"`
	Email      *string                 `json:"email"`
	Phone      *string                 `json:"phone"`
	Position   *string                 `json:"position"`
	Experience *string                 `json:"experience"`
	Location   *string                 `json:"location"`
	Status     *domain.CandidateStatus `json:"status"`
}

// Update 资料修改；阶段只能走 StageService.Move
func (s *CandidateService) Update(ctx context.Context, actor Actor, id string, in UpdateCandidateInput) (*domain.Candidate, error) {
	c, err := s.candidate(ctx, id)
	if err != nil {
		return nil, err
	}
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	in.Name, in.Phone, in.Position = trim(in.Name), trim(in.Phone), trim(in.Position)
	in.Experience, in.Location = trim(in.Experience), trim(in.Location)
	if in.Email != nil {
		e := emailKey(*in.Email)
		in.Email = &e
	}

	var changed []string
	set := func(field string, dst *string, v *string) {
		if v == nil || *v == *dst {
			return
		}
		*dst = *v
		changed = append(changed, field)
	}
	if in.Name != nil && *in.Name == "" {
		return nil, domain.Invalid("name", "name cannot be empty")
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return nil, domain.Invalid("email", "a valid email is required")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, domain.Invalid("status", "unknown status "+string(*in.Status))
	}
	set("name", &c.Name, in.Name)
	set("email", &c.Email, in.Email)
	set("phone", &c.Phone, in.Phone)
	set("position", &c.Position, in.Position)
	set("experience", &c.Experience, in.Experience)
	set("location", &c.Location, in.Location)
	if in.Status != nil && *in.Status != c.Status {
		c.Status = *in.Status
		changed = append(changed, "status")
	}
	if len(changed) == 0 {
		return c, nil
	}
	if err := s.store.Candidates().Update(ctx, c); err != nil {
		return nil, domain.Persist("update candidate", err)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionCandidateUpdated,
		Description: "Datos actualizados: " + strings.Join(changed, ", "),
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"fields": changed},
	})
	return c, nil
}

// Link 把已有候选人加入另一个职位（仅新模型）
func (s *CandidateService) Link(ctx context.Context, actor Actor, candidateID, applicationID string) (*domain.Postulation, error) {
	if !s.store.Capabilities().Postulations {
		return nil, fmt.Errorf("linking candidates: %w", domain.ErrUnsupported)
	}
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	app, err := s.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotInApplication(ctx, c.Email, app.ID); err != nil {
		return nil, err
	}
	p := &domain.Postulation{
		ID:            utils.NewID(),
		CandidateID:   c.ID,
		ApplicationID: app.ID,
		Stage:         pipeline.Label(pipeline.PreInterview),
		Status:        domain.CandidatePending,
	}
	if err := s.store.Postulations().Create(ctx, p); err != nil {
		return nil, domain.Persist("create postulation", err)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionPostulationCreated,
		Description: "Añadido al proceso " + app.Title,
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"application_id": app.ID, "postulation_id": p.ID},
	})
	s.notifyNewProcess(ctx, c, app)
	return p, nil
}

func (s *CandidateService) Unlink(ctx context.Context, actor Actor, candidateID, applicationID string) error {
	if !s.store.Capabilities().Postulations {
		return fmt.Errorf("unlinking candidates: %w", domain.ErrUnsupported)
	}
	n, err := s.store.Postulations().Delete(ctx, candidateID, applicationID)
	if err != nil {
		return domain.Persist("delete postulation", err)
	}
	if n == 0 {
		return fmt.Errorf("postulation %s/%s: %w", candidateID, applicationID, domain.ErrNotFound)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    candidateID,
		Action:      domain.ActionPostulationDeleted,
		Description: "Retirado del proceso",
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"application_id": applicationID},
	})
	return nil
}

type DeleteResult struct {
	Email        string   `json:"email"`
	CandidateIDs []string `json:"candidateIds"`
	Deleted      int64    `json:"deleted"`
}

// Delete 按 email 级联删除：同一个人在所有职位下的行及其关联数据
func (s *CandidateService) Delete(ctx context.Context, actor Actor, id string) (*DeleteResult, error) {
	c, err := s.candidate(ctx, id)
	if err != nil {
		return nil, err
	}
	rows := []domain.Candidate{*c}
	if c.Email != "" {
		if rows, err = s.store.Candidates().FindByEmail(ctx, c.Email); err != nil {
			return nil, domain.Persist("find candidates by email", err)
		}
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	files, err := s.store.Attachments().ListByCandidates(ctx, ids)
	if err != nil {
		return nil, domain.Persist("list attachments", err)
	}

	res := &DeleteResult{Email: c.Email, CandidateIDs: ids}
	err = s.store.Transaction(ctx, func(tx domain.Store) error {
		if s.store.Capabilities().Postulations {
			if err := tx.Postulations().DeleteByCandidates(ctx, ids); err != nil {
				return err
			}
		}
		if err := tx.Evaluations().DeleteByCandidates(ctx, ids); err != nil {
			return err
		}
		if err := tx.Notes().DeleteByCandidates(ctx, ids); err != nil {
			return err
		}
		if err := tx.Attachments().DeleteByCandidates(ctx, ids); err != nil {
			return err
		}
		n, err := tx.Candidates().DeleteByIDs(ctx, ids)
		res.Deleted = n
		return err
	})
	if err != nil {
		return nil, domain.Persist("delete candidate", err)
	}

	if s.files != nil {
		for _, f := range files {
			if err := s.files.Remove(ctx, f.StoragePath); err != nil {
				bestEffortFailures.WithLabelValues("storage").Inc()
				s.log.Warn("remove attachment file", zap.String("path", f.StoragePath), zap.Error(err))
			}
		}
	}
	for _, cid := range ids {
		s.recorder.Record(ctx, domain.TimelineEvent{
			EntityID:      cid,
			Action:        domain.ActionCandidateDeleted,
			Description:   "Candidato eliminado",
			ActorID:       actor.idPtr(),
			ActorEmail:    actor.Email,
			PreviousValue: c.Email,
		})
	}
	s.log.Info("candidate deleted", zap.String("email", c.Email), zap.Strings("ids", ids), zap.String("actor", actor.Email))
	return res, nil
}

type EvaluationInput struct {
	Type     domain.EvaluationType `json:"type"`
	Score    float64               `json:"score"`
	Feedback string                `json:"feedback"`
}

func (s *CandidateService) AddEvaluation(ctx context.Context, actor Actor, candidateID string, in EvaluationInput) (*domain.Evaluation, error) {
	if in.Type == "" {
		in.Type = domain.EvalGeneral
	}
	if !in.Type.Valid() {
		return nil, domain.Invalid("type", "unknown evaluation type "+string(in.Type))
	}
	if in.Score < 0 || in.Score > 10 {
		return nil, domain.Invalid("score", "score must be between 0 and 10")
	}
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	ev := &domain.Evaluation{
		ID:          utils.NewID(),
		CandidateID: c.ID,
		EvaluatorID: actor.idPtr(),
		Type:        in.Type,
		Score:       in.Score,
		Feedback:    strings.TrimSpace(in.Feedback),
		Stage:       c.Stage,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Evaluations().Create(ctx, ev); err != nil {
		return nil, domain.Persist("create evaluation", err)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionEvaluationCreated,
		Description: fmt.Sprintf("Evaluación %s", ev.Type),
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		NewValue:    formatScore(ev.Score),
		Metadata:    datatypes.JSONMap{"evaluation_id": ev.ID, "stage": ev.Stage, "score": ev.Score},
	})
	return ev, nil
}

func (s *CandidateService) Evaluations(ctx context.Context, candidateID string) ([]domain.Evaluation, error) {
	if _, err := s.candidate(ctx, candidateID); err != nil {
		return nil, err
	}
	out, err := s.store.Evaluations().ListByCandidate(ctx, candidateID)
	return out, domain.Persist("list evaluations", err)
}

func (s *CandidateService) AddNote(ctx context.Context, actor Actor, candidateID, content string) (*domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Invalid("content", "note cannot be empty")
	}
	if _, err := s.candidate(ctx, candidateID); err != nil {
		return nil, err
	}
	n := &domain.Note{ID: utils.NewID(), CandidateID: candidateID, AuthorID: actor.ID, Content: content, CreatedAt: time.Now()}
	if err := s.store.Notes().Create(ctx, n); err != nil {
		return nil, domain.Persist("create note", err)
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    candidateID,
		Action:      domain.ActionNoteCreated,
		Description: "Nota añadida",
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		Metadata:    datatypes.JSONMap{"note_id": n.ID},
	})
	return n, nil
}

func (s *CandidateService) Notes(ctx context.Context, candidateID string) ([]domain.Note, error) {
	if _, err := s.candidate(ctx, candidateID); err != nil {
		return nil, err
	}
	out, err := s.store.Notes().ListByCandidate(ctx, candidateID)
	return out, domain.Persist("list notes", err)
}

// ExtractProfile 表单预填，不落库
func (s *CandidateService) ExtractProfile(ctx context.Context, fileName string, data []byte) (*domain.CandidateProfile, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("cv extraction: %w", domain.ErrUnsupported)
	}
	if len(data) == 0 {
		return nil, domain.Invalid("file", "empty file")
	}
	return s.extractor.ExtractProfile(ctx, fileName, data)
}

func (s *CandidateService) Timeline(ctx context.Context, candidateID string) ([]domain.TimelineEvent, error) {
	return s.recorder.CompleteTimeline(ctx, candidateID)
}

func (s *CandidateService) candidate(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := s.store.Candidates().FindByID(ctx, id)
	if err != nil {
		return nil, domain.Persist("load candidate", err)
	}
	if c == nil {
		return nil, fmt.Errorf("candidate %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *CandidateService) application(ctx context.Context, id string) (*domain.Application, error) {
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, domain.Persist("load application", err)
	}
	if app == nil {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	return app, nil
}

func (s *CandidateService) notifyNewProcess(ctx context.Context, c *domain.Candidate, app *domain.Application) {
	if app.ResponsibleID == nil {
		return
	}
	u, err := s.store.Users().FindByID(ctx, *app.ResponsibleID)
	if err != nil || u == nil {
		if err != nil {
			s.log.Warn("notification: load responsible", zap.Error(err))
		}
		return
	}
	s.fx.notify(ctx, domain.Notification{
		Kind:             domain.NotifyNewProcess,
		To:               []string{u.Email},
		CandidateID:      c.ID,
		CandidateName:    c.Name,
		CandidateEmail:   c.Email,
		ApplicationID:    app.ID,
		ApplicationTitle: app.Title,
		Stage:            c.Stage,
		CreatedAt:        time.Now(),
	})
}
