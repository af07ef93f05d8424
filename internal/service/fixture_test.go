package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
	"ats-pipeline/pkg/utils"
)

var (
	legacyCaps      = domain.Capabilities{TimelineLog: true, CandidateEvents: true}
	postulationCaps = domain.Capabilities{Postulations: true, TimelineLog: true, CandidateEvents: true}
)

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	resolver *Resolver
	recorder *Recorder
	stages   *StageService
	cands    *CandidateService
	actor    Actor
}

func newFixture(t *testing.T, caps domain.Capabilities) *fixture {
	t.Helper()
	log := zap.NewNop()
	store := newMemStore(caps)
	n := &recordingNotifier{}
	resolver := NewResolver(store, log)
	recorder := NewRecorder(store, log)
	recorder.now = store.clock
	f := &fixture{
		store:    store,
		notifier: n,
		resolver: resolver,
		recorder: recorder,
		stages:   NewStageService(store, resolver, recorder, n, log),
		cands: NewCandidateService(CandidateDeps{
			Store: store, Resolver: resolver, Recorder: recorder, Notifier: n, Log: log,
		}),
	}
	hr := f.user(t, "hr@example.com", domain.RoleAdminHR)
	f.actor = Actor{ID: hr.ID, Email: hr.Email, Role: hr.Role}
	return f
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: utils.NewID(), Email: email, Name: email, Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) app(t *testing.T, title string, responsible *domain.User) *domain.Application {
	t.Helper()
	a := &domain.Application{ID: utils.NewID(), Title: title, Status: domain.ApplicationActive}
	if responsible != nil {
		id := responsible.ID
		a.ResponsibleID = &id
	}
	require.NoError(t, f.store.Applications().Create(context.Background(), a))
	return a
}

// candidate 直接插入旧模型行
func (f *fixture) candidate(t *testing.T, name, email, appID, stage string) *domain.Candidate {
	t.Helper()
	c := &domain.Candidate{
		ID:            utils.NewID(),
		Name:          name,
		Email:         email,
		Stage:         stage,
		Status:        domain.CandidatePending,
		ApplicationID: appID,
	}
	require.NoError(t, f.store.Candidates().Create(context.Background(), c))
	return c
}

func (f *fixture) postulation(t *testing.T, candID, appID, stage string) *domain.Postulation {
	t.Helper()
	p := &domain.Postulation{ID: utils.NewID(), CandidateID: candID, ApplicationID: appID, Stage: stage, Status: domain.CandidatePending}
	require.NoError(t, f.store.Postulations().Create(context.Background(), p))
	return p
}

func (f *fixture) evaluation(t *testing.T, candID string, score float64) {
	t.Helper()
	require.NoError(t, f.store.Evaluations().Create(context.Background(), &domain.Evaluation{
		ID: utils.NewID(), CandidateID: candID, Type: domain.EvalGeneral, Score: score,
	}))
}

func (f *fixture) reload(t *testing.T, id string) *domain.Candidate {
	t.Helper()
	c, err := f.store.Candidates().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func (f *fixture) events(candID string) []domain.TimelineEvent {
	var out []domain.TimelineEvent
	for _, e := range f.store.data.timeline {
		if e.EntityID == candID {
			out = append(out, e)
		}
	}
	return out
}

func actions(events []domain.TimelineEvent) []domain.TimelineAction {
	out := make([]domain.TimelineAction, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}
