package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ats-pipeline/internal/domain"
)

type memQueue struct {
	jobs []string
	err  error
}

func (q *memQueue) EnqueueAnalysis(_ context.Context, id string) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, id)
	return nil
}

func TestAttachmentLifecycle(t *testing.T) {
	f := newFixture(t, legacyCaps)
	files := newMemFiles()
	q := &memQueue{}
	ext := fakeExtractor{profile: &domain.CandidateProfile{Name: "Lucía", Score: 8.5, Skills: []string{"go"}}}
	svc := NewAttachmentService(f.store, f.recorder, files, q, ext, zap.NewNop())
	app := f.app(t, "Backend", nil)
	c := f.candidate(t, "Lucía", "lucia@example.com", app.ID, "Pre-entrevista")

	a, err := svc.Upload(context.Background(), f.actor, UploadInput{
		CandidateID: c.ID,
		FileName:    "../../etc/cv.pdf",
		MimeType:    "application/pdf",
		Analyze:     true,
		Body:        strings.NewReader("%PDF-1.4 fake"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", a.FileName)
	assert.True(t, strings.HasPrefix(a.StoragePath, c.ID+"/"))
	assert.EqualValues(t, len("%PDF-1.4 fake"), a.Size)
	assert.Equal(t, domain.AnalysisPending, a.AnalysisStatus)
	assert.Equal(t, []string{a.ID}, q.jobs)

	require.NoError(t, svc.ProcessAnalysis(context.Background(), a.ID))
	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisDone, got.AnalysisStatus)
	var profile domain.CandidateProfile
	require.NoError(t, json.Unmarshal(got.Analysis, &profile))
	assert.Equal(t, 8.5, profile.Score)

	_, rc, err := svc.Open(context.Background(), a.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "%PDF-1.4 fake", string(body))

	list, err := svc.List(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(context.Background(), f.actor, a.ID))
	assert.Empty(t, files.objects)
	assert.ErrorIs(t, svc.Delete(context.Background(), f.actor, a.ID), domain.ErrNotFound)

	acts := actions(f.events(c.ID))
	assert.Contains(t, acts, domain.ActionAttachmentCreated)
	assert.Contains(t, acts, domain.ActionAttachmentUpdated)
	assert.Contains(t, acts, domain.ActionAttachmentDeleted)
}

func TestAttachmentAnalysisFailure(t *testing.T) {
	f := newFixture(t, legacyCaps)
	q := &memQueue{}
	svc := NewAttachmentService(f.store, f.recorder, newMemFiles(), q, fakeExtractor{err: errors.New("model timeout")}, zap.NewNop())
	app := f.app(t, "Backend", nil)
	c := f.candidate(t, "Lucía", "lucia@example.com", app.ID, "Pre-entrevista")

	a, err := svc.Upload(context.Background(), f.actor, UploadInput{CandidateID: c.ID, FileName: "cv.txt", Body: strings.NewReader("hola")})
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisNone, a.AnalysisStatus)
	assert.Empty(t, q.jobs)

	_, err = svc.Analyze(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, q.jobs)

	require.NoError(t, svc.ProcessAnalysis(context.Background(), a.ID))
	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisFailed, got.AnalysisStatus)
}

func TestAttachmentQueueFailureIsBestEffort(t *testing.T) {
	f := newFixture(t, legacyCaps)
	svc := NewAttachmentService(f.store, f.recorder, newMemFiles(), &memQueue{err: errors.New("broker down")}, nil, zap.NewNop())
	app := f.app(t, "Backend", nil)
	c := f.candidate(t, "Lucía", "lucia@example.com", app.ID, "Pre-entrevista")

	a, err := svc.Upload(context.Background(), f.actor, UploadInput{CandidateID: c.ID, FileName: "cv.pdf", Analyze: true, Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisPending, a.AnalysisStatus)
}

func TestAttachmentUploadErrors(t *testing.T) {
	f := newFixture(t, legacyCaps)
	svc := NewAttachmentService(f.store, f.recorder, newMemFiles(), nil, nil, zap.NewNop())

	_, err := svc.Upload(context.Background(), f.actor, UploadInput{CandidateID: "missing", FileName: "cv.pdf", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Upload(context.Background(), f.actor, UploadInput{CandidateID: "missing", FileName: " ", Body: strings.NewReader("x")})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Analyze(context.Background(), "any")
	assert.ErrorIs(t, err, domain.ErrUnsupported)

	none := NewAttachmentService(f.store, f.recorder, nil, nil, nil, zap.NewNop())
	_, err = none.Upload(context.Background(), f.actor, UploadInput{CandidateID: "x", FileName: "cv.pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

type fakeCalendar struct {
	got domain.Interview
	err error
}

func (c *fakeCalendar) CreateEvent(_ context.Context, iv domain.Interview) (domain.CalendarResult, error) {
	c.got = iv
	if c.err != nil {
		return domain.CalendarResult{}, c.err
	}
	return domain.CalendarResult{OK: true, EventURL: "https://calendar.example/e/1"}, nil
}

func TestScheduleInterview(t *testing.T) {
	f := newFixture(t, legacyCaps)
	cal := &fakeCalendar{}
	svc := NewInterviewService(f.store, f.recorder, cal, f.notifier, zap.NewNop())
	interviewer := f.user(t, "ana@example.com", domain.RoleInterviewer)
	app := f.app(t, "Backend", nil)
	c := f.candidate(t, "Lucía", "lucia@example.com", app.ID, "1ª Entrevista")
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	res, err := svc.Schedule(context.Background(), f.actor, c.ID, ScheduleInput{InterviewerID: interviewer.ID, Start: start, DurationMin: 45})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "https://calendar.example/e/1", res.EventURL)
	assert.Equal(t, start.Add(45*time.Minute), cal.got.End)
	assert.ElementsMatch(t, []string{c.Email, interviewer.Email}, cal.got.Attendees)
	assert.Equal(t, domain.CandidateScheduled, f.reload(t, c.ID).Status)

	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotifyNextInterview, sent[0].Kind)
	assert.Equal(t, interviewer.Email, sent[0].InterviewerEmail)
}

func TestScheduleInterviewCalendarFailure(t *testing.T) {
	f := newFixture(t, legacyCaps)
	svc := NewInterviewService(f.store, f.recorder, &fakeCalendar{err: errors.New("quota")}, f.notifier, zap.NewNop())
	app := f.app(t, "Backend", nil)
	c := f.candidate(t, "Lucía", "lucia@example.com", app.ID, "1ª Entrevista")

	res, err := svc.Schedule(context.Background(), f.actor, c.ID, ScheduleInput{Start: time.Now()})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, domain.CandidatePending, f.reload(t, c.ID).Status)
	assert.Empty(t, f.notifier.all())

	_, err = svc.Schedule(context.Background(), f.actor, c.ID, ScheduleInput{})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}
