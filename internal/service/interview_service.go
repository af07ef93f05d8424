package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"ats-pipeline/internal/domain"
)

type InterviewService struct {
	store    domain.Store
	recorder *Recorder
	calendar Calendar
	fx       effects
	log      *zap.Logger
}

func NewInterviewService(store domain.Store, recorder *Recorder, calendar Calendar, notifier Notifier, log *zap.Logger) *InterviewService {
	return &InterviewService{store: store, recorder: recorder, calendar: calendar, fx: effects{notifier: notifier, log: log}, log: log}
}

type ScheduleInput struct {
	ApplicationID string    `json:"applicationId"`
	InterviewerID string    `json:"interviewerId"`
	Start         time.Time `json:"start"`
	DurationMin   int       `json:"durationMin"`
	Notes         string    `json:"notes"`
}

// Schedule 日历失败时返回 OK=false，不算错误
func (s *InterviewService) Schedule(ctx context.Context, actor Actor, candidateID string, in ScheduleInput) (domain.CalendarResult, error) {
	if s.calendar == nil {
		return domain.CalendarResult{}, fmt.Errorf("calendar: %w", domain.ErrUnsupported)
	}
	if in.Start.IsZero() {
		return domain.CalendarResult{}, domain.Invalid("start", "start time is required")
	}
	if in.DurationMin <= 0 {
		in.DurationMin = 60
	}
	c, err := s.store.Candidates().FindByID(ctx, candidateID)
	if err != nil {
		return domain.CalendarResult{}, domain.Persist("load candidate", err)
	}
	if c == nil {
		return domain.CalendarResult{}, fmt.Errorf("candidate %s: %w", candidateID, domain.ErrNotFound)
	}
	appID := in.ApplicationID
	if appID == "" {
		appID = c.ApplicationID
	}
	app, err := s.store.Applications().FindByID(ctx, appID)
	if err != nil {
		return domain.CalendarResult{}, domain.Persist("load application", err)
	}
	if app == nil {
		return domain.CalendarResult{}, fmt.Errorf("application %s: %w", appID, domain.ErrNotFound)
	}
	var interviewer *domain.User
	if in.InterviewerID != "" {
		if interviewer, err = s.store.Users().FindByID(ctx, in.InterviewerID); err != nil {
			return domain.CalendarResult{}, domain.Persist("load interviewer", err)
		}
		if interviewer == nil {
			return domain.CalendarResult{}, domain.Invalid("interviewerId", "unknown interviewer")
		}
	}

	iv := domain.Interview{
		CandidateID:   c.ID,
		ApplicationID: app.ID,
		Title:         fmt.Sprintf("Entrevista: %s - %s", c.Name, app.Title),
		Description:   in.Notes,
		Start:         in.Start,
		End:           in.Start.Add(time.Duration(in.DurationMin) * time.Minute),
		Attendees:     []string{c.Email},
	}
	if interviewer != nil {
		iv.InterviewerEmail = interviewer.Email
		iv.Attendees = append(iv.Attendees, interviewer.Email)
	}

	res, err := s.calendar.CreateEvent(ctx, iv)
	if err != nil {
		bestEffortFailures.WithLabelValues("calendar").Inc()
		s.log.Warn("calendar event failed", zap.String("candidate_id", c.ID), zap.Error(err))
		return domain.CalendarResult{OK: false}, nil
	}

	if c.Status != domain.CandidateScheduled {
		c.Status = domain.CandidateScheduled
		if err := s.store.Candidates().Update(ctx, c); err != nil {
			s.log.Warn("mark candidate scheduled", zap.String("candidate_id", c.ID), zap.Error(err))
		}
	}
	s.recorder.Record(ctx, domain.TimelineEvent{
		EntityID:    c.ID,
		Action:      domain.ActionCandidateUpdated,
		Description: "Entrevista agendada: " + iv.Start.Format(time.RFC3339),
		ActorID:     actor.idPtr(),
		ActorEmail:  actor.Email,
		NewValue:    string(domain.CandidateScheduled),
		Metadata:    datatypes.JSONMap{"application_id": app.ID, "event_url": res.EventURL},
	})
	if interviewer != nil {
		s.fx.notify(ctx, domain.Notification{
			Kind:             domain.NotifyNextInterview,
			To:               []string{interviewer.Email},
			CandidateID:      c.ID,
			CandidateName:    c.Name,
			CandidateEmail:   c.Email,
			ApplicationID:    app.ID,
			ApplicationTitle: app.Title,
			Stage:            c.Stage,
			InterviewerEmail: interviewer.Email,
			CreatedAt:        time.Now(),
		})
	}
	return res, nil
}
