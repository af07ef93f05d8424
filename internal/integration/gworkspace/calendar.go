package gworkspace

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"ats-pipeline/internal/domain"
)

// Calendar 面试日程
type Calendar struct {
	svc        *calendar.Service
	calendarID string
}

func NewCalendar(ctx context.Context, hc *http.Client, calendarID string) (*Calendar, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Calendar{svc: svc, calendarID: calendarID}, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, iv domain.Interview) (domain.CalendarResult, error) {
	ev, err := c.svc.Events.Insert(c.calendarID, toEvent(iv)).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return domain.CalendarResult{}, err
	}
	return domain.CalendarResult{OK: true, EventURL: ev.HtmlLink}, nil
}

func toEvent(iv domain.Interview) *calendar.Event {
	ev := &calendar.Event{
		Summary:     iv.Title,
		Description: iv.Description,
		Start:       &calendar.EventDateTime{DateTime: iv.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: iv.End.Format(time.RFC3339)},
	}
	for _, a := range iv.Attendees {
		if a == "" {
			continue
		}
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: a})
	}
	return ev
}
