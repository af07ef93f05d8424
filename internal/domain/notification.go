package domain

import "time"

type NotificationKind string

const (
	NotifyNewProcess    NotificationKind = "new_process"
	NotifyNextInterview NotificationKind = "next_interview"
	NotifyStageChanged  NotificationKind = "stage_changed"
)

type Notification struct {
	Kind             NotificationKind `json:"kind"`
	To               []string         `json:"to"`
	CandidateID      string           `json:"candidateId"`
	CandidateName    string           `json:"candidateName"`
	CandidateEmail   string           `json:"candidateEmail"`
	ApplicationID    string           `json:"applicationId"`
	ApplicationTitle string           `json:"applicationTitle"`
	Stage            string           `json:"stage,omitempty"`
	PreviousStage    string           `json:"previousStage,omitempty"`
	InterviewerEmail string           `json:"interviewerEmail,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// Interview 日历事件的输入
type Interview struct {
	CandidateID      string    `json:"candidateId"`
	ApplicationID    string    `json:"applicationId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Attendees        []string  `json:"attendees"`
	InterviewerEmail string    `json:"interviewerEmail"`
}

type CalendarResult struct {
	OK       bool   `json:"ok"`
	EventURL string `json:"eventUrl,omitempty"`
}
