package models

import "time"

type DispatchStatus string

const (
	StatusSent   DispatchStatus = "sent"
	StatusFailed DispatchStatus = "failed"
)

// DispatchRequest is a validated send-or-schedule request.
// A nil ScheduledTime means send immediately.
type DispatchRequest struct {
	To            string     `json:"to" validate:"required,email"`
	Subject       string     `json:"subject" validate:"required"`
	Body          string     `json:"body" validate:"required"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
}

// ScheduledJob is the public view of a pending job.
type ScheduledJob struct {
	ID            string    `json:"id"`
	To            string    `json:"to"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	ScheduledTime time.Time `json:"scheduledTime"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HistoryEntry is the terminal record of one dispatch attempt.
// CompletedAt is serialized as "sentAt" for the browser UI.
type HistoryEntry struct {
	ID           string     `json:"id"`
	To           string     `json:"to"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`

	CompletedAt time.Time      `json:"sentAt"`
	Status      DispatchStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
}
