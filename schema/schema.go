// Package schema has the shared models and enums for all parts of tally.
package schema

import "time"

// QueueItem is a report waiting in, or booked from, the report queue.
type QueueItem struct {
	ID          int64       `json:"id"`
	ProjectKey  string      `json:"project_key"`
	PayloadPath string      `json:"payload_path"`
	Status      QueueStatus `json:"status"`
	WorkerID    string      `json:"worker_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
}

// ReportActivity is the persisted outcome of one report's computation.
// Failed reports are retained with their reason for inspection.
type ReportActivity struct {
	ReportID      int64        `json:"report_id"`
	ProjectKey    string       `json:"project_key"`
	Status        ReportStatus `json:"status"`
	SubmittedAt   time.Time    `json:"submitted_at"`
	ExecutedAt    *time.Time   `json:"executed_at,omitempty"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	DurationMs    *int64       `json:"duration_ms,omitempty"`
	FailureReason *string      `json:"failure_reason,omitempty"`
}
