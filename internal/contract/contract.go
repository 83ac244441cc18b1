// Package contract provides interfaces and shared utilities for the internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/tally/schema"
)

// Queue errors.
var (
	// ErrQueueEmpty is returned by ReportQueue.Book when no item can be booked.
	ErrQueueEmpty = errors.New("no report available in queue")
	// ErrBookingLost is returned when a queue item has been booked again by another worker.
	ErrBookingLost = errors.New("report was booked again by another worker")
)

// ReportQueue is the queue of submitted reports. Booking must be atomic across workers.
type ReportQueue interface {
	// Enqueue adds a report and records its PENDING activity. It returns the report id.
	Enqueue(ctx context.Context, projectKey, payloadPath string, submittedAt time.Time) (int64, error)

	// Book reserves the oldest available item for workerID. Items held by a
	// worker for longer than staleAfter are available again.
	Book(ctx context.Context, workerID string, now time.Time, staleAfter time.Duration) (schema.QueueItem, error)

	// Heartbeat refreshes the booking of workerID so the item does not turn stale.
	// It returns ErrBookingLost when another worker holds the item.
	Heartbeat(ctx context.Context, id int64, workerID string, now time.Time) error

	// Remove deletes an item still booked by workerID. It returns ErrBookingLost
	// and leaves the item alone when another worker holds it.
	Remove(ctx context.Context, id int64, workerID string) error

	// List returns all queued items, oldest first.
	List(ctx context.Context) ([]schema.QueueItem, error)

	// Clear removes all queued items and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
}

// ActivityStore tracks the lifecycle of each submitted report.
type ActivityStore interface {
	// MarkExecuting records that a worker started the report.
	MarkExecuting(ctx context.Context, reportID int64, at time.Time) error

	// MarkFinished records the final status. reason is nil on success.
	MarkFinished(ctx context.Context, reportID int64, status schema.ReportStatus, at time.Time, reason *string) error

	// GetActivity returns the activity of one report.
	GetActivity(ctx context.Context, reportID int64) (schema.ReportActivity, error)

	// ListActivities returns the most recent activities, newest first. An empty projectKey lists all projects.
	ListActivities(ctx context.Context, projectKey string, limit int) ([]schema.ReportActivity, error)
}

// MeasureStore persists computed measures.
type MeasureStore interface {
	// SaveMeasures stores the measures of one report.
	SaveMeasures(ctx context.Context, records []schema.MeasureRecord) error

	// ListMeasures returns the measures of a report. reportID 0 means the
	// latest successful report of the project.
	ListMeasures(ctx context.Context, projectKey string, reportID int64) ([]schema.MeasureRecord, error)

	// ListAllMeasures returns every stored measure.
	ListAllMeasures(ctx context.Context) ([]schema.MeasureRecord, error)
}

// IssueStore persists tracked issues and the line hashes of analyzed files.
type IssueStore interface {
	// ListOpenIssues returns the open issues of a project. An empty componentKey lists the whole project.
	ListOpenIssues(ctx context.Context, projectKey, componentKey string) ([]schema.IssueRecord, error)

	// SaveIssues inserts or updates issues by key.
	SaveIssues(ctx context.Context, records []schema.IssueRecord) error

	// GetFileSource returns the stored line hashes of a file.
	GetFileSource(ctx context.Context, projectKey, componentKey string) (schema.FileSourceRecord, bool, error)

	// SaveFileSource replaces the stored line hashes of a file.
	SaveFileSource(ctx context.Context, record schema.FileSourceRecord) error
}

// ReportWriter commits the output of one report. Either all of it is stored or none of it is.
type ReportWriter interface {
	SaveReport(ctx context.Context, output schema.ReportOutput) error
}

// Store is the full persistence surface backed by one database.
type Store interface {
	ReportQueue
	ActivityStore
	MeasureStore
	IssueStore
	ReportWriter

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// StoreManager gives access to the stores.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetQueue() ReportQueue
	GetActivityStore() ActivityStore
	GetMeasureStore() MeasureStore
	GetIssueStore() IssueStore
}
