// Package compute runs the ordered pipeline of steps that turns one queued
// report into persisted measures and issues.
package compute

import (
	"log/slog"
	"time"

	"github.com/huangsam/tally/core/component"
	"github.com/huangsam/tally/core/debt"
	"github.com/huangsam/tally/core/issue"
	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/core/tracking"
	"github.com/huangsam/tally/schema"
)

// FileTracking is the reconciliation result of one component.
type FileTracking = tracking.Tracking[*issue.Issue, *issue.Issue]

// Context holds everything the steps share while processing one report.
// It is created per report and released once the report is done.
type Context struct {
	ReportID   int64
	ProjectKey string
	Payload    *schema.ReportPayload
	Tree       *component.Tree
	Metrics    measure.MetricRepository
	Measures   *measure.MemoryRepository
	DebtModel  *debt.Model

	// Trackings holds the tracking result of each component carrying issues, by ref.
	Trackings map[int]*FileTracking
	// Closed holds the base issues closed by this report.
	Closed []*issue.Issue
	// Sources holds the line hashes of every file that shipped its source, by ref.
	Sources map[int]*tracking.LineHashSequence
	// Output collects what the report writes. It is committed in one go by the last step.
	Output schema.ReportOutput

	Logger *slog.Logger
	Now    time.Time
}

// NewContext prepares the context of a report whose payload is already loaded.
func NewContext(reportID int64, payload *schema.ReportPayload, tree *component.Tree, metrics measure.MetricRepository, logger *slog.Logger, now time.Time) (*Context, error) {
	model, err := debt.ModelFromPayload(&payload.Debt)
	if err != nil {
		return nil, err
	}

	sources := make(map[int]*tracking.LineHashSequence, len(payload.Sources))
	for _, s := range payload.Sources {
		sources[s.Ref] = tracking.NewLineHashSequenceFromLines(s.Lines)
	}

	return &Context{
		ReportID:   reportID,
		ProjectKey: payload.ProjectKey,
		Payload:    payload,
		Tree:       tree,
		Metrics:    metrics,
		Measures:   measure.NewMemoryRepository(),
		DebtModel:  model,
		Trackings:  make(map[int]*FileTracking),
		Sources:    sources,
		Logger:     logger.With(slog.Int64("report", reportID), slog.String("project", payload.ProjectKey)),
		Now:        now,
	}, nil
}

// Release drops the per-report state so it can be collected even if the
// Context itself is still referenced.
func (rc *Context) Release() {
	if rc == nil {
		return
	}
	rc.Payload = nil
	rc.Tree = nil
	rc.Measures = nil
	rc.DebtModel = nil
	rc.Trackings = nil
	rc.Closed = nil
	rc.Sources = nil
	rc.Output = schema.ReportOutput{}
}
