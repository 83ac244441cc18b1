package compute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/tally/core/component"
	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/observability"
	"github.com/huangsam/tally/internal/report"
	"github.com/huangsam/tally/schema"
)

// Processor runs the steps of one report and records its activity.
type Processor struct {
	Steps    []Step
	Metrics  measure.MetricRepository
	Activity contract.ActivityStore
	// Queue, when set, has the booking refreshed before every step.
	Queue    contract.ReportQueue
	Logger   *slog.Logger
	Observer *observability.Metrics
	Now      func() time.Time
}

// NewProcessor creates a Processor running the default pipeline against store.
func NewProcessor(store contract.Store, logger *slog.Logger, observer *observability.Metrics) *Processor {
	return &Processor{
		Steps:    DefaultSteps(store, store),
		Metrics:  measure.NewDefaultMetricRepository(),
		Activity: store,
		Queue:    store,
		Logger:   logger,
		Observer: observer,
		Now:      time.Now,
	}
}

// Process runs the pipeline on a booked item. The returned Context must be
// released by the caller, even when an error is returned.
func (p *Processor) Process(ctx context.Context, item schema.QueueItem) (*Context, error) {
	start := p.Now()
	if err := p.Activity.MarkExecuting(ctx, item.ID, start); err != nil {
		p.Logger.Warn("Failed to record report start", "report", item.ID, "error", err)
	}

	payload, err := report.Load(item.PayloadPath)
	if err != nil {
		return nil, err
	}
	if payload.ProjectKey != item.ProjectKey {
		return nil, fmt.Errorf("%w: payload is for project %q, report was submitted for %q",
			report.ErrInvalidPayload, payload.ProjectKey, item.ProjectKey)
	}
	tree, err := component.BuildFromPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrInvalidPayload, err)
	}
	rc, err := NewContext(item.ID, payload, tree, p.Metrics, p.Logger, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrInvalidPayload, err)
	}

	for _, step := range p.Steps {
		if err := p.heartbeat(ctx, item); err != nil {
			return rc, err
		}
		stepStart := time.Now()
		if err := step.Execute(ctx, rc); err != nil {
			return rc, fmt.Errorf("%s: %w", step.Description(), err)
		}
		elapsed := time.Since(stepStart)
		p.Observer.ObserveStep(step.Description(), elapsed)
		rc.Logger.Info(step.Description(), "step", step.Description(), "duration", elapsed)
	}
	return rc, nil
}

func (p *Processor) heartbeat(ctx context.Context, item schema.QueueItem) error {
	if p.Queue == nil {
		return nil
	}
	return p.Queue.Heartbeat(ctx, item.ID, item.WorkerID, p.Now())
}

// Finish records the final status of a report. A report whose booking was
// lost is left to the worker that holds it now.
func (p *Processor) Finish(ctx context.Context, item schema.QueueItem, started time.Time, procErr error) {
	if errors.Is(procErr, contract.ErrBookingLost) {
		p.Logger.Warn("Abandoned report booked by another worker", "report", item.ID, "project", item.ProjectKey)
		return
	}

	status := schema.SuccessReport
	var reason *string
	if procErr != nil {
		status = schema.FailedReport
		msg := procErr.Error()
		reason = &msg
	}

	if err := p.Activity.MarkFinished(ctx, item.ID, status, p.Now(), reason); err != nil {
		p.Logger.Error("Failed to record report status", "report", item.ID, "status", status, "error", err)
	}
	p.Observer.ObserveReport(string(status))

	if procErr != nil {
		p.Logger.Error("Analysis failed", "report", item.ID, "project", item.ProjectKey, "error", procErr)
		return
	}
	p.Logger.Info(fmt.Sprintf("Analysis of project %s (report %d) (done) | time=%dms",
		item.ProjectKey, item.ID, time.Since(started).Milliseconds()))
}
