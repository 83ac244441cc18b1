package compute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/observability"
	"github.com/huangsam/tally/schema"
)

// Worker polls the queue and processes one report at a time.
type Worker struct {
	ID           string
	Queue        contract.ReportQueue
	Processor    *Processor
	PollInterval time.Duration
	StaleAfter   time.Duration
	MaxReports   int
	Logger       *slog.Logger
	Observer     *observability.Metrics
}

// NewWorker creates a Worker for cfg that processes reports from store.
func NewWorker(cfg *contract.Config, store contract.Store, logger *slog.Logger, observer *observability.Metrics) *Worker {
	return &Worker{
		ID:           cfg.WorkerID,
		Queue:        store,
		Processor:    NewProcessor(store, logger, observer),
		PollInterval: cfg.PollInterval,
		StaleAfter:   cfg.StaleAfter,
		MaxReports:   cfg.MaxReports,
		Logger:       logger,
		Observer:     observer,
	}
}

// RunOnce books and processes at most one report. It reports whether a report
// was booked. The only error returned is a configuration error, after the
// report has been marked FAILED and removed from the queue.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	item, err := w.Queue.Book(ctx, w.ID, w.Processor.Now(), w.StaleAfter)
	if errors.Is(err, contract.ErrQueueEmpty) {
		w.Observer.ObserveEmptyPoll()
		return false, nil
	}
	if err != nil {
		w.Logger.Error("Failed to book a report", "worker", w.ID, "error", err)
		return false, nil
	}
	return true, w.process(ctx, item)
}

func (w *Worker) process(ctx context.Context, item schema.QueueItem) (fatal error) {
	started := w.Processor.Now()
	w.Logger.Info("Processing report", "report", item.ID, "project", item.ProjectKey, "worker", w.ID)

	var rc *Context
	var procErr error
	defer func() {
		if r := recover(); r != nil {
			procErr = fmt.Errorf("panic while processing report: %v", r)
			w.Logger.Error("Recovered from panic", "report", item.ID, "panic", r, "stack", string(debug.Stack()))
		}

		// Cleanup must happen even if the worker is being stopped.
		cleanupCtx := context.WithoutCancel(ctx)
		w.Processor.Finish(cleanupCtx, item, started, procErr)
		rc.Release()
		if err := w.Queue.Remove(cleanupCtx, item.ID, w.ID); errors.Is(err, contract.ErrBookingLost) {
			w.Logger.Warn("Report left in queue for its new worker", "report", item.ID, "worker", w.ID)
		} else if err != nil {
			w.Logger.Error("Failed to remove report from queue", "report", item.ID, "error", err)
		}
		if measure.IsConfigurationError(procErr) {
			fatal = procErr
		}
	}()

	rc, procErr = w.Processor.Process(ctx, item)
	return nil
}

// Run processes reports until ctx is cancelled, MaxReports reports have been
// processed, or a configuration error occurs.
func (w *Worker) Run(ctx context.Context) error {
	w.Logger.Info("Worker started", "worker", w.ID, "poll_interval", w.PollInterval, "stale_after", w.StaleAfter)
	processed := 0
	for {
		if ctx.Err() != nil {
			w.Logger.Info("Worker stopped", "worker", w.ID, "processed", processed)
			return nil
		}

		booked, err := w.RunOnce(ctx)
		if err != nil {
			return err
		}
		if booked {
			processed++
			if w.MaxReports > 0 && processed >= w.MaxReports {
				w.Logger.Info("Worker reached its report limit", "worker", w.ID, "processed", processed)
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.PollInterval):
		}
	}
}
