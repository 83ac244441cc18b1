package compute

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/report"
)

// Submission is the outcome of a successful Submit.
type Submission struct {
	ReportID    int64  `json:"report_id"`
	ProjectKey  string `json:"project_key"`
	PayloadPath string `json:"payload_path"`
}

// Submit validates the payload at path and queues it for processing.
// The payload is read again by the worker, so the path is stored absolute.
func Submit(ctx context.Context, queue contract.ReportQueue, path string, now time.Time) (Submission, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	payload, err := report.Load(abs)
	if err != nil {
		return Submission{}, err
	}

	id, err := queue.Enqueue(ctx, payload.ProjectKey, abs, now)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to enqueue report: %w", err)
	}
	return Submission{ReportID: id, ProjectKey: payload.ProjectKey, PayloadPath: abs}, nil
}
