// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteMeasures prints stored measures using the configured output format.
func (ow *OutWriter) WriteMeasures(records []schema.MeasureRecord, cfg *contract.Config) error {
	return PrintMeasures(records, cfg)
}

// WriteIssues prints open issues using the configured output format.
func (ow *OutWriter) WriteIssues(records []schema.IssueRecord, cfg *contract.Config) error {
	return PrintIssues(records, cfg)
}

// WriteQueue prints queued reports using the configured output format.
func (ow *OutWriter) WriteQueue(items []schema.QueueItem, cfg *contract.Config) error {
	return PrintQueue(items, cfg)
}

// WriteActivities prints report activities using the configured output format.
func (ow *OutWriter) WriteActivities(activities []schema.ReportActivity, cfg *contract.Config) error {
	return PrintActivities(activities, cfg)
}

// WriteMetrics prints metric definitions using the configured output format.
func (ow *OutWriter) WriteMetrics(metrics []measure.Metric, cfg *contract.Config) error {
	return PrintMetricDefinitions(metrics, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for component keys in
// table output based on the terminal width.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // CI and pipes
		} else {
			termWidth = detectedWidth
		}
	}

	// Metric + Breakdown + Value columns, plus borders and padding
	available := termWidth - 65
	if available < 15 {
		return 15
	}
	if available > 80 {
		return 80
	}
	return available
}
