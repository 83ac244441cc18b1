package compute

import (
	"context"

	"github.com/huangsam/tally/core/formula"
	"github.com/huangsam/tally/core/issue"
	"github.com/huangsam/tally/internal/contract"
)

// Step is one stage of report processing. Steps run in order on a single goroutine.
type Step interface {
	Description() string
	Execute(ctx context.Context, rc *Context) error
}

// DefaultSteps returns the pipeline run for every report. Nothing is written
// before the last step, so a report failing earlier leaves the store as it was.
func DefaultSteps(issues contract.IssueStore, writer contract.ReportWriter) []Step {
	return []Step{
		&LoadMeasuresStep{},
		&IntegrateIssuesStep{Issues: issues, Lifecycle: issue.NewLifecycle()},
		&ComputeFormulaMeasuresStep{Formulas: formula.DefaultFormulas()},
		&CollectMeasuresStep{},
		&CollectIssuesStep{},
		&PersistReportStep{Writer: writer},
	}
}
