package compute

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/huangsam/tally/core/component"
	"github.com/huangsam/tally/core/debt"
	"github.com/huangsam/tally/core/formula"
	"github.com/huangsam/tally/core/issue"
	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/core/tracking"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/report"
	"github.com/huangsam/tally/schema"
)

// LoadMeasuresStep seeds the measure repository with the measures of the payload.
type LoadMeasuresStep struct{}

// Description implements Step.
func (s *LoadMeasuresStep) Description() string { return "Load measures" }

// Execute implements Step.
func (s *LoadMeasuresStep) Execute(_ context.Context, rc *Context) error {
	for _, pm := range rc.Payload.Measures {
		metric, err := rc.Metrics.GetByKey(pm.Metric)
		if err != nil {
			if errors.Is(err, measure.ErrMetricNotFound) {
				return fmt.Errorf("%w: unknown metric %q on component %d", report.ErrInvalidPayload, pm.Metric, pm.Ref)
			}
			return err
		}
		value, err := payloadValue(pm, metric)
		if err != nil {
			return err
		}
		m := measure.New(value)
		m.Description = pm.Description
		if pm.Variations != nil {
			vars, err := measure.NewVariations(pm.Variations...)
			if err != nil {
				return fmt.Errorf("%w: measure %s on component %d: %w", report.ErrInvalidPayload, pm.Metric, pm.Ref, err)
			}
			m = m.WithVariations(vars)
		}
		if err := rc.Measures.Seed(pm.Ref, metric, m); err != nil {
			if errors.Is(err, measure.ErrMeasureExists) {
				return fmt.Errorf("%w: %v", report.ErrInvalidPayload, err)
			}
			return err
		}
	}
	rc.Logger.Debug("Loaded measures", "count", len(rc.Payload.Measures))
	return nil
}

// payloadValue converts a payload measure to the kind declared by metric.
// Integers widen to longs and doubles; anything else must match exactly.
func payloadValue(pm schema.PayloadMeasure, metric measure.Metric) (measure.Value, error) {
	mismatch := func(held string) error {
		return fmt.Errorf("%w: measure %s on component %d holds %s, metric expects %s",
			report.ErrInvalidPayload, pm.Metric, pm.Ref, held, metric.Kind)
	}

	switch {
	case pm.Int != nil:
		switch metric.Kind {
		case measure.Int:
			return measure.NewInt(*pm.Int), nil
		case measure.Long:
			return measure.NewLong(int64(*pm.Int)), nil
		case measure.Double:
			return measure.NewDouble(float64(*pm.Int)), nil
		}
		return measure.Empty, mismatch("an int")
	case pm.Long != nil:
		switch metric.Kind {
		case measure.Long:
			return measure.NewLong(*pm.Long), nil
		case measure.Int:
			if *pm.Long >= math.MinInt32 && *pm.Long <= math.MaxInt32 {
				return measure.NewInt(int32(*pm.Long)), nil
			}
		case measure.Double:
			return measure.NewDouble(float64(*pm.Long)), nil
		}
		return measure.Empty, mismatch("a long")
	case pm.Double != nil:
		if metric.Kind == measure.Double {
			return measure.NewDouble(*pm.Double), nil
		}
		return measure.Empty, mismatch("a double")
	case pm.Bool != nil:
		if metric.Kind == measure.Boolean {
			return measure.NewBool(*pm.Bool), nil
		}
		return measure.Empty, mismatch("a boolean")
	case pm.Text != nil:
		if metric.Kind == measure.String {
			return measure.NewString(*pm.Text), nil
		}
		return measure.Empty, mismatch("a string")
	}
	return measure.Empty, nil
}

// IntegrateIssuesStep tracks the issues of every component against the open
// issues of the previous analysis and computes technical debt on the way up.
type IntegrateIssuesStep struct {
	Issues    contract.IssueStore
	Lifecycle *issue.Lifecycle
}

// Description implements Step.
func (s *IntegrateIssuesStep) Description() string { return "Integrate issues" }

// Execute implements Step.
func (s *IntegrateIssuesStep) Execute(ctx context.Context, rc *Context) error {
	calc, err := debt.NewCalculator(rc.DebtModel, rc.Metrics, rc.Measures)
	if err != nil {
		return err
	}

	raws := make(map[int][]schema.PayloadIssue)
	for _, pi := range rc.Payload.Issues {
		raws[pi.Ref] = append(raws[pi.Ref], pi)
	}

	stored, err := s.Issues.ListOpenIssues(ctx, rc.ProjectKey, "")
	if err != nil {
		return fmt.Errorf("failed to load open issues: %w", err)
	}
	bases := make(map[string][]schema.IssueRecord)
	for _, rec := range stored {
		bases[rec.ComponentKey] = append(bases[rec.ComponentKey], rec)
	}

	tracker := tracking.NewTracker[*issue.Issue, *issue.Issue]()
	crawler := component.NewCrawler(rc.Tree, func(*component.Component) struct{} { return struct{}{} })
	err = crawler.Crawl(component.VisitorFuncs[struct{}]{
		BeforeFunc: func(c *component.Component, _ *component.Path[struct{}]) error {
			calc.Open(c.Ref)
			return nil
		},
		AfterFunc: func(c *component.Component, _ *component.Path[struct{}]) error {
			componentBases := bases[c.Key]
			delete(bases, c.Key)
			if len(raws[c.Ref]) > 0 || len(componentBases) > 0 {
				t, err := s.track(ctx, rc, tracker, c, raws[c.Ref], componentBases)
				if err != nil {
					return err
				}
				for _, raw := range t.Raws() {
					if err := calc.Record(c.Ref, raw); err != nil {
						return fmt.Errorf("%w: component %s: %w", report.ErrInvalidPayload, c.Key, err)
					}
				}
			}
			return calc.Close(c.Ref)
		},
	})
	if err != nil {
		return err
	}

	// Whatever is left belongs to components that are no longer analyzed.
	for _, records := range bases {
		for _, rec := range records {
			base := issue.FromRecord(0, rec)
			issue.Close(base, schema.ResolutionRemoved, rc.Now)
			rc.Closed = append(rc.Closed, base)
		}
	}
	rc.Logger.Debug("Integrated issues", "tracked", len(rc.Trackings), "closed", len(rc.Closed))
	return nil
}

func (s *IntegrateIssuesStep) track(ctx context.Context, rc *Context, tracker *tracking.Tracker[*issue.Issue, *issue.Issue],
	c *component.Component, payloadIssues []schema.PayloadIssue, records []schema.IssueRecord,
) (*FileTracking, error) {
	rawLines := rc.Sources[c.Ref]
	raws := issue.FromPayload(issue.Component{Ref: c.Ref, Key: c.Key}, payloadIssues, rawLines)

	baseIssues := make([]*issue.Issue, 0, len(records))
	for _, rec := range records {
		baseIssues = append(baseIssues, issue.FromRecord(c.Ref, rec))
	}

	var baseLines *tracking.LineHashSequence
	if c.IsFile() && len(baseIssues) > 0 {
		src, found, err := s.Issues.GetFileSource(ctx, rc.ProjectKey, c.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load line hashes of %s: %w", c.Key, err)
		}
		if found {
			baseLines = tracking.NewLineHashSequence(src.LineHashes)
		}
	}

	t := tracker.Track(raws, baseIssues, rawLines, baseLines)
	rc.Closed = append(rc.Closed, s.Lifecycle.Apply(t)...)
	rc.Trackings[c.Ref] = t
	return t, nil
}

// ComputeFormulaMeasuresStep aggregates measures from files up to the project.
type ComputeFormulaMeasuresStep struct {
	Formulas []formula.Formula
}

// Description implements Step.
func (s *ComputeFormulaMeasuresStep) Description() string { return "Compute formula measures" }

// Execute implements Step.
func (s *ComputeFormulaMeasuresStep) Execute(_ context.Context, rc *Context) error {
	return formula.NewEngine(rc.Metrics, rc.Measures, s.Formulas...).Run(rc.Tree)
}

// CollectMeasuresStep stages the measures of every component for writing.
type CollectMeasuresStep struct{}

// Description implements Step.
func (s *CollectMeasuresStep) Description() string { return "Collect measures" }

// Execute implements Step.
func (s *CollectMeasuresStep) Execute(_ context.Context, rc *Context) error {
	var records []schema.MeasureRecord
	for i := 0; i < rc.Tree.Len(); i++ {
		c := rc.Tree.At(i)
		for _, entry := range rc.Measures.ListCurrent(c.Ref) {
			metric, err := rc.Metrics.GetByKey(entry.MetricKey)
			if err != nil {
				return err
			}
			if !shouldPersist(metric, entry.Measure) {
				continue
			}
			records = append(records, measureRecord(rc, c.Key, entry.MetricKey, entry.Measure))
		}
	}
	rc.Output.Measures = records
	rc.Logger.Debug("Collected measures", "count", len(records))
	return nil
}

// shouldPersist drops empty measures and best values of optimized metrics.
func shouldPersist(metric measure.Metric, m measure.Measure) bool {
	if !m.Value.HasValue() {
		return false
	}
	return !(metric.BestValueOptimized && metric.IsBestValue(m.Value))
}

func measureRecord(rc *Context, componentKey, metricKey string, m measure.Measure) schema.MeasureRecord {
	rec := schema.MeasureRecord{
		ReportID:         rc.ReportID,
		ProjectKey:       rc.ProjectKey,
		ComponentKey:     componentKey,
		MetricKey:        metricKey,
		RuleID:           m.Breakdown.RuleID,
		CharacteristicID: m.Breakdown.CharacteristicID,
		ComputedAt:       rc.Now,
	}
	switch m.Value.Kind() {
	case measure.String:
		text := m.Value.Text()
		rec.TextValue = &text
	case measure.Boolean:
		v := 0.0
		if m.Value.Bool() {
			v = 1
		}
		rec.Value = &v
	default:
		if v, ok := measure.LenientDouble(m.Value); ok {
			rec.Value = &v
		}
	}
	if m.Variations != nil {
		rec.Variations = m.Variations.Slice()
	}
	return rec
}

// CollectIssuesStep stages tracked and closed issues and the line hashes of analyzed files.
type CollectIssuesStep struct{}

// Description implements Step.
func (s *CollectIssuesStep) Description() string { return "Collect issues" }

// Execute implements Step.
func (s *CollectIssuesStep) Execute(_ context.Context, rc *Context) error {
	var records []schema.IssueRecord
	for i := 0; i < rc.Tree.Len(); i++ {
		t, ok := rc.Trackings[rc.Tree.At(i).Ref]
		if !ok {
			continue
		}
		for _, raw := range t.Raws() {
			records = append(records, raw.Record(rc.ProjectKey))
		}
	}
	for _, closed := range rc.Closed {
		records = append(records, closed.Record(rc.ProjectKey))
	}

	var sources []schema.FileSourceRecord
	for _, c := range rc.Tree.Files() {
		lines, ok := rc.Sources[c.Ref]
		if !ok {
			continue
		}
		sources = append(sources, schema.FileSourceRecord{
			ProjectKey:   rc.ProjectKey,
			ComponentKey: c.Key,
			LineHashes:   lines.Hashes(),
			UpdatedAt:    rc.Now,
		})
	}

	rc.Output.Issues = records
	rc.Output.Sources = sources
	rc.Logger.Debug("Collected issues", "count", len(records), "sources", len(sources))
	return nil
}

// PersistReportStep writes everything the report collected in one transaction.
type PersistReportStep struct {
	Writer contract.ReportWriter
}

// Description implements Step.
func (s *PersistReportStep) Description() string { return "Persist report" }

// Execute implements Step.
func (s *PersistReportStep) Execute(ctx context.Context, rc *Context) error {
	if rc.Output.Empty() {
		return nil
	}
	if err := s.Writer.SaveReport(ctx, rc.Output); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	rc.Logger.Debug("Persisted report",
		"measures", len(rc.Output.Measures), "issues", len(rc.Output.Issues), "sources", len(rc.Output.Sources))
	return nil
}
