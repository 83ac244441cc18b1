package compute

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tally/core/component"
	"github.com/huangsam/tally/core/issue"
	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/observability"
	"github.com/huangsam/tally/internal/report"
	"github.com/huangsam/tally/internal/store"
	"github.com/huangsam/tally/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return observability.NewLogger(io.Discard, slog.LevelDebug, observability.FormatText)
}

const treePayload = `
project: demo
root: 1
components:
  - {ref: 1, key: demo, name: demo, type: PROJECT, children: [2]}
  - {ref: 2, key: "demo:src", name: src, type: DIRECTORY, children: [3, 4]}
  - {ref: 3, key: "demo:src/a.go", name: a.go, type: FILE}
  - {ref: 4, key: "demo:src/b.go", name: b.go, type: FILE}
measures:
  - {ref: 3, metric: ncloc, int: 10}
  - {ref: 4, metric: ncloc, int: 5}
  - {ref: 3, metric: uncovered_lines, int: 0}
  - {ref: 4, metric: uncovered_lines, int: 2}
issues:
  - {ref: 3, rule: "go:S100", line: 2, message: rename, effort_minutes: 5}
  - {ref: 4, rule: "go:S200", line: 1, message: simplify, effort_minutes: 10}
sources:
  - {ref: 3, lines: ["package a", "func A() {}", "var x = 1"]}
  - {ref: 4, lines: ["package a", "func B() {}"]}
debt:
  characteristics:
    - {id: 1, key: MAINTAINABILITY}
    - {id: 2, key: READABILITY, parent: 1}
  rules:
    - {id: 10, key: "go:S100", characteristic: 2}
    - {id: 20, key: "go:S200", characteristic: 1}
`

func newTestContext(t *testing.T, payloadYAML string) *Context {
	t.Helper()
	payload, err := report.Decode(strings.NewReader(payloadYAML))
	require.NoError(t, err)
	tree, err := component.BuildFromPayload(payload)
	require.NoError(t, err)
	rc, err := NewContext(1, payload, tree, measure.NewDefaultMetricRepository(), discardLogger(), baseTime)
	require.NoError(t, err)
	return rc
}

func fixedLifecycle() *issue.Lifecycle {
	n := 0
	return issue.NewLifecycle().WithClock(func() string {
		n++
		return "key-" + string(rune('0'+n))
	}, func() time.Time { return baseTime })
}

func currentLong(t *testing.T, rc *Context, ref int, key string) int64 {
	t.Helper()
	metric, err := rc.Metrics.GetByKey(key)
	require.NoError(t, err)
	m, ok := rc.Measures.FindCurrent(ref, metric)
	require.True(t, ok, "no %s on ref %d", key, ref)
	v, ok := measure.LenientLong(m.Value)
	require.True(t, ok)
	return v
}

func TestPayloadValue(t *testing.T) {
	intMetric := measure.Metric{Key: "i", Kind: measure.Int}
	longMetric := measure.Metric{Key: "l", Kind: measure.Long}
	doubleMetric := measure.Metric{Key: "d", Kind: measure.Double}
	boolMetric := measure.Metric{Key: "b", Kind: measure.Boolean}
	textMetric := measure.Metric{Key: "s", Kind: measure.String}

	tests := []struct {
		name    string
		pm      schema.PayloadMeasure
		metric  measure.Metric
		want    measure.Value
		wantErr bool
	}{
		{"int as int", schema.PayloadMeasure{Int: ptr(int32(3))}, intMetric, measure.NewInt(3), false},
		{"int widens to long", schema.PayloadMeasure{Int: ptr(int32(3))}, longMetric, measure.NewLong(3), false},
		{"int widens to double", schema.PayloadMeasure{Int: ptr(int32(3))}, doubleMetric, measure.NewDouble(3), false},
		{"long narrows to int", schema.PayloadMeasure{Long: ptr(int64(7))}, intMetric, measure.NewInt(7), false},
		{"long too large for int", schema.PayloadMeasure{Long: ptr(int64(1) << 40)}, intMetric, measure.Empty, true},
		{"long widens to double", schema.PayloadMeasure{Long: ptr(int64(7))}, doubleMetric, measure.NewDouble(7), false},
		{"double as double", schema.PayloadMeasure{Double: ptr(1.5)}, doubleMetric, measure.NewDouble(1.5), false},
		{"double on int metric", schema.PayloadMeasure{Double: ptr(1.5)}, intMetric, measure.Empty, true},
		{"bool", schema.PayloadMeasure{Bool: ptr(true)}, boolMetric, measure.NewBool(true), false},
		{"bool on int metric", schema.PayloadMeasure{Bool: ptr(true)}, intMetric, measure.Empty, true},
		{"text", schema.PayloadMeasure{Text: ptr("x")}, textMetric, measure.NewString("x"), false},
		{"text on double metric", schema.PayloadMeasure{Text: ptr("x")}, doubleMetric, measure.Empty, true},
		{"no value", schema.PayloadMeasure{}, intMetric, measure.Empty, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := payloadValue(tt.pm, tt.metric)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, report.ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMeasuresStep(t *testing.T) {
	rc := newTestContext(t, treePayload)
	require.NoError(t, (&LoadMeasuresStep{}).Execute(context.Background(), rc))

	assert.Equal(t, int64(10), currentLong(t, rc, 3, measure.NclocKey))
	ncloc, _ := rc.Metrics.GetByKey(measure.NclocKey)
	_, ok := rc.Measures.FindRaw(4, ncloc)
	assert.True(t, ok)
}

func TestLoadMeasuresStep_Variations(t *testing.T) {
	ctx := context.Background()
	rc := newTestContext(t, strings.Replace(treePayload,
		"{ref: 3, metric: ncloc, int: 10}",
		"{ref: 3, metric: ncloc, int: 10, variations: [2, null, -1.5]}", 1))
	require.NoError(t, (&LoadMeasuresStep{}).Execute(ctx, rc))

	ncloc, err := rc.Metrics.GetByKey(measure.NclocKey)
	require.NoError(t, err)
	m, ok := rc.Measures.FindRaw(3, ncloc)
	require.True(t, ok)
	require.NotNil(t, m.Variations)
	d, ok := m.Variations.Get(1)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, d, 0)
	assert.False(t, m.Variations.Has(2))
	d, _ = m.Variations.Get(3)
	assert.InDelta(t, -1.5, d, 0)

	other, ok := rc.Measures.FindRaw(4, ncloc)
	require.True(t, ok)
	assert.Nil(t, other.Variations)

	require.NoError(t, (&CollectMeasuresStep{}).Execute(ctx, rc))
	var stored *schema.MeasureRecord
	for i := range rc.Output.Measures {
		r := &rc.Output.Measures[i]
		if r.ComponentKey == "demo:src/a.go" && r.MetricKey == measure.NclocKey {
			stored = r
		}
	}
	require.NotNil(t, stored)
	require.Len(t, stored.Variations, measure.MaxVariations)
	assert.InDelta(t, 2.0, *stored.Variations[0], 0)
	assert.Nil(t, stored.Variations[1])
}

func TestLoadMeasuresStep_InvalidPayload(t *testing.T) {
	tests := []struct {
		name     string
		measures string
		want     string
	}{
		{"unknown metric", "measures: [{ref: 3, metric: bogus, int: 1}]", "unknown metric"},
		{"wrong kind", "measures: [{ref: 3, metric: ncloc, text: many}]", "holds a string"},
		{"duplicate", "measures: [{ref: 3, metric: ncloc, int: 1}, {ref: 3, metric: ncloc, int: 2}]", "already exists"},
		{"too many variations", "measures: [{ref: 3, metric: ncloc, int: 1, variations: [1, 2, 3, 4, 5, 6]}]", "more than 5 variations"},
		{"no variation", "measures: [{ref: 3, metric: ncloc, int: 1, variations: [null, null]}]", "at least one variation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `
project: demo
root: 1
components:
  - {ref: 1, key: demo, type: PROJECT, children: [3]}
  - {ref: 3, key: "demo:a.go", type: FILE}
` + tt.measures + "\n"
			rc := newTestContext(t, payload)
			err := (&LoadMeasuresStep{}).Execute(context.Background(), rc)
			require.Error(t, err)
			assert.ErrorIs(t, err, report.ErrInvalidPayload)
			assert.False(t, measure.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIntegrateIssuesStep_NewIssuesAndDebt(t *testing.T) {
	ctx := context.Background()
	rc := newTestContext(t, treePayload)

	issues := &store.MockStore{}
	issues.On("ListOpenIssues", mock.Anything, "demo", "").Return(nil, nil)

	step := &IntegrateIssuesStep{Issues: issues, Lifecycle: fixedLifecycle()}
	require.NoError(t, step.Execute(ctx, rc))

	require.Contains(t, rc.Trackings, 3)
	require.Contains(t, rc.Trackings, 4)
	raw := rc.Trackings[3].Raws()[0]
	assert.True(t, raw.New)
	assert.NotEmpty(t, raw.Key)
	assert.Equal(t, baseTime, raw.CreatedAt)
	assert.NotEmpty(t, raw.Checksum)
	assert.Empty(t, rc.Closed)

	assert.Equal(t, int64(5), currentLong(t, rc, 3, measure.TechnicalDebtKey))
	assert.Equal(t, int64(10), currentLong(t, rc, 4, measure.TechnicalDebtKey))
	assert.Equal(t, int64(15), currentLong(t, rc, 2, measure.TechnicalDebtKey))
	assert.Equal(t, int64(15), currentLong(t, rc, 1, measure.TechnicalDebtKey))

	debtMetric, _ := rc.Metrics.GetByKey(measure.TechnicalDebtKey)
	byChar, ok := rc.Measures.FindBreakdown(1, debtMetric, measure.Breakdown{CharacteristicID: 1})
	require.True(t, ok)
	assert.Equal(t, int64(15), byChar.Value.Long())
	byRule, ok := rc.Measures.FindBreakdown(1, debtMetric, measure.Breakdown{RuleID: 10})
	require.True(t, ok)
	assert.Equal(t, int64(5), byRule.Value.Long())

	issues.AssertNotCalled(t, "GetFileSource", mock.Anything, mock.Anything, mock.Anything)
}

func TestIntegrateIssuesStep_TracksAgainstBase(t *testing.T) {
	ctx := context.Background()
	rc := newTestContext(t, treePayload)
	created := baseTime.Add(-48 * time.Hour)
	rawLines := rc.Sources[3]

	issues := &store.MockStore{}
	issues.On("ListOpenIssues", mock.Anything, "demo", "").Return([]schema.IssueRecord{
		// Same rule on the same line content: survives.
		{Key: "kept", ProjectKey: "demo", ComponentKey: "demo:src/a.go", RuleKey: "go:S100", Line: 2,
			LineHash: rawLines.HashForLine(2), Status: schema.OpenIssue, CreatedAt: created},
		// No raw issue for this rule anymore: fixed.
		{Key: "fixed", ProjectKey: "demo", ComponentKey: "demo:src/a.go", RuleKey: "go:S999", Line: 1,
			LineHash: rawLines.HashForLine(1), Status: schema.OpenIssue, CreatedAt: created},
		// The file is not part of this analysis: removed.
		{Key: "gone", ProjectKey: "demo", ComponentKey: "demo:src/old.go", RuleKey: "go:S100", Line: 1,
			Status: schema.OpenIssue, CreatedAt: created},
	}, nil)
	issues.On("GetFileSource", mock.Anything, "demo", "demo:src/a.go").
		Return(schema.FileSourceRecord{LineHashes: rawLines.Hashes()}, true, nil)

	step := &IntegrateIssuesStep{Issues: issues, Lifecycle: fixedLifecycle()}
	require.NoError(t, step.Execute(ctx, rc))

	raw := rc.Trackings[3].Raws()[0]
	assert.Equal(t, "kept", raw.Key)
	assert.Equal(t, created, raw.CreatedAt)
	assert.False(t, raw.New)

	closed := make(map[string]string)
	for _, c := range rc.Closed {
		assert.Equal(t, schema.ClosedIssue, c.Status)
		closed[c.Key] = c.Resolution
	}
	assert.Equal(t, map[string]string{"fixed": schema.ResolutionFixed, "gone": schema.ResolutionRemoved}, closed)
	issues.AssertExpectations(t)
}

func TestIntegrateIssuesStep_UnknownRuleFailsReport(t *testing.T) {
	rc := newTestContext(t, `
project: demo
root: 1
components:
  - {ref: 1, key: demo, type: PROJECT, children: [3]}
  - {ref: 3, key: "demo:a.go", type: FILE}
issues:
  - {ref: 3, rule: "go:unknown", line: 1, message: m, effort_minutes: 3}
`)
	issues := &store.MockStore{}
	issues.On("ListOpenIssues", mock.Anything, "demo", "").Return(nil, nil)

	err := (&IntegrateIssuesStep{Issues: issues, Lifecycle: fixedLifecycle()}).Execute(context.Background(), rc)
	require.Error(t, err)
	assert.ErrorIs(t, err, report.ErrInvalidPayload)
	assert.Contains(t, err.Error(), "go:unknown")
}

func TestComputeFormulaMeasuresStep(t *testing.T) {
	rc := newTestContext(t, treePayload)
	require.NoError(t, (&LoadMeasuresStep{}).Execute(context.Background(), rc))

	steps := DefaultSteps(nil, nil)
	require.Len(t, steps, 6)
	require.NoError(t, steps[2].Execute(context.Background(), rc))

	assert.Equal(t, int64(15), currentLong(t, rc, 2, measure.NclocKey))
	assert.Equal(t, int64(15), currentLong(t, rc, 1, measure.NclocKey))
	assert.Equal(t, int64(2), currentLong(t, rc, 1, measure.UncoveredLinesKey))
}

func TestShouldPersist(t *testing.T) {
	uncovered := measure.Metric{Key: "uncovered_lines", Kind: measure.Int, BestValueOptimized: true, BestValue: ptr(0.0)}
	ncloc := measure.Metric{Key: "ncloc", Kind: measure.Int, BestValue: ptr(0.0)}

	assert.False(t, shouldPersist(uncovered, measure.New(measure.Empty)))
	assert.False(t, shouldPersist(uncovered, measure.New(measure.NewInt(0))))
	assert.True(t, shouldPersist(uncovered, measure.New(measure.NewInt(3))))
	assert.True(t, shouldPersist(ncloc, measure.New(measure.NewInt(0))))
}

func TestCollectMeasuresStep(t *testing.T) {
	ctx := context.Background()
	rc := newTestContext(t, treePayload)
	require.NoError(t, (&LoadMeasuresStep{}).Execute(ctx, rc))
	require.NoError(t, (&ComputeFormulaMeasuresStep{}).Execute(ctx, rc))
	require.NoError(t, (&CollectMeasuresStep{}).Execute(ctx, rc))

	got := make(map[string]float64)
	for _, r := range rc.Output.Measures {
		assert.Equal(t, int64(1), r.ReportID)
		assert.Equal(t, "demo", r.ProjectKey)
		assert.Equal(t, baseTime, r.ComputedAt)
		require.NotNil(t, r.Value)
		got[r.ComponentKey+"/"+r.MetricKey] = *r.Value
	}
	assert.Equal(t, map[string]float64{
		"demo:src/a.go/ncloc":           10,
		"demo:src/b.go/ncloc":           5,
		"demo:src/b.go/uncovered_lines": 2,
		"demo:src/ncloc":                15,
		"demo:src/uncovered_lines":      2,
		"demo/ncloc":                    15,
		"demo/uncovered_lines":          2,
	}, got)
}

func TestMeasureRecord_Kinds(t *testing.T) {
	rc := &Context{ReportID: 3, ProjectKey: "demo", Now: baseTime}

	text := measureRecord(rc, "demo", "alert", measure.New(measure.NewString("OK")))
	require.NotNil(t, text.TextValue)
	assert.Equal(t, "OK", *text.TextValue)
	assert.Nil(t, text.Value)

	flag := measureRecord(rc, "demo", "flag", measure.New(measure.NewBool(true)))
	require.NotNil(t, flag.Value)
	assert.InDelta(t, 1.0, *flag.Value, 0)

	vars, err := measure.NewVariations(ptr(2.0), nil, ptr(-1.0))
	require.NoError(t, err)
	debt := measureRecord(rc, "demo", "sqale_index", measure.New(measure.NewLong(42)).ForRule(10).WithVariations(vars))
	assert.Equal(t, 10, debt.RuleID)
	assert.InDelta(t, 42.0, *debt.Value, 0)
	require.Len(t, debt.Variations, measure.MaxVariations)
	assert.InDelta(t, 2.0, *debt.Variations[0], 0)
	assert.Nil(t, debt.Variations[1])
}

func TestCollectIssuesStep(t *testing.T) {
	ctx := context.Background()
	rc := newTestContext(t, treePayload)

	issueStore := &store.MockStore{}
	issueStore.On("ListOpenIssues", mock.Anything, "demo", "").Return([]schema.IssueRecord{
		{Key: "gone", ProjectKey: "demo", ComponentKey: "demo:src/old.go", RuleKey: "go:S100", Status: schema.OpenIssue},
	}, nil)
	require.NoError(t, (&IntegrateIssuesStep{Issues: issueStore, Lifecycle: fixedLifecycle()}).Execute(ctx, rc))
	require.NoError(t, (&CollectIssuesStep{}).Execute(ctx, rc))

	require.Len(t, rc.Output.Issues, 3)
	statuses := make(map[string]schema.IssueStatus)
	for _, r := range rc.Output.Issues {
		statuses[r.ComponentKey] = r.Status
	}
	assert.Equal(t, schema.OpenIssue, statuses["demo:src/a.go"])
	assert.Equal(t, schema.OpenIssue, statuses["demo:src/b.go"])
	assert.Equal(t, schema.ClosedIssue, statuses["demo:src/old.go"])

	require.Len(t, rc.Output.Sources, 2)
	for _, src := range rc.Output.Sources {
		assert.Equal(t, "demo", src.ProjectKey)
		assert.NotEmpty(t, src.LineHashes)
		assert.True(t, src.UpdatedAt.Equal(baseTime))
	}
	issueStore.AssertExpectations(t)
}

func TestPersistReportStep(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing collected", func(t *testing.T) {
		writer := &store.MockStore{}
		rc := newTestContext(t, treePayload)
		require.NoError(t, (&PersistReportStep{Writer: writer}).Execute(ctx, rc))
		writer.AssertNotCalled(t, "SaveReport", mock.Anything, mock.Anything)
	})

	t.Run("writes everything at once", func(t *testing.T) {
		rc := newTestContext(t, treePayload)
		rc.Output = schema.ReportOutput{
			Measures: []schema.MeasureRecord{{MetricKey: measure.NclocKey}},
			Sources:  []schema.FileSourceRecord{{ComponentKey: "demo:src/a.go"}},
		}
		writer := &store.MockStore{}
		writer.On("SaveReport", mock.Anything, rc.Output).Return(nil).Once()
		require.NoError(t, (&PersistReportStep{Writer: writer}).Execute(ctx, rc))
		writer.AssertExpectations(t)
	})

	t.Run("write error", func(t *testing.T) {
		rc := newTestContext(t, treePayload)
		rc.Output.Issues = []schema.IssueRecord{{Key: "k1"}}
		writer := &store.MockStore{}
		writer.On("SaveReport", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		err := (&PersistReportStep{Writer: writer}).Execute(ctx, rc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestContext_Release(t *testing.T) {
	rc := newTestContext(t, treePayload)
	rc.Release()
	assert.Nil(t, rc.Tree)
	assert.Nil(t, rc.Measures)
	assert.Nil(t, rc.Trackings)

	var nilContext *Context
	assert.NotPanics(t, nilContext.Release)
}
