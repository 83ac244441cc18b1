package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var computedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sampleMeasures() []schema.MeasureRecord {
	return []schema.MeasureRecord{
		{ReportID: 4, ProjectKey: "demo", ComponentKey: "demo", MetricKey: "ncloc", Value: ptr(15.0), ComputedAt: computedAt},
		{ReportID: 4, ProjectKey: "demo", ComponentKey: "demo", MetricKey: "sqale_index", RuleID: 10, Value: ptr(5.0), ComputedAt: computedAt},
		{ReportID: 4, ProjectKey: "demo", ComponentKey: "demo:src/a.go", MetricKey: "file_complexity", Value: ptr(2.5), ComputedAt: computedAt},
	}
}

func outputConfig(t *testing.T, mode schema.OutputMode) (*contract.Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out."+string(mode))
	return &contract.Config{Output: mode, OutputFile: path, Precision: 1, Width: 120}, path
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGetMaxTablePathWidth(t *testing.T) {
	assert.Equal(t, 15, GetMaxTablePathWidth(&contract.Config{Width: 40}))
	assert.Equal(t, 55, GetMaxTablePathWidth(&contract.Config{Width: 120}))
	assert.Equal(t, 80, GetMaxTablePathWidth(&contract.Config{Width: 400}))
}

func TestPrintMeasures_Text(t *testing.T) {
	cfg, path := outputConfig(t, schema.TextOut)
	require.NoError(t, NewOutWriter().WriteMeasures(sampleMeasures(), cfg))

	out := readOutput(t, path)
	assert.Contains(t, out, "demo:src/a.go")
	assert.Contains(t, out, "rule 10")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "Showing 3 measures on 2 components (report 4")
}

func TestPrintMeasures_Empty(t *testing.T) {
	cfg, path := outputConfig(t, schema.TextOut)
	require.NoError(t, PrintMeasures(nil, cfg))
	assert.Contains(t, readOutput(t, path), "No measures found")
}

func TestPrintMeasures_CSV(t *testing.T) {
	cfg, path := outputConfig(t, schema.CSVOut)
	require.NoError(t, PrintMeasures(sampleMeasures(), cfg))

	rows, err := csv.NewReader(strings.NewReader(readOutput(t, path))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "component_key", rows[0][2])
	assert.Equal(t, []string{"4", "demo", "demo", "sqale_index", "10", "0", "5", "2026-03-01T12:00:00Z"}, rows[2])
}

func TestPrintMeasures_JSON(t *testing.T) {
	cfg, path := outputConfig(t, schema.JSONOut)
	require.NoError(t, PrintMeasures(sampleMeasures(), cfg))

	var decoded []schema.MeasureRecord
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, path)), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, 10, decoded[1].RuleID)
	assert.InDelta(t, 2.5, *decoded[2].Value, 0)
}

func TestPrintQueue(t *testing.T) {
	items := []schema.QueueItem{
		{ID: 1, ProjectKey: "demo", PayloadPath: "/tmp/r1.yaml", Status: schema.PendingItem, CreatedAt: computedAt},
		{ID: 2, ProjectKey: "demo", PayloadPath: "/tmp/r2.yaml", Status: schema.WorkingItem, WorkerID: "host-1", CreatedAt: computedAt, StartedAt: ptr(computedAt)},
	}

	cfg, path := outputConfig(t, schema.TextOut)
	require.NoError(t, NewOutWriter().WriteQueue(items, cfg))
	out := readOutput(t, path)
	assert.Contains(t, out, "host-1")
	assert.Contains(t, out, "2 reports in queue")

	cfg, path = outputConfig(t, schema.CSVOut)
	require.NoError(t, PrintQueue(items, cfg))
	rows, err := csv.NewReader(strings.NewReader(readOutput(t, path))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "WORKING", rows[2][2])
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[2][5])
	assert.Empty(t, rows[1][5])
}

func TestPrintActivities(t *testing.T) {
	activities := []schema.ReportActivity{
		{ReportID: 2, ProjectKey: "demo", Status: schema.FailedReport, SubmittedAt: computedAt, DurationMs: ptr(int64(250)), FailureReason: ptr("invalid report payload: no components")},
		{ReportID: 1, ProjectKey: "demo", Status: schema.SuccessReport, SubmittedAt: computedAt},
	}

	cfg, path := outputConfig(t, schema.TextOut)
	require.NoError(t, NewOutWriter().WriteActivities(activities, cfg))
	out := readOutput(t, path)
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "250ms")

	cfg, path = outputConfig(t, schema.JSONOut)
	require.NoError(t, PrintActivities(activities, cfg))
	var decoded []schema.ReportActivity
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, path)), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, schema.FailedReport, decoded[0].Status)
	assert.Nil(t, decoded[1].FailureReason)
}

func TestPrintIssues(t *testing.T) {
	issues := []schema.IssueRecord{
		{Key: "k1", ProjectKey: "demo", ComponentKey: "demo:src/a.go", RuleKey: "go:S100", Line: 3, EffortMinutes: 5, Status: schema.OpenIssue, Message: "rename", CreatedAt: computedAt},
		{Key: "k2", ProjectKey: "demo", ComponentKey: "demo:src/b.go", RuleKey: "go:S200", Line: 1, EffortMinutes: 10, Status: schema.OpenIssue, Message: "simplify", CreatedAt: computedAt},
	}

	cfg, path := outputConfig(t, schema.TextOut)
	require.NoError(t, NewOutWriter().WriteIssues(issues, cfg))
	assert.Contains(t, readOutput(t, path), "2 issues, 15 minutes of effort")

	cfg, path = outputConfig(t, schema.CSVOut)
	require.NoError(t, PrintIssues(issues, cfg))
	rows, err := csv.NewReader(strings.NewReader(readOutput(t, path))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"k1", "demo", "demo:src/a.go", "go:S100", "3", "5", "OPEN", "", "rename", "2026-03-01T12:00:00Z"}, rows[1])
}

func TestPrintMetricDefinitions(t *testing.T) {
	metrics := measure.DefaultMetrics()

	cfg, path := outputConfig(t, schema.JSONOut)
	require.NoError(t, NewOutWriter().WriteMetrics(metrics, cfg))
	var decoded []metricDefinition
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, path)), &decoded))
	require.Len(t, decoded, len(metrics))

	byKey := make(map[string]metricDefinition)
	for _, d := range decoded {
		byKey[d.Key] = d
	}
	debt := byKey[measure.TechnicalDebtKey]
	assert.Equal(t, "LONG", debt.Kind)
	assert.True(t, debt.BestValueOptimized)
	require.NotNil(t, debt.BestValue)

	cfg, path = outputConfig(t, schema.TextOut)
	require.NoError(t, PrintMetricDefinitions(metrics, cfg))
	assert.Contains(t, readOutput(t, path), "sqale_index")
}
