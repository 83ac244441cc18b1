package compute

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/observability"
	"github.com/huangsam/tally/internal/store"
	"github.com/huangsam/tally/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stepFunc func(ctx context.Context, rc *Context) error

func (f stepFunc) Description() string { return "Test step" }

func (f stepFunc) Execute(ctx context.Context, rc *Context) error { return f(ctx, rc) }

func writePayload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newMockWorker(s *store.MockStore, steps ...Step) *Worker {
	logger := discardLogger()
	return &Worker{
		ID:           "w1",
		Queue:        s,
		PollInterval: time.Millisecond,
		StaleAfter:   time.Minute,
		Logger:       logger,
		Processor: &Processor{
			Steps:    steps,
			Metrics:  measure.NewDefaultMetricRepository(),
			Activity: s,
			Logger:   logger,
			Now:      func() time.Time { return baseTime },
		},
	}
}

func reasonContains(sub string) any {
	return mock.MatchedBy(func(r *string) bool { return r != nil && strings.Contains(*r, sub) })
}

func TestWorker_RunOnce_EmptyQueue(t *testing.T) {
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(schema.QueueItem{}, contract.ErrQueueEmpty)

	w := newMockWorker(s)
	w.Observer = observability.NewMetrics()
	booked, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, booked)

	count, err := testutil.GatherAndCount(w.Observer.Registry(), "tally_queue_empty_polls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	s.AssertExpectations(t)
}

func TestWorker_RunOnce_QueueErrorIsLogged(t *testing.T) {
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(schema.QueueItem{}, errors.New("database is locked"))

	booked, err := newMockWorker(s).RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestWorker_RunOnce_Success(t *testing.T) {
	item := schema.QueueItem{ID: 7, ProjectKey: "demo", PayloadPath: writePayload(t, treePayload)}
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil)
	s.On("MarkExecuting", mock.Anything, int64(7), baseTime).Return(nil)
	s.On("MarkFinished", mock.Anything, int64(7), schema.SuccessReport, baseTime, (*string)(nil)).Return(nil)
	s.On("Remove", mock.Anything, int64(7), "w1").Return(nil)

	var seen *Context
	w := newMockWorker(s, stepFunc(func(_ context.Context, rc *Context) error {
		seen = rc
		assert.Equal(t, int64(7), rc.ReportID)
		assert.Equal(t, "demo", rc.ProjectKey)
		assert.Equal(t, 4, rc.Tree.Len())
		return nil
	}))
	var logs bytes.Buffer
	w.Processor.Logger = observability.NewLogger(&logs, slog.LevelInfo, observability.FormatText)

	booked, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, booked)
	s.AssertExpectations(t)

	require.NotNil(t, seen)
	assert.Nil(t, seen.Tree, "context is released after processing")
	assert.Contains(t, logs.String(), "Analysis of project demo (report 7) (done) | time=")
}

func TestWorker_RunOnce_FailuresAreNotFatal(t *testing.T) {
	tests := []struct {
		name    string
		item    schema.QueueItem
		payload string
		step    Step
		reason  string
	}{
		{
			name:   "missing payload",
			item:   schema.QueueItem{ID: 1, ProjectKey: "demo", PayloadPath: "/nonexistent/report.yaml"},
			reason: "failed to read report",
		},
		{
			name:    "invalid payload",
			item:    schema.QueueItem{ID: 1, ProjectKey: "demo"},
			payload: "project: demo\n",
			reason:  "invalid report payload",
		},
		{
			name:    "duplicate component key",
			item:    schema.QueueItem{ID: 1, ProjectKey: "demo"},
			payload: strings.Replace(treePayload, `key: "demo:src/b.go"`, `key: "demo:src/a.go"`, 1),
			reason:  `share key "demo:src/a.go"`,
		},
		{
			name:   "project mismatch",
			item:   schema.QueueItem{ID: 1, ProjectKey: "other"},
			reason: `submitted for "other"`,
		},
		{
			name:   "step error",
			item:   schema.QueueItem{ID: 1, ProjectKey: "demo"},
			step:   stepFunc(func(context.Context, *Context) error { return errors.New("disk full") }),
			reason: "Test step: disk full",
		},
		{
			name:   "step panic",
			item:   schema.QueueItem{ID: 1, ProjectKey: "demo"},
			step:   stepFunc(func(context.Context, *Context) error { panic("boom") }),
			reason: "panic while processing report: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			if item.PayloadPath == "" {
				content := tt.payload
				if content == "" {
					content = treePayload
				}
				item.PayloadPath = writePayload(t, content)
			}

			s := &store.MockStore{}
			s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil)
			s.On("MarkExecuting", mock.Anything, int64(1), baseTime).Return(nil)
			s.On("MarkFinished", mock.Anything, int64(1), schema.FailedReport, baseTime, reasonContains(tt.reason)).Return(nil)
			s.On("Remove", mock.Anything, int64(1), "w1").Return(nil)

			var steps []Step
			if tt.step != nil {
				steps = append(steps, tt.step)
			}
			booked, err := newMockWorker(s, steps...).RunOnce(context.Background())
			require.NoError(t, err)
			assert.True(t, booked)
			s.AssertExpectations(t)
		})
	}
}

func TestWorker_RunOnce_ConfigurationErrorIsFatal(t *testing.T) {
	item := schema.QueueItem{ID: 3, ProjectKey: "demo", PayloadPath: writePayload(t, treePayload)}
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil)
	s.On("MarkExecuting", mock.Anything, int64(3), baseTime).Return(nil)
	s.On("MarkFinished", mock.Anything, int64(3), schema.FailedReport, baseTime, reasonContains("metric not found")).Return(nil)
	s.On("Remove", mock.Anything, int64(3), "w1").Return(nil)

	w := newMockWorker(s, stepFunc(func(_ context.Context, rc *Context) error {
		_, err := rc.Metrics.GetByKey("not_a_metric")
		return err
	}))
	booked, err := w.RunOnce(context.Background())
	assert.True(t, booked)
	require.Error(t, err)
	assert.True(t, measure.IsConfigurationError(err))
	assert.ErrorIs(t, err, measure.ErrMetricNotFound)
	s.AssertExpectations(t)
}

func TestWorker_RunOnce_RemoveErrorIsLogged(t *testing.T) {
	item := schema.QueueItem{ID: 4, ProjectKey: "demo", PayloadPath: writePayload(t, treePayload)}
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil)
	s.On("MarkExecuting", mock.Anything, int64(4), baseTime).Return(errors.New("timeout"))
	s.On("MarkFinished", mock.Anything, int64(4), schema.SuccessReport, baseTime, (*string)(nil)).Return(errors.New("timeout"))
	s.On("Remove", mock.Anything, int64(4), "w1").Return(errors.New("timeout"))

	booked, err := newMockWorker(s).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, booked)
	s.AssertExpectations(t)
}

func TestWorker_RunOnce_LostBookingIsAbandoned(t *testing.T) {
	item := schema.QueueItem{ID: 8, ProjectKey: "demo", WorkerID: "w1", PayloadPath: writePayload(t, treePayload)}
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil)
	s.On("MarkExecuting", mock.Anything, int64(8), baseTime).Return(nil)
	s.On("Heartbeat", mock.Anything, int64(8), "w1", baseTime).Return(nil).Once()
	s.On("Heartbeat", mock.Anything, int64(8), "w1", baseTime).Return(contract.ErrBookingLost).Once()
	s.On("Remove", mock.Anything, int64(8), "w1").Return(contract.ErrBookingLost)

	ran := 0
	count := stepFunc(func(context.Context, *Context) error {
		ran++
		return nil
	})
	w := newMockWorker(s, count, count)
	w.Processor.Queue = s

	booked, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, booked)
	assert.Equal(t, 1, ran, "steps stop once the booking is lost")
	s.AssertNotCalled(t, "MarkFinished", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.AssertExpectations(t)
}

func TestWorker_Run_StopsOnCancel(t *testing.T) {
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(schema.QueueItem{}, contract.ErrQueueEmpty)

	w := newMockWorker(s)
	var logs bytes.Buffer
	w.Logger = observability.NewLogger(&logs, slog.LevelInfo, observability.FormatText)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 1, strings.Count(logs.String(), "Worker started"))
	assert.Equal(t, 1, strings.Count(logs.String(), "Worker stopped"))
}

func TestWorker_Run_MaxReports(t *testing.T) {
	item := schema.QueueItem{ID: 5, ProjectKey: "demo", PayloadPath: writePayload(t, treePayload)}
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil).Twice()
	s.On("MarkExecuting", mock.Anything, int64(5), baseTime).Return(nil)
	s.On("MarkFinished", mock.Anything, int64(5), schema.SuccessReport, baseTime, (*string)(nil)).Return(nil)
	s.On("Remove", mock.Anything, int64(5), "w1").Return(nil)

	w := newMockWorker(s)
	w.MaxReports = 2
	require.NoError(t, w.Run(context.Background()))
	s.AssertNumberOfCalls(t, "Remove", 2)
}

func TestWorker_Run_ReturnsConfigurationError(t *testing.T) {
	item := schema.QueueItem{ID: 6, ProjectKey: "demo", PayloadPath: writePayload(t, treePayload)}
	s := &store.MockStore{}
	s.On("Book", mock.Anything, "w1", baseTime, time.Minute).Return(item, nil).Once()
	s.On("MarkExecuting", mock.Anything, int64(6), baseTime).Return(nil)
	s.On("MarkFinished", mock.Anything, int64(6), schema.FailedReport, baseTime, mock.Anything).Return(nil)
	s.On("Remove", mock.Anything, int64(6), "w1").Return(nil)

	w := newMockWorker(s, stepFunc(func(context.Context, *Context) error {
		return &measure.ConfigurationError{Err: errors.New("formula bound to nothing")}
	}))
	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formula bound to nothing")
}

func newSQLiteWorker(t *testing.T) (*Worker, *store.SQLStore) {
	t.Helper()
	return newSQLiteWorkerAt(t, ":memory:")
}

func newSQLiteWorkerAt(t *testing.T, dbPath string) (*Worker, *store.SQLStore) {
	t.Helper()
	s, err := store.NewSQLStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	cfg := &contract.Config{WorkerID: "w1", PollInterval: time.Millisecond, StaleAfter: time.Minute}
	return NewWorker(cfg, s, discardLogger(), observability.NewMetrics()), s
}

func findMeasure(records []schema.MeasureRecord, componentKey, metricKey string, ruleID, characteristicID int) *schema.MeasureRecord {
	for i := range records {
		r := &records[i]
		if r.ComponentKey == componentKey && r.MetricKey == metricKey && r.RuleID == ruleID && r.CharacteristicID == characteristicID {
			return r
		}
	}
	return nil
}

func TestWorker_EndToEnd(t *testing.T) {
	ctx := context.Background()
	w, s := newSQLiteWorker(t)

	id, err := s.Enqueue(ctx, "demo", writePayload(t, treePayload), baseTime)
	require.NoError(t, err)

	booked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, booked)

	activity, err := s.GetActivity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schema.SuccessReport, activity.Status)
	assert.Nil(t, activity.FailureReason)
	require.NotNil(t, activity.FinishedAt)

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	measures, err := s.ListMeasures(ctx, "demo", 0)
	require.NoError(t, err)
	for _, tc := range []struct {
		component, metric string
		rule, char        int
		want              float64
	}{
		{"demo", measure.NclocKey, 0, 0, 15},
		{"demo:src", measure.NclocKey, 0, 0, 15},
		{"demo:src/a.go", measure.NclocKey, 0, 0, 10},
		{"demo", measure.TechnicalDebtKey, 0, 0, 15},
		{"demo", measure.TechnicalDebtKey, 10, 0, 5},
		{"demo", measure.TechnicalDebtKey, 0, 1, 15},
		{"demo:src/b.go", measure.TechnicalDebtKey, 0, 0, 10},
	} {
		m := findMeasure(measures, tc.component, tc.metric, tc.rule, tc.char)
		if assert.NotNil(t, m, "%s %s %d %d", tc.component, tc.metric, tc.rule, tc.char) && assert.NotNil(t, m.Value) {
			assert.InDelta(t, tc.want, *m.Value, 0)
		}
	}
	assert.Nil(t, findMeasure(measures, "demo:src/a.go", measure.UncoveredLinesKey, 0, 0), "best value is not stored")

	open, err := s.ListOpenIssues(ctx, "demo", "")
	require.NoError(t, err)
	require.Len(t, open, 2)
	firstKey := open[0].Key
	firstCreated := open[0].CreatedAt
	assert.Equal(t, "demo:src/a.go", open[0].ComponentKey)

	src, found, err := s.GetFileSource(ctx, "demo", "demo:src/a.go")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, src.LineHashes, 3)

	// Second analysis: a.go gains a line above its issue and b.go is gone.
	second := strings.NewReplacer(
		`children: [3, 4]`, `children: [3]`,
		`  - {ref: 4, key: "demo:src/b.go", name: b.go, type: FILE}`+"\n", "",
		`  - {ref: 4, metric: ncloc, int: 5}`+"\n", "",
		`  - {ref: 4, metric: uncovered_lines, int: 2}`+"\n", "",
		`  - {ref: 4, rule: "go:S200", line: 1, message: simplify, effort_minutes: 10}`+"\n", "",
		`  - {ref: 4, lines: ["package a", "func B() {}"]}`+"\n", "",
		`line: 2, message: rename`, `line: 3, message: rename`,
		`["package a", "func A() {}", "var x = 1"]`, `["package a", "// A does things", "func A() {}", "var x = 1"]`,
	).Replace(treePayload)

	id2, err := s.Enqueue(ctx, "demo", writePayload(t, second), baseTime.Add(time.Hour))
	require.NoError(t, err)
	booked, err = w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, booked)

	activity, err = s.GetActivity(ctx, id2)
	require.NoError(t, err)
	require.Equal(t, schema.SuccessReport, activity.Status, "failure: %v", activity.FailureReason)

	open, err = s.ListOpenIssues(ctx, "demo", "")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, firstKey, open[0].Key)
	assert.True(t, firstCreated.Equal(open[0].CreatedAt))
	assert.Equal(t, 3, open[0].Line)

	measures, err = s.ListMeasures(ctx, "demo", 0)
	require.NoError(t, err)
	m := findMeasure(measures, "demo", measure.TechnicalDebtKey, 0, 0)
	require.NotNil(t, m)
	assert.InDelta(t, 5, *m.Value, 0)
	assert.Nil(t, findMeasure(measures, "demo:src/b.go", measure.NclocKey, 0, 0))
}

func TestWorker_EndToEnd_FailedReportIsRetained(t *testing.T) {
	ctx := context.Background()
	w, s := newSQLiteWorker(t)

	id, err := s.Enqueue(ctx, "demo", writePayload(t, "project: demo\nroot: 1\ncomponents: [{ref: 1, key: demo, type: FILE, children: [2]}, {ref: 2, key: x, type: FILE}]\n"), baseTime)
	require.NoError(t, err)

	booked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, booked)

	activity, err := s.GetActivity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schema.FailedReport, activity.Status)
	require.NotNil(t, activity.FailureReason)
	assert.Contains(t, *activity.FailureReason, "invalid report payload")

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	measures, err := s.ListMeasures(ctx, "demo", 0)
	require.NoError(t, err)
	assert.Empty(t, measures)
}

func TestWorker_EndToEnd_FailedWriteIsRolledBack(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tally.db")
	w, s := newSQLiteWorkerAt(t, dbPath)

	// Line hashes are the last thing a report writes.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "DROP TABLE tally_file_sources")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	id, err := s.Enqueue(ctx, "demo", writePayload(t, treePayload), baseTime)
	require.NoError(t, err)
	booked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, booked)

	activity, err := s.GetActivity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schema.FailedReport, activity.Status)
	require.NotNil(t, activity.FailureReason)
	assert.Contains(t, *activity.FailureReason, "Persist report")

	measures, err := s.ListAllMeasures(ctx)
	require.NoError(t, err)
	assert.Empty(t, measures)

	open, err := s.ListOpenIssues(ctx, "demo", "")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestWorker_FailedReportDoesNotBlockTheNext(t *testing.T) {
	ctx := context.Background()
	w, s := newSQLiteWorker(t)

	bad, err := s.Enqueue(ctx, "demo", writePayload(t, "project: demo\n"), baseTime)
	require.NoError(t, err)
	good, err := s.Enqueue(ctx, "demo", writePayload(t, treePayload), baseTime.Add(time.Minute))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		booked, err := w.RunOnce(ctx)
		require.NoError(t, err)
		require.True(t, booked, "cycle %d", i+1)
	}

	activity, err := s.GetActivity(ctx, bad)
	require.NoError(t, err)
	assert.Equal(t, schema.FailedReport, activity.Status)

	activity, err = s.GetActivity(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, schema.SuccessReport, activity.Status, "failure: %v", activity.FailureReason)

	measures, err := s.ListMeasures(ctx, "demo", good)
	require.NoError(t, err)
	assert.NotEmpty(t, measures)

	booked, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	path := writePayload(t, treePayload)

	s := &store.MockStore{}
	s.On("Enqueue", mock.Anything, "demo", path, baseTime).Return(int64(9), nil)

	sub, err := Submit(ctx, s, path, baseTime)
	require.NoError(t, err)
	assert.Equal(t, Submission{ReportID: 9, ProjectKey: "demo", PayloadPath: path}, sub)
	s.AssertExpectations(t)
}

func TestSubmit_RejectsInvalidPayload(t *testing.T) {
	s := &store.MockStore{}
	_, err := Submit(context.Background(), s, writePayload(t, "project: demo\n"), baseTime)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid report payload")
	s.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
