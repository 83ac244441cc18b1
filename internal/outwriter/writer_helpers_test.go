package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/tally/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFloatFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"integral", 2, 42, "42"},
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 0", 0, 3.6, "4"},
		{"precision 4", 4, 3.14159, "3.1416"},
		{"negative", 1, -42.56, "-42.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, newFloatFormatter(tt.precision)(tt.value))
		})
	}
}

func TestFormatMeasureValue(t *testing.T) {
	fmtFloat := newFloatFormatter(1)
	v, text := 2.26, "OK"
	assert.Equal(t, "2.3", formatMeasureValue(schema.MeasureRecord{Value: &v}, fmtFloat))
	assert.Equal(t, "OK", formatMeasureValue(schema.MeasureRecord{TextValue: &text}, fmtFloat))
	assert.Empty(t, formatMeasureValue(schema.MeasureRecord{}, fmtFloat))
}

func TestFormatBreakdown(t *testing.T) {
	assert.Equal(t, "-", formatBreakdown(schema.MeasureRecord{}))
	assert.Equal(t, "rule 10", formatBreakdown(schema.MeasureRecord{RuleID: 10}))
	assert.Equal(t, "characteristic 2", formatBreakdown(schema.MeasureRecord{CharacteristicID: 2}))
}

func TestFormatTimes(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T12:00:00Z", formatTimestamp(&ts))
	assert.Empty(t, formatTimestamp(nil))
	assert.Equal(t, "-", formatRelativeTime(nil))
	hourAgo := time.Now().Add(-time.Hour)
	assert.Equal(t, "1 hour ago", formatRelativeTime(&hourAgo))

	ms := int64(1500)
	assert.Equal(t, "1.5s", formatDurationMs(&ms))
	assert.Equal(t, "-", formatDurationMs(nil))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"name": "demo", "value": 42}))
	assert.Equal(t, "{\n  \"name\": \"demo\",\n  \"value\": 42\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"component", "value"}, func(w *csv.Writer) error {
		return w.Write([]string{"demo:a.go", "1, 2"})
	})
	require.NoError(t, err)
	assert.Equal(t, "component,value\ndemo:a.go,\"1, 2\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeWithFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("content"))
		return err
	}, "Wrote text"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	err = writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote text")
	assert.ErrorIs(t, err, assert.AnError)

	assert.Error(t, writeWithFile("/nonexistent/dir/out.txt", func(io.Writer) error { return nil }, "Wrote text"))
}
