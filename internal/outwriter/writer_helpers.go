package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
)

// writeWithFile opens the output target, runs writer on it and closes it.
// An empty outputFile writes to stdout.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON encodes data with two-space indentation.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes header, then lets writeRows fill in the records.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return writeRows(csvWriter)
}

// newFloatFormatter returns a formatter printing floats with the given precision.
// Integral values are printed without decimals.
func newFloatFormatter(precision int) func(float64) string {
	return func(v float64) string {
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// formatMeasureValue renders the numeric or text value of a measure.
func formatMeasureValue(r schema.MeasureRecord, fmtFloat func(float64) string) string {
	switch {
	case r.Value != nil:
		return fmtFloat(*r.Value)
	case r.TextValue != nil:
		return *r.TextValue
	default:
		return ""
	}
}

// formatBreakdown renders the rule or characteristic a measure is narrowed to.
func formatBreakdown(r schema.MeasureRecord) string {
	switch {
	case r.RuleID != 0:
		return "rule " + strconv.Itoa(r.RuleID)
	case r.CharacteristicID != 0:
		return "characteristic " + strconv.Itoa(r.CharacteristicID)
	default:
		return "-"
	}
}

// formatRelativeTime renders t relative to now, or "-" when unset.
func formatRelativeTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

// formatTimestamp renders t in the default date time format, or "" when unset.
func formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(contract.DateTimeFormat)
}

// formatDurationMs renders a duration in milliseconds, or "-" when unset.
func formatDurationMs(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}
