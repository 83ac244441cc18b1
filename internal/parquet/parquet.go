// Package parquet provides data structures and functions for exporting tally
// measures and report activities to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/tally/schema"
	"github.com/parquet-go/parquet-go"
)

// Measure is one computed measure of one component in one report.
// This struct maps to the tally_measures database table.
type Measure struct {
	// ReportID references the report that computed the measure
	ReportID int64 `parquet:"report_id,snappy"`

	ProjectKey   string `parquet:"project_key,snappy,dict"`
	ComponentKey string `parquet:"component_key,snappy"`
	MetricKey    string `parquet:"metric_key,snappy,dict"`

	// RuleID and CharacteristicID are 0 for plain measures
	RuleID           int32 `parquet:"rule_id,snappy"`
	CharacteristicID int32 `parquet:"characteristic_id,snappy"`

	// Value is the numeric value (nullable)
	Value *float64 `parquet:"value,optional,snappy"`

	// TextValue is the text value (nullable)
	TextValue *string `parquet:"text_value,optional,snappy"`

	// Variations is the JSON-encoded variation array (nullable)
	Variations *string `parquet:"variations,optional,snappy"`

	ComputedAt time.Time `parquet:"computed_at,snappy"`
}

// ReportActivity is the outcome of one submitted report.
// This struct maps to the tally_activity database table.
type ReportActivity struct {
	ReportID    int64     `parquet:"report_id,snappy"`
	ProjectKey  string    `parquet:"project_key,snappy,dict"`
	Status      string    `parquet:"status,snappy,dict"`
	SubmittedAt time.Time `parquet:"submitted_at,snappy"`

	// ExecutedAt and FinishedAt are nil until the worker reaches them
	ExecutedAt *time.Time `parquet:"executed_at,optional,snappy"`
	FinishedAt *time.Time `parquet:"finished_at,optional,snappy"`

	DurationMs    *int64  `parquet:"duration_ms,optional,snappy"`
	FailureReason *string `parquet:"failure_reason,optional,snappy"`
}

// writeRows writes a slice of rows to a Parquet file with a schema inferred from T.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteMeasuresParquet writes measures to a Parquet file.
func WriteMeasuresParquet(data []Measure, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteActivitiesParquet writes report activities to a Parquet file.
func WriteActivitiesParquet(data []ReportActivity, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertMeasureRecords converts schema.MeasureRecord to Measure for Parquet export.
func ConvertMeasureRecords(records []schema.MeasureRecord) ([]Measure, error) {
	result := make([]Measure, len(records))
	for i, record := range records {
		result[i] = Measure{
			ReportID:         record.ReportID,
			ProjectKey:       record.ProjectKey,
			ComponentKey:     record.ComponentKey,
			MetricKey:        record.MetricKey,
			RuleID:           int32(record.RuleID),
			CharacteristicID: int32(record.CharacteristicID),
			Value:            record.Value,
			TextValue:        record.TextValue,
			ComputedAt:       record.ComputedAt,
		}
		if len(record.Variations) > 0 {
			data, err := json.Marshal(record.Variations)
			if err != nil {
				return nil, fmt.Errorf("failed to encode variations of %s on %s: %w", record.MetricKey, record.ComponentKey, err)
			}
			encoded := string(data)
			result[i].Variations = &encoded
		}
	}
	return result, nil
}

// ConvertActivityRecords converts schema.ReportActivity to ReportActivity for Parquet export.
func ConvertActivityRecords(records []schema.ReportActivity) []ReportActivity {
	result := make([]ReportActivity, len(records))
	for i, record := range records {
		result[i] = ReportActivity{
			ReportID:      record.ReportID,
			ProjectKey:    record.ProjectKey,
			Status:        string(record.Status),
			SubmittedAt:   record.SubmittedAt,
			ExecutedAt:    record.ExecutedAt,
			FinishedAt:    record.FinishedAt,
			DurationMs:    record.DurationMs,
			FailureReason: record.FailureReason,
		}
	}
	return result
}
