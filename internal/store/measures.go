package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/huangsam/tally/schema"
)

const measureColumns = `report_id, project_key, component_key, metric_key, rule_id, characteristic_id, value, text_value, variations, computed_at`

// SaveMeasures stores the measures of one report in a single transaction.
func (s *SQLStore) SaveMeasures(ctx context.Context, records []schema.MeasureRecord) error {
	if s.disabled() || len(records) == 0 {
		return nil
	}
	return s.inTx(ctx, "measures", func(tx *sql.Tx) error {
		return s.insertMeasures(ctx, tx, records)
	})
}

func (s *SQLStore) insertMeasures(ctx context.Context, tx *sql.Tx, records []schema.MeasureRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := s.q(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table(measuresTable), measureColumns))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare measure insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		variations, err := encodeVariations(r.Variations)
		if err != nil {
			return fmt.Errorf("failed to encode variations of %s on %s: %w", r.MetricKey, r.ComponentKey, err)
		}
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		var text sql.NullString
		if r.TextValue != nil {
			text = sql.NullString{String: *r.TextValue, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.ReportID, r.ProjectKey, r.ComponentKey, r.MetricKey, r.RuleID, r.CharacteristicID,
			value, text, variations, toMillis(r.ComputedAt),
		); err != nil {
			return fmt.Errorf("failed to insert measure %s on %s: %w", r.MetricKey, r.ComponentKey, err)
		}
	}
	return nil
}

// ListMeasures returns the measures of a report. reportID 0 selects the
// latest successful report of the project; no such report yields no measures.
func (s *SQLStore) ListMeasures(ctx context.Context, projectKey string, reportID int64) ([]schema.MeasureRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	if reportID == 0 {
		latest, err := s.latestSuccessfulReport(ctx, projectKey)
		if err != nil {
			return nil, err
		}
		if latest == 0 {
			return nil, nil
		}
		reportID = latest
	}

	query := s.q(fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_key = ? AND report_id = ?
		ORDER BY component_key, metric_key, rule_id, characteristic_id
	`, measureColumns, s.table(measuresTable)))
	return s.queryMeasures(ctx, query, projectKey, reportID)
}

// ListAllMeasures returns every stored measure.
func (s *SQLStore) ListAllMeasures(ctx context.Context) ([]schema.MeasureRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY report_id, component_key, metric_key, rule_id, characteristic_id
	`, measureColumns, s.table(measuresTable))
	return s.queryMeasures(ctx, query)
}

func (s *SQLStore) latestSuccessfulReport(ctx context.Context, projectKey string) (int64, error) {
	query := s.q(fmt.Sprintf(`SELECT MAX(report_id) FROM %s WHERE project_key = ? AND status = ?`, s.table(activityTable)))
	var latest sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, projectKey, string(schema.SuccessReport)).Scan(&latest); err != nil {
		return 0, fmt.Errorf("failed to find latest report of %s: %w", projectKey, err)
	}
	return latest.Int64, nil
}

func (s *SQLStore) queryMeasures(ctx context.Context, query string, args ...any) ([]schema.MeasureRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.MeasureRecord
	for rows.Next() {
		var (
			r          schema.MeasureRecord
			value      sql.NullFloat64
			text       sql.NullString
			variations sql.NullString
			computedAt int64
		)
		if err := rows.Scan(&r.ReportID, &r.ProjectKey, &r.ComponentKey, &r.MetricKey, &r.RuleID, &r.CharacteristicID,
			&value, &text, &variations, &computedAt); err != nil {
			return nil, fmt.Errorf("failed to scan measure: %w", err)
		}
		r.Value = nullFloat(value)
		r.TextValue = nullString(text)
		r.ComputedAt = fromMillis(computedAt)
		if r.Variations, err = decodeVariations(variations); err != nil {
			return nil, fmt.Errorf("failed to decode variations of %s on %s: %w", r.MetricKey, r.ComponentKey, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measures: %w", err)
	}
	return records, nil
}

// Variations are stored as a JSON array with null for absent slots.
func encodeVariations(variations []*float64) (sql.NullString, error) {
	if len(variations) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(variations)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeVariations(v sql.NullString) ([]*float64, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var variations []*float64
	if err := json.Unmarshal([]byte(v.String), &variations); err != nil {
		return nil, err
	}
	return variations, nil
}
