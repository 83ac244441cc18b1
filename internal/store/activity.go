package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/tally/schema"
)

// ErrActivityNotFound is returned when no activity exists for a report id.
var ErrActivityNotFound = errors.New("report activity not found")

const activityColumns = `report_id, project_key, status, submitted_at, executed_at, finished_at, duration_ms, failure_reason`

// MarkExecuting records that a worker started the report.
func (s *SQLStore) MarkExecuting(ctx context.Context, reportID int64, at time.Time) error {
	if s.disabled() {
		return nil
	}
	query := s.q(fmt.Sprintf(`UPDATE %s SET executed_at = ? WHERE report_id = ?`, s.table(activityTable)))
	if _, err := s.db.ExecContext(ctx, query, toMillis(at), reportID); err != nil {
		return fmt.Errorf("failed to mark report %d as executing: %w", reportID, err)
	}
	return nil
}

// MarkFinished records the final status of a report and its duration since execution started.
func (s *SQLStore) MarkFinished(ctx context.Context, reportID int64, status schema.ReportStatus, at time.Time, reason *string) error {
	if s.disabled() {
		return nil
	}
	finished := toMillis(at)
	query := s.q(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, finished_at = ?, duration_ms = ? - COALESCE(executed_at, submitted_at), failure_reason = ?
		WHERE report_id = ?
	`, s.table(activityTable)))

	var failure sql.NullString
	if reason != nil {
		failure = sql.NullString{String: *reason, Valid: true}
	}
	result, err := s.db.ExecContext(ctx, query, string(status), finished, finished, failure, reportID)
	if err != nil {
		return fmt.Errorf("failed to mark report %d as finished: %w", reportID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("report %d: %w", reportID, ErrActivityNotFound)
	}
	return nil
}

// GetActivity returns the activity of one report.
func (s *SQLStore) GetActivity(ctx context.Context, reportID int64) (schema.ReportActivity, error) {
	if s.disabled() {
		return schema.ReportActivity{}, fmt.Errorf("report %d: %w", reportID, ErrActivityNotFound)
	}
	query := s.q(fmt.Sprintf(`SELECT %s FROM %s WHERE report_id = ?`, activityColumns, s.table(activityTable)))
	activity, err := scanActivity(s.db.QueryRowContext(ctx, query, reportID))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.ReportActivity{}, fmt.Errorf("report %d: %w", reportID, ErrActivityNotFound)
	}
	return activity, err
}

// ListActivities returns the most recent activities, newest first.
func (s *SQLStore) ListActivities(ctx context.Context, projectKey string, limit int) ([]schema.ReportActivity, error) {
	if s.disabled() {
		return nil, nil
	}

	var (
		query string
		args  []any
	)
	if projectKey == "" {
		query = fmt.Sprintf(`SELECT %s FROM %s ORDER BY report_id DESC LIMIT ?`, activityColumns, s.table(activityTable))
		args = []any{limit}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE project_key = ? ORDER BY report_id DESC LIMIT ?`, activityColumns, s.table(activityTable))
		args = []any{projectKey, limit}
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []schema.ReportActivity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

func scanActivity(row rowScanner) (schema.ReportActivity, error) {
	var (
		activity   schema.ReportActivity
		status     string
		submitted  int64
		executedAt sql.NullInt64
		finishedAt sql.NullInt64
		duration   sql.NullInt64
		reason     sql.NullString
	)
	err := row.Scan(&activity.ReportID, &activity.ProjectKey, &status, &submitted, &executedAt, &finishedAt, &duration, &reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.ReportActivity{}, err
		}
		return schema.ReportActivity{}, fmt.Errorf("failed to scan activity: %w", err)
	}
	activity.Status = schema.ReportStatus(status)
	activity.SubmittedAt = fromMillis(submitted)
	activity.ExecutedAt = nullMillis(executedAt)
	activity.FinishedAt = nullMillis(finishedAt)
	if duration.Valid {
		d := duration.Int64
		activity.DurationMs = &d
	}
	activity.FailureReason = nullString(reason)
	return activity, nil
}
