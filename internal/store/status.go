package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/tally/schema"
)

// GetStatus returns status information about the store.
func (s *SQLStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}

	if s.disabled() {
		return status, nil
	}

	queueCounts := s.q(fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM %s
	`, s.table(queueTable)))
	if err := s.db.QueryRowContext(ctx, queueCounts, string(schema.PendingItem), string(schema.WorkingItem)).
		Scan(&status.PendingReports, &status.WorkingReports); err != nil {
		return status, fmt.Errorf("failed to get queue counts: %w", err)
	}

	activityCounts := s.q(fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0), COALESCE(MAX(report_id), 0)
		FROM %s
	`, s.table(activityTable)))
	if err := s.db.QueryRowContext(ctx, activityCounts, string(schema.FailedReport)).
		Scan(&status.TotalReports, &status.FailedReports, &status.LastReportID); err != nil {
		return status, fmt.Errorf("failed to get activity counts: %w", err)
	}

	var lastFinished sql.NullInt64
	lastFinishedQuery := fmt.Sprintf(`SELECT MAX(finished_at) FROM %s`, s.table(activityTable))
	if err := s.db.QueryRowContext(ctx, lastFinishedQuery).Scan(&lastFinished); err != nil {
		return status, fmt.Errorf("failed to get last finished time: %w", err)
	}
	if lastFinished.Valid {
		status.LastFinishedAt = fromMillis(lastFinished.Int64)
	}

	for _, table := range allTables {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table(table))
		var count int64
		if err := s.db.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// PrintStoreStatus prints store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Pending Reports: %d\n", status.PendingReports)
	fmt.Printf("Working Reports: %d\n", status.WorkingReports)
	fmt.Printf("Total Reports: %d (%d failed)\n", status.TotalReports, status.FailedReports)
	if status.TotalReports > 0 {
		fmt.Printf("Last Report ID: %d\n", status.LastReportID)
	}
	if !status.LastFinishedAt.IsZero() {
		fmt.Printf("Last Finished: %s (%s)\n", status.LastFinishedAt.Format("2006-01-02 15:04:05"), humanize.Time(status.LastFinishedAt))
	}
	fmt.Println("Table Sizes:")
	for _, table := range allTables {
		fmt.Printf("  %s: %s rows\n", table, humanize.Comma(status.TableSizes[table]))
	}
}
