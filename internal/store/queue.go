package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
)

// bookCandidates bounds how many items a worker tries to book per call.
const bookCandidates = 5

// Enqueue adds a report to the queue and records its PENDING activity in one transaction.
func (s *SQLStore) Enqueue(ctx context.Context, projectKey, payloadPath string, submittedAt time.Time) (int64, error) {
	if s.disabled() {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	submitted := toMillis(submittedAt)

	var id int64
	switch s.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (project_key, payload_path, status, created_at) VALUES ($1, $2, $3, $4) RETURNING id`, s.table(queueTable))
		err = tx.QueryRowContext(ctx, query, projectKey, payloadPath, string(schema.PendingItem), submitted).Scan(&id)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (project_key, payload_path, status, created_at) VALUES (?, ?, ?, ?)`, s.table(queueTable))
		var result sql.Result
		result, err = tx.ExecContext(ctx, query, projectKey, payloadPath, string(schema.PendingItem), submitted)
		if err == nil {
			id, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert queue item: %w", err)
	}

	activity := s.q(fmt.Sprintf(`INSERT INTO %s (report_id, project_key, status, submitted_at) VALUES (?, ?, ?, ?)`, s.table(activityTable)))
	if _, err := tx.ExecContext(ctx, activity, id, projectKey, string(schema.PendingReport), submitted); err != nil {
		return 0, fmt.Errorf("failed to insert activity for report %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit enqueue: %w", err)
	}
	return id, nil
}

// Book reserves the oldest available item for workerID.
// An item is available when it is PENDING, or WORKING with a start older than staleAfter.
// The reservation is a conditional update so two workers never book the same item.
func (s *SQLStore) Book(ctx context.Context, workerID string, now time.Time, staleAfter time.Duration) (schema.QueueItem, error) {
	if s.disabled() {
		return schema.QueueItem{}, contract.ErrQueueEmpty
	}

	staleBefore := toMillis(now.Add(-staleAfter))
	available := `(status = ? OR (status = ? AND started_at < ?))`

	query := s.q(fmt.Sprintf(`SELECT id FROM %s WHERE %s ORDER BY id LIMIT %d`, s.table(queueTable), available, bookCandidates))
	rows, err := s.db.QueryContext(ctx, query, string(schema.PendingItem), string(schema.WorkingItem), staleBefore)
	if err != nil {
		return schema.QueueItem{}, fmt.Errorf("failed to query queue: %w", err)
	}
	var candidates []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return schema.QueueItem{}, fmt.Errorf("failed to scan queue item: %w", err)
		}
		candidates = append(candidates, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return schema.QueueItem{}, fmt.Errorf("error iterating queue: %w", err)
	}
	_ = rows.Close()

	update := s.q(fmt.Sprintf(`UPDATE %s SET status = ?, worker_id = ?, started_at = ? WHERE id = ? AND %s`, s.table(queueTable), available))
	for _, id := range candidates {
		result, err := s.db.ExecContext(ctx, update,
			string(schema.WorkingItem), workerID, toMillis(now), id,
			string(schema.PendingItem), string(schema.WorkingItem), staleBefore)
		if err != nil {
			return schema.QueueItem{}, fmt.Errorf("failed to book queue item %d: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return schema.QueueItem{}, fmt.Errorf("failed to book queue item %d: %w", id, err)
		}
		if affected != 1 {
			// Another worker got there first.
			continue
		}
		item, err := s.getQueueItem(ctx, id)
		if err != nil {
			return schema.QueueItem{}, err
		}
		return item, nil
	}
	return schema.QueueItem{}, contract.ErrQueueEmpty
}

// Heartbeat moves started_at forward while workerID still holds the item.
func (s *SQLStore) Heartbeat(ctx context.Context, id int64, workerID string, now time.Time) error {
	if s.disabled() {
		return nil
	}
	query := s.q(fmt.Sprintf(`UPDATE %s SET started_at = ? WHERE id = ? AND worker_id = ? AND status = ?`, s.table(queueTable)))
	result, err := s.db.ExecContext(ctx, query, toMillis(now), id, workerID, string(schema.WorkingItem))
	if err != nil {
		return fmt.Errorf("failed to refresh booking of queue item %d: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		return nil
	}

	// MySQL counts only changed rows, so an unchanged started_at looks like a miss.
	var held int
	check := s.q(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ? AND worker_id = ? AND status = ?`, s.table(queueTable)))
	if err := s.db.QueryRowContext(ctx, check, id, workerID, string(schema.WorkingItem)).Scan(&held); err != nil {
		return fmt.Errorf("failed to check booking of queue item %d: %w", id, err)
	}
	if held == 0 {
		return fmt.Errorf("queue item %d: %w", id, contract.ErrBookingLost)
	}
	return nil
}

// Remove deletes an item still booked by workerID.
func (s *SQLStore) Remove(ctx context.Context, id int64, workerID string) error {
	if s.disabled() {
		return nil
	}
	query := s.q(fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND worker_id = ?`, s.table(queueTable)))
	result, err := s.db.ExecContext(ctx, query, id, workerID)
	if err != nil {
		return fmt.Errorf("failed to remove queue item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove queue item %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("queue item %d: %w", id, contract.ErrBookingLost)
	}
	return nil
}

// List returns all queued items, oldest first.
func (s *SQLStore) List(ctx context.Context) ([]schema.QueueItem, error) {
	if s.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, queueColumns, s.table(queueTable))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []schema.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue: %w", err)
	}
	return items, nil
}

// Clear removes all queued items and returns how many were removed.
func (s *SQLStore) Clear(ctx context.Context) (int64, error) {
	if s.disabled() {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table(queueTable)))
	if err != nil {
		return 0, fmt.Errorf("failed to clear queue: %w", err)
	}
	return result.RowsAffected()
}

const queueColumns = `id, project_key, payload_path, status, worker_id, created_at, started_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row rowScanner) (schema.QueueItem, error) {
	var (
		item      schema.QueueItem
		status    string
		workerID  sql.NullString
		createdAt int64
		startedAt sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.ProjectKey, &item.PayloadPath, &status, &workerID, &createdAt, &startedAt); err != nil {
		return schema.QueueItem{}, fmt.Errorf("failed to scan queue item: %w", err)
	}
	item.Status = schema.QueueStatus(status)
	item.WorkerID = workerID.String
	item.CreatedAt = fromMillis(createdAt)
	item.StartedAt = nullMillis(startedAt)
	return item, nil
}

func (s *SQLStore) getQueueItem(ctx context.Context, id int64) (schema.QueueItem, error) {
	query := s.q(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, queueColumns, s.table(queueTable)))
	item, err := scanQueueItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.QueueItem{}, fmt.Errorf("queue item %d disappeared after booking: %w", id, err)
		}
		return schema.QueueItem{}, err
	}
	return item, nil
}
