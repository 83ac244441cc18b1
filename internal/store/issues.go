package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/tally/schema"
)

const issueColumns = `issue_key, project_key, component_key, rule_key, line, line_hash, message, effort_minutes, status, resolution, created_at, updated_at`

// ListOpenIssues returns the open issues of a project, optionally restricted to one component.
func (s *SQLStore) ListOpenIssues(ctx context.Context, projectKey, componentKey string) ([]schema.IssueRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	var (
		query string
		args  []any
	)
	if componentKey == "" {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE project_key = ? AND status = ? ORDER BY component_key, line, issue_key`,
			issueColumns, s.table(issuesTable))
		args = []any{projectKey, string(schema.OpenIssue)}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE project_key = ? AND component_key = ? AND status = ? ORDER BY line, issue_key`,
			issueColumns, s.table(issuesTable))
		args = []any{projectKey, componentKey, string(schema.OpenIssue)}
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list open issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.IssueRecord
	for rows.Next() {
		var (
			r         schema.IssueRecord
			status    string
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&r.Key, &r.ProjectKey, &r.ComponentKey, &r.RuleKey, &r.Line, &r.LineHash, &r.Message,
			&r.EffortMinutes, &status, &r.Resolution, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		r.Status = schema.IssueStatus(status)
		r.CreatedAt = fromMillis(createdAt)
		r.UpdatedAt = fromMillis(updatedAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}
	return records, nil
}

// upsertIssueQuery returns the insert-or-update statement for issues keyed by issue_key.
func (s *SQLStore) upsertIssueQuery() string {
	quoted := s.table(issuesTable)
	values := `(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES %s AS new
			ON DUPLICATE KEY UPDATE
				component_key = new.component_key, rule_key = new.rule_key, line = new.line,
				line_hash = new.line_hash, message = new.message, effort_minutes = new.effort_minutes,
				status = new.status, resolution = new.resolution, updated_at = new.updated_at
		`, quoted, issueColumns, values)
	case schema.PostgreSQLBackend:
		return rebind(fmt.Sprintf(`
			INSERT INTO %s (%s) VALUES %s
			ON CONFLICT (issue_key) DO UPDATE SET
				component_key = EXCLUDED.component_key, rule_key = EXCLUDED.rule_key, line = EXCLUDED.line,
				line_hash = EXCLUDED.line_hash, message = EXCLUDED.message, effort_minutes = EXCLUDED.effort_minutes,
				status = EXCLUDED.status, resolution = EXCLUDED.resolution, updated_at = EXCLUDED.updated_at
		`, quoted, issueColumns, values), s.backend)
	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES %s`, quoted, issueColumns, values)
	}
}

// SaveIssues inserts or updates issues by key in a single transaction.
// created_at is kept from the first insert on MySQL and PostgreSQL; callers
// always pass the original creation time so SQLite's replace agrees.
func (s *SQLStore) SaveIssues(ctx context.Context, records []schema.IssueRecord) error {
	if s.disabled() || len(records) == 0 {
		return nil
	}
	return s.inTx(ctx, "issues", func(tx *sql.Tx) error {
		return s.upsertIssues(ctx, tx, records)
	})
}

func (s *SQLStore) upsertIssues(ctx context.Context, tx *sql.Tx, records []schema.IssueRecord) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, s.upsertIssueQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare issue upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Key, r.ProjectKey, r.ComponentKey, r.RuleKey, r.Line, r.LineHash, r.Message,
			r.EffortMinutes, string(r.Status), r.Resolution, toMillis(r.CreatedAt), toMillis(r.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to save issue %s: %w", r.Key, err)
		}
	}
	return nil
}

// GetFileSource returns the stored line hashes of a file. The boolean is false when none are stored.
func (s *SQLStore) GetFileSource(ctx context.Context, projectKey, componentKey string) (schema.FileSourceRecord, bool, error) {
	if s.disabled() {
		return schema.FileSourceRecord{}, false, nil
	}

	query := s.q(fmt.Sprintf(`SELECT line_hashes, updated_at FROM %s WHERE project_key = ? AND component_key = ?`, s.table(fileSourcesTable)))
	var (
		encoded   string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, projectKey, componentKey).Scan(&encoded, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.FileSourceRecord{}, false, nil
	}
	if err != nil {
		return schema.FileSourceRecord{}, false, fmt.Errorf("failed to get source of %s: %w", componentKey, err)
	}

	record := schema.FileSourceRecord{
		ProjectKey:   projectKey,
		ComponentKey: componentKey,
		UpdatedAt:    fromMillis(updatedAt),
	}
	if err := json.Unmarshal([]byte(encoded), &record.LineHashes); err != nil {
		return schema.FileSourceRecord{}, false, fmt.Errorf("failed to decode line hashes of %s: %w", componentKey, err)
	}
	return record, true, nil
}

// SaveFileSource replaces the stored line hashes of a file.
func (s *SQLStore) SaveFileSource(ctx context.Context, record schema.FileSourceRecord) error {
	if s.disabled() {
		return nil
	}
	return s.upsertFileSource(ctx, s.db, record)
}

func (s *SQLStore) upsertFileSource(ctx context.Context, ex execer, record schema.FileSourceRecord) error {
	hashes := record.LineHashes
	if hashes == nil {
		hashes = []string{}
	}
	encoded, err := json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("failed to encode line hashes of %s: %w", record.ComponentKey, err)
	}

	quoted := s.table(fileSourcesTable)
	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (project_key, component_key, line_hashes, updated_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE line_hashes = new.line_hashes, updated_at = new.updated_at
		`, quoted)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (project_key, component_key, line_hashes, updated_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (project_key, component_key) DO UPDATE SET line_hashes = EXCLUDED.line_hashes, updated_at = EXCLUDED.updated_at
		`, quoted)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s (project_key, component_key, line_hashes, updated_at) VALUES (?, ?, ?, ?)`, quoted)
	}

	if _, err := ex.ExecContext(ctx, query, record.ProjectKey, record.ComponentKey, string(encoded), toMillis(record.UpdatedAt)); err != nil {
		return fmt.Errorf("failed to save source of %s: %w", record.ComponentKey, err)
	}
	return nil
}
