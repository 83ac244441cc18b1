package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huangsam/tally/schema"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs fn in a transaction that is committed only when fn succeeds.
func (s *SQLStore) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", what, err)
	}
	return nil
}

// SaveReport stores the measures, issues and line hashes of one report in a
// single transaction, so a failed write leaves the previous analysis untouched.
func (s *SQLStore) SaveReport(ctx context.Context, output schema.ReportOutput) error {
	if s.disabled() || output.Empty() {
		return nil
	}
	return s.inTx(ctx, "report", func(tx *sql.Tx) error {
		if err := s.insertMeasures(ctx, tx, output.Measures); err != nil {
			return err
		}
		if err := s.upsertIssues(ctx, tx, output.Issues); err != nil {
			return err
		}
		for _, src := range output.Sources {
			if err := s.upsertFileSource(ctx, tx, src); err != nil {
				return err
			}
		}
		return nil
	})
}
