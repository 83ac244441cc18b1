package store

import (
	"fmt"

	"github.com/huangsam/tally/schema"
)

// createTableQueries returns the statements creating one table and its indexes.
func createTableQueries(table string, backend schema.DatabaseBackend) []string {
	quoted := quoteTableName(table, backend)
	switch table {
	case queueTable:
		return createQueueQueries(quoted, backend)
	case activityTable:
		return createActivityQueries(quoted, backend)
	case measuresTable:
		return createMeasuresQueries(quoted, backend)
	case issuesTable:
		return createIssuesQueries(quoted, backend)
	case fileSourcesTable:
		return createFileSourcesQueries(quoted, backend)
	}
	return nil
}

func createQueueQueries(quoted string, backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				project_key VARCHAR(255) NOT NULL,
				payload_path TEXT NOT NULL,
				status VARCHAR(16) NOT NULL,
				worker_id VARCHAR(255),
				created_at BIGINT NOT NULL,
				started_at BIGINT
			);
		`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				project_key TEXT NOT NULL,
				payload_path TEXT NOT NULL,
				status TEXT NOT NULL,
				worker_id TEXT,
				created_at BIGINT NOT NULL,
				started_at BIGINT
			);
		`, quoted)}

	default: // SQLite
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_key TEXT NOT NULL,
				payload_path TEXT NOT NULL,
				status TEXT NOT NULL,
				worker_id TEXT,
				created_at INTEGER NOT NULL,
				started_at INTEGER
			);
		`, quoted)}
	}
}

func createActivityQueries(quoted string, backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id BIGINT PRIMARY KEY,
				project_key VARCHAR(255) NOT NULL,
				status VARCHAR(16) NOT NULL,
				submitted_at BIGINT NOT NULL,
				executed_at BIGINT,
				finished_at BIGINT,
				duration_ms BIGINT,
				failure_reason TEXT,
				INDEX idx_tally_activity_project (project_key, status)
			);
		`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id BIGINT PRIMARY KEY,
				project_key TEXT NOT NULL,
				status TEXT NOT NULL,
				submitted_at BIGINT NOT NULL,
				executed_at BIGINT,
				finished_at BIGINT,
				duration_ms BIGINT,
				failure_reason TEXT
			);
		`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_tally_activity_project ON %s (project_key, status);`, quoted),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id INTEGER PRIMARY KEY,
				project_key TEXT NOT NULL,
				status TEXT NOT NULL,
				submitted_at INTEGER NOT NULL,
				executed_at INTEGER,
				finished_at INTEGER,
				duration_ms INTEGER,
				failure_reason TEXT
			);
		`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_tally_activity_project ON %s (project_key, status);`, quoted),
		}
	}
}

func createMeasuresQueries(quoted string, backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id BIGINT NOT NULL,
				project_key VARCHAR(255) NOT NULL,
				component_key VARCHAR(400) NOT NULL,
				metric_key VARCHAR(128) NOT NULL,
				rule_id INT NOT NULL DEFAULT 0,
				characteristic_id INT NOT NULL DEFAULT 0,
				value DOUBLE,
				text_value TEXT,
				variations TEXT,
				computed_at BIGINT NOT NULL,
				PRIMARY KEY (report_id, component_key, metric_key, rule_id, characteristic_id)
			);
		`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id BIGINT NOT NULL,
				project_key TEXT NOT NULL,
				component_key TEXT NOT NULL,
				metric_key TEXT NOT NULL,
				rule_id INT NOT NULL DEFAULT 0,
				characteristic_id INT NOT NULL DEFAULT 0,
				value DOUBLE PRECISION,
				text_value TEXT,
				variations TEXT,
				computed_at BIGINT NOT NULL,
				PRIMARY KEY (report_id, component_key, metric_key, rule_id, characteristic_id)
			);
		`, quoted)}

	default: // SQLite
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_id INTEGER NOT NULL,
				project_key TEXT NOT NULL,
				component_key TEXT NOT NULL,
				metric_key TEXT NOT NULL,
				rule_id INTEGER NOT NULL DEFAULT 0,
				characteristic_id INTEGER NOT NULL DEFAULT 0,
				value REAL,
				text_value TEXT,
				variations TEXT,
				computed_at INTEGER NOT NULL,
				PRIMARY KEY (report_id, component_key, metric_key, rule_id, characteristic_id)
			);
		`, quoted)}
	}
}

func createIssuesQueries(quoted string, backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				issue_key VARCHAR(64) PRIMARY KEY,
				project_key VARCHAR(255) NOT NULL,
				component_key VARCHAR(400) NOT NULL,
				rule_key VARCHAR(255) NOT NULL,
				line INT NOT NULL DEFAULT 0,
				line_hash VARCHAR(64) NOT NULL DEFAULT '',
				message TEXT NOT NULL,
				effort_minutes BIGINT NOT NULL DEFAULT 0,
				status VARCHAR(16) NOT NULL,
				resolution VARCHAR(32) NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL,
				INDEX idx_tally_issues_component (project_key, component_key, status)
			);
		`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				issue_key TEXT PRIMARY KEY,
				project_key TEXT NOT NULL,
				component_key TEXT NOT NULL,
				rule_key TEXT NOT NULL,
				line INT NOT NULL DEFAULT 0,
				line_hash TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL,
				effort_minutes BIGINT NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				resolution TEXT NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_tally_issues_component ON %s (project_key, component_key, status);`, quoted),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				issue_key TEXT PRIMARY KEY,
				project_key TEXT NOT NULL,
				component_key TEXT NOT NULL,
				rule_key TEXT NOT NULL,
				line INTEGER NOT NULL DEFAULT 0,
				line_hash TEXT NOT NULL DEFAULT '',
				message TEXT NOT NULL,
				effort_minutes INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				resolution TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quoted),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_tally_issues_component ON %s (project_key, component_key, status);`, quoted),
		}
	}
}

func createFileSourcesQueries(quoted string, backend schema.DatabaseBackend) []string {
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_key VARCHAR(255) NOT NULL,
				component_key VARCHAR(400) NOT NULL,
				line_hashes LONGTEXT NOT NULL,
				updated_at BIGINT NOT NULL,
				PRIMARY KEY (project_key, component_key)
			);
		`, quoted)}

	case schema.PostgreSQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_key TEXT NOT NULL,
				component_key TEXT NOT NULL,
				line_hashes TEXT NOT NULL,
				updated_at BIGINT NOT NULL,
				PRIMARY KEY (project_key, component_key)
			);
		`, quoted)}

	default: // SQLite
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_key TEXT NOT NULL,
				component_key TEXT NOT NULL,
				line_hashes TEXT NOT NULL,
				updated_at INTEGER NOT NULL,
				PRIMARY KEY (project_key, component_key)
			);
		`, quoted)}
	}
}
