package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
)

// Manager is the process-wide store shared by every command.
var (
	Manager   = &SQLStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// SQLStoreManager hands out role-specific views of a single SQL store.
type SQLStoreManager struct {
	mu    sync.RWMutex
	store contract.Store
}

var _ contract.StoreManager = (*SQLStoreManager)(nil)

// GetStore returns the store behind every view, or nil before InitStore.
func (m *SQLStoreManager) GetStore() contract.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store
}

func (m *SQLStoreManager) GetQueue() contract.ReportQueue           { return m.GetStore() }
func (m *SQLStoreManager) GetActivityStore() contract.ActivityStore { return m.GetStore() }
func (m *SQLStoreManager) GetMeasureStore() contract.MeasureStore   { return m.GetStore() }
func (m *SQLStoreManager) GetIssueStore() contract.IssueStore       { return m.GetStore() }

// GetDBFilePath is where the SQLite backend keeps its database by default.
func GetDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// InitStore opens the global store. Later calls return nil without reopening.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		s, err := NewSQLStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize store: %w", err)
			return
		}
		Manager.mu.Lock()
		Manager.store = s
		Manager.mu.Unlock()
	})
	return initErr
}

// CloseStore releases the global store on shutdown.
func CloseStore() {
	closeOnce.Do(func() {
		Manager.mu.Lock()
		defer Manager.mu.Unlock()
		if Manager.store != nil {
			_ = Manager.store.Close()
		}
	})
}

// ClearStore wipes every report, measure and issue for backend.
// SQLite loses its database file while MySQL and PostgreSQL lose their tables,
// including the migration bookkeeping so the next migrate starts fresh.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.NoneBackend:
		return nil

	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return errors.New("no SQLite database file to clear")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, _, err := openDB(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return dropTables(db, backend, append([]string{"schema_migrations"}, allTables...))

	default:
		return fmt.Errorf("cannot clear unsupported store backend %q", backend)
	}
}

func dropTables(db *sql.DB, backend schema.DatabaseBackend, tables []string) error {
	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := "DROP TABLE IF EXISTS " + quoteTableName(table, backend)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
