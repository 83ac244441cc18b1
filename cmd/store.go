package cmd

import (
	"fmt"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/store"
	"github.com/huangsam/tally/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sqliteFilePath returns the SQLite database file in use.
func sqliteFilePath() string {
	if cfg.StoreDBConnect != "" {
		return cfg.StoreDBConnect
	}
	return store.GetDBFilePath()
}

// migrateSetup validates config without opening the store, so that
// migrations can run on a fresh database.
func migrateSetup(_ *cobra.Command, _ []string) error {
	if err := configSetup(); err != nil {
		return err
	}
	// For SQLite backend with empty connection string, use default path
	if cfg.StoreBackend == schema.SQLiteBackend {
		cfg.StoreDBConnect = sqliteFilePath()
	}
	return nil
}

// storeCmd focused on store management.
//
// Note: clear and migrate never open the store, since opening it creates
// missing tables.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the store backing the queue, measures and issues",
	Long: `Manage the database shared by workers and query commands.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics
  migrate - Run database schema migrations
  clear   - Remove all stored data

Examples:
  # Check store status
  tally store status

  # Prepare a shared MySQL database
  tally store migrate --store-backend mysql --store-db-connect "user:pass@tcp(db:3306)/tally"`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the store.

Displays:
- Backend type and connection status
- Pending and working reports in the queue
- Total and failed reports
- Last finished report
- Row counts per table`,
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := store.Manager.GetStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStoreStatus(status)
	},
}

// storeMigrateCmd runs database migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  tally store migrate

  # Rollback to the initial state
  tally store migrate --target-version 0`,
	PreRunE: migrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := store.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored data",
	Long: `Delete the queue, report activity, measures, issues and line hashes.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  tally measures export --output-file backup
  tally store clear`,
	PreRunE: withConfig,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ClearStore(cfg.StoreBackend, sqliteFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}
