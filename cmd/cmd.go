// Package cmd defines the command-line interface for tally.
package cmd

import (
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(measuresCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the queue subcommands to the parent queue command
	queueCmd.AddCommand(queueStatusCmd)
	queueCmd.AddCommand(queueClearCmd)

	// Add the measures subcommands to the parent measures command
	measuresCmd.AddCommand(measuresShowCmd)
	measuresCmd.AddCommand(measuresExportCmd)

	// Add the issues subcommands to the parent issues command
	issuesCmd.AddCommand(issuesShowCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultListLimit, "Number of results to display")
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project key")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of workerCmd to Viper
	workerCmd.Flags().String("worker-id", "", "Identifier of this worker (default hostname-pid)")
	workerCmd.Flags().String("poll-interval", contract.DefaultPollInterval.String(), "Wait between polls of an empty queue")
	workerCmd.Flags().String("stale-after", contract.DefaultStaleAfter.String(), "Rebook reports held by another worker for longer than this")
	workerCmd.Flags().Int("max-reports", 0, "Stop after processing this many reports (0 = run until stopped)")
	workerCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	if err := viper.BindPFlags(workerCmd.Flags()); err != nil {
		contract.LogFatal("Error binding worker flags", err)
	}

	// Bind all flags of measuresShowCmd to Viper
	measuresShowCmd.Flags().Int64("report-id", 0, "Report to show (0 = latest successful report)")
	if err := viper.BindPFlags(measuresShowCmd.Flags()); err != nil {
		contract.LogFatal("Error binding measures flags", err)
	}

	// Bind all flags of issuesShowCmd to Viper
	issuesShowCmd.Flags().String("component", "", "Only show issues of this component key")
	if err := viper.BindPFlags(issuesShowCmd.Flags()); err != nil {
		contract.LogFatal("Error binding issues flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
