package cmd

import (
	"errors"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/outwriter"
	"github.com/huangsam/tally/internal/store"
	"github.com/spf13/cobra"
)

// errProjectRequired is returned by commands scoped to one project.
var errProjectRequired = errors.New("--project is required")

// measuresCmd focused on computed measures.
var measuresCmd = &cobra.Command{
	Use:   "measures",
	Short: "Show and export computed measures",
	Long: `Read the measures computed for each component of a project.

Subcommands:
  show   - Print the measures of one report
  export - Export every stored measure to Parquet

Examples:
  # Measures of the latest successful report
  tally measures show --project demo

  # Export for analysis in pandas/DuckDB
  tally measures export --output-file tally-data`,
}

// measuresShowCmd prints the measures of a report.
var measuresShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the measures of one report",
	Long: `Print every measure stored for a report, one row per component, metric and breakdown.

Rows with a rule or characteristic hold the technical debt of that rule or
characteristic. Optimized metrics at their best value are not stored and do
not show.

Examples:
  # Latest successful report
  tally measures show --project demo

  # A specific report as CSV
  tally measures show --project demo --report-id 42 --output csv`,
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.Project == "" {
			contract.LogFatal("Cannot show measures", errProjectRequired)
		}
		records, err := storeManager.GetMeasureStore().ListMeasures(rootCtx, cfg.Project, cfg.ReportID)
		if err != nil {
			contract.LogFatal("Failed to list measures", err)
		}
		if err := outwriter.NewOutWriter().WriteMeasures(records, cfg); err != nil {
			contract.LogFatal("Failed to write measures", err)
		}
	},
}

// measuresExportCmd exports stored data to Parquet files.
var measuresExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export measures and report activity to Parquet",
	Long: `Export all stored measures and report activity to Parquet files.

Writes two files next to --output-file:
- <output-file>.activities.parquet - one row per report
- <output-file>.measures.parquet   - one row per measure

Requires: --output-file parameter

Examples:
  # Export all data
  tally measures export --output-file tally-data

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('tally-data.measures.parquet') LIMIT 10"`,
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExecuteExport(rootCtx, store.Manager.GetStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export measures", err)
		}
	},
}
