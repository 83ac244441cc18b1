package cmd

import (
	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/outwriter"
	"github.com/spf13/cobra"
)

// metricsCmd displays the metric catalog.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the metrics tally understands",
	Long: `Show every metric a report payload may carry or tally computes.

For each metric:
- Key used in report payloads and stored measures
- Value kind (INT, LONG, DOUBLE, ...)
- Best value, and whether measures at that value are skipped when stored

No store access is performed - this is purely informational.

Examples:
  # Show the catalog
  tally metrics

  # As JSON for tooling
  tally metrics --output json`,
	PreRunE: withConfig,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.NewOutWriter().WriteMetrics(measure.DefaultMetrics(), cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
