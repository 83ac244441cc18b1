package cmd

import (
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/outwriter"
	"github.com/spf13/cobra"
)

// reportsCmd lists report activity.
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show the status of submitted reports",
	Long: `List the most recent reports, newest first, with their status and timings.

A FAILED report shows the reason it was rejected.

Examples:
  # Recent reports of every project
  tally reports

  # Last 5 reports of one project as JSON
  tally reports --project demo --limit 5 --output json`,
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		activities, err := storeManager.GetActivityStore().ListActivities(rootCtx, cfg.Project, cfg.Limit)
		if err != nil {
			contract.LogFatal("Failed to list reports", err)
		}
		if err := outwriter.NewOutWriter().WriteActivities(activities, cfg); err != nil {
			contract.LogFatal("Failed to write reports", err)
		}
	},
}
