package cmd

import (
	"fmt"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/outwriter"
	"github.com/spf13/cobra"
)

// queueCmd focused on the report queue.
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the report queue",
	Long: `Manage reports that were submitted but not yet processed.

Subcommands:
  status - Show queued reports and the workers holding them
  clear  - Remove every queued report

Examples:
  # List queued reports
  tally queue status

  # Drop everything that is still queued
  tally queue clear`,
}

// queueStatusCmd lists queued reports.
var queueStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show queued reports",
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		items, err := storeManager.GetQueue().List(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to list queue", err)
		}
		if err := outwriter.NewOutWriter().WriteQueue(items, cfg); err != nil {
			contract.LogFatal("Failed to write queue", err)
		}
	},
}

// queueClearCmd removes every queued report.
var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every queued report",
	Long: `Delete all queued reports, including those held by a worker.

Report activity is kept, so cleared reports still show in 'tally reports'
with their last recorded status.`,
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		n, err := storeManager.GetQueue().Clear(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to clear queue", err)
		}
		fmt.Printf("Removed %d reports from the queue.\n", n)
	},
}
