package cmd

import (
	"fmt"
	"time"

	"github.com/huangsam/tally/core/compute"
	"github.com/huangsam/tally/internal/contract"
	"github.com/spf13/cobra"
)

// submitCmd validates a report payload and queues it.
var submitCmd = &cobra.Command{
	Use:   "submit <payload-path>",
	Short: "Queue an analysis report for processing",
	Long: `Validate a YAML or JSON report payload and add it to the queue.

The payload is checked before it is queued, so a malformed report is
rejected here instead of failing in the worker. The worker reads the payload
from the same path later, so the file must stay in place until processed.

Examples:
  # Queue a report
  tally submit build/report.yaml

  # Then check on it
  tally reports --project demo`,
	Args:    cobra.ExactArgs(1),
	PreRunE: withStore,
	Run: func(_ *cobra.Command, args []string) {
		sub, err := compute.Submit(rootCtx, storeManager.GetQueue(), args[0], time.Now())
		if err != nil {
			contract.LogFatal("Cannot submit report", err)
		}
		fmt.Printf("Submitted report %d for project %s\n", sub.ReportID, sub.ProjectKey)
	},
}
