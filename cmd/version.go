package cmd

import (
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tally.",
	Long: `Display version information including build details.

Shows:
- Release version, commit and build timestamp
- Go runtime version
- Store backends compiled in
- Size of the metric catalog

Include this output when reporting a bug, since workers and submitters
sharing a store should run the same release.`,
	Run: func(cmd *cobra.Command, _ []string) {
		backends := make([]string, 0, len(schema.ValidDatabaseBackends))
		for b := range schema.ValidDatabaseBackends {
			if b == schema.NoneBackend {
				continue
			}
			backends = append(backends, string(b))
		}
		slices.Sort(backends)

		cmd.Printf("tally CLI\n")
		cmd.Printf("  Version:  %s\n", version)
		cmd.Printf("  Commit:   %s\n", commit)
		cmd.Printf("  Built:    %s\n", date)
		cmd.Printf("  Runtime:  %s\n", runtime.Version())
		cmd.Printf("  Backends: %s\n", strings.Join(backends, ", "))
		cmd.Printf("  Metrics:  %d\n", len(measure.DefaultMetrics()))
	},
}
