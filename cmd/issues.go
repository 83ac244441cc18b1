package cmd

import (
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// issuesCmd focused on tracked issues.
var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Show tracked issues",
}

// issuesShowCmd prints the open issues of a project.
var issuesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the open issues of a project",
	Long: `Print the issues left open by the latest processed report of a project.

An issue keeps its key and creation date across reports for as long as it
is matched, even when its line moves.

Examples:
  # Open issues of a project
  tally issues show --project demo

  # Open issues of one file
  tally issues show --project demo --component demo:src/a.go`,
	PreRunE: withStore,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.Project == "" {
			contract.LogFatal("Cannot show issues", errProjectRequired)
		}
		issues, err := storeManager.GetIssueStore().ListOpenIssues(rootCtx, cfg.Project, viper.GetString("component"))
		if err != nil {
			contract.LogFatal("Failed to list issues", err)
		}
		if len(issues) > cfg.Limit {
			issues = issues[:cfg.Limit]
		}
		if err := outwriter.NewOutWriter().WriteIssues(issues, cfg); err != nil {
			contract.LogFatal("Failed to write issues", err)
		}
	},
}
