package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gp",
		Short: "Adarsh Gram village development data portal",
		Long: `gp runs and administers the PM-AJAY Adarsh Gram village portal: village
profiles, requirements, surveys, the offline asset cache and the deferred
submission queue.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVillageCmd())
	cmd.AddCommand(newRequirementCmd())
	cmd.AddCommand(newHouseholdCmd())
	cmd.AddCommand(newSurveyCmd())
	cmd.AddCommand(newAssessmentCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newActivityCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newQueueCmd())
	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newSelectCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gp %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
