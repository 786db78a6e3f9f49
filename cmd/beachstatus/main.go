// Package main is the entry point for the beachstatus CLI.
//
// Usage:
//
//	beachstatus run                   # one fetch-to-notify pass
//	beachstatus serve                 # scheduler plus HTTP API
//	beachstatus parse --file r.pdf    # dry run, print normalized records
//	beachstatus backfill --days 30    # synthetic history for timelines
//	beachstatus notify-test           # send a test notification
//	beachstatus status                # print the current snapshot
//	beachstatus validate              # check configuration
//	beachstatus version
//
// All settings come from environment variables; see internal/config.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "beachstatus",
	Short: "Beach water-quality status tracker",
	Long: `beachstatus downloads the public beach water-quality report, normalizes
each beach's advisory status, records changes in an append-only history, and
notifies subscribers when the tracked beach changes status.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "beachstatus %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
