package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one fetch, reconcile, and notify pass",
	Long: `Run the pipeline once and exit.

Exit codes:
  0 - the report was processed
  1 - the report could not be fetched or parsed, or state could not be written`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}()

	res, err := a.pipeline.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("run failed (tracked status %s): %w", res.Tracked.Current, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d beaches, %d changes, notified=%t)\n",
		cfg.TrackedBeach.DisplayName, res.Tracked.Current.Upper(), len(res.Records), len(res.Changes), res.Notified)
	return nil
}
