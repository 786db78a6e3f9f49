package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/beach-status-etl/internal/adapter/filestore"
	"github.com/couchcryptid/beach-status-etl/internal/pipeline"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Append synthetic history for timeline testing",
	Long: `Append one synthetic history row per beach per day for the past N days.
Statuses are mostly green with occasional yellow and red.

By default the beach list comes from the live report; --offline uses the
beaches file instead.

Example:
  beachstatus backfill --days 30
  beachstatus backfill --days 7 --seed 42 --offline`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().Int("days", 30, "number of days to backfill")
	backfillCmd.Flags().Uint64("seed", 0, "random seed; 0 picks one")
	backfillCmd.Flags().Bool("offline", false, "take beach names from BEACHES_FILE instead of fetching")
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	days, _ := cmd.Flags().GetInt("days")
	seed, _ := cmd.Flags().GetUint64("seed")
	offline, _ := cmd.Flags().GetBool("offline")

	var beaches []string
	if offline {
		beaches = cfg.Coordinates.Names()
		if len(beaches) == 0 {
			return errors.New("no beaches in " + cfg.BeachesFile)
		}
	} else {
		a, err := newApp(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck // nothing was published
		records, err := a.pipeline.Collect(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch current beaches: %w", err)
		}
		for _, r := range records {
			beaches = append(beaches, r.BeachName)
		}
	}

	store := filestore.New(cfg.SnapshotPath, cfg.HistoryPath, logger)
	n, err := pipeline.Backfill(cmd.Context(), store, pipeline.BackfillOptions{
		Days:    days,
		Seed:    seed,
		Beaches: beaches,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d rows for %d beaches into %s\n", n, len(beaches), cfg.HistoryPath)
	return nil
}
