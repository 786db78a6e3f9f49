package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/beach-status-etl/internal/adapter/filestore"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the last saved snapshot",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := filestore.New(cfg.SnapshotPath, cfg.HistoryPath, logger).LoadSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), snap.Records())
}
