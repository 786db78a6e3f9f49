package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load configuration from the environment and the beaches file without
touching the network or any state.

Exit codes:
  0 - configuration is valid
  1 - configuration is invalid (details printed to stderr)`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Source:       %s\n", cfg.SourceURL)
	fmt.Fprintf(out, "  Tracked:      %s (%s)\n", cfg.TrackedBeach.Name, cfg.TrackedBeach.DisplayName)
	fmt.Fprintf(out, "  Beaches file: %s (%d beaches)\n", cfg.BeachesFile, cfg.Coordinates.Len())
	fmt.Fprintf(out, "  Subscribers:  %s\n", cfg.SubscriberSource)
	fmt.Fprintf(out, "  Interval:     %s\n", cfg.RunInterval)
	fmt.Fprintf(out, "  Kafka:        %t\n", cfg.KafkaEnabled())
	fmt.Fprintf(out, "  DynamoDB:     %t\n", cfg.DynamoHistoryTable != "")
	fmt.Fprintf(out, "  Mapbox:       %t\n", cfg.MapboxEnabled)
	return nil
}
