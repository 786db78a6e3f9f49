package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/beach-status-etl/internal/adapter/source"
	"github.com/couchcryptid/beach-status-etl/internal/pipeline"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Print normalized records without writing state",
	Long: `Fetch the report, or read a saved copy with --file, and print the
normalized beach records as JSON. Nothing is written and nobody is notified.

Example:
  beachstatus parse
  beachstatus parse --file CityOfBurlingtonPublicReport.pdf`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("file", "f", "", "read the report from a local PDF instead of SOURCE_URL")
}

func runParse(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	var fetcher pipeline.Fetcher
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		fetcher = source.FileFetcher{Path: path}
	}

	a, err := newApp(cmd.Context(), cfg, logger, fetcher)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // nothing was published

	records, err := a.pipeline.Collect(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), records)
}
