package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test notification to all channels",
	Long: `Resolve subscribers and send a clearly marked test message through the
push topic and every subscriber's email.`,
	RunE: runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // nothing was published

	recipients, err := newDirectory(cfg, logger).Subscribers(cmd.Context())
	if err != nil {
		logger.Warn("subscriber lookup failed, sending push only", "error", err)
		recipients = nil
	}

	msg := "TEST: " + domain.ChangeMessage(cfg.TrackedBeach.DisplayName, domain.StatusYellow, domain.StatusGreen, "Open")
	if err := a.notifier().Notify(cmd.Context(), domain.Notification{
		Title:      cfg.NtfyTitle,
		Message:    msg,
		Recipients: recipients,
	}); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %q to %s/%s and %d subscribers\n", msg, cfg.NtfyBaseURL, cfg.NtfyTopic, len(recipients))
	return nil
}
