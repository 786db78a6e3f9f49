package pipeline

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// MultiNotifier delivers to every wrapped notifier and combines their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n domain.Notification) error {
	var err error
	for _, notifier := range m {
		err = multierr.Append(err, notifier.Notify(ctx, n))
	}
	return err
}

// LogNotifier records notifications in the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.Logger.Info("notification",
		"title", n.Title,
		"message", n.Message,
		"recipients", len(n.Recipients),
	)
	return nil
}
