package ntfy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

const channel = "ntfy"

// Notifier publishes to an ntfy topic: one broadcast message, then one
// message per recipient carrying an Email header so the server forwards it.
// It implements pipeline.Notifier.
type Notifier struct {
	topicURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a notifier for baseURL/topic.
func NewNotifier(baseURL, topic string, timeout time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		topicURL:   strings.TrimRight(baseURL, "/") + "/" + topic,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Notify delivers n to the topic and to every recipient. A failed delivery
// does not stop the remaining ones; all failures come back combined as
// *domain.DeliveryError values.
func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	var errs error
	if err := n.post(ctx, msg, ""); err != nil {
		errs = multierr.Append(errs, &domain.DeliveryError{Channel: channel, Err: err})
	}

	for _, r := range msg.Recipients {
		if err := n.post(ctx, msg, r); err != nil {
			n.logger.Warn("email delivery failed", "recipient", r, "error", err)
			errs = multierr.Append(errs, &domain.DeliveryError{Channel: channel, Recipient: r, Err: err})
		}
	}

	n.logger.Info("notification sent",
		"topic_url", n.topicURL,
		"recipients", len(msg.Recipients),
		"failures", len(multierr.Errors(errs)),
	)
	return errs
}

func (n *Notifier) post(ctx context.Context, msg domain.Notification, email string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topicURL, strings.NewReader(msg.Message))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if email != "" {
		req.Header.Set("Email", email)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ntfy error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
