package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

const sourceHTTP = "http"

// HTTPDirectory fetches the subscriber list from a remote directory service
// that responds with {"subscribers": [...]}.
// It implements pipeline.SubscriberDirectory.
type HTTPDirectory struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPDirectory creates a directory client. token is sent as X-API-Token
// when non-empty.
func NewHTTPDirectory(url, token string, timeout time.Duration, logger *slog.Logger) *HTTPDirectory {
	return &HTTPDirectory{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Subscribers returns the contact identifiers. Every failure is reported as
// *domain.SubscriberLookupError.
func (d *HTTPDirectory) Subscribers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, d.lookupErr(fmt.Errorf("create request: %w", err))
	}
	if d.token != "" {
		req.Header.Set("X-API-Token", d.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, d.lookupErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, d.lookupErr(fmt.Errorf("directory error: status %d: %s", resp.StatusCode, body))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, d.lookupErr(fmt.Errorf("decode response: %w", err))
	}

	d.logger.Debug("subscribers fetched", "count", len(payload.Subscribers))
	return dedupe(payload.Subscribers), nil
}

func (d *HTTPDirectory) lookupErr(err error) error {
	return &domain.SubscriberLookupError{Source: sourceHTTP, Err: err}
}

type response struct {
	Subscribers []string `json:"subscribers"`
}
