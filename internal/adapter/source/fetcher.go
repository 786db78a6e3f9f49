package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// maxDocumentBytes is the largest response body accepted.
const maxDocumentBytes = 32 << 20

// HTTPFetcher downloads the report document.
// It implements pipeline.Fetcher.
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// NewHTTPFetcher creates a fetcher for url with a bounded request timeout.
func NewHTTPFetcher(url string, timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		url:        url,
		httpClient: NewHTTPClient(timeout),
		maxBytes:   maxDocumentBytes,
		logger:     logger,
	}
}

// NewHTTPClient returns a client with the given overall timeout and
// conservative dial and TLS limits.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Fetch retrieves the document bytes. Transport errors, timeouts and
// non-2xx responses are returned as *domain.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: f.url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", "beach-status-etl")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.FetchError{URL: f.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &domain.FetchError{URL: f.url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &domain.FetchError{URL: f.url, Err: fmt.Errorf("document exceeds %d bytes", f.maxBytes)}
	}

	f.logger.Debug("document fetched", "url", f.url, "bytes", len(body), "content_type", resp.Header.Get("Content-Type"))
	return body, nil
}

// FileFetcher reads a document from disk, for dry runs against a saved report.
type FileFetcher struct {
	Path string
}

// Fetch returns the file contents. Read failures are reported as *domain.FetchError.
func (f FileFetcher) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &domain.FetchError{URL: "file://" + f.Path, Err: err}
	}
	return data, nil
}
