package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jonesrussell/hn-links/internal/config"
)

// maxResponseBytes caps the thread page body read into memory.
const maxResponseBytes = 10 << 20

// Fetcher retrieves the discussion thread page over HTTP.
type Fetcher struct {
	client    *http.Client
	threadURL string
	userAgent string
}

// NewFetcher creates a Fetcher for the configured thread.
func NewFetcher(cfg config.ScraperConfig) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		threadURL: cfg.ThreadURL(),
		userAgent: cfg.UserAgent,
	}
}

// FetchThread fetches the thread page HTML. A network failure or a
// non-2xx status fails the fetch with a descriptive error.
func (f *Fetcher) FetchThread(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.threadURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", f.threadURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.threadURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", f.threadURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}
