package render

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minutelab/minuted/internal/helpers"
)

const (
	// DefaultUserAgent mimics a desktop Chrome; the share page serves a
	// stripped payload to obvious non-browser agents.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultPlainTimeout = 12 * time.Second
)

// PlainFetcher performs a single HTTP GET with browser-like headers.
// Fastest backend, but only succeeds when the conversation is present in
// the server-rendered payload.
type PlainFetcher struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

func (f *PlainFetcher) Name() string { return "plain" }

func (f *PlainFetcher) Render(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultPlainTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("plain fetch: build request: %w", err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("plain fetch: %w", err)
	}
	body, err := helpers.ReadAllAndClose(resp.Body)
	if err != nil {
		return "", fmt.Errorf("plain fetch: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("plain fetch: unexpected status %d", resp.StatusCode)
	}
	return string(body), nil
}
