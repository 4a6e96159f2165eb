package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minutelab/minuted/internal/helpers"
)

// Browserless API modes. Unblock runs the provider's anti-bot pipeline
// (optionally through a residential proxy); content is a plain remote
// render.
const (
	BrowserlessModeUnblock = "unblock"
	BrowserlessModeContent = "content"
)

const defaultBrowserlessTimeout = 60 * time.Second

// BrowserlessRenderer renders the URL through a remote browserless.io
// deployment. The token is passed as a query parameter, never logged.
type BrowserlessRenderer struct {
	BaseURL          string
	Token            string
	Mode             string
	ResidentialProxy bool
	Timeout          time.Duration
	Client           *http.Client
}

func (r *BrowserlessRenderer) Name() string {
	return "browserless_" + r.mode()
}

func (r *BrowserlessRenderer) mode() string {
	if r.Mode == BrowserlessModeContent {
		return BrowserlessModeContent
	}
	return BrowserlessModeUnblock
}

func (r *BrowserlessRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	if r.BaseURL == "" || r.Token == "" {
		return "", fmt.Errorf("browserless: endpoint not configured")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultBrowserlessTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint, body, err := r.request(pageURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("browserless: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("browserless: %w", err)
	}
	raw, err := helpers.ReadAllAndClose(resp.Body)
	if err != nil {
		return "", fmt.Errorf("browserless: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("browserless: status %d", resp.StatusCode)
	}
	return decodeBrowserless(raw), nil
}

// request builds the endpoint URL and JSON body for the configured mode.
func (r *BrowserlessRenderer) request(pageURL string) (string, []byte, error) {
	base := strings.TrimRight(r.BaseURL, "/")
	q := url.Values{}
	q.Set("token", r.Token)

	switch r.mode() {
	case BrowserlessModeUnblock:
		if r.ResidentialProxy {
			q.Set("proxy", "residential")
		}
		body, err := json.Marshal(map[string]any{
			"url":               pageURL,
			"browserWSEndpoint": false,
			"cookies":           false,
			"content":           true,
			"screenshot":        false,
		})
		if err != nil {
			return "", nil, fmt.Errorf("browserless: encoding request: %w", err)
		}
		return base + "/unblock?" + q.Encode(), body, nil
	default:
		body, err := json.Marshal(map[string]any{
			"url":     pageURL,
			"waitFor": 5000,
			"gotoOptions": map[string]any{
				"waitUntil": "networkidle2",
			},
		})
		if err != nil {
			return "", nil, fmt.Errorf("browserless: encoding request: %w", err)
		}
		return base + "/content?" + q.Encode(), body, nil
	}
}

// decodeBrowserless handles both response shapes the API produces: a
// JSON envelope with a "content" field, or the raw HTML itself.
func decodeBrowserless(raw []byte) string {
	var envelope struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Content != "" {
		return envelope.Content
	}
	return string(raw)
}
