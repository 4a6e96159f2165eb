// Package linkmeta fetches title/description metadata for plain website
// links attached to a minute. ChatGPT share links never go through this
// path; they get the full ingestion pipeline instead.
package linkmeta

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/minutelab/minuted/internal/helpers"
	"github.com/minutelab/minuted/internal/render"
)

const defaultFetchTimeout = 10 * time.Second

// Meta is the preview card content for a linked page.
type Meta struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
}

// Fetcher resolves link metadata with a plain GET; pages that need a
// browser are out of scope for preview cards.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Meta, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return Meta{}, fmt.Errorf("invalid link url")
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Meta{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", render.DefaultUserAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Meta{}, fmt.Errorf("fetching link: %w", err)
	}
	body, err := helpers.ReadAllAndClose(resp.Body)
	if err != nil {
		return Meta{}, fmt.Errorf("reading link body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Meta{}, fmt.Errorf("link returned status %d", resp.StatusCode)
	}

	return parseMeta(parsed, string(body)), nil
}

// parseMeta prefers Open Graph tags and falls back to readability's
// article extraction for pages without them.
func parseMeta(pageURL *url.URL, html string) Meta {
	meta := Meta{URL: pageURL.String()}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		meta.Title = ogContent(doc, "og:title")
		meta.Description = ogContent(doc, "og:description")
		meta.Image = ogContent(doc, "og:image")
		meta.SiteName = ogContent(doc, "og:site_name")
		if meta.Title == "" {
			meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		if meta.Description == "" {
			if d, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
				meta.Description = strings.TrimSpace(d)
			}
		}
	}

	if meta.Title == "" || meta.Description == "" {
		if article, err := readability.FromReader(strings.NewReader(html), pageURL); err == nil {
			if meta.Title == "" {
				meta.Title = strings.TrimSpace(article.Title)
			}
			if meta.Description == "" {
				meta.Description = strings.TrimSpace(article.Excerpt)
			}
			if meta.Image == "" {
				meta.Image = article.Image
			}
			if meta.SiteName == "" {
				meta.SiteName = article.SiteName
			}
		}
	}

	if meta.SiteName == "" {
		meta.SiteName = strings.TrimPrefix(pageURL.Hostname(), "www.")
	}
	return meta
}

func ogContent(doc *goquery.Document, property string) string {
	if v, ok := doc.Find(`meta[property="` + property + `"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
