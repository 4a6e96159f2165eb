package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPlainFetcherRendersBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Chrome") {
			t.Errorf("expected browser user agent, got %q", ua)
		}
		w.Write([]byte("<html><body>shared chat</body></html>"))
	}))
	defer srv.Close()

	f := &PlainFetcher{}
	html, err := f.Render(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(html, "shared chat") {
		t.Fatalf("unexpected body: %q", html)
	}
}

func TestPlainFetcherNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := &PlainFetcher{}
	if _, err := f.Render(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestPlainFetcherName(t *testing.T) {
	f := &PlainFetcher{}
	if f.Name() != "plain" {
		t.Fatalf("unexpected name %q", f.Name())
	}
}
