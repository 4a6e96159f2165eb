package render

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/chromedp"
)

func TestChromeRendererReleasesSessionOnFailure(t *testing.T) {
	released := 0
	r := &ChromeRenderer{
		open: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return ctx, func() { released++ }
		},
		run: func(ctx context.Context, actions ...chromedp.Action) error {
			return errors.New("navigation failed")
		},
	}
	if _, err := r.Render(context.Background(), "https://chatgpt.com/share/abc"); err == nil {
		t.Fatal("expected render error")
	}
	if released != 1 {
		t.Fatalf("expected session released exactly once, got %d", released)
	}
}

func TestChromeRendererReleasesSessionOnSuccess(t *testing.T) {
	released := 0
	r := &ChromeRenderer{
		open: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return ctx, func() { released++ }
		},
		run: func(ctx context.Context, actions ...chromedp.Action) error {
			return nil
		},
	}
	if _, err := r.Render(context.Background(), "https://chatgpt.com/share/abc"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected session released exactly once, got %d", released)
	}
}

func TestChromeRendererName(t *testing.T) {
	r := &ChromeRenderer{}
	if r.Name() != "chrome" {
		t.Fatalf("unexpected name %q", r.Name())
	}
}
