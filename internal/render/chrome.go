package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultChromeTimeout = 40 * time.Second
	defaultSettleDelay   = 3 * time.Second

	// conversationSelector is the first selector the renderer waits for
	// before serializing the DOM.
	conversationSelector = "[data-message-author-role]"
)

// ChromeRenderer loads the URL in a headless Chrome session and returns
// the live DOM serialized to HTML. Every request gets an isolated
// session; nothing is reused across requests. Sessions are expensive and
// leak-prone, so release happens on every exit path.
type ChromeRenderer struct {
	Timeout      time.Duration
	SettleDelay  time.Duration
	WaitSelector string
	UserAgent    string

	// Test seams. When nil, real chromedp contexts are used.
	open func(ctx context.Context) (context.Context, context.CancelFunc)
	run  func(ctx context.Context, actions ...chromedp.Action) error
}

func (r *ChromeRenderer) Name() string { return "chrome" }

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	open := r.open
	if open == nil {
		open = r.openBrowser
	}
	run := r.run
	if run == nil {
		run = chromedp.Run
	}

	bctx, release := open(ctx)
	defer release()

	var html string
	err := run(bctx,
		chromedp.Navigate(url),
		r.waitForContent(),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chrome render: %w", err)
	}
	return html, nil
}

// openBrowser builds a fresh allocator and browser context. The returned
// release cancels both; chromedp tears the session down on cancel.
func (r *ChromeRenderer) openBrowser(ctx context.Context) (context.Context, context.CancelFunc) {
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancelBrowser := chromedp.NewContext(actx)
	return bctx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// waitForContent waits until the conversation selector appears or a
// fixed settle delay elapses, whichever comes first. The share page
// renders client-side, so the selector may legitimately never appear on
// blocked pages; the settle delay keeps blocked renders bounded.
func (r *ChromeRenderer) waitForContent() chromedp.Action {
	selector := r.WaitSelector
	if selector == "" {
		selector = conversationSelector
	}
	settle := r.SettleDelay
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ready := make(chan error, 1)
		go func() {
			ready <- chromedp.WaitReady(selector, chromedp.ByQuery).Do(ctx)
		}()
		select {
		case err := <-ready:
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		case <-time.After(settle):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
