package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/minutelab/minuted/internal/conversation"
	"github.com/minutelab/minuted/internal/render"
)

const shareURL = "https://chatgpt.com/share/abc123"

// conversationHTML embeds a two-turn conversation the way the share page
// server-renders it.
const conversationHTML = `<html><head><title>Trip planning</title></head><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"serverResponse":{"messages":[
  {"role":"user","content":"plan a trip to Busan"},
  {"role":"assistant","content":"Here is a three day itinerary."}
]},"meta":{"title":"Trip planning"}}}}
</script></body></html>`

// sentinelHTML renders but carries only the login wall.
const sentinelHTML = `<html><head><title>ChatGPT</title></head><body><p>Log in</p></body></html>`

type fakeRenderer struct {
	name  string
	html  string
	err   error
	calls int
}

func (f *fakeRenderer) Name() string { return f.name }

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

type fixedClassifier struct{ category string }

func (c fixedClassifier) ClassifyTurn(ctx context.Context, userText string) (string, error) {
	return c.category, nil
}

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestService(backends ...render.Renderer) *Service {
	return NewService(backends, fixedClassifier{category: string(conversation.CategoryInformationSeeking)}, nil, testLogger())
}

func TestFetchConversationFirstBackendWins(t *testing.T) {
	first := &fakeRenderer{name: "chrome", html: conversationHTML}
	second := &fakeRenderer{name: "plain", html: conversationHTML}
	svc := newTestService(first, second)

	payload, err := svc.FetchConversation(context.Background(), shareURL)
	if err != nil {
		t.Fatalf("FetchConversation: %v", err)
	}
	if payload.Title != "Trip planning" {
		t.Fatalf("unexpected title %q", payload.Title)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(payload.Messages))
	}
	if second.calls != 0 {
		t.Fatalf("second backend should not run after success, got %d calls", second.calls)
	}
}

func TestFetchConversationFallsThroughFailures(t *testing.T) {
	failing := &fakeRenderer{name: "chrome", err: errors.New("launch failed")}
	inconclusive := &fakeRenderer{name: "browserless_unblock", html: sentinelHTML}
	working := &fakeRenderer{name: "plain", html: conversationHTML}
	svc := newTestService(failing, inconclusive, working)

	payload, err := svc.FetchConversation(context.Background(), shareURL)
	if err != nil {
		t.Fatalf("FetchConversation: %v", err)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(payload.Messages))
	}
	if failing.calls != 1 || inconclusive.calls != 1 || working.calls != 1 {
		t.Fatalf("expected every backend tried once, got %d/%d/%d", failing.calls, inconclusive.calls, working.calls)
	}
}

func TestFetchConversationExhaustionNeedsManualInput(t *testing.T) {
	a := &fakeRenderer{name: "chrome", err: errors.New("timeout")}
	b := &fakeRenderer{name: "plain", html: sentinelHTML}
	svc := newTestService(a, b)

	_, err := svc.FetchConversation(context.Background(), shareURL)
	var manual *ManualInputError
	if !errors.As(err, &manual) {
		t.Fatalf("expected *ManualInputError, got %v", err)
	}
	if len(manual.Reasons) != 2 {
		t.Fatalf("expected a reason per backend, got %v", manual.Reasons)
	}
	if !strings.Contains(manual.Reasons[0], "chrome") {
		t.Fatalf("reason should name the backend: %v", manual.Reasons)
	}
	if manual.Instructions == "" {
		t.Fatal("expected manual instructions")
	}
}

func TestBuildPreviewFromURL(t *testing.T) {
	svc := newTestService(&fakeRenderer{name: "plain", html: conversationHTML})

	preview, err := svc.BuildPreview(context.Background(), PreviewRequest{URL: shareURL})
	if err != nil {
		t.Fatalf("BuildPreview: %v", err)
	}
	if len(preview.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(preview.Pairs))
	}
	if len(preview.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(preview.Segments))
	}
	if preview.Segments[0].Category != conversation.CategoryInformationSeeking {
		t.Fatalf("unexpected category %q", preview.Segments[0].Category)
	}
}

func TestBuildPreviewFromTranscript(t *testing.T) {
	svc := newTestService()

	preview, err := svc.BuildPreview(context.Background(), PreviewRequest{
		ManualTranscript: "나의 말: 질문\nChatGPT의 말: 답변",
	})
	if err != nil {
		t.Fatalf("BuildPreview: %v", err)
	}
	if len(preview.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(preview.Messages))
	}
	if preview.Messages[0].Role != conversation.RoleUser || preview.Messages[0].Content != "질문" {
		t.Fatalf("unexpected first message %+v", preview.Messages[0])
	}
}

func TestBuildPreviewValidation(t *testing.T) {
	svc := newTestService()

	if _, err := svc.BuildPreview(context.Background(), PreviewRequest{}); err == nil {
		t.Fatal("expected error for empty request")
	}
	if _, err := svc.BuildPreview(context.Background(), PreviewRequest{URL: shareURL, ManualTranscript: "text"}); err == nil {
		t.Fatal("expected error when both inputs set")
	}
	if _, err := svc.BuildPreview(context.Background(), PreviewRequest{URL: "https://example.com/page"}); err == nil {
		t.Fatal("expected error for a non-share URL")
	}
}
