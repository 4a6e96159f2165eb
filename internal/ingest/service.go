package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minutelab/minuted/internal/conversation"
	"github.com/minutelab/minuted/internal/extract"
	"github.com/minutelab/minuted/internal/helpers"
	"github.com/minutelab/minuted/internal/render"
)

// ManualInputError signals that every render backend was exhausted
// without a usable conversation. It carries the per-backend failure
// reasons so the user can be told what went wrong and how to paste a
// transcript instead.
type ManualInputError struct {
	Reasons      []string
	Instructions string
}

func (e *ManualInputError) Error() string {
	return "conversation could not be fetched automatically: " + strings.Join(e.Reasons, "; ")
}

const manualInstructions = "Open the shared conversation in your browser, select the whole page, copy it, and paste the text here."

// Service drives the render cascade and hands rendered HTML to the
// extractor. Backends run strictly in order; the first one whose HTML
// yields real messages wins.
type Service struct {
	Backends   []render.Renderer
	Classifier conversation.Classifier
	Titles     *conversation.TitleGenerator
	Markers    conversation.TranscriptMarkers
	Logger     *log.Logger
}

func NewService(backends []render.Renderer, classifier conversation.Classifier, titles *conversation.TitleGenerator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Service{
		Backends:   backends,
		Classifier: classifier,
		Titles:     titles,
		Markers:    conversation.DefaultTranscriptMarkers(),
		Logger:     logger,
	}
}

// FetchConversation renders the share page through the backend cascade
// and extracts the conversation. A backend failure or an inconclusive
// extraction both advance to the next backend. Exhaustion returns
// *ManualInputError, never a bare error.
func (s *Service) FetchConversation(ctx context.Context, rawURL string) (conversation.SharePayload, error) {
	start := time.Now()
	defer func() { fetchDuration.Observe(time.Since(start).Seconds()) }()

	fetchID := uuid.NewString()
	pageURL := rawURL
	if canonical, err := helpers.CanonicalURL(rawURL); err == nil {
		pageURL = canonical
	}

	reasons := make([]string, 0, len(s.Backends))
	for _, backend := range s.Backends {
		html, err := backend.Render(ctx, pageURL)
		if err != nil {
			renderAttempts.WithLabelValues(backend.Name(), outcomeError).Inc()
			s.Logger.Printf("[fetch %s] backend %s failed: %v", fetchID, backend.Name(), err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", backend.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		payload := extract.Conversation(html)
		if payload.Empty() || payload.Inconclusive() {
			renderAttempts.WithLabelValues(backend.Name(), outcomeInconclusive).Inc()
			s.Logger.Printf("[fetch %s] backend %s rendered %d bytes but extraction was inconclusive", fetchID, backend.Name(), len(html))
			reasons = append(reasons, fmt.Sprintf("%s: page rendered but no conversation found", backend.Name()))
			continue
		}

		renderAttempts.WithLabelValues(backend.Name(), outcomeOK).Inc()
		extractionHits.WithLabelValues(payload.Source).Inc()
		s.Logger.Printf("[fetch %s] backend %s extracted %d messages via %s", fetchID, backend.Name(), len(payload.Messages), payload.Source)
		return payload, nil
	}

	manualFallbacks.Inc()
	return conversation.SharePayload{}, &ManualInputError{
		Reasons:      reasons,
		Instructions: manualInstructions,
	}
}

// PreviewRequest is the input to Preview. Exactly one of URL and
// ManualTranscript must be set.
type PreviewRequest struct {
	URL              string
	ManualTranscript string
}

// Preview is the full ingestion result handed back to the caller before
// anything is persisted.
type Preview struct {
	Title    string
	Messages []conversation.ChatMessage
	Pairs    []conversation.Pair
	Segments []conversation.ChangeSegment
}

// BuildPreview runs the complete pipeline: fetch or parse, pair, segment
// and title. Validation errors and *ManualInputError both surface to the
// caller; everything past extraction is best-effort and never fails the
// request.
func (s *Service) BuildPreview(ctx context.Context, req PreviewRequest) (Preview, error) {
	hasURL := strings.TrimSpace(req.URL) != ""
	hasTranscript := strings.TrimSpace(req.ManualTranscript) != ""

	var payload conversation.SharePayload
	switch {
	case hasURL && hasTranscript:
		return Preview{}, fmt.Errorf("provide either a share URL or a pasted transcript, not both")
	case hasTranscript:
		messages := conversation.ParseTranscript(req.ManualTranscript, s.Markers)
		if len(messages) == 0 {
			return Preview{}, fmt.Errorf("no conversation turns found in the pasted transcript")
		}
		payload = conversation.SharePayload{Title: extract.DefaultTitle, Messages: messages}
	case hasURL:
		if !IsShareURL(req.URL) {
			return Preview{}, fmt.Errorf("not a recognized ChatGPT share link")
		}
		var err error
		payload, err = s.FetchConversation(ctx, req.URL)
		if err != nil {
			return Preview{}, err
		}
	default:
		return Preview{}, fmt.Errorf("a share URL or a pasted transcript is required")
	}

	pairs := conversation.ToPairs(payload.Messages)
	segmenter := &conversation.Segmenter{Classifier: s.Classifier, Logger: s.Logger}
	segments := segmenter.Segment(ctx, pairs)
	if s.Titles != nil {
		s.Titles.TitleSegments(ctx, segments)
	}

	return Preview{
		Title:    payload.Title,
		Messages: payload.Messages,
		Pairs:    pairs,
		Segments: segments,
	}, nil
}
