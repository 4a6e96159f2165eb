package conversation

import (
	"context"
	"log"
	"strings"
	"unicode"
)

// TitleProvider produces a short title for a flow from its first user
// turn. lengthHint is a human-readable character band such as "15-20".
type TitleProvider interface {
	FlowTitle(ctx context.Context, userText string, lengthHint string) (string, error)
}

// TitleGenerator produces best-effort flow titles. Failures yield an
// empty string and never block segment creation; an untitled segment is
// valid and gets a display-time placeholder.
type TitleGenerator struct {
	Provider TitleProvider
	Logger   *log.Logger
}

// TitleFor returns a short title for the given first user turn, or ""
// when generation fails or the input is empty. Korean text gets a wider
// band since Hangul carries fewer words per character.
func (g *TitleGenerator) TitleFor(ctx context.Context, firstUserText string) string {
	if g == nil || g.Provider == nil || strings.TrimSpace(firstUserText) == "" {
		return ""
	}
	band := "15-20"
	if containsHangul(firstUserText) {
		band = "25-35"
	}
	title, err := g.Provider.FlowTitle(ctx, firstUserText, band)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Printf("flow title generation failed: %v", err)
		}
		return ""
	}
	return strings.TrimSpace(title)
}

// TitleSegments fills Title on each segment from its first user turn.
// Segments without turn detail are left untitled.
func (g *TitleGenerator) TitleSegments(ctx context.Context, segments []ChangeSegment) {
	for i := range segments {
		if len(segments[i].TurnPairs) == 0 {
			continue
		}
		segments[i].Title = g.TitleFor(ctx, segments[i].TurnPairs[0].UserText)
	}
}

func containsHangul(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
