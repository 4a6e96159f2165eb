package conversation

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// Classifier labels a single user turn with one of the taxonomy
// categories. Implementations are remote calls: slow, fallible, and
// allowed to return slightly malformed labels.
type Classifier interface {
	ClassifyTurn(ctx context.Context, userText string) (string, error)
}

// ChangeSegment ("flow") is a maximal run of consecutive Pairs sharing
// one category. StartPair/EndPair index into the Pair sequence and are
// inclusive; together the segments partition it with no gaps or overlaps.
type ChangeSegment struct {
	Category           Category   `json:"category"`
	StartPair          int        `json:"startPair"`
	EndPair            int        `json:"endPair"`
	UserIndices        []int      `json:"userIndices"`
	AssistantPreview   string     `json:"assistantPreview"`
	AvailableResponses []string   `json:"availableResponses,omitempty"`
	Title              string     `json:"title,omitempty"`
	TurnPairs          []TurnPair `json:"turnPairs,omitempty"`
}

// TurnPair carries the turn-level detail persisted alongside a segment so
// the full conversation can be reconstructed later. TurnNumber is
// 1-based.
type TurnPair struct {
	UserText       string   `json:"userText"`
	AssistantTexts []string `json:"assistantTexts"`
	TurnNumber     int      `json:"turnNumber"`
}

// Segmenter classifies Pairs and groups consecutive same-category runs
// into ChangeSegments.
type Segmenter struct {
	Classifier  Classifier
	Logger      *log.Logger
	Concurrency int
}

// Segment classifies every pair and merges runs of identical categories.
// Classification calls fan out concurrently; a failed call defaults that
// pair to CategoryDefault without cancelling its siblings. Grouping
// happens strictly in pair order, the same order used for classification,
// so segment contiguity is preserved.
func (s *Segmenter) Segment(ctx context.Context, pairs []Pair) []ChangeSegment {
	if len(pairs) == 0 {
		return nil
	}
	categories := s.classifyAll(ctx, pairs)

	var segments []ChangeSegment
	for i, p := range pairs {
		cat := categories[i]
		turn := TurnPair{UserText: p.UserText, AssistantTexts: p.AssistantTexts, TurnNumber: i + 1}
		if len(segments) == 0 || segments[len(segments)-1].Category != cat {
			segments = append(segments, ChangeSegment{
				Category:           cat,
				StartPair:          i,
				EndPair:            i,
				UserIndices:        []int{p.UserIndex},
				AssistantPreview:   p.LastAssistantText(),
				AvailableResponses: append([]string(nil), p.AssistantTexts...),
				TurnPairs:          []TurnPair{turn},
			})
			continue
		}
		seg := &segments[len(segments)-1]
		seg.EndPair = i
		seg.UserIndices = append(seg.UserIndices, p.UserIndex)
		seg.AssistantPreview = p.LastAssistantText()
		seg.AvailableResponses = append(seg.AvailableResponses, p.AssistantTexts...)
		seg.TurnPairs = append(seg.TurnPairs, turn)
	}
	return segments
}

// classifyAll issues one classification per pair with bounded fan-out and
// returns normalized categories positionally aligned with pairs.
func (s *Segmenter) classifyAll(ctx context.Context, pairs []Pair) []Category {
	categories := make([]Category, len(pairs))
	limit := s.Concurrency
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			raw, err := s.Classifier.ClassifyTurn(gctx, p.UserText)
			if err != nil {
				if s.Logger != nil {
					s.Logger.Printf("classify turn %d failed, using default category: %v", i+1, err)
				}
				categories[i] = CategoryDefault
				return nil
			}
			categories[i] = NormalizeCategory(raw)
			return nil
		})
	}
	_ = g.Wait()
	return categories
}
