package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stubClassifier struct {
	mu      sync.Mutex
	byText  map[string]string
	failFor map[string]bool
	calls   int
}

func (s *stubClassifier) ClassifyTurn(ctx context.Context, userText string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.failFor[userText] {
		return "", errors.New("model unavailable")
	}
	if label, ok := s.byText[userText]; ok {
		return label, nil
	}
	return string(CategoryDefault), nil
}

func TestSegmentMergesConsecutiveCategories(t *testing.T) {
	t.Parallel()
	pairs := []Pair{
		{UserIndex: 0, UserText: "brainstorm a", AssistantTexts: []string{"idea one"}},
		{UserIndex: 2, UserText: "brainstorm b", AssistantTexts: []string{"idea two", "idea three"}},
		{UserIndex: 5, UserText: "explain this", AssistantTexts: []string{"explanation"}},
	}
	cls := &stubClassifier{byText: map[string]string{
		"brainstorm a": `1. "Idea Generation / Brainstorming"`,
		"brainstorm b": "Idea Generation / Brainstorming",
		"explain this": "Learning & Conceptual Understanding",
	}}
	seg := &Segmenter{Classifier: cls}

	segments := seg.Segment(context.Background(), pairs)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segments), segments)
	}

	first := segments[0]
	if first.Category != CategoryIdeaGeneration || first.StartPair != 0 || first.EndPair != 1 {
		t.Fatalf("unexpected first segment: %+v", first)
	}
	if first.AssistantPreview != "idea three" {
		t.Fatalf("assistantPreview should be the last assistant text of the last pair, got %q", first.AssistantPreview)
	}
	if len(first.UserIndices) != 2 || first.UserIndices[0] != 0 || first.UserIndices[1] != 2 {
		t.Fatalf("unexpected userIndices: %v", first.UserIndices)
	}
	if len(first.AvailableResponses) != 3 {
		t.Fatalf("expected all assistant texts collected, got %v", first.AvailableResponses)
	}

	second := segments[1]
	if second.Category != CategoryLearning || second.StartPair != 2 || second.EndPair != 2 {
		t.Fatalf("unexpected second segment: %+v", second)
	}
}

func TestSegmentPartitionInvariant(t *testing.T) {
	t.Parallel()
	pairs := make([]Pair, 7)
	labels := map[string]string{}
	for i := range pairs {
		text := string(rune('a' + i))
		pairs[i] = Pair{UserIndex: i * 2, UserText: text, AssistantTexts: []string{"r"}}
		// Alternate category runs of irregular length.
		switch {
		case i < 2:
			labels[text] = string(CategoryWriting)
		case i < 3:
			labels[text] = string(CategoryAutomation)
		default:
			labels[text] = string(CategoryWriting)
		}
	}
	seg := &Segmenter{Classifier: &stubClassifier{byText: labels}}

	segments := seg.Segment(context.Background(), pairs)
	next := 0
	for _, s := range segments {
		if s.StartPair != next {
			t.Fatalf("gap or overlap at pair %d: %+v", next, segments)
		}
		if s.EndPair < s.StartPair {
			t.Fatalf("inverted segment range: %+v", s)
		}
		next = s.EndPair + 1
	}
	if next != len(pairs) {
		t.Fatalf("segments do not cover all pairs: covered %d of %d", next, len(pairs))
	}
}

func TestSegmentClassificationFailureDefaultsWithoutAborting(t *testing.T) {
	t.Parallel()
	pairs := []Pair{
		{UserIndex: 0, UserText: "ok one", AssistantTexts: []string{"r1"}},
		{UserIndex: 2, UserText: "broken", AssistantTexts: []string{"r2"}},
		{UserIndex: 4, UserText: "ok two", AssistantTexts: []string{"r3"}},
	}
	cls := &stubClassifier{
		byText: map[string]string{
			"ok one": string(CategoryAutomation),
			"ok two": string(CategoryAutomation),
		},
		failFor: map[string]bool{"broken": true},
	}
	seg := &Segmenter{Classifier: cls, Concurrency: 3}

	segments := seg.Segment(context.Background(), pairs)
	if cls.calls != 3 {
		t.Fatalf("expected every pair classified despite one failure, got %d calls", cls.calls)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segments), segments)
	}
	if segments[1].Category != CategoryDefault {
		t.Fatalf("failed classification should default to %q, got %q", CategoryDefault, segments[1].Category)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	t.Parallel()
	seg := &Segmenter{Classifier: &stubClassifier{}}
	if got := seg.Segment(context.Background(), nil); got != nil {
		t.Fatalf("expected nil segments for empty input, got %+v", got)
	}
}
