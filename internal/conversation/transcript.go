package conversation

import (
	"sort"
	"strings"
)

// TranscriptMarkers are the role-label tokens a pasted transcript is
// expected to contain. The ChatGPT web UI injects these labels when a
// conversation is copied; they differ per locale.
type TranscriptMarkers struct {
	UserLabels      []string
	AssistantLabels []string
}

// DefaultTranscriptMarkers covers the Korean and English share-page copy
// formats.
func DefaultTranscriptMarkers() TranscriptMarkers {
	return TranscriptMarkers{
		UserLabels:      []string{"나의 말:", "You said:"},
		AssistantLabels: []string{"ChatGPT의 말:", "ChatGPT said:"},
	}
}

// transcriptChrome lists UI strings the share page injects into
// copy-pasted text. Lines consisting only of these are discarded before
// marker splitting.
var transcriptChrome = []string{
	"ChatGPT can make mistakes. Check important info.",
	"By messaging ChatGPT, you agree to our Terms and have read our Privacy Policy.",
	"Continue this conversation",
	"Skip to content",
	"Log in",
	"Sign up",
	"Shared Chat",
}

type markerHit struct {
	pos  int
	size int
	role Role
}

// ParseTranscript parses a user-pasted transcript into an ordered message
// list. The text is split at every occurrence of a role-label marker;
// content between two markers belongs to the role of the preceding
// marker. Text before the first marker has no attributable role and is
// dropped. Order is preserved exactly as pasted.
func ParseTranscript(text string, markers TranscriptMarkers) []ChatMessage {
	text = stripChrome(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	hits := findMarkers(text, markers)
	if len(hits) == 0 {
		return nil
	}

	var msgs []ChatMessage
	for i, h := range hits {
		start := h.pos + h.size
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].pos
		}
		content := strings.TrimSpace(text[start:end])
		if content == "" {
			continue
		}
		msgs = append(msgs, ChatMessage{Role: h.role, Content: content})
	}
	return msgs
}

// findMarkers locates every marker occurrence in document order.
func findMarkers(text string, markers TranscriptMarkers) []markerHit {
	var hits []markerHit
	scan := func(labels []string, role Role) {
		for _, label := range labels {
			if label == "" {
				continue
			}
			from := 0
			for {
				i := strings.Index(text[from:], label)
				if i < 0 {
					break
				}
				hits = append(hits, markerHit{pos: from + i, size: len(label), role: role})
				from += i + len(label)
			}
		}
	}
	scan(markers.UserLabels, RoleUser)
	scan(markers.AssistantLabels, RoleAssistant)
	sort.Slice(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })
	return hits
}

func stripChrome(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		drop := false
		for _, chrome := range transcriptChrome {
			if trimmed == chrome {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
