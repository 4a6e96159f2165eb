package conversation

import "strings"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MaxMessages caps how many messages a single ingestion keeps. Share pages
// occasionally render hundreds of overlapping nodes; the cap keeps payloads
// reasonable.
const MaxMessages = 60

// ChatMessage is the atomic unit emitted by every extraction path.
// Array position defines conversation order.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SharePayload is the normalized output of every extraction or parsing
// path, automated or manual. Source names the extraction strategy that
// produced the messages; it is diagnostic only and never serialized.
type SharePayload struct {
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
	Source   string        `json:"-"`
}

// Inconclusive reports whether the payload is the "extraction inconclusive"
// sentinel: exactly one system-role message. Callers treat it the same as
// an empty extraction and fall back to manual input.
func (p SharePayload) Inconclusive() bool {
	return len(p.Messages) == 1 && p.Messages[0].Role == RoleSystem
}

// Empty reports whether no usable messages were extracted.
func (p SharePayload) Empty() bool {
	return len(p.Messages) == 0 || p.Inconclusive()
}

// ParseRole maps a raw role string to a Role, defaulting to assistant for
// absent or unrecognized values. Share pages have shipped several shapes
// for the role field over time.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return RoleUser
	case "system":
		return RoleSystem
	default:
		return RoleAssistant
	}
}
