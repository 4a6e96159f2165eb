package conversation

// Pair is one user request plus every assistant reply that followed it
// before the next user request. UserIndex is the absolute position of the
// user message in the raw message list.
type Pair struct {
	UserIndex      int      `json:"userIndex"`
	UserText       string   `json:"userText"`
	AssistantTexts []string `json:"assistantTexts"`
}

// ToPairs folds an ordered message list into Pairs with a single
// left-to-right scan. A user message opens a new Pair; assistant messages
// attach to the open Pair. Messages before the first user turn cannot be
// attributed to a request and are dropped, as is any Pair whose user text
// is empty. A Pair with no assistant reply yet is legitimate and kept.
func ToPairs(messages []ChatMessage) []Pair {
	var pairs []Pair
	var current *Pair

	for i, msg := range messages {
		switch msg.Role {
		case RoleUser:
			if current != nil && current.UserText != "" {
				pairs = append(pairs, *current)
			}
			current = &Pair{UserIndex: i, UserText: msg.Content, AssistantTexts: []string{}}
		case RoleAssistant:
			if current != nil {
				current.AssistantTexts = append(current.AssistantTexts, msg.Content)
			}
		}
	}
	if current != nil && current.UserText != "" {
		pairs = append(pairs, *current)
	}
	return pairs
}

// Flatten reconstructs a flat message list from a Pair sequence,
// interleaving each user turn with its assistant replies in order.
// ToPairs(Flatten(pairs)) is structurally equivalent to pairs.
func Flatten(pairs []Pair) []ChatMessage {
	var out []ChatMessage
	for _, p := range pairs {
		out = append(out, ChatMessage{Role: RoleUser, Content: p.UserText})
		for _, a := range p.AssistantTexts {
			out = append(out, ChatMessage{Role: RoleAssistant, Content: a})
		}
	}
	return out
}

// LastAssistantText returns the final assistant reply of the Pair, or ""
// when the user turn has not been answered.
func (p Pair) LastAssistantText() string {
	if len(p.AssistantTexts) == 0 {
		return ""
	}
	return p.AssistantTexts[len(p.AssistantTexts)-1]
}
