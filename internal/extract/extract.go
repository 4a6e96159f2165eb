// Package extract recovers a structured conversation from the HTML of a
// ChatGPT share page. The page markup is undocumented and has shipped in
// several shapes; extraction runs a fixed cascade of strategies from most
// to least reliable and returns the first that yields any message.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/minutelab/minuted/internal/conversation"
)

// DefaultTitle is used when no title can be recovered from the page.
const DefaultTitle = "Shared Chat"

// Strategy names reported on SharePayload.Source.
const (
	SourceEmbedded = "embedded"
	SourceDOM      = "dom"
	SourceScript   = "script"
)

// embeddedDataKeyPaths lists, in priority order, the key paths under
// which the embedded __NEXT_DATA__ payload has historically carried the
// messages array. Keeping the list explicit makes the supported shapes
// auditable.
var embeddedDataKeyPaths = [][]string{
	{"props", "pageProps", "serverResponse", "messages"},
	{"props", "pageProps", "messages"},
	{"props", "messages"},
	{"messages"},
}

var embeddedTitleKeyPaths = [][]string{
	{"props", "pageProps", "meta", "title"},
	{"props", "pageProps", "title"},
	{"title"},
}

// messageSelectors ranks CSS selectors associated with conversation
// turns, most specific first. The first selector producing any messages
// wins.
var messageSelectors = []string{
	"[data-message-author-role]",
	"[data-message-id]",
	"[data-testid*='message']",
	"[data-testid*='conversation']",
	".conversation-turn",
	".message",
	"[class*='message']",
	"[class*='turn']",
	"[class*='chat']",
	"div[role='presentation']",
	"[role='listitem']",
}

// boilerplate matches UI and navigation text that leaks into turn
// selectors on the share page.
var boilerplate = regexp.MustCompile(`(?i)Continue this conversation|Log in|Sign up|Copy link|Regenerate|Skip to content|By messaging ChatGPT|Terms|Privacy Policy|Loading|Try again|window\.__oai|requestAnimationFrame|function\(\)|__oai_logHTML|__oai_SSR`)

const (
	minTurnLength = 10
	maxTurnLength = 5000
)

// Conversation extracts a SharePayload from rendered share-page HTML.
// It is a pure function of its input: no network, no side effects. A
// payload with zero messages means every strategy came up empty; the
// caller decides whether to try another render backend.
func Conversation(html string) conversation.SharePayload {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return conversation.SharePayload{Title: DefaultTitle}
	}

	title := DefaultTitle
	var msgs []conversation.ChatMessage
	var source string

	if m, t := fromEmbeddedData(doc); len(m) > 0 {
		msgs = m
		source = SourceEmbedded
		if t != "" {
			title = t
		}
	}
	if len(msgs) == 0 {
		if msgs = fromDOMSelectors(doc); len(msgs) > 0 {
			source = SourceDOM
		}
	}
	if len(msgs) == 0 {
		if msgs = fromScriptScan(doc); len(msgs) > 0 {
			source = SourceScript
		}
	}

	if title == DefaultTitle {
		if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
			title = t
		}
	}

	msgs = dedupe(msgs)
	if len(msgs) > conversation.MaxMessages {
		msgs = msgs[:conversation.MaxMessages]
	}
	return conversation.SharePayload{Title: title, Messages: msgs, Source: source}
}

// fromEmbeddedData parses the script#__NEXT_DATA__ JSON blob and walks
// the known key-path candidates for a messages array.
func fromEmbeddedData(doc *goquery.Document) ([]conversation.ChatMessage, string) {
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil, ""
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, ""
	}

	var msgs []conversation.ChatMessage
	for _, path := range embeddedDataKeyPaths {
		arr, ok := lookupPath(data, path).([]any)
		if !ok {
			continue
		}
		msgs = messagesFromArray(arr)
		if len(msgs) > 0 {
			break
		}
	}

	var title string
	for _, path := range embeddedTitleKeyPaths {
		if t, ok := lookupPath(data, path).(string); ok && strings.TrimSpace(t) != "" {
			title = strings.TrimSpace(t)
			break
		}
	}
	return msgs, title
}

// messagesFromArray normalizes raw message objects: role defaults to
// assistant when absent or unrecognized, content is coerced from the
// known field names and trimmed, empty content is skipped.
func messagesFromArray(arr []any) []conversation.ChatMessage {
	var msgs []conversation.ChatMessage
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := obj["role"].(string)
		if role == "" {
			role, _ = obj["author_role"].(string)
		}
		content := firstString(obj, "content", "text", "message")
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		msgs = append(msgs, conversation.ChatMessage{
			Role:    conversation.ParseRole(role),
			Content: content,
		})
	}
	return msgs
}

// fromDOMSelectors walks the ranked turn selectors and extracts trimmed
// element text. Role comes from the element's own role attribute when
// present; content heuristics are strictly a fallback.
func fromDOMSelectors(doc *goquery.Document) []conversation.ChatMessage {
	for _, selector := range messageSelectors {
		var msgs []conversation.ChatMessage
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) < minTurnLength || len(text) > maxTurnLength {
				return
			}
			if boilerplate.MatchString(text) {
				return
			}
			msgs = append(msgs, conversation.ChatMessage{
				Role:    roleForElement(sel, text),
				Content: text,
			})
		})
		if len(msgs) > 0 {
			return msgs
		}
	}
	return nil
}

func roleForElement(sel *goquery.Selection, text string) conversation.Role {
	for _, attr := range []string{"data-message-author-role", "data-author-role", "data-role"} {
		if v, ok := sel.Attr(attr); ok {
			switch v {
			case "user":
				return conversation.RoleUser
			case "assistant":
				return conversation.RoleAssistant
			}
		}
	}
	return GuessRole(text)
}

// scriptJSONObject grabs the widest JSON-looking object mentioning a
// messages key from inline script text.
var scriptJSONObject = regexp.MustCompile(`\{[\s\S]*"messages"[\s\S]*\}`)

// fromScriptScan is the last resort: scan every inline script for a JSON
// object carrying a "messages" key.
func fromScriptScan(doc *goquery.Document) []conversation.ChatMessage {
	var msgs []conversation.ChatMessage
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "messages") || !strings.Contains(text, "conversation") {
			return true
		}
		match := scriptJSONObject.FindString(text)
		if match == "" {
			return true
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(match), &data); err != nil {
			return true
		}
		arr, ok := data["messages"].([]any)
		if !ok {
			return true
		}
		msgs = messagesFromArray(arr)
		return len(msgs) == 0
	})
	return msgs
}

// dedupe removes messages with identical trimmed content, keeping the
// first occurrence in order. Share pages frequently render the same turn
// under multiple overlapping selectors.
func dedupe(msgs []conversation.ChatMessage) []conversation.ChatMessage {
	if len(msgs) == 0 {
		return msgs
	}
	seen := make(map[string]struct{}, len(msgs))
	out := msgs[:0]
	for _, m := range msgs {
		key := strings.TrimSpace(m.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func lookupPath(data map[string]any, path []string) any {
	var cur any = data
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
