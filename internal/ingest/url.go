// Package ingest turns a ChatGPT share URL or a pasted transcript into a
// structured conversation. Rendering is delegated to an ordered cascade
// of backends; extraction and pairing live in their own packages.
package ingest

import (
	"net/url"
	"strings"
)

// sharePathRule says what a host's path must look like for the link to
// count as a shared conversation.
type sharePathRule int

const (
	// Any path qualifies: legacy chat.openai.com links and short-link
	// hosts always resolve to a share page.
	shareAnyPath sharePathRule = iota
	// The path must start with /share (chatgpt.com/share/<id>).
	sharePrefix
	// The path must mention /share somewhere (openai.com mirrors the
	// share page under varying prefixes).
	shareInPath
)

var shareHosts = map[string]sharePathRule{
	"chatgpt.com":     sharePrefix,
	"chat.openai.com": shareAnyPath,
	"openai.com":      shareInPath,
	"shareg.pt":       shareAnyPath,
	"share.gpt":       shareAnyPath,
}

// IsShareURL reports whether raw points at a ChatGPT shared
// conversation. Malformed input is never an error, just false.
func IsShareURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	rule, ok := shareHosts[host]
	if !ok {
		return false
	}
	switch rule {
	case sharePrefix:
		return strings.HasPrefix(parsed.Path, "/share")
	case shareInPath:
		return strings.Contains(parsed.Path, "/share")
	default:
		return true
	}
}
