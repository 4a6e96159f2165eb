package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"path"
	"strings"
)

// Hosts whose share links are fully identified by scheme+host+path: any
// query string on them is UI state, never part of the conversation
// identity, so canonicalization drops it wholesale.
var pathOnlyHosts = map[string]struct{}{
	"chatgpt.com":     {},
	"chat.openai.com": {},
	"openai.com":      {},
	"shareg.pt":       {},
	"share.gpt":       {},
}

// Click-tracking ids that show up on links copied out of chat clients
// and mailers. Anything with a utm_ prefix is dropped separately.
var trackingParams = map[string]struct{}{
	"gclid":   {},
	"fbclid":  {},
	"msclkid": {},
	"igshid":  {},
	"si":      {},
}

// CanonicalURL normalises a pasted link so two copies of the same share
// URL compare and cache as one: scheme and host are lowercased (https
// assumed when the paste has no scheme), a www. prefix and default ports
// are dropped, the path is cleaned, the fragment goes away, and the
// query is either removed entirely (known share hosts) or stripped of
// tracking parameters and re-encoded in sorted order.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errors.New("url missing host")
	}
	host = strings.TrimPrefix(host, "www.")
	if port := parsed.Port(); port != "" && !isDefaultPort(parsed.Scheme, port) {
		host += ":" + port
	}
	parsed.Host = host

	cleaned := path.Clean(parsed.Path)
	if cleaned == "." || cleaned == "" {
		cleaned = "/"
	}
	parsed.RawPath = ""
	parsed.Path = cleaned

	parsed.Fragment = ""
	parsed.RawQuery = canonicalQuery(host, parsed.Query())

	return parsed.String(), nil
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

func canonicalQuery(host string, query url.Values) string {
	if _, pathOnly := pathOnlyHosts[host]; pathOnly {
		return ""
	}
	for key := range query {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			query.Del(key)
			continue
		}
		if _, drop := trackingParams[lower]; drop {
			query.Del(key)
		}
	}
	// Encode sorts keys, which is what makes the result comparable.
	return query.Encode()
}

// URLFingerprint is a stable hex digest of the canonical URL, used as
// the render-cache key component for a share link.
func URLFingerprint(raw string) (string, error) {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}
