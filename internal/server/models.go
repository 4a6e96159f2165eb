package server

import (
	"encoding/json"

	"github.com/minutelab/minuted/internal/conversation"
)

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreateMinuteRequest represents a new minute payload.
type CreateMinuteRequest struct {
	Title string `json:"title"`
}

// MinuteResponse is a minute summary view.
type MinuteResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BlockResponse is one attached block of a minute.
type BlockResponse struct {
	ID       string          `json:"id"`
	MinuteID string          `json:"minute_id"`
	Kind     string          `json:"kind"`
	Position int             `json:"position"`
	Content  json.RawMessage `json:"content"`
}

// LinkPreviewRequest asks for an ingestion preview of a link or pasted
// transcript. Exactly one of URL and ManualTranscript must be set.
type LinkPreviewRequest struct {
	URL              string `json:"url"`
	ManualTranscript string `json:"manualTranscript"`
}

// ConversationPreviewResponse is the draft conversation returned by the
// preview endpoint before anything is saved.
type ConversationPreviewResponse struct {
	Kind     string                       `json:"kind"`
	Title    string                       `json:"title"`
	Messages []conversation.ChatMessage   `json:"messages"`
	Pairs    []conversation.Pair          `json:"pairs"`
	Segments []conversation.ChangeSegment `json:"segments"`
}

// ManualInputResponse tells the client automated extraction failed and a
// pasted transcript is needed.
type ManualInputResponse struct {
	NeedsManualInput bool     `json:"needsManualInput"`
	Reasons          []string `json:"reasons"`
	Instructions     string   `json:"instructions"`
}

// AttachConversationRequest persists a reviewed conversation draft as a
// block. The client may have edited titles and categories since preview.
type AttachConversationRequest struct {
	Title    string                       `json:"title"`
	Pairs    []conversation.Pair          `json:"pairs"`
	Segments []conversation.ChangeSegment `json:"segments"`
}

// AttachLinkRequest attaches a plain website link block.
type AttachLinkRequest struct {
	URL string `json:"url"`
}

// UpdateBlockRequest replaces a block's content document.
type UpdateBlockRequest struct {
	Content json.RawMessage `json:"content"`
}

// FlowTitlesRequest asks for titles for the given segments.
type FlowTitlesRequest struct {
	Segments []conversation.ChangeSegment `json:"segments"`
}

// FlowTitlesResponse returns the same segments with titles filled in.
type FlowTitlesResponse struct {
	Segments []conversation.ChangeSegment `json:"segments"`
}

// SearchResponse wraps conversation search hits.
type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

// SearchHit is one conversation search result.
type SearchHit struct {
	BlockID  string  `json:"block_id"`
	MinuteID string  `json:"minute_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}
