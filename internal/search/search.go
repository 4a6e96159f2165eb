// Package search maintains a full-text index over attached conversation
// blocks so users can find a minute by what was discussed in it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/minutelab/minuted/internal/conversation"
	"github.com/minutelab/minuted/internal/store"
)

// Document is what gets indexed per conversation block: the title plus
// every user/assistant turn flattened into one text field.
type Document struct {
	BlockID  string `json:"blockId"`
	MinuteID string `json:"minuteId"`
	Title    string `json:"title"`
	Text     string `json:"text"`
}

// Hit is a single search result.
type Hit struct {
	BlockID  string  `json:"blockId"`
	MinuteID string  `json:"minuteId"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}

// Index wraps a bleve index over conversation blocks. Safe for
// concurrent use; Rebuild swaps content under a lock.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
}

// Open opens the index at path, creating it when absent. An empty path
// yields a memory-only index, used in tests.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, err
		}
		return &Index{bleve: idx}, nil
	}
	idx, err := bleve.Open(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("opening search index: %w", err)
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating search index: %w", err)
		}
	}
	return &Index{bleve: idx}, nil
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Close()
}

// IndexBlock adds or replaces one conversation block in the index.
func (i *Index) IndexBlock(rec store.BlockRecord) error {
	doc, ok := documentFromBlock(rec)
	if !ok {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Index(doc.BlockID, doc)
}

// DeleteBlock removes a block from the index.
func (i *Index) DeleteBlock(blockID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.bleve.Delete(blockID)
}

// Query runs a query-string search and returns up to limit hits.
func (i *Index) Query(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Fields = []string{"minuteId", "title"}
	res, err := i.bleve.Search(req)
	if err != nil {
		return nil, err
	}

	var out []Hit
	for _, hit := range res.Hits {
		h := Hit{BlockID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["minuteId"].(string); ok {
			h.MinuteID = v
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		out = append(out, h)
	}
	return out, nil
}

// Rebuild reindexes every conversation block from the store. Existing
// entries for vanished blocks are dropped by indexing into a fresh
// in-memory batch of ids first and deleting the rest.
func (i *Index) Rebuild(ctx context.Context, st *store.Store) (int, error) {
	blocks, err := st.ListConversationBlocks(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing conversation blocks: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	keep := make(map[string]struct{}, len(blocks))
	batch := i.bleve.NewBatch()
	count := 0
	for _, rec := range blocks {
		doc, ok := documentFromBlock(rec)
		if !ok {
			continue
		}
		keep[doc.BlockID] = struct{}{}
		if err := batch.Index(doc.BlockID, doc); err != nil {
			return 0, err
		}
		count++
	}
	if err := i.bleve.Batch(batch); err != nil {
		return 0, err
	}

	// Drop index entries whose block no longer exists.
	all := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 10000, 0, false)
	res, err := i.bleve.Search(all)
	if err != nil {
		return count, nil
	}
	stale := i.bleve.NewBatch()
	for _, hit := range res.Hits {
		if _, ok := keep[hit.ID]; !ok {
			stale.Delete(hit.ID)
		}
	}
	if stale.Size() > 0 {
		if err := i.bleve.Batch(stale); err != nil {
			return count, err
		}
	}
	return count, nil
}

// conversationContent mirrors the persisted conversation block document.
type conversationContent struct {
	Title    string                       `json:"title"`
	Pairs    []conversation.Pair          `json:"pairs"`
	Segments []conversation.ChangeSegment `json:"segments"`
}

func documentFromBlock(rec store.BlockRecord) (Document, bool) {
	if rec.Kind != store.BlockKindConversation {
		return Document{}, false
	}
	var content conversationContent
	if err := json.Unmarshal(rec.Content, &content); err != nil {
		return Document{}, false
	}

	var b strings.Builder
	for _, pair := range content.Pairs {
		b.WriteString(pair.UserText)
		b.WriteByte('\n')
		for _, a := range pair.AssistantTexts {
			b.WriteString(a)
			b.WriteByte('\n')
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" && content.Title == "" {
		return Document{}, false
	}
	return Document{
		BlockID:  rec.ID,
		MinuteID: rec.MinuteID,
		Title:    content.Title,
		Text:     text,
	}, true
}
