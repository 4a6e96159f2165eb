package search

import (
	"encoding/json"
	"testing"

	"github.com/minutelab/minuted/internal/store"
)

func conversationBlock(t *testing.T, id, minuteID, title, userText, assistantText string) store.BlockRecord {
	t.Helper()
	content, err := json.Marshal(map[string]any{
		"title": title,
		"pairs": []map[string]any{
			{"userIndex": 0, "userText": userText, "assistantTexts": []string{assistantText}},
		},
	})
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return store.BlockRecord{ID: id, MinuteID: minuteID, Kind: store.BlockKindConversation, Content: content}
}

func TestIndexAndQuery(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	rec := conversationBlock(t, "blk-1", "min-1", "Trip planning", "plan a trip to Busan", "Here is a three day itinerary.")
	if err := idx.IndexBlock(rec); err != nil {
		t.Fatalf("IndexBlock: %v", err)
	}

	hits, err := idx.Query("Busan", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].BlockID != "blk-1" || hits[0].MinuteID != "min-1" {
		t.Fatalf("unexpected hit %#v", hits[0])
	}
}

func TestNonConversationBlocksIgnored(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	rec := store.BlockRecord{ID: "blk-2", MinuteID: "min-1", Kind: store.BlockKindText, Content: json.RawMessage(`{"text":"agenda"}`)}
	if err := idx.IndexBlock(rec); err != nil {
		t.Fatalf("IndexBlock: %v", err)
	}

	hits, err := idx.Query("agenda", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits for text block, got %d", len(hits))
	}
}

func TestDeleteBlock(t *testing.T) {
	idx, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	rec := conversationBlock(t, "blk-3", "min-2", "Budget review", "summarize our cloud spend", "Spend was flat month over month.")
	if err := idx.IndexBlock(rec); err != nil {
		t.Fatalf("IndexBlock: %v", err)
	}
	if err := idx.DeleteBlock("blk-3"); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}

	hits, err := idx.Query("cloud", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits after delete, got %d", len(hits))
	}
}
