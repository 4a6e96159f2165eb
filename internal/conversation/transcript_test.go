package conversation

import (
	"reflect"
	"testing"
)

func TestParseTranscript(t *testing.T) {
	t.Parallel()
	markers := DefaultTranscriptMarkers()
	tests := []struct {
		name string
		in   string
		want []ChatMessage
	}{
		{
			name: "korean labels",
			in:   "나의 말: 질문\nChatGPT의 말: 답변",
			want: []ChatMessage{
				{Role: RoleUser, Content: "질문"},
				{Role: RoleAssistant, Content: "답변"},
			},
		},
		{
			name: "english labels multi turn",
			in:   "You said: first question\nChatGPT said: first answer\nYou said: second question\nChatGPT said: second answer",
			want: []ChatMessage{
				{Role: RoleUser, Content: "first question"},
				{Role: RoleAssistant, Content: "first answer"},
				{Role: RoleUser, Content: "second question"},
				{Role: RoleAssistant, Content: "second answer"},
			},
		},
		{
			name: "multiline content between markers",
			in:   "나의 말: line one\nline two\nChatGPT의 말: reply",
			want: []ChatMessage{
				{Role: RoleUser, Content: "line one\nline two"},
				{Role: RoleAssistant, Content: "reply"},
			},
		},
		{
			name: "page chrome is stripped",
			in:   "Skip to content\n나의 말: 질문\nChatGPT의 말: 답변\nChatGPT can make mistakes. Check important info.",
			want: []ChatMessage{
				{Role: RoleUser, Content: "질문"},
				{Role: RoleAssistant, Content: "답변"},
			},
		},
		{
			name: "text before first marker is dropped",
			in:   "some header text\nYou said: hello\nChatGPT said: hi",
			want: []ChatMessage{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleAssistant, Content: "hi"},
			},
		},
		{
			name: "empty buffers are skipped",
			in:   "You said: \nChatGPT said: answer only",
			want: []ChatMessage{
				{Role: RoleAssistant, Content: "answer only"},
			},
		},
		{
			name: "no markers yields nothing",
			in:   "just a blob of text with no labels at all",
			want: nil,
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTranscript(tt.in, markers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseTranscript() got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseTranscriptPreservesPastedOrder(t *testing.T) {
	t.Parallel()
	// Assistant turn pasted first stays first: the parser never re-sorts.
	in := "ChatGPT said: I answered\nYou said: then I asked"
	got := ParseTranscript(in, DefaultTranscriptMarkers())
	want := []ChatMessage{
		{Role: RoleAssistant, Content: "I answered"},
		{Role: RoleUser, Content: "then I asked"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseTranscript() got %+v, want %+v", got, want)
	}
}
