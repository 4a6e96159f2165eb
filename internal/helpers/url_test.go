package helpers

import (
	"testing"
)

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "pasted share link without scheme",
			in:   "chatgpt.com/share/abc123",
			want: "https://chatgpt.com/share/abc123",
		},
		{
			name: "share host drops query and fragment wholesale",
			in:   "https://chatgpt.com/share/abc123?ref=copy&model=gpt-4o#top",
			want: "https://chatgpt.com/share/abc123",
		},
		{
			name: "www prefix and case folded away",
			in:   "HTTPS://WWW.Chat.OpenAI.com/share/abc123",
			want: "https://chat.openai.com/share/abc123",
		},
		{
			name: "non-share host keeps real params, loses tracking ones",
			in:   "https://example.com/post?b=2&a=1&utm_source=mail&fbclid=xyz",
			want: "https://example.com/post?a=1&b=2",
		},
		{
			name: "default port and dot segments removed",
			in:   "https://example.com:443/a/../b//c",
			want: "https://example.com/b/c",
		},
		{
			name: "non-default port survives",
			in:   "http://localhost:3000/chat",
			want: "http://localhost:3000/chat",
		},
		{
			name: "protocol-relative paste",
			in:   "//shareg.pt/xyz?anything=1",
			want: "https://shareg.pt/xyz",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalURL() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanonicalURL() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalURLErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", ":///invalid"} {
		if _, err := CanonicalURL(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestURLFingerprintStableAcrossPasteVariants(t *testing.T) {
	t.Parallel()
	variants := []string{
		"https://chatgpt.com/share/abc123",
		"chatgpt.com/share/abc123",
		"https://www.chatgpt.com/share/abc123?utm_source=slack",
		"HTTPS://ChatGPT.com/share/abc123#conversation",
	}
	first, err := URLFingerprint(variants[0])
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	if first == "" {
		t.Fatal("empty fingerprint")
	}
	for _, v := range variants[1:] {
		fp, err := URLFingerprint(v)
		if err != nil {
			t.Fatalf("URLFingerprint(%q): %v", v, err)
		}
		if fp != first {
			t.Fatalf("fingerprint of %q diverged: %s vs %s", v, fp, first)
		}
	}
	other, err := URLFingerprint("https://chatgpt.com/share/def456")
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	if other == first {
		t.Fatal("different share links produced the same fingerprint")
	}
}
