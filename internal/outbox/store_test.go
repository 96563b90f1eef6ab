package outbox

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateLastErrorShortPassesThrough(t *testing.T) {
	if got := truncateLastError("broker unavailable"); got != "broker unavailable" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateLastErrorBounds(t *testing.T) {
	got := truncateLastError(strings.Repeat("a", maxLastErrorLen+100))
	if len(got) != maxLastErrorLen {
		t.Fatalf("got %d bytes, want %d", len(got), maxLastErrorLen)
	}
}

func TestTruncateLastErrorKeepsRuneBoundary(t *testing.T) {
	// the first é straddles the byte limit
	s := strings.Repeat("a", maxLastErrorLen-1) + strings.Repeat("é", 10)

	got := truncateLastError(s)
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
	if len(got) != maxLastErrorLen-1 {
		t.Fatalf("got %d bytes, want %d", len(got), maxLastErrorLen-1)
	}
}
