package telegram

import (
	"strings"
	"testing"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

func TestSplitTextShort(t *testing.T) {
	t.Parallel()

	got := splitText("hello", 100)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("splitText = %v, want single chunk", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(strings.Repeat("x", 30))
		b.WriteString("\n")
	}
	chunks := splitText(b.String(), 100)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Errorf("chunk %d exceeds limit: %d runes", i, len([]rune(c)))
		}
		// Newline-preferred splits keep lines intact.
		for _, line := range strings.Split(c, "\n") {
			if line != "" && len(line) != 30 {
				t.Errorf("chunk %d broke a line: %q", i, line)
			}
		}
	}
}

func TestSplitTextNoNewlines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 250)
	chunks := splitText(long, 100)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total != 250 {
		t.Errorf("reassembled %d chars, want 250", total)
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("empty token accepted")
	}
}
