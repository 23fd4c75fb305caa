package vault

import (
	"strings"
	"time"
)

const checklistPrefix = "- [ ]"

// ParseLine turns one raw text line into a Task, or reports false for lines
// that are not unchecked checklist items (or whose cleaned text is empty).
//
// Malformed marker tokens never reject the line: the token stays in the text
// and the corresponding field is simply left unset.
func ParseLine(line, defaultTime string) (Task, bool) {
	// Trailing #-comments are ignored.
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, checklistPrefix) {
		return Task{}, false
	}
	content := strings.TrimLeft(line[len(checklistPrefix):], " \t")

	segments, markers := splitMarkers(content)

	// Inline leading time ("H:MM" / "HH:MM") in the first free-text segment.
	var inlineTime string
	if len(segments) > 0 {
		inlineTime, segments[0] = cutInlineTime(segments[0])
	}

	// Clean task text: non-empty trimmed segments joined by single spaces.
	parts := segments[:0]
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		return Task{}, false
	}

	t := Task{Text: text, Time: resolveTime(markers[GlyphClock], inlineTime, defaultTime)}
	if d := markers[GlyphReminder]; isValidDate(d) {
		t.ReminderDate = d
	}
	if d := markers[GlyphDue]; isValidDate(d) {
		t.DueDate = d
	}
	return t, true
}

// splitMarkers walks the content once, capturing the token following each
// marker glyph and collecting the remaining free-text segments in order.
//
// A glyph consumes its token only when the token is made of digits, colons
// and hyphens; anything else stays in the text. Repeated glyphs overwrite
// earlier captures (last occurrence wins).
func splitMarkers(content string) ([]string, map[rune]string) {
	markers := map[rune]string{}
	var segments []string
	var cur strings.Builder

	rs := []rune(content)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != GlyphClock && r != GlyphReminder && r != GlyphDue {
			cur.WriteRune(r)
			continue
		}

		// Close the segment before the glyph.
		segments = append(segments, cur.String())
		cur.Reset()

		// Skip whitespace, then read the next whitespace-delimited token.
		j := i + 1
		for j < len(rs) && isSpace(rs[j]) {
			j++
		}
		k := j
		for k < len(rs) && !isSpace(rs[k]) {
			k++
		}
		token := string(rs[j:k])

		if token != "" && isMarkerToken(token) {
			markers[r] = token
			i = k - 1 // token consumed
		}
		// Malformed token: leave it (and the whitespace before it) in the text.
	}
	segments = append(segments, cur.String())
	return segments, markers
}

// cutInlineTime extracts a leading "H:MM" prefix from a segment when it is
// followed by whitespace or the end of the segment.
func cutInlineTime(seg string) (string, string) {
	s := strings.TrimLeft(seg, " \t")
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < 1 || i > 2 || i >= len(s) || s[i] != ':' {
		return "", seg
	}
	if len(s) < i+3 || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
		return "", seg
	}
	end := i + 3
	if end < len(s) && !isSpace(rune(s[end])) {
		return "", seg
	}
	return s[:end], s[end:]
}

func resolveTime(clock, inline, def string) string {
	for _, c := range []string{clock, inline, def} {
		if c != "" && isValidClock(c) {
			return c
		}
	}
	// No valid candidate: fall back to the default as-is. The evaluator skips
	// tasks whose resolved time does not parse.
	return def
}

// isMarkerToken reports whether a token consists solely of digits, colons
// and hyphens.
func isMarkerToken(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != ':' && c != '-' {
			return false
		}
	}
	return s != ""
}

// isValidClock matches "H:MM" / "HH:MM" exactly.
func isValidClock(s string) bool {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < 1 || i > 2 {
		return false
	}
	if len(s) != i+3 || s[i] != ':' {
		return false
	}
	return isDigit(s[i+1]) && isDigit(s[i+2])
}

func isValidDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
