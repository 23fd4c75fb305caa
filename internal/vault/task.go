package vault

import (
	"path/filepath"
	"strings"
)

// Marker glyphs recognized inside a checklist line. Each glyph binds to the
// single token immediately following it.
const (
	GlyphClock    = '⏰' // trigger time-of-day ("H:MM" / "HH:MM")
	GlyphReminder = '⏳' // pre-notification date (ISO "YYYY-MM-DD")
	GlyphDue      = '📅' // due date (ISO "YYYY-MM-DD")
)

// Task is one parsed unchecked checklist line.
//
// Tasks carry no persistent identity: every scan re-reads the files and
// rebuilds the records from scratch.
type Task struct {
	// Text is the cleaned description with markers and control tokens stripped.
	// Never empty for a constructed Task.
	Text string

	// Time is the resolved trigger time-of-day ("HH:MM" or "H:MM").
	// Resolution order: clock glyph value, inline leading time, default time.
	Time string

	// ReminderDate / DueDate are validated ISO dates ("YYYY-MM-DD").
	// Empty string means the marker was absent or its token was malformed.
	ReminderDate string
	DueDate      string

	// Provenance.
	SourceFile string // path relative to the vault dir
	SourceLine int
}

// SourceRef is the human-readable provenance reference: the relative file
// path with its extension removed.
func (t Task) SourceRef() string {
	p := t.SourceFile
	if ext := filepath.Ext(p); ext != "" {
		p = strings.TrimSuffix(p, ext)
	}
	return p
}

// HasDates reports whether the task carries any date marker.
func (t Task) HasDates() bool {
	return t.ReminderDate != "" || t.DueDate != ""
}
