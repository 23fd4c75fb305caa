package vault

import "strings"

// RenderOptions controls notification text rendering.
type RenderOptions struct {
	// ShowSource appends a provenance line naming the relative file path
	// without its extension.
	ShowSource bool
}

// Render produces the outbound notification text for a reminder: an icon, a
// lead sentence and the task text, optionally suffixed with provenance.
// Recovered reminders carry a catch-up tag so late deliveries are obvious.
func Render(r Reminder, opts RenderOptions) string {
	var b strings.Builder

	switch r.Kind {
	case KindPre:
		b.WriteString("⏳ ")
		if r.Recovered {
			b.WriteString("[catch-up] ")
		}
		b.WriteString("Heads up")
		if r.Task.DueDate != "" {
			b.WriteString(": scheduled for ")
			b.WriteString(r.Task.DueDate)
		}
		b.WriteString(":\n\n")
	case KindDue:
		b.WriteString("📅 ")
		if r.Recovered {
			b.WriteString("[catch-up] ")
		}
		b.WriteString("Due today:\n\n")
	default:
		b.WriteString("⏰ ")
		if r.Recovered {
			b.WriteString("[catch-up] ")
		}
		b.WriteString("Reminder:\n\n")
	}

	b.WriteString(r.Task.Text)

	if opts.ShowSource && r.Task.SourceFile != "" {
		b.WriteString("\n\n📄 ")
		b.WriteString(r.Task.SourceRef())
	}
	return b.String()
}

// FormatTaskLine renders one task as a compact listing row for digests and
// chat command replies.
func FormatTaskLine(t Task) string {
	var b strings.Builder
	b.WriteString("• ")
	b.WriteString(t.Time)
	b.WriteString(" ")
	b.WriteString(t.Text)
	if t.ReminderDate != "" {
		b.WriteString(" (remind ")
		b.WriteString(t.ReminderDate)
		b.WriteString(")")
	}
	if t.DueDate != "" {
		b.WriteString(" (due ")
		b.WriteString(t.DueDate)
		b.WriteString(")")
	}
	return b.String()
}
