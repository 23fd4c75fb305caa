package vault

import (
	"time"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// Kind classifies which notification a task produces.
type Kind int

const (
	// KindPlain fires for dateless tasks at their resolved time.
	KindPlain Kind = iota
	// KindPre fires on the reminder date, ahead of the due date.
	KindPre
	// KindDue fires on the due date itself.
	KindDue
)

func (k Kind) String() string {
	switch k {
	case KindPre:
		return "pre"
	case KindDue:
		return "due"
	default:
		return "plain"
	}
}

// Reminder is one notification decision for a task at a reference instant.
type Reminder struct {
	Task Task
	Kind Kind

	// Recovered marks reminders produced during catch-up replay of a missed
	// interval rather than at the live tick.
	Recovered bool
}

const dateLayout = "2006-01-02"

// Evaluate decides which tasks are due at the reference instant.
//
// A task matches when its resolved time equals the instant's time-of-day
// (minute precision). Matching tasks classify with fixed precedence:
// reminder date today > due date today > dateless. A dated task whose dates
// both fall on other days produces nothing. Tasks with an unparseable
// resolved time are skipped, never failed.
func Evaluate(tasks []Task, ref time.Time, log logx.Logger) []Reminder {
	if log.IsZero() {
		log = logx.Nop()
	}
	refDate := ref.Format(dateLayout)
	refHour, refMin := ref.Hour(), ref.Minute()

	var out []Reminder
	for _, t := range tasks {
		h, m, ok := parseClock(t.Time)
		if !ok {
			log.Debug("task skipped: unparseable time",
				logx.String("time", t.Time), logx.String("file", t.SourceFile), logx.Int("line", t.SourceLine))
			continue
		}
		if h != refHour || m != refMin {
			continue
		}

		switch {
		case t.ReminderDate == refDate:
			out = append(out, Reminder{Task: t, Kind: KindPre})
		case t.DueDate == refDate:
			out = append(out, Reminder{Task: t, Kind: KindDue})
		case !t.HasDates():
			out = append(out, Reminder{Task: t, Kind: KindPlain})
		}
	}
	return out
}

// RelevantOn reports whether a task belongs in a "for this day" listing:
// either one of its dates falls on the given day, or it is dateless (and thus
// fires daily at its resolved time).
func RelevantOn(t Task, day time.Time) bool {
	d := day.Format(dateLayout)
	if t.ReminderDate == d || t.DueDate == d {
		return true
	}
	return !t.HasDates()
}

// parseClock parses "H:MM"/"HH:MM" into in-range hour and minute values.
func parseClock(s string) (hour, min int, ok bool) {
	if !isValidClock(s) {
		return 0, 0, false
	}
	i := 0
	for i < len(s) && isDigit(s[i]) {
		hour = hour*10 + int(s[i]-'0')
		i++
	}
	min = int(s[i+1]-'0')*10 + int(s[i+2]-'0')
	if hour > 23 || min > 59 {
		return 0, 0, false
	}
	return hour, min, true
}
