package vault

import (
	"testing"
	"time"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task Task
		ref  string
		want []Kind // nil means no reminder
	}{
		{
			name: "dateless task fires at its time",
			task: Task{Text: "gym", Time: "18:30"},
			ref:  "2025-03-01 18:30",
			want: []Kind{KindPlain},
		},
		{
			name: "dateless task silent at other minutes",
			task: Task{Text: "gym", Time: "18:30"},
			ref:  "2025-03-01 18:31",
		},
		{
			name: "due today",
			task: Task{Text: "taxes", Time: "09:00", DueDate: "2025-03-01"},
			ref:  "2025-03-01 09:00",
			want: []Kind{KindDue},
		},
		{
			name: "due on another day stays silent",
			task: Task{Text: "taxes", Time: "09:00", DueDate: "2025-03-05"},
			ref:  "2025-03-01 09:00",
		},
		{
			name: "reminder date beats due date",
			task: Task{Text: "ship", Time: "14:00", ReminderDate: "2025-03-01", DueDate: "2025-03-01"},
			ref:  "2025-03-01 14:00",
			want: []Kind{KindPre},
		},
		{
			name: "reminder date ahead of due date",
			task: Task{Text: "ship", Time: "14:00", ReminderDate: "2025-03-01", DueDate: "2025-03-05"},
			ref:  "2025-03-01 14:00",
			want: []Kind{KindPre},
		},
		{
			name: "single digit hour matches",
			task: Task{Text: "standup", Time: "9:15"},
			ref:  "2025-03-01 09:15",
			want: []Kind{KindPlain},
		},
		{
			name: "unparseable time skipped",
			task: Task{Text: "sometime", Time: "soon"},
			ref:  "2025-03-01 09:00",
		},
		{
			name: "out of range hour skipped",
			task: Task{Text: "never", Time: "25:00"},
			ref:  "2025-03-01 09:00",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate([]Task{tc.task}, at(t, tc.ref), logx.Nop())
			if len(got) != len(tc.want) {
				t.Fatalf("got %d reminders, want %d", len(got), len(tc.want))
			}
			for i, r := range got {
				if r.Kind != tc.want[i] {
					t.Errorf("reminder %d kind = %v, want %v", i, r.Kind, tc.want[i])
				}
				if r.Recovered {
					t.Errorf("reminder %d unexpectedly marked recovered", i)
				}
			}
		})
	}
}

// A single task never produces more than one reminder per instant, whatever
// combination of dates it carries.
func TestEvaluateExclusive(t *testing.T) {
	t.Parallel()

	ref := at(t, "2025-03-01 10:00")
	tasks := []Task{
		{Text: "a", Time: "10:00"},
		{Text: "b", Time: "10:00", DueDate: "2025-03-01"},
		{Text: "c", Time: "10:00", ReminderDate: "2025-03-01"},
		{Text: "d", Time: "10:00", ReminderDate: "2025-03-01", DueDate: "2025-03-01"},
	}
	got := Evaluate(tasks, ref, logx.Nop())
	if len(got) != len(tasks) {
		t.Fatalf("got %d reminders, want one per task (%d)", len(got), len(tasks))
	}
	seen := map[string]int{}
	for _, r := range got {
		seen[r.Task.Text]++
	}
	for text, n := range seen {
		if n != 1 {
			t.Errorf("task %q produced %d reminders", text, n)
		}
	}
}

func TestRelevantOn(t *testing.T) {
	t.Parallel()

	day := at(t, "2025-03-01 00:00")

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"dateless is always relevant", Task{Text: "gym", Time: "18:30"}, true},
		{"due today", Task{Text: "taxes", Time: "09:00", DueDate: "2025-03-01"}, true},
		{"reminder today", Task{Text: "ship", Time: "09:00", ReminderDate: "2025-03-01"}, true},
		{"due another day", Task{Text: "taxes", Time: "09:00", DueDate: "2025-03-05"}, false},
	}
	for _, tc := range tests {
		if got := RelevantOn(tc.task, day); got != tc.want {
			t.Errorf("%s: RelevantOn = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rem  Reminder
		opts RenderOptions
		want string
	}{
		{
			name: "plain",
			rem:  Reminder{Task: Task{Text: "gym", Time: "18:30"}, Kind: KindPlain},
			want: "⏰ Reminder:\n\ngym",
		},
		{
			name: "due with source",
			rem:  Reminder{Task: Task{Text: "taxes", DueDate: "2025-03-01", SourceFile: "work/Backlog.md"}, Kind: KindDue},
			opts: RenderOptions{ShowSource: true},
			want: "📅 Due today:\n\ntaxes\n\n📄 work/Backlog",
		},
		{
			name: "pre with due date",
			rem:  Reminder{Task: Task{Text: "ship", ReminderDate: "2025-03-01", DueDate: "2025-03-05"}, Kind: KindPre},
			want: "⏳ Heads up: scheduled for 2025-03-05:\n\nship",
		},
		{
			name: "pre without due date",
			rem:  Reminder{Task: Task{Text: "ship", ReminderDate: "2025-03-01"}, Kind: KindPre},
			want: "⏳ Heads up:\n\nship",
		},
		{
			name: "recovered carries the catch-up tag",
			rem:  Reminder{Task: Task{Text: "gym"}, Kind: KindPlain, Recovered: true},
			want: "⏰ [catch-up] Reminder:\n\ngym",
		},
	}
	for _, tc := range tests {
		if got := Render(tc.rem, tc.opts); got != tc.want {
			t.Errorf("%s:\n got %q\nwant %q", tc.name, got, tc.want)
		}
	}
}
