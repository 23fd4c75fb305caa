package reminder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/po3tt/notification-obsi-tg/internal/storage"
	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	"github.com/po3tt/notification-obsi-tg/internal/vault"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []kit.Notification
	err  error
}

func (c *captureNotifier) Send(_ context.Context, n kit.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureNotifier) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, n := range c.sent {
		out[i] = n.Text
	}
	return out
}

func newTestVault(t *testing.T, content string) *vault.Scanner {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Tasks.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return vault.NewScanner(dir, nil, ".md", logx.Nop())
}

func newTestService(t *testing.T, scanner *vault.Scanner, notifier Notifier, store storage.Store) *Service {
	t.Helper()
	return New(Config{
		ChatID:       42,
		Interval:     time.Minute,
		ErrorBackoff: time.Second,
		DefaultTime:  "09:00",
		ShowSource:   false,
	}, scanner, notifier, store, logx.Nop())
}

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", v)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestTickLiveOnly(t *testing.T) {
	t.Parallel()

	scanner := newTestVault(t, "- [ ] stretch ⏰ 10:03\n- [ ] later ⏰ 11:00\n")
	cap := &captureNotifier{}
	s := newTestService(t, scanner, cap, nil)

	now := mustTime(t, "2025-03-01 10:03:30")
	s.now = func() time.Time { return now }
	s.lastCheck = now.Add(-time.Minute)

	if err := s.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	texts := cap.texts()
	if len(texts) != 1 {
		t.Fatalf("got %d notifications, want 1: %v", len(texts), texts)
	}
	if !strings.Contains(texts[0], "stretch") {
		t.Errorf("notification %q does not mention the matching task", texts[0])
	}
	if strings.Contains(texts[0], "[catch-up]") {
		t.Errorf("live notification %q tagged as recovered", texts[0])
	}
	if !s.lastCheck.Equal(now) {
		t.Errorf("lastCheck = %v, want %v", s.lastCheck, now)
	}
	if cap.sent[0].Target.ChatID != 42 {
		t.Errorf("notification targeted chat %d", cap.sent[0].Target.ChatID)
	}
}

func TestTickReplaysMissedIntervals(t *testing.T) {
	t.Parallel()

	scanner := newTestVault(t, "- [ ] first ⏰ 10:01\n- [ ] second ⏰ 10:02\n")
	cap := &captureNotifier{}
	s := newTestService(t, scanner, cap, nil)

	// 185s elapsed at a 60s interval: replay 10:01, 10:02 and 10:03, then live.
	now := mustTime(t, "2025-03-01 10:03:05")
	s.now = func() time.Time { return now }
	s.lastCheck = mustTime(t, "2025-03-01 10:00:00")

	if err := s.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	texts := cap.texts()
	if len(texts) != 2 {
		t.Fatalf("got %d notifications, want 2: %v", len(texts), texts)
	}
	// Replay runs in ascending instant order.
	if !strings.Contains(texts[0], "first") || !strings.Contains(texts[1], "second") {
		t.Errorf("replay out of order: %v", texts)
	}
	for _, txt := range texts {
		if !strings.Contains(txt, "[catch-up]") {
			t.Errorf("recovered notification %q missing catch-up tag", txt)
		}
	}
	if !s.lastCheck.Equal(now) {
		t.Errorf("lastCheck = %v, want %v", s.lastCheck, now)
	}
}

func TestTickSmallDriftDoesNotReplay(t *testing.T) {
	t.Parallel()

	scanner := newTestVault(t, "- [ ] first ⏰ 10:01\n")
	cap := &captureNotifier{}
	s := newTestService(t, scanner, cap, nil)

	// 80s elapsed is within 1.5 intervals: jitter, not a gap.
	now := mustTime(t, "2025-03-01 10:01:20")
	s.now = func() time.Time { return now }
	s.lastCheck = mustTime(t, "2025-03-01 10:00:00")

	if err := s.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	texts := cap.texts()
	if len(texts) != 1 {
		t.Fatalf("got %d notifications, want 1 (live only): %v", len(texts), texts)
	}
	if strings.Contains(texts[0], "[catch-up]") {
		t.Errorf("notification %q tagged as recovered without a gap", texts[0])
	}
}

func TestTickAdvancesLastCheckOnError(t *testing.T) {
	t.Parallel()

	scanner := newTestVault(t, "- [ ] stretch ⏰ 10:03\n")
	cap := &captureNotifier{err: errors.New("queue full")}
	s := newTestService(t, scanner, cap, nil)

	now := mustTime(t, "2025-03-01 10:03:30")
	s.now = func() time.Time { return now }
	s.lastCheck = now.Add(-time.Minute)

	if err := s.tick(context.Background()); err == nil {
		t.Fatal("tick succeeded despite delivery failure")
	}
	// A failed tick must not replay the same instant again next time.
	if !s.lastCheck.Equal(now) {
		t.Errorf("lastCheck = %v, want %v", s.lastCheck, now)
	}
}

func TestInitLastCheckFromCheckpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := storage.Open(storage.Config{
		Driver: "file",
		Path:   filepath.Join(dir, "checkpoint.json"),
	}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	saved := mustTime(t, "2025-03-01 09:50:00")
	if err := store.PutCheckpoint(context.Background(), saved); err != nil {
		t.Fatal(err)
	}

	scanner := newTestVault(t, "")
	s := newTestService(t, scanner, &captureNotifier{}, store)
	now := mustTime(t, "2025-03-01 10:00:00")
	s.now = func() time.Time { return now }

	s.initLastCheck(context.Background())

	if !s.lastCheck.Equal(saved) {
		t.Errorf("lastCheck = %v, want checkpoint %v", s.lastCheck, saved)
	}
}

func TestInitLastCheckStateless(t *testing.T) {
	t.Parallel()

	scanner := newTestVault(t, "")
	s := newTestService(t, scanner, &captureNotifier{}, nil)
	now := mustTime(t, "2025-03-01 10:00:00")
	s.now = func() time.Time { return now }

	s.initLastCheck(context.Background())

	want := now.Add(-time.Minute)
	if !s.lastCheck.Equal(want) {
		t.Errorf("lastCheck = %v, want one interval back (%v)", s.lastCheck, want)
	}
}
