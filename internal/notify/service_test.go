package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

type fakeAdapter struct {
	mu    sync.Mutex
	sent  []string
	fails int // fail the first N sends
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                     { return nil }

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return kit.MessageRef{}, errors.New("transient")
	}
	f.sent = append(f.sent, text)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestSendPreservesOrder(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{}
	s := New(Config{QueueSize: 32, RatePerSec: 1000}, ad, logx.Nop())
	s.Start(context.Background())

	for i := 0; i < 10; i++ {
		n := kit.Notification{Target: kit.ChatTarget{ChatID: 1}, Text: fmt.Sprintf("msg-%02d", i)}
		if err := s.Send(context.Background(), n); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	s.Stop(ctx)
	cancel()

	got := ad.texts()
	if len(got) != 10 {
		t.Fatalf("delivered %d messages, want 10: %v", len(got), got)
	}
	for i, text := range got {
		want := fmt.Sprintf("msg-%02d", i)
		if text != want {
			t.Fatalf("position %d = %q, want %q (order broken)", i, text, want)
		}
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{fails: 2}
	s := New(Config{
		QueueSize:     8,
		RatePerSec:    1000,
		RetryMax:      3,
		RetryBase:     time.Millisecond,
		RetryMaxDelay: 5 * time.Millisecond,
	}, ad, logx.Nop())
	s.Start(context.Background())

	n := kit.Notification{Target: kit.ChatTarget{ChatID: 1}, Text: "retry me"}
	if err := s.Send(context.Background(), n); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	s.Stop(ctx)
	cancel()

	if got := ad.texts(); len(got) != 1 || got[0] != "retry me" {
		t.Fatalf("delivered %v, want the retried message", got)
	}
}

func TestSendAfterStop(t *testing.T) {
	t.Parallel()

	s := New(Config{}, &fakeAdapter{}, logx.Nop())
	s.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	s.Stop(ctx)
	cancel()

	err := s.Send(context.Background(), kit.Notification{Text: "late"})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("Send after Stop = %v, want ErrStopped", err)
	}
}

func TestSendQueueFull(t *testing.T) {
	t.Parallel()

	s := New(Config{QueueSize: 1}, &fakeAdapter{}, logx.Nop())
	s.Start(context.Background())

	// With a tiny rate the worker sits in the limiter while the queue backs up.
	s.Apply(Config{QueueSize: 1, RatePerSec: 1})

	var sawFull bool
	for i := 0; i < 50; i++ {
		err := s.Send(context.Background(), kit.Notification{Target: kit.ChatTarget{ChatID: 1}, Text: "x"})
		if errors.Is(err, ErrQueueFull) {
			sawFull = true
			break
		}
	}
	if !sawFull {
		t.Fatal("queue never reported full under burst load")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	s.Stop(ctx)
	cancel()
}

func TestRetryDelayBounds(t *testing.T) {
	t.Parallel()

	cfg := Config{RetryBase: 100 * time.Millisecond, RetryMaxDelay: time.Second}
	for attempt := 1; attempt <= 10; attempt++ {
		d := retryDelay(cfg, attempt)
		if d < 0 {
			t.Fatalf("attempt %d: negative delay %v", attempt, d)
		}
		if d > cfg.RetryMaxDelay {
			t.Fatalf("attempt %d: delay %v above cap %v", attempt, d, cfg.RetryMaxDelay)
		}
	}
}
