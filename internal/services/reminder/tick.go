package reminder

import (
	"context"
	"time"

	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	"github.com/po3tt/notification-obsi-tg/internal/vault"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// gapFactor decides when elapsed time counts as a missed-interval gap rather
// than ordinary scheduler jitter.
const gapFactor = 1.5

func (s *Service) runLoop(ctx context.Context) {
	for {
		err := s.tick(ctx)

		s.mu.Lock()
		wait := s.cfg.Interval
		if err != nil {
			wait = s.cfg.ErrorBackoff
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Error("check tick failed", logx.Err(err), logx.Duration("backoff", wait))
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return
		case <-t.C:
		}
	}
}

// tick performs one reminder check. When more than gapFactor intervals have
// elapsed since the previous check, the missed instants are reconstructed and
// evaluated in ascending order (marked recovered) before the live instant.
// lastCheck always advances to now, so a failed tick never replays twice.
func (s *Service) tick(ctx context.Context) error {
	s.mu.Lock()
	cfg := s.cfg
	scanner := s.scanner
	last := s.lastCheck
	s.mu.Unlock()

	now := s.now()

	var instants []time.Time
	if elapsed := now.Sub(last); !last.IsZero() && elapsed > time.Duration(gapFactor*float64(cfg.Interval)) {
		missed := int(elapsed / cfg.Interval)
		s.log.Warn("missed interval gap detected",
			logx.Duration("elapsed", elapsed), logx.Int("missed", missed))
		for i := 1; i <= missed; i++ {
			instants = append(instants, last.Add(time.Duration(i)*cfg.Interval))
		}
	}

	s.mu.Lock()
	s.lastCheck = now
	s.mu.Unlock()
	if s.store != nil {
		putCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := s.store.PutCheckpoint(putCtx, now); err != nil {
			s.log.Warn("checkpoint write failed", logx.Err(err))
		}
		cancel()
	}

	tasks := scanner.Scan(cfg.DefaultTime)

	var firstErr error
	for _, at := range instants {
		if err := s.fire(ctx, tasks, at, true, cfg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.fire(ctx, tasks, now, false, cfg); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// fire evaluates tasks at one instant and enqueues the resulting reminders.
func (s *Service) fire(ctx context.Context, tasks []vault.Task, at time.Time, recovered bool, cfg Config) error {
	rems := vault.Evaluate(tasks, at, s.log)
	if len(rems) == 0 {
		return nil
	}

	var firstErr error
	for _, r := range rems {
		r.Recovered = recovered
		text := vault.Render(r, vault.RenderOptions{ShowSource: cfg.ShowSource})
		err := s.notifier.Send(ctx, kit.Notification{
			Target: kit.ChatTarget{ChatID: cfg.ChatID},
			Text:   text,
		})
		if err != nil {
			s.log.Warn("reminder enqueue failed",
				logx.Err(err), logx.String("kind", r.Kind.String()), logx.String("file", r.Task.SourceFile))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.log.Info("reminder queued",
			logx.String("kind", r.Kind.String()),
			logx.Bool("recovered", recovered),
			logx.String("file", r.Task.SourceFile),
			logx.Int("line", r.Task.SourceLine))
	}
	return firstErr
}
