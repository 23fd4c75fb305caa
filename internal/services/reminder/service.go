// Package reminder runs the periodic check loop: scan the vault, evaluate
// tasks against the current minute, and hand matching reminders to the
// notifier. Missed intervals (sleep, suspend, clock jumps) are replayed so
// reminders are delivered late rather than dropped.
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	rtsup "github.com/po3tt/notification-obsi-tg/internal/runtime/supervisor"
	"github.com/po3tt/notification-obsi-tg/internal/storage"
	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	"github.com/po3tt/notification-obsi-tg/internal/vault"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// Notifier is the outbound delivery pipeline the service pushes into.
type Notifier interface {
	Send(ctx context.Context, n kit.Notification) error
}

// Config controls the check loop.
type Config struct {
	ChatID       int64
	Interval     time.Duration
	ErrorBackoff time.Duration
	DefaultTime  string
	ShowSource   bool
	Digest       string // cron spec; empty disables the daily digest
}

// Service owns the reminder loop and the optional digest cron.
type Service struct {
	mu sync.Mutex

	log      logx.Logger
	notifier Notifier
	store    storage.Store // nil when persistence is disabled

	cfg     Config
	scanner *vault.Scanner

	sup      *rtsup.Supervisor
	cron     *cron.Cron
	digestID cron.EntryID

	// now is the clock; tests swap it out.
	now func() time.Time

	lastCheck time.Time
}

func New(cfg Config, scanner *vault.Scanner, notifier Notifier, store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:      log.With(logx.String("comp", "reminder")),
		notifier: notifier,
		store:    store,
		scanner:  scanner,
		now:      time.Now,
	}
	s.applyLocked(cfg, scanner)
	return s
}

// Apply swaps in a new configuration and scanner. Safe while running: the
// loop reads its settings at each tick, and the digest entry is re-registered
// when its spec changes.
func (s *Service) Apply(cfg Config, scanner *vault.Scanner) {
	s.mu.Lock()
	prevDigest := s.cfg.Digest
	s.applyLocked(cfg, scanner)
	running := s.sup != nil
	s.mu.Unlock()

	if running && cfg.Digest != prevDigest {
		s.rescheduleDigest(cfg.Digest)
	}
}

func (s *Service) applyLocked(cfg Config, scanner *vault.Scanner) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 10 * time.Second
	}
	s.cfg = cfg
	if scanner != nil {
		s.scanner = scanner
	}
}

// Start is idempotent.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.sup != nil {
		s.mu.Unlock()
		return
	}
	s.sup = rtsup.New(ctx,
		rtsup.WithLogger(s.log),
		rtsup.WithCancelOnError(false),
	)
	sup := s.sup
	digest := s.cfg.Digest
	s.mu.Unlock()

	s.initLastCheck(ctx)

	sup.GoRestart("check_loop", func(c context.Context) error {
		s.runLoop(c)
		return c.Err()
	}, rtsup.WithPublishFirstError(true))

	if digest != "" {
		s.startCron()
		s.rescheduleDigest(digest)
	}
}

// Stop halts the loop and the digest cron, persisting a final checkpoint.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	sup := s.sup
	c := s.cron
	s.sup = nil
	s.cron = nil
	s.digestID = 0
	s.mu.Unlock()

	if c != nil {
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	if sup != nil {
		sup.Cancel()
		_ = sup.Wait(ctx)
	}

	s.mu.Lock()
	last := s.lastCheck
	s.mu.Unlock()
	if s.store != nil && !last.IsZero() {
		putCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := s.store.PutCheckpoint(putCtx, last); err != nil {
			s.log.Warn("final checkpoint write failed", logx.Err(err))
		}
		cancel()
	}
}

// initLastCheck seeds the catch-up baseline: a persisted checkpoint if one
// exists, otherwise one interval before now so the first tick behaves like
// any other.
func (s *Service) initLastCheck(ctx context.Context) {
	s.mu.Lock()
	interval := s.cfg.Interval
	s.mu.Unlock()

	last := s.now().Add(-interval)
	if s.store != nil {
		at, ok, err := s.store.GetCheckpoint(ctx)
		switch {
		case err != nil:
			s.log.Warn("checkpoint read failed; starting stateless", logx.Err(err))
		case ok && at.Before(last):
			last = at
			s.log.Info("resuming from checkpoint", logx.Time("checked_at", at))
		}
	}

	s.mu.Lock()
	s.lastCheck = last
	s.mu.Unlock()
}
