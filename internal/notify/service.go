package notify

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	rtsup "github.com/po3tt/notification-obsi-tg/internal/runtime/supervisor"
	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

var (
	ErrQueueFull = errors.New("notify queue full")
	ErrStopped   = errors.New("notify service stopped")
)

// Config tunes the outbound delivery pipeline.
// Zero values fall back to defaults in Apply.
type Config struct {
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

// Service delivers notifications to the chat adapter.
//
// Delivery is strictly sequential: a single worker drains an ordered queue,
// so notifications go out in enqueue order and a slow send delays (but never
// reorders or corrupts) the ones behind it. Each send is rate limited and
// retried with jittered exponential backoff.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	adapter kit.Adapter

	cfg     Config
	limiter *rate.Limiter

	accepting bool
	sendWG    sync.WaitGroup

	queue    chan kit.Notification
	sup      *rtsup.Supervisor
	stopDone chan struct{} // non-nil while stopping
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{adapter: adapter, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}

	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Start is idempotent.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		s.mu.Lock()
	}
	if s.queue != nil {
		s.mu.Unlock()
		return
	}

	s.queue = make(chan kit.Notification, s.cfg.QueueSize)
	s.accepting = true

	s.sup = rtsup.New(ctx,
		rtsup.WithLogger(s.log),
		// delivery failures should not take down the whole app.
		rtsup.WithCancelOnError(false),
	)
	sup := s.sup
	q := s.queue
	s.mu.Unlock()

	// One worker: ordering is part of the contract.
	sup.GoRestart("worker", func(c context.Context) error {
		s.workerLoop(c, q)
		s.mu.Lock()
		stopping := s.stopDone != nil
		s.mu.Unlock()
		if stopping {
			return context.Canceled
		}
		if c.Err() != nil {
			return c.Err()
		}
		return errors.New("notify worker exited unexpectedly")
	}, rtsup.WithPublishFirstError(true))
}

// Stop stops intake and drains the queue best-effort until ctx deadline.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	q := s.queue
	sup := s.sup
	if q == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}

	done := make(chan struct{})
	s.stopDone = done
	s.accepting = false
	s.mu.Unlock()

	// Shutdown happens asynchronously so callers can time out without leaking state.
	go func() {
		defer close(done)
		// Wait for in-flight enqueues, then close the queue so the worker drains.
		s.sendWG.Wait()
		func() {
			defer func() { _ = recover() }()
			close(q)
		}()
		if sup != nil {
			_ = sup.Wait(context.Background())
		}

		s.mu.Lock()
		s.queue = nil
		s.stopDone = nil
		s.sup = nil
		s.mu.Unlock()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if sup != nil {
			sup.Cancel()
		}
	}
}

// Send enqueues a notification for sequential delivery.
func (s *Service) Send(ctx context.Context, n kit.Notification) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.mu.Lock()
	if !s.accepting || s.queue == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.sendWG.Add(1)
	s.mu.Unlock()
	defer s.sendWG.Done()

	select {
	case q <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) workerLoop(ctx context.Context, q <-chan kit.Notification) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-q:
			if !ok {
				return
			}
			s.sendWithRetry(ctx, n)
		}
	}
}

func (s *Service) sendWithRetry(ctx context.Context, n kit.Notification) {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	ad := s.adapter
	log := s.log
	s.mu.Unlock()

	if ad == nil || n.Text == "" {
		return
	}

	maxAttempts := 1 + cfg.RetryMax

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Rate limit (honors cancellation).
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return
			}
		}

		// Bound per-send call. Keep tight to avoid hanging the worker.
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := ad.SendText(callCtx, n.Target, n.Text, n.Options)
		cancel()
		if err == nil {
			log.Debug("notification sent", logx.Int64("chat_id", n.Target.ChatID))
			return
		}

		log.Warn("notification send failed", logx.Err(err), logx.Int("attempt", attempt), logx.Int("max", maxAttempts))
		if attempt >= maxAttempts {
			return
		}

		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return
		}
	}
}

func retryDelay(cfg Config, attempt int) time.Duration {
	// attempt starts at 1 (first attempt); the delay is for the NEXT attempt.
	base := cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxD := cfg.RetryMaxDelay
	if maxD <= 0 {
		maxD = 10 * time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	// Jitter 0.7..1.3
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d < 0 {
		return 0
	}
	if d > maxD {
		d = maxD
	}
	return d
}
