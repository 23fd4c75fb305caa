// Package app assembles the bot: config, logging, the Telegram adapter, the
// delivery pipeline, the command router and the reminder loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/po3tt/notification-obsi-tg/internal/commands"
	"github.com/po3tt/notification-obsi-tg/internal/config"
	"github.com/po3tt/notification-obsi-tg/internal/notify"
	rtsup "github.com/po3tt/notification-obsi-tg/internal/runtime/supervisor"
	"github.com/po3tt/notification-obsi-tg/internal/services/reminder"
	"github.com/po3tt/notification-obsi-tg/internal/storage"
	kit "github.com/po3tt/notification-obsi-tg/internal/transport"
	"github.com/po3tt/notification-obsi-tg/internal/transport/telegram"
	"github.com/po3tt/notification-obsi-tg/internal/vault"
	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// App owns the full component graph and its lifecycle.
type App struct {
	log    logx.Logger
	logSvc *logx.Service

	manager *config.Manager

	adapter  *telegram.Adapter
	notifier *notify.Service
	store    storage.Store
	rem      *reminder.Service
	router   *commands.Router

	sup     *rtsup.Supervisor
	updates chan kit.Update
	cfgSub  chan *config.Config
}

// New loads and validates the config file, then builds every component.
func New(configPath string) (*App, error) {
	m := config.NewManager(configPath)
	cfg, err := m.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	m.SetLogger(log.With(logx.String("comp", "config")))
	m.SetValidator(func(_ context.Context, c *config.Config) error {
		return config.Validate(c)
	})

	pollTimeout, _ := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	store, err := storage.Open(storageConfig(cfg), log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	notifier := notify.New(notifyConfig(cfg), adapter, log.With(logx.String("comp", "notify")))
	scanner := newScanner(cfg, log)
	rem := reminder.New(reminderConfig(cfg), scanner, notifier, store, log)
	router := commands.NewRouter(routerConfig(cfg), scanner, notifier, log)

	return &App{
		log:      log.With(logx.String("comp", "app")),
		logSvc:   logSvc,
		manager:  m,
		adapter:  adapter,
		notifier: notifier,
		store:    store,
		rem:      rem,
		router:   router,
	}, nil
}

// Start brings the components up in dependency order: delivery pipeline,
// adapter, command router, reminder loop, config watcher.
func (a *App) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(false))
	a.updates = make(chan kit.Update, 64)

	a.notifier.Start(ctx)
	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}

	updates := a.updates
	a.sup.Go0("commands.router", func(c context.Context) {
		a.router.Run(c, updates)
	})

	a.rem.Start(a.sup.Context())

	a.cfgSub = a.manager.Subscribe(4)
	sub := a.cfgSub
	a.sup.Go0("config.watch", func(c context.Context) {
		_ = a.manager.Watch(c)
	})
	a.sup.Go0("config.reload", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(cfg)
			}
		}
	})

	a.log.Info("started")
	return nil
}

// applyConfig fans a validated config update out to the running components.
// The adapter keeps its token (changing it requires a restart); everything
// else re-applies in place.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.log.Info("applying config update")

	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	a.notifier.Apply(notifyConfig(cfg))

	scanner := newScanner(cfg, a.logSvc.Logger())
	a.rem.Apply(reminderConfig(cfg), scanner)
	a.router.Apply(routerConfig(cfg), scanner)
}

// Stop shuts components down in reverse order, bounded by ctx.
func (a *App) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	a.rem.Stop(ctx)

	if a.sup != nil {
		a.sup.Cancel()
	}
	if a.cfgSub != nil {
		a.manager.Unsubscribe(a.cfgSub)
		a.cfgSub = nil
	}

	_ = a.adapter.Stop(ctx)
	a.notifier.Stop(ctx)

	if a.sup != nil {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = a.sup.Wait(wctx)
		cancel()
		a.sup = nil
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}

	a.log.Info("stopped")
	_ = a.logSvc.Close()
}

func newScanner(cfg *config.Config, log logx.Logger) *vault.Scanner {
	return vault.NewScanner(cfg.Vault.Dir, cfg.Vault.Files, cfg.Vault.Extension,
		log.With(logx.String("comp", "vault")))
}

func reminderConfig(cfg *config.Config) reminder.Config {
	backoff, _ := config.ParseDurationOrDefault("reminder.error_backoff", cfg.Reminder.ErrorBackoff, 10*time.Second)
	showSource := true
	if cfg.Reminder.ShowSource != nil {
		showSource = *cfg.Reminder.ShowSource
	}
	return reminder.Config{
		ChatID:       cfg.Telegram.ChatID,
		Interval:     cfg.Reminder.CheckInterval.Duration(),
		ErrorBackoff: backoff,
		DefaultTime:  cfg.Reminder.DefaultTime,
		ShowSource:   showSource,
		Digest:       cfg.Reminder.Digest,
	}
}

func routerConfig(cfg *config.Config) commands.Config {
	return commands.Config{
		ChatID:      cfg.Telegram.ChatID,
		DefaultTime: cfg.Reminder.DefaultTime,
	}
}

func notifyConfig(cfg *config.Config) notify.Config {
	n := cfg.Notify
	if n == nil {
		return notify.Config{}
	}
	retryBase, _ := config.ParseDurationField("notify.retry_base", n.RetryBase)
	retryMax, _ := config.ParseDurationField("notify.retry_max_delay", n.RetryMaxDelay)
	return notify.Config{
		QueueSize:     n.QueueSize,
		RatePerSec:    n.RatePerSec,
		RetryMax:      n.RetryMax,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMax,
	}
}

func storageConfig(cfg *config.Config) storage.Config {
	s := cfg.Storage
	if s == nil {
		return storage.Config{}
	}
	busy, _ := config.ParseDurationField("storage.busy_timeout", s.BusyTimeout)
	return storage.Config{
		Driver:      s.Driver,
		Path:        s.Path,
		BusyTimeout: busy,
	}
}
