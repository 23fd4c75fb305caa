package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate checks everything the core needs before it is allowed to run.
// Startup treats a non-nil error as fatal; hot-reload uses the same function
// to reject a bad config while keeping the previous one.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is empty")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Vault.Dir) == "" {
		return fmt.Errorf("vault.dir is required")
	}
	if ext := strings.TrimSpace(cfg.Vault.Extension); ext != "" && !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("vault.extension must start with a dot (got %q)", ext)
	}

	if _, err := ParseClock(cfg.Reminder.DefaultTime); err != nil {
		return fmt.Errorf("reminder.default_time: %w", err)
	}
	if cfg.Reminder.CheckInterval.IsZero() {
		return fmt.Errorf("reminder.check_interval is required")
	}
	if cfg.Reminder.CheckInterval.Duration() < time.Second {
		return fmt.Errorf("reminder.check_interval must be at least 1 second")
	}
	if _, err := ParseDurationField("reminder.error_backoff", cfg.Reminder.ErrorBackoff); err != nil {
		return err
	}
	if spec := strings.TrimSpace(cfg.Reminder.Digest); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("reminder.digest: invalid cron spec %q: %w", spec, err)
		}
	}

	if n := cfg.Notify; n != nil {
		if n.QueueSize < 0 {
			return fmt.Errorf("notify.queue_size must be >= 0")
		}
		if n.RatePerSec < 0 {
			return fmt.Errorf("notify.rate_per_sec must be >= 0")
		}
		if n.RetryMax < 0 {
			return fmt.Errorf("notify.retry_max must be >= 0")
		}
		if _, err := ParseDurationField("notify.retry_base", n.RetryBase); err != nil {
			return err
		}
		if _, err := ParseDurationField("notify.retry_max_delay", n.RetryMaxDelay); err != nil {
			return err
		}
	}

	if s := cfg.Storage; s != nil {
		driver := strings.ToLower(strings.TrimSpace(s.Driver))
		switch driver {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("storage.path is required for driver %q", driver)
			}
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", s.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", s.BusyTimeout); err != nil {
			return err
		}
	}

	return nil
}

// ParseClock parses a strict "H:MM" / "HH:MM" wall-clock value.
func ParseClock(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	t, err := time.Parse("15:04", s)
	if err != nil {
		// time.Parse rejects single-digit hours for "15"; accept "H:MM" too.
		t, err = time.Parse("3:04", s)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
