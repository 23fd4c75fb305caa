package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Vault    VaultConfig    `json:"vault"`
	Reminder ReminderConfig `json:"reminder"`

	// Notify tunes the outbound delivery pipeline. Optional; zero values fall
	// back to service defaults.
	Notify *NotifyConfig `json:"notify,omitempty"`

	// Storage enables the optional checkpoint store. When omitted the bot is
	// fully stateless and catch-up only covers the lifetime of the process.
	Storage *StorageConfig `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// VaultConfig points at the directory of Markdown task files.
//
// If Files is non-empty, exactly those paths (relative to Dir) are scanned;
// otherwise Dir is walked recursively for files with Extension.
type VaultConfig struct {
	Dir       string   `json:"dir"`
	Files     []string `json:"files,omitempty"`
	Extension string   `json:"extension,omitempty"` // default ".md"
}

// ReminderConfig controls the reminder check loop.
type ReminderConfig struct {
	// DefaultTime is the trigger time ("HH:MM") for tasks without an explicit
	// clock marker or inline time prefix.
	DefaultTime string `json:"default_time"`

	// CheckInterval accepts either a whole number of seconds or a Go duration
	// string. Must be at least one second.
	CheckInterval Interval `json:"check_interval"`

	// ErrorBackoff is the pause after a failed tick before the loop retries.
	// Go duration string; default "10s".
	ErrorBackoff string `json:"error_backoff,omitempty"`

	// ShowSource appends the source file reference to each notification.
	// Defaults to true when omitted.
	ShowSource *bool `json:"show_source,omitempty"`

	// Digest is an optional cron spec (5-field, e.g. "0 8 * * *") for a daily
	// summary of today's tasks. Empty disables the digest.
	Digest string `json:"digest,omitempty"`
}

// NotifyConfig tunes outbound Telegram delivery.
// All durations are Go duration strings.
type NotifyConfig struct {
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// StorageConfig controls the optional checkpoint persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./state/checkpoint" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Interval is a duration that accepts either a bare number of whole seconds
// or a Go duration string.
type Interval struct {
	d   time.Duration
	set bool
}

func IntervalOf(d time.Duration) Interval { return Interval{d: d, set: true} }

func (iv Interval) Duration() time.Duration { return iv.d }
func (iv Interval) IsZero() bool            { return !iv.set }

func (iv *Interval) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*iv = Interval{}
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*iv = Interval{d: time.Duration(n) * time.Second, set: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("check_interval: expected seconds or duration string")
	}
	d, err := time.ParseDuration(strings.TrimSpace(str))
	if err != nil {
		return fmt.Errorf("check_interval: invalid duration %q: %w", str, err)
	}
	*iv = Interval{d: d, set: true}
	return nil
}

func (iv Interval) MarshalJSON() ([]byte, error) {
	if !iv.set {
		return []byte("null"), nil
	}
	return json.Marshal(iv.d.String())
}
