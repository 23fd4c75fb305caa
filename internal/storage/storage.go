// Package storage provides the optional checkpoint persistence layer.
//
// The only persisted value is the reminder loop's last-check timestamp, which
// lets catch-up recovery span process restarts. When storage is disabled the
// bot is fully stateless and catch-up covers the process lifetime only.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON snapshot
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the minimal persistence API used by the reminder service.
type Store interface {
	PutCheckpoint(ctx context.Context, at time.Time) error
	// GetCheckpoint returns (zero, false, nil) when no checkpoint exists yet.
	GetCheckpoint(ctx context.Context) (at time.Time, ok bool, err error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
