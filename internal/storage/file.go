package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// fileStore is a dependency-free persistence backend: a single JSON snapshot
// replaced atomically (write temp file, rename over).
type fileStore struct {
	log  logx.Logger
	path string

	mu sync.Mutex
}

type checkpointRecord struct {
	// CheckedAt is the last reminder-loop check time, unix milliseconds.
	CheckedAt int64 `json:"checked_at"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if filepath.Ext(path) == "" {
		path += ".json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) PutCheckpoint(ctx context.Context, at time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(checkpointRecord{CheckedAt: at.UnixMilli()})
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) GetCheckpoint(ctx context.Context) (time.Time, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	var rec checkpointRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		// A corrupt snapshot should not block startup; treat as absent.
		s.log.Warn("checkpoint snapshot corrupt; ignoring", logx.String("path", s.path), logx.Err(err))
		return time.Time{}, false, nil
	}
	if rec.CheckedAt <= 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(rec.CheckedAt), true, nil
}
