package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", "none", "  NONE "} {
		store, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if store != nil {
			t.Errorf("Open(%q) returned a store for a disabled config", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestFileStoreRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()

	// Fresh store: no checkpoint yet.
	if _, ok, err := store.GetCheckpoint(ctx); err != nil || ok {
		t.Fatalf("fresh GetCheckpoint = ok=%v err=%v, want absent", ok, err)
	}

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.PutCheckpoint(ctx, at); err != nil {
		t.Fatalf("PutCheckpoint: %v", err)
	}

	got, ok, err := store.GetCheckpoint(ctx)
	if err != nil || !ok {
		t.Fatalf("GetCheckpoint = ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Errorf("checkpoint = %v, want %v", got, at)
	}

	// Overwrite keeps only the latest value.
	later := at.Add(time.Minute)
	if err := store.PutCheckpoint(ctx, later); err != nil {
		t.Fatal(err)
	}
	got, _, _ = store.GetCheckpoint(ctx)
	if !got.Equal(later) {
		t.Errorf("checkpoint after overwrite = %v, want %v", got, later)
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	// Corrupt data reads as "no checkpoint", never as a hard failure.
	_, ok, err := store.GetCheckpoint(context.Background())
	if err != nil {
		t.Fatalf("GetCheckpoint: %v", err)
	}
	if ok {
		t.Error("corrupt snapshot reported as a valid checkpoint")
	}
}
