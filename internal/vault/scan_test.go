package vault

import (
	"os"
	"path/filepath"
	"testing"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

func writeVaultFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanWalk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeVaultFile(t, dir, "Tasks.md", "# Tasks\n- [ ] Buy milk ⏰ 09:15\nsome prose\n- [x] done\n- [ ] Pay rent\n")
	writeVaultFile(t, dir, "work/Backlog.md", "- [ ] Ship release 📅 2025-03-05\n")
	writeVaultFile(t, dir, "notes.txt", "- [ ] not markdown\n")
	writeVaultFile(t, dir, ".obsidian/cache.md", "- [ ] hidden\n")

	s := NewScanner(dir, nil, ".md", logx.Nop())
	tasks := s.Scan("09:00")

	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3: %+v", len(tasks), tasks)
	}

	byText := map[string]Task{}
	for _, task := range tasks {
		byText[task.Text] = task
	}
	if _, ok := byText["not markdown"]; ok {
		t.Error("scanned a file outside the configured extension")
	}
	if _, ok := byText["hidden"]; ok {
		t.Error("scanned inside a dot-directory")
	}

	milk, ok := byText["Buy milk"]
	if !ok {
		t.Fatal("missing task from Tasks.md")
	}
	if milk.SourceFile != "Tasks.md" || milk.SourceLine != 2 {
		t.Errorf("provenance = %q:%d, want Tasks.md:2", milk.SourceFile, milk.SourceLine)
	}

	ship, ok := byText["Ship release"]
	if !ok {
		t.Fatal("missing task from nested file")
	}
	if ship.SourceFile != filepath.Join("work", "Backlog.md") {
		t.Errorf("nested provenance = %q", ship.SourceFile)
	}
}

func TestScanExplicitFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeVaultFile(t, dir, "a.md", "- [ ] from a\n")
	writeVaultFile(t, dir, "b.md", "- [ ] from b\n")

	// "missing.md" does not exist; the scan must still return the others.
	s := NewScanner(dir, []string{"a.md", "missing.md"}, ".md", logx.Nop())
	tasks := s.Scan("09:00")

	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Text != "from a" {
		t.Errorf("task = %q, want the one from the explicit list", tasks[0].Text)
	}
}

func TestScanEmptyVault(t *testing.T) {
	t.Parallel()

	s := NewScanner(t.TempDir(), nil, "", logx.Nop())
	if tasks := s.Scan("09:00"); len(tasks) != 0 {
		t.Fatalf("empty vault produced %d tasks", len(tasks))
	}
}

func TestScanDefaultExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeVaultFile(t, dir, "Tasks.MD", "- [ ] case insensitive\n")

	s := NewScanner(dir, nil, "", logx.Nop())
	tasks := s.Scan("09:00")
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1 (extension match should be case-insensitive)", len(tasks))
	}
}
