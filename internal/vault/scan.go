package vault

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	logx "github.com/po3tt/notification-obsi-tg/pkg/logx"
)

// Scanner walks a vault directory and extracts tasks from checklist lines.
//
// Scanning is always a full re-read of the underlying files; there is no
// incremental state. A Scanner is safe for concurrent use (it is immutable
// after construction).
type Scanner struct {
	dir   string
	files []string // explicit list, relative to dir; empty = recursive walk
	ext   string   // used by the recursive walk, e.g. ".md"
	log   logx.Logger
}

func NewScanner(dir string, files []string, ext string, log logx.Logger) *Scanner {
	if strings.TrimSpace(ext) == "" {
		ext = ".md"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scanner{
		dir:   dir,
		files: append([]string(nil), files...),
		ext:   ext,
		log:   log,
	}
}

// Scan parses every configured file and returns the tasks in file order,
// ascending line number within each file.
//
// Scan never fails: missing or unreadable files are logged and skipped, and
// an empty vault yields an empty result.
func (s *Scanner) Scan(defaultTime string) []Task {
	var out []Task
	for _, rel := range s.enumerate() {
		out = append(out, s.scanFile(rel, defaultTime)...)
	}
	return out
}

// enumerate lists the relative paths to scan: the explicit file list when
// configured, otherwise a recursive walk for files with the scanner extension.
// Dot-directories (e.g. .obsidian, .git) are skipped during the walk.
func (s *Scanner) enumerate() []string {
	if len(s.files) > 0 {
		return s.files
	}

	var rels []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn("vault walk error", logx.String("path", path), logx.Err(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), s.ext) {
			return nil
		}
		rel, rerr := filepath.Rel(s.dir, path)
		if rerr != nil {
			rel = path
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		s.log.Warn("vault walk failed", logx.String("dir", s.dir), logx.Err(err))
	}
	return rels
}

func (s *Scanner) scanFile(rel, defaultTime string) []Task {
	path := filepath.Join(s.dir, rel)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("vault file not found", logx.String("file", rel))
		} else {
			s.log.Error("vault file open failed", logx.String("file", rel), logx.Err(err))
		}
		return nil
	}
	defer f.Close()

	var out []Task
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		t, ok := ParseLine(sc.Text(), defaultTime)
		if !ok {
			continue
		}
		t.SourceFile = rel
		t.SourceLine = lineNum
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		// Keep whatever parsed before the failure; other files still scan.
		s.log.Error("vault file read failed", logx.String("file", rel), logx.Err(err))
	}
	return out
}
