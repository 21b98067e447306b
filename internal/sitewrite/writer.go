// Package sitewrite writes generated files only when their content changed.
package sitewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Status is the outcome of a single Write.
type Status int

const (
	Unchanged Status = iota
	Updated
)

func (s Status) String() string {
	if s == Updated {
		return "updated"
	}
	return "unchanged"
}

// Stats counts writes for one run.
type Stats struct {
	Updated   int
	Unchanged int
}

// ErrOutsideRoot is returned for a relative path that climbs above Root.
var ErrOutsideRoot = errors.New("path outside output root")

// defaultPerm applies when Perm is zero, as in a Writer literal.
const defaultPerm fs.FileMode = 0o644

// Writer compares rendered content with what is already on disk under Root.
// Relative paths are resolved against Root and must stay below it.
type Writer struct {
	Root string

	// Perm is the mode of newly written files; zero means 0o644.
	Perm fs.FileMode

	mu    sync.Mutex
	stats Stats
}

// New returns a Writer rooted at root.
func New(root string) *Writer {
	return &Writer{Root: root, Perm: defaultPerm}
}

// Write stores content at path unless the file already holds exactly these
// bytes. Missing parent directories are created.
func (w *Writer) Write(path string, content []byte) (Status, error) {
	full, err := w.resolve(path)
	if err != nil {
		return Unchanged, err
	}
	existing, err := os.ReadFile(full)
	if err == nil && bytes.Equal(existing, content) {
		w.count(Unchanged)
		return Unchanged, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Unchanged, fmt.Errorf("read %s: %w", full, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Unchanged, fmt.Errorf("create dir for %s: %w", full, err)
	}
	perm := w.Perm
	if perm == 0 {
		perm = defaultPerm
	}
	if err := os.WriteFile(full, content, perm); err != nil {
		return Unchanged, fmt.Errorf("write %s: %w", full, err)
	}
	w.count(Updated)
	return Updated, nil
}

// WriteString is Write for rendered templates.
func (w *Writer) WriteString(path, content string) (Status, error) {
	return w.Write(path, []byte(content))
}

// CopyTree mirrors every regular file below src to dst (relative to Root)
// through Write, so unchanged assets are left alone.
func (w *Writer) CopyTree(src, dst string) (Stats, error) {
	var st Stats
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		status, err := w.Write(filepath.Join(dst, rel), b)
		if err != nil {
			return err
		}
		if status == Updated {
			st.Updated++
		} else {
			st.Unchanged++
		}
		return nil
	})
	return st, err
}

// Stats returns the counts accumulated so far.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return filepath.Join(w.Root, path), nil
}

func (w *Writer) count(s Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s == Updated {
		w.stats.Updated++
	} else {
		w.stats.Unchanged++
	}
}
