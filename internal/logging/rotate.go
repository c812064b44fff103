package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Rotation bounds the size of a log file and the number of backups kept
// beside it.
type Rotation struct {
	// MaxSizeMB is the size, in megabytes, past which the file is rotated.
	// Values below 1 are treated as 1.
	MaxSizeMB int
	// MaxFiles is how many numbered backups survive a rotation. Zero
	// discards the old file outright.
	MaxFiles int
}

// DefaultRotation matches the log.max-size-mb and log.max-files defaults.
func DefaultRotation() Rotation { return Rotation{MaxSizeMB: 10, MaxFiles: 5} }

// RotatingFile is an append-only io.WriteCloser that rolls path over to
// path.1, path.2, ... once it grows past the configured size. A single write
// never straddles two files.
type RotatingFile struct {
	mu    sync.Mutex
	path  string
	limit int64
	keep  int
	size  int64
	file  *os.File
}

var _ io.WriteCloser = (*RotatingFile)(nil)

// OpenRotating opens (or creates) path for appending, creating any missing
// parent directories.
func OpenRotating(path string, r Rotation) (*RotatingFile, error) {
	r.MaxSizeMB = max(r.MaxSizeMB, 1)
	r.MaxFiles = max(r.MaxFiles, 0)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: create %s: %w", dir, err)
		}
	}

	f := &RotatingFile{
		path:  path,
		limit: int64(r.MaxSizeMB) << 20,
		keep:  r.MaxFiles,
	}
	if err := f.open(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RotatingFile) open() error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", f.path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("logging: stat %s: %w", f.path, err)
	}
	f.file = file
	f.size = info.Size()
	return nil
}

// Path returns the live log file path.
func (f *RotatingFile) Path() string { return f.path }

func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}
	if f.size > 0 && f.size+int64(len(p)) > f.limit {
		if err := f.rotate(); err != nil {
			return 0, fmt.Errorf("logging: rotate %s: %w", f.path, err)
		}
	}
	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// rotate must be called with f.mu held.
func (f *RotatingFile) rotate() error {
	if err := f.file.Close(); err != nil {
		return err
	}
	f.file = nil

	backups := f.backups()
	slices.Reverse(backups)
	for _, n := range backups {
		if n >= f.keep {
			_ = os.Remove(f.backup(n))
			continue
		}
		_ = os.Rename(f.backup(n), f.backup(n+1))
	}
	if f.keep > 0 {
		_ = os.Rename(f.path, f.backup(1))
	} else {
		_ = os.Remove(f.path)
	}

	return f.open()
}

func (f *RotatingFile) backup(n int) string { return f.path + "." + strconv.Itoa(n) }

// backups lists existing backup numbers in ascending order.
func (f *RotatingFile) backups() []int {
	entries, err := os.ReadDir(filepath.Dir(f.path))
	if err != nil {
		return nil
	}
	prefix := filepath.Base(f.path) + "."
	var out []int
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n >= 1 {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}
