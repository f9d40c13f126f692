package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// RotatingFile is an io.Writer that appends to a log file, rotating it
// when it grows past maxBytes or is a day old. Rotated files are gzipped
// and only the newest keep archives are retained.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	now      func() time.Time

	file     *os.File
	size     int64
	openedAt time.Time
}

// OpenRotatingFile opens (or creates) path for appending.
func OpenRotatingFile(path string, maxSizeMB, keep int) (*RotatingFile, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if keep <= 0 {
		keep = 5
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	rf := &RotatingFile{
		path:     path,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		keep:     keep,
		now:      time.Now,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rf.file = f
	rf.size = info.Size()
	rf.openedAt = rf.now()
	return nil
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return 0, os.ErrClosed
	}
	if rf.size > 0 && (rf.size+int64(len(p)) > rf.maxBytes || rf.now().Sub(rf.openedAt) > 24*time.Hour) {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Sync flushes the current file to disk.
func (rf *RotatingFile) Sync() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	return rf.file.Sync()
}

// Close closes the current file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	archived := fmt.Sprintf("%s.%s", rf.path, rf.now().Format("20060102-150405.000"))
	if err := os.Rename(rf.path, archived); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}
	if err := gzipFile(archived); err != nil {
		return err
	}
	rf.prune()
	return rf.open()
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rotated log: %w", err)
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		os.Remove(path + ".gz")
		return fmt.Errorf("compress rotated log: %w", err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("compress rotated log: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return os.Remove(path)
}

// prune removes the oldest archives beyond keep. Archive names sort by
// their timestamp suffix.
func (rf *RotatingFile) prune() {
	matches, err := filepath.Glob(rf.path + ".*.gz")
	if err != nil || len(matches) <= rf.keep {
		return
	}
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-rf.keep] {
		_ = os.Remove(path)
	}
}
