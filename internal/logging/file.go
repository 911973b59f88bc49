package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultRotationDays is how long a log file is appended to before it is
// rotated, and how long rotated files are kept.
const DefaultRotationDays = 30

// OpenFile opens path for appending, creating its directory if needed. A file
// last modified more than rotationDays ago is first renamed with its
// modification timestamp as a suffix; older rotated siblings are removed.
func OpenFile(path string, rotationDays int) (*os.File, error) {
	if rotationDays <= 0 {
		rotationDays = DefaultRotationDays
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	if err := rotateIfNeeded(path, rotationDays); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func rotateIfNeeded(path string, rotationDays int) error {
	info, err := os.Stat(path)
	if err != nil {
		// Nothing to rotate yet.
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoff) {
		return nil
	}

	rotated := path + "." + info.ModTime().Format("20060102-150405")
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}

	removeOldLogs(path, rotated, cutoff)
	return nil
}

// removeOldLogs deletes rotated copies of path modified before cutoff, except
// keep.
func removeOldLogs(path, keep string, cutoff time.Time) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) || entry.Name() == filepath.Base(keep) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
