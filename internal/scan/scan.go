// Package scan walks root directories and yields the artifacts found in them.
package scan

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"broom/internal/cleaner"
	"broom/internal/fsops"
)

var errNotDirectory = errors.New("not a directory")

// Match is one artifact found by the walker.
type Match struct {
	Flag  cleaner.Flag // flag of the cleaner that matched
	Path  string
	IsDir bool
}

// ErrorHandler receives directory listing failures. The walk continues with
// the next sibling after it returns.
type ErrorHandler func(path string, err error)

// Option configures a Walker.
type Option func(*Walker)

// WithErrorHandler replaces the default handler, which logs a warning.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Walker) {
		w.onError = h
	}
}

// Walker classifies directory entries depth first and prunes every match.
type Walker struct {
	fsys    fsops.FS
	logger  *slog.Logger
	onError ErrorHandler
	errors  int
}

// NewWalker creates a Walker reading through fsys.
func NewWalker(fsys fsops.FS, logger *slog.Logger, opts ...Option) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Walker{
		fsys:   fsys,
		logger: logger,
	}
	w.onError = func(path string, err error) {
		w.logger.Warn("failed to list directory",
			slog.String("path", path),
			slog.Any("err", err),
		)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Errors returns how many directories could not be listed so far.
func (w *Walker) Errors() int {
	return w.errors
}

// Clean deduplicates roots and walks them.
func (w *Walker) Clean(roots []string, cleaners []cleaner.Cleaner) iter.Seq[Match] {
	return w.Walk(Deduplicate(roots), cleaners)
}

// Walk yields a Match for every entry below roots accepted by cleaners.
//
// Roots that do not exist are skipped. Entries whose name starts with a dot
// are neither classified nor descended into, and a matched directory is never
// descended into. Each directory is listed completely before its first entry
// is classified, so the consumer may delete a match before pulling the next.
func (w *Walker) Walk(roots []string, cleaners []cleaner.Cleaner) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for _, root := range roots {
			info, err := w.fsys.Stat(root)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					w.fail(root, err)
				} else {
					w.logger.Debug("skipping missing root", slog.String("path", root))
				}
				continue
			}
			if !info.IsDir() {
				w.fail(root, errNotDirectory)
				continue
			}

			w.logger.Debug("walking root", slog.String("path", root))
			if !w.walkDir(root, cleaners, yield) {
				return
			}
		}
	}
}

func (w *Walker) walkDir(dir string, cleaners []cleaner.Cleaner, yield func(Match) bool) bool {
	entries, err := w.fsys.ReadDir(dir)
	if err != nil {
		w.fail(dir, err)
		return true
	}

	for _, de := range entries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		// Symlinks report false here, so linked directories are never descended.
		entry := cleaner.NewEntry(w.fsys, path, de.IsDir())

		if flag, ok := cleaner.Classify(cleaners, entry); ok {
			if !yield(Match{Flag: flag, Path: path, IsDir: entry.IsDir}) {
				return false
			}
			continue
		}

		if entry.IsDir && !w.walkDir(path, cleaners, yield) {
			return false
		}
	}
	return true
}

func (w *Walker) fail(path string, err error) {
	w.errors++
	w.onError(path, fmt.Errorf("scan %s: %w", path, err))
}
