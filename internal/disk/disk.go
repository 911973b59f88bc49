// Package disk measures artifact sizes and filesystem free space.
package disk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Usage is the apparent size of a file or directory tree.
type Usage struct {
	Bytes int64 // sum of regular file sizes
	Files int64 // number of regular files
}

// Measure walks path without following symlinks and sums regular file sizes.
// Unreadable subtrees are skipped; only a failure to stat path itself is an
// error.
func Measure(path string) (Usage, error) {
	var u Usage

	info, err := os.Lstat(path)
	if err != nil {
		return u, fmt.Errorf("measure %s: %w", path, err)
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			u.Bytes = info.Size()
			u.Files = 1
		}
		return u, nil
	}

	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		u.Bytes += fi.Size()
		u.Files++
		return nil
	})

	return u, nil
}

// Free returns the bytes available to unprivileged users and the total size of
// the filesystem holding path.
func Free(path string) (freeBytes int64, totalBytes int64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	//nolint:gosec // block counts fit in int64 on supported filesystems.
	totalBytes = int64(stat.Blocks) * int64(stat.Bsize)
	//nolint:gosec // see above.
	freeBytes = int64(stat.Bavail) * int64(stat.Bsize)

	return freeBytes, totalBytes, nil
}
