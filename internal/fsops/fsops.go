// Package fsops abstracts the filesystem calls made while walking and
// removing artifacts, so tests can prove what is and is not touched.
package fsops

import "io/fs"

// FS is the read side used by the walker and the predicates.
type FS interface {
	Stat(path string) (fs.FileInfo, error)
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(path string) ([]fs.DirEntry, error)
}

// Deleter removes directory trees.
type Deleter interface {
	RemoveAll(path string) error
}

// Exists reports whether path can be stat'ed.
func Exists(fsys FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// RemoveTree deletes path and everything below it, ignoring all errors.
func RemoveTree(d Deleter, path string) {
	_ = d.RemoveAll(path)
}
