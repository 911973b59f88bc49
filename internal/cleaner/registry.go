// Package cleaner classifies filesystem entries into artifact categories.
//
// A Registry holds, for every category bit, the predicates registered under
// it. Compile flattens a requested set of categories into the ordered list the
// walker evaluates; the first predicate that matches an entry wins.
package cleaner

import (
	"path/filepath"

	"broom/internal/fsops"
)

// Entry describes one directory entry offered to a Predicate.
type Entry struct {
	Path   string
	Name   string
	Parent string
	IsDir  bool

	fsys fsops.FS
}

// NewEntry builds the Entry for path. fsys backs SiblingExists.
func NewEntry(fsys fsops.FS, path string, isDir bool) Entry {
	return Entry{
		Path:   path,
		Name:   filepath.Base(path),
		Parent: filepath.Dir(path),
		IsDir:  isDir,
		fsys:   fsys,
	}
}

// Ext returns the file name extension, including the dot.
func (e Entry) Ext() string {
	return filepath.Ext(e.Name)
}

// SiblingExists reports whether name exists next to the entry.
func (e Entry) SiblingExists(name string) bool {
	if e.fsys == nil {
		return false
	}
	return fsops.Exists(e.fsys, filepath.Join(e.Parent, name))
}

// Predicate decides whether an entry is an artifact. It must not modify the
// filesystem.
type Predicate func(Entry) bool

// Cleaner pairs a predicate with the flag it was registered under.
type Cleaner struct {
	Flag      Flag
	Predicate Predicate
}

// Registry maps each category bit to its cleaners in registration order.
type Registry struct {
	byBit map[Flag][]Cleaner
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBit: make(map[Flag][]Cleaner)}
}

// Register adds fn under every bit of flag and returns fn unchanged.
// Registering the same predicate twice lists it twice.
func (r *Registry) Register(flag Flag, fn Predicate) Predicate {
	c := Cleaner{Flag: flag, Predicate: fn}
	for bit := range flag.Components() {
		r.byBit[bit] = append(r.byBit[bit], c)
	}
	return fn
}

// Compile returns the cleaners of every bit in flag, bit by bit in canonical
// order, each bit's cleaners in registration order.
func (r *Registry) Compile(flag Flag) []Cleaner {
	var out []Cleaner
	for bit := range flag.Components() {
		out = append(out, r.byBit[bit]...)
	}
	return out
}

// Classify returns the flag of the first cleaner matching e.
func Classify(cleaners []Cleaner, e Entry) (Flag, bool) {
	for _, c := range cleaners {
		if c.Predicate(e) {
			return c.Flag, true
		}
	}
	return None, false
}
