package cleaner

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Flag is a set of artifact categories.
type Flag uint8

const (
	Python Flag = 1 << iota // interpreted-language bytecode caches
	Cargo                   // compiled-artifact output directories
	Node                    // dependency-manager module caches

	None Flag = 0
	All       = Python | Cargo | Node
)

// ErrUnknownCategory is returned by ParseFlag for names outside Names.
var ErrUnknownCategory = errors.New("unknown category")

// allBits is the canonical enumeration order of the named bits.
var allBits = []struct {
	bit  Flag
	name string
}{
	{Python, "python"},
	{Cargo, "cargo"},
	{Node, "node"},
}

// Names returns the names of every single-bit category in canonical order.
func Names() []string {
	names := make([]string, 0, len(allBits))
	for _, b := range allBits {
		names = append(names, b.name)
	}
	return names
}

// ParseFlag converts a category name into a Flag. "all" and "none" are
// accepted alongside the single-bit names.
func ParseFlag(name string) (Flag, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "all":
		return All, nil
	case "none":
		return None, nil
	default:
		for _, b := range allBits {
			if b.name == n {
				return b.bit, nil
			}
		}
	}
	return None, fmt.Errorf("%w: %q (valid: %s, all, none)", ErrUnknownCategory, name, strings.Join(Names(), ", "))
}

// ParseFlags ORs together the flags named in names.
func ParseFlags(names []string) (Flag, error) {
	var f Flag
	for _, n := range names {
		bit, err := ParseFlag(n)
		if err != nil {
			return None, err
		}
		f |= bit
	}
	return f, nil
}

// Has reports whether every bit of other is set in f.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Components yields the single bits set in f, in canonical order.
func (f Flag) Components() iter.Seq[Flag] {
	return func(yield func(Flag) bool) {
		for _, b := range allBits {
			if f&b.bit != 0 && !yield(b.bit) {
				return
			}
		}
	}
}

// Names returns the lower-case names of the bits set in f.
func (f Flag) Names() []string {
	var names []string
	for _, b := range allBits {
		if f&b.bit != 0 {
			names = append(names, b.name)
		}
	}
	return names
}

// String joins the component names with "|", e.g. "python|node".
func (f Flag) String() string {
	if f == None {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}
