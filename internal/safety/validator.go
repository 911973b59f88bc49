// Package safety decides whether a matched artifact may be removed.
package safety

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside allowed roots")
	ErrRootTarget     = errors.New("target is a scan root")
	ErrTraversal      = errors.New("path traversal detected")
	ErrSymlinkEscape  = errors.New("symlink escape detected")
)

// Validator guards every removal. A target must sit strictly below one of the
// scan roots, must not be (or be inside) a protected path, and its parent
// directory must resolve inside the roots.
//
// SystemPaths are weaker than ProtectedPaths: they only guard targets that
// are not below a root the caller placed inside the system path itself.
type Validator struct {
	AllowedRoots   []string
	SystemPaths    []string // the path and everything below it, unless scanned explicitly
	ProtectedPaths []string // the path and everything below it
	ProtectedExact []string // only the path itself
}

// NewValidator creates a validator for the given scan roots. extraProtected
// always applies; the built-in system directories only guard scans that
// start above them.
func NewValidator(roots []string, extraProtected []string) *Validator {
	v := &Validator{
		AllowedRoots:   normalizeRoots(roots),
		SystemPaths:    systemPaths(),
		ProtectedPaths: extraProtected,
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		v.ProtectedExact = append(v.ProtectedExact, filepath.Clean(home))
	}
	return v
}

// Validate returns nil if path may be removed, or an error wrapping one of the
// package's sentinel errors.
func (v *Validator) Validate(path string) error {
	if DetectTraversal(path) {
		return fmt.Errorf("%w: %s", ErrTraversal, path)
	}

	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if IsProtectedPath(p, v.ProtectedPaths) || isExact(p, v.ProtectedExact) || v.inSystemPath(p) {
		return fmt.Errorf("%w: %s", ErrProtectedPath, p)
	}

	if isExact(p, v.AllowedRoots) {
		return fmt.Errorf("%w: %s", ErrRootTarget, p)
	}

	if !IsWithinAllowedRoots(p, v.AllowedRoots) {
		return fmt.Errorf("%w: %s", ErrOutsideAllowed, p)
	}

	escaped, err := DetectSymlinkEscape(p, v.AllowedRoots)
	if err != nil {
		// Already gone: the removal is a no-op either way.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("resolve %s: %w", p, err)
	}
	if escaped {
		return fmt.Errorf("%w: %s", ErrSymlinkEscape, p)
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form.
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal reports whether raw contains a ".." segment.
func DetectTraversal(raw string) bool {
	for _, p := range strings.Split(filepath.ToSlash(raw), "/") {
		if p == ".." {
			return true
		}
	}
	return false
}

// IsWithinAllowedRoots reports whether path is one of the roots or below one.
func IsWithinAllowedRoots(path string, roots []string) bool {
	p := filepath.Clean(path)
	for _, r := range roots {
		if hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves the parent directory of target and reports
// whether it lands outside every root. The target itself is not resolved: a
// symlinked artifact is removed as a link, never followed.
func DetectSymlinkEscape(target string, roots []string) (bool, error) {
	parent, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(target); err != nil {
		return false, err
	}
	return !IsWithinAllowedRoots(filepath.Join(parent, filepath.Base(target)), roots), nil
}

// IsProtectedPath reports whether path is, or is below, a protected path.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)
	if p == string(os.PathSeparator) {
		return true
	}
	for _, prot := range protected {
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// inSystemPath reports whether p is below a system path and not covered by a
// root that lies at or below that same system path.
func (v *Validator) inSystemPath(p string) bool {
	for _, sys := range v.SystemPaths {
		if !hasPathPrefix(p, sys) {
			continue
		}
		if !v.scannedWithin(p, sys) {
			return true
		}
	}
	return false
}

func (v *Validator) scannedWithin(p, sys string) bool {
	for _, r := range v.AllowedRoots {
		if hasPathPrefix(r, sys) && hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

func isExact(path string, list []string) bool {
	for _, l := range list {
		if path == filepath.Clean(l) {
			return true
		}
	}
	return false
}

// hasPathPrefix reports whether path equals prefix or lies below it.
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return filepath.IsAbs(path)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// normalizeRoots makes roots absolute and adds the symlink-resolved form of
// each root next to it, so resolved parents still compare as inside.
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := NormalizePath(r)
		if err != nil {
			continue
		}
		out = append(out, abs)
		if resolved, err := filepath.EvalSymlinks(abs); err == nil && resolved != abs {
			out = append(out, resolved)
		}
	}
	return out
}

func systemPaths() []string {
	return []string{
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/lib64",
		"/proc",
		"/sbin",
		"/sys",
		"/usr",
	}
}
