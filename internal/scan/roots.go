package scan

import (
	"os"
	"path/filepath"
	"strings"

	"broom/internal/pathtrie"
)

const sep = string(os.PathSeparator)

// Deduplicate drops literally repeated roots. Results come out in prefix-tree
// order: depth first, siblings in the order first seen. Nested roots are kept,
// so "/repo" and "/repo/sub" both survive and "/repo/sub" is walked twice.
func Deduplicate(roots []string) []string {
	tr := pathtrie.New[string]()
	for _, r := range roots {
		tr.Insert(splitPath(r))
	}

	out := make([]string, 0, len(roots))
	for parts := range tr.All() {
		out = append(out, joinPath(parts))
	}
	return out
}

// splitPath breaks a cleaned path into segments. An absolute path starts with
// an empty segment so that joinPath restores the leading separator.
func splitPath(p string) []string {
	p = filepath.Clean(p)
	if p == sep {
		return []string{""}
	}
	return strings.Split(p, sep)
}

func joinPath(parts []string) string {
	if len(parts) == 1 && parts[0] == "" {
		return sep
	}
	return strings.Join(parts, sep)
}
