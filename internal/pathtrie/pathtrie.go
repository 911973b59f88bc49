// Package pathtrie provides a prefix tree over sequences of path segments.
//
// It is used to collapse literally identical root arguments before any
// filesystem access happens. Unlike a minimal-parent set, a Trie never
// subsumes one sequence into another: inserting "a" and "a/b" keeps both.
package pathtrie

import "iter"

// Trie stores segment sequences. The zero value is not usable; use New.
type Trie[T comparable] struct {
	root *node[T]
}

type node[T comparable] struct {
	terminal bool
	children map[T]*node[T]
	// order records children and the terminal mark in first-insertion order.
	order []slot[T]
}

type slot[T comparable] struct {
	seg T
	end bool
}

// New returns a trie holding the given words.
func New[T comparable](words ...[]T) *Trie[T] {
	t := &Trie[T]{root: &node[T]{}}
	return t.Extend(words...)
}

// Insert records word. Inserting the same word again is a no-op; inserting an
// empty word marks the root itself.
func (t *Trie[T]) Insert(word []T) *Trie[T] {
	n := t.root
	for _, seg := range word {
		child, ok := n.children[seg]
		if !ok {
			if n.children == nil {
				n.children = map[T]*node[T]{}
			}
			child = &node[T]{}
			n.children[seg] = child
			n.order = append(n.order, slot[T]{seg: seg})
		}
		n = child
	}
	if !n.terminal {
		n.terminal = true
		n.order = append(n.order, slot[T]{end: true})
	}
	return t
}

// Extend inserts every word in turn.
func (t *Trie[T]) Extend(words ...[]T) *Trie[T] {
	for _, w := range words {
		t.Insert(w)
	}
	return t
}

// Contains reports whether word is a path from the root, whether or not a
// stored word ends there.
func (t *Trie[T]) Contains(word []T) bool {
	return t.find(word) != nil
}

// All yields every stored word, depth first, in per-node insertion order.
// Each call starts a fresh traversal and every yielded slice is new.
func (t *Trie[T]) All() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		t.root.walk(nil, yield)
	}
}

func (t *Trie[T]) find(word []T) *node[T] {
	n := t.root
	for _, seg := range word {
		child, ok := n.children[seg]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func (n *node[T]) walk(prefix []T, yield func([]T) bool) bool {
	for _, s := range n.order {
		if s.end {
			word := make([]T, len(prefix))
			copy(word, prefix)
			if !yield(word) {
				return false
			}
			continue
		}
		next := append(prefix[:len(prefix):len(prefix)], s.seg)
		if !n.children[s.seg].walk(next, yield) {
			return false
		}
	}
	return true
}
