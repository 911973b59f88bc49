package pathtrie_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broom/internal/pathtrie"
)

func collect[T comparable](t *pathtrie.Trie[T]) [][]T {
	return slices.Collect(t.All())
}

func TestInsertIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := pathtrie.New[string]()
	tr.Insert([]string{"", "home", "me"})
	tr.Insert([]string{"", "home", "me"})

	assert.Equal(t, [][]string{{"", "home", "me"}}, collect(tr))
}

func TestPrefixesAreNotSubsumed(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		words [][]string
		want  [][]string
	}{
		"shorter first": {
			words: [][]string{{"a"}, {"a", "b"}},
			want:  [][]string{{"a"}, {"a", "b"}},
		},
		"longer first": {
			words: [][]string{{"a", "b"}, {"a"}},
			want:  [][]string{{"a", "b"}, {"a"}},
		},
		"siblings keep insertion order": {
			words: [][]string{{"z"}, {"a"}, {"m", "n"}},
			want:  [][]string{{"z"}, {"a"}, {"m", "n"}},
		},
		"duplicates interleaved": {
			words: [][]string{{"x", "y"}, {"q"}, {"x", "y"}, {"x"}},
			want:  [][]string{{"x", "y"}, {"x"}, {"q"}},
		},
		"empty word marks root": {
			words: [][]string{{}, {"a"}},
			want:  [][]string{{}, {"a"}},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tr := pathtrie.New(tc.words...)
			assert.Equal(t, tc.want, collect(tr))
		})
	}
}

func TestAllYieldsEachDistinctWordOnce(t *testing.T) {
	t.Parallel()

	words := [][]int{{1, 2, 3}, {1, 2}, {4}, {1, 2, 3}, {4}, {1, 5}}
	tr := pathtrie.New(words...)

	got := collect(tr)
	require.Len(t, got, 4)
	assert.ElementsMatch(t, [][]int{{1, 2, 3}, {1, 2}, {4}, {1, 5}}, got)

	// Iteration is restartable.
	assert.Equal(t, got, collect(tr))
}

func TestAllStopsEarly(t *testing.T) {
	t.Parallel()

	tr := pathtrie.New([]string{"a"}, []string{"b"}, []string{"c"})

	var seen [][]string
	for w := range tr.All() {
		seen = append(seen, w)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, [][]string{{"a"}, {"b"}}, seen)
}

func TestYieldedWordsAreIndependent(t *testing.T) {
	t.Parallel()

	tr := pathtrie.New([]string{"a", "b"}, []string{"a", "c"})
	got := collect(tr)
	require.Len(t, got, 2)

	got[0][0] = "mutated"
	assert.Equal(t, [][]string{{"a", "b"}, {"a", "c"}}, collect(tr))
}

func TestContains(t *testing.T) {
	t.Parallel()

	tr := pathtrie.New([]string{"a", "b", "c"})

	assert.True(t, tr.Contains(nil))
	assert.True(t, tr.Contains([]string{"a", "b"}))
	assert.True(t, tr.Contains([]string{"a", "b", "c"}))
	assert.False(t, tr.Contains([]string{"a", "x"}))
	assert.False(t, tr.Contains([]string{"a", "b", "c", "d"}))
}

func TestNewWithoutWordsYieldsNothing(t *testing.T) {
	t.Parallel()

	assert.Empty(t, collect(pathtrie.New[string]()))
}
