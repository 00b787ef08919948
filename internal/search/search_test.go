package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type book struct {
	id    string
	title string
}

func title(b book) string { return b.title }

func TestRank_ExactAndPrefixFirst(t *testing.T) {
	items := []book{
		{"1", "The Hobbit"},
		{"2", "Dune"},
		{"3", "Hobbit"},
		{"4", "Hobbits and Halflings"},
	}

	ranked := Rank("hobbit", items, title)

	ids := make([]string, len(ranked))
	for i, b := range ranked {
		ids[i] = b.id
	}
	assert.Equal(t, []string{"3", "4", "1", "2"}, ids)
}

func TestRank_UnmatchedKeepServerOrder(t *testing.T) {
	items := []book{{"1", "Emma"}, {"2", "Dune"}, {"3", "Ulysses"}}

	ranked := Rank("zzz", items, title)
	assert.Equal(t, items, ranked)
}

func TestRank_EmptyQuery(t *testing.T) {
	items := []book{{"1", "Emma"}, {"2", "Dune"}}
	assert.Equal(t, items, Rank("  ", items, title))
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, Highlight("dun", "Dune"))
	assert.Nil(t, Highlight("xyz", "Dune"))
	assert.Nil(t, Highlight("", "Dune"))
}
