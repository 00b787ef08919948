package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Highlight returns the rune positions in s matched by query, for
// rendering emphasis. Nil when query does not match.
func Highlight(query, s string) []int {
	query = strings.TrimSpace(query)
	if query == "" || s == "" {
		return nil
	}
	matches := fuzzy.Find(strings.ToLower(query), []string{strings.ToLower(s)})
	if len(matches) == 0 {
		return nil
	}
	return runeIndexes(strings.ToLower(s), matches[0].MatchedIndexes)
}

// runeIndexes converts the byte offsets reported by fuzzy into rune positions
func runeIndexes(s string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return byteIdx
	}
	pos := make(map[int]int, len(s))
	n := 0
	for i := range s {
		pos[i] = n
		n++
	}
	out := make([]int, 0, len(byteIdx))
	for _, b := range byteIdx {
		if r, ok := pos[b]; ok {
			out = append(out, r)
		}
	}
	return out
}
