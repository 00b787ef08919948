// Package search ranks and highlights free-text lookup results.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Rank reorders server results so the closest title matches come first.
// Items that do not fuzzy-match query keep their server order after the
// matches. key extracts the text to match against.
func Rank[T any](query string, items []T, key func(T) string) []T {
	query = strings.TrimSpace(query)
	if query == "" || len(items) < 2 {
		return items
	}

	targets := make([]string, len(items))
	for i, item := range items {
		targets[i] = key(item)
	}

	ranks := fuzzy.RankFindFold(query, targets)
	lower := strings.ToLower(query)
	sort.SliceStable(ranks, func(i, j int) bool {
		si, sj := score(ranks[i], lower), score(ranks[j], lower)
		if si != sj {
			return si < sj
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]T, 0, len(items))
	matched := make([]bool, len(items))
	for _, r := range ranks {
		matched[r.OriginalIndex] = true
		out = append(out, items[r.OriginalIndex])
	}
	for i, item := range items {
		if !matched[i] {
			out = append(out, item)
		}
	}
	return out
}

// score is lower for better matches: exact, then prefix, then substring,
// then by edit distance.
func score(r fuzzy.Rank, lowerQuery string) int {
	title := strings.ToLower(r.Target)
	switch {
	case title == lowerQuery:
		return -3000
	case strings.HasPrefix(title, lowerQuery):
		return -2000 + r.Distance
	case strings.Contains(title, lowerQuery):
		return -1000 + r.Distance
	default:
		return r.Distance
	}
}
