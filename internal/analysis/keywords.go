package analysis

import (
	"regexp"
	"sort"
	"strings"
)

const (
	// ReviewKeywordLimit is the per-review keyword cap; AccountKeywordLimit
	// applies when aggregating across an account's whole review set.
	ReviewKeywordLimit  = 5
	AccountKeywordLimit = 10
)

// Articles, conjunctions and common prepositions never count as keywords.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "to": {}, "of": {},
	"for": {}, "in": {}, "is": {}, "it": {}, "was": {}, "with": {},
}

var wordRE = regexp.MustCompile(`\b\w+\b`)

// ExtractKeywords tokenizes text on word boundaries, drops stop-words and
// tokens of length <= 3, and returns the top `limit` tokens by occurrence
// count. Ties keep first-appearance order. Empty or whitespace text yields
// an empty list.
func ExtractKeywords(text string, limit int) []string {
	words := wordRE.FindAllString(strings.ToLower(text), -1)
	counts := make(map[string]int, len(words))
	var order []string
	for _, w := range words {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}
	return topKeywords(counts, order, limit)
}

// AggregateKeywords merges per-review keyword lists into one ranking,
// summing counts across the whole collection. Ties keep first-seen order.
func AggregateKeywords(lists [][]string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, ks := range lists {
		for _, k := range ks {
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k]++
		}
	}
	return topKeywords(counts, order, limit)
}

func topKeywords(counts map[string]int, order []string, limit int) []string {
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if limit >= 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}
