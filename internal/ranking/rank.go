package ranking

import (
	"sort"

	"github.com/jonathan/candidate-ranker/internal/types"
)

// Order returns the positions of scores sorted by descending score, ties in
// their original order, truncated to topN. A non-positive topN keeps all.
func Order(scores []float64, topN int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if topN > 0 && len(idx) > topN {
		idx = idx[:topN]
	}
	return idx
}

// Rank pairs documents with their final scores and returns the top topN,
// best first. docs and scores must be the same length.
func Rank(docs []types.Document, scores []float64, topN int) []types.RankedCandidate {
	order := Order(scores, topN)
	out := make([]types.RankedCandidate, len(order))
	for r, i := range order {
		out[r] = types.RankedCandidate{
			Rank:     r + 1,
			Document: docs[i],
			Score:    scores[i],
		}
	}
	return out
}
