package ranking

import (
	"fmt"

	"github.com/jonathan/candidate-ranker/internal/types"
)

// Signals are the max-pooled scorer outputs, one entry per document.
type Signals struct {
	Semantic []float64
	Lexical  []float64
	Overlap  []float64
}

// Len returns the number of documents covered.
func (s Signals) Len() int {
	return len(s.Semantic)
}

func (s Signals) at(i int) types.ScoreComponents {
	return types.ScoreComponents{Semantic: s.Semantic[i], Lexical: s.Lexical[i], Overlap: s.Overlap[i]}
}

// Aggregation is the outcome of the two-stage filter and normalize pass.
type Aggregation struct {
	// Raw is the Stage A score of every document in the pool.
	Raw []float64
	// Kept are the pool indices of the filtered set, in pool order.
	Kept []int
	// Normalized and Final are aligned with Kept.
	Normalized []types.ScoreComponents
	Final      []float64
	// Passed is how many documents cleared the threshold.
	Passed    int
	WeakMatch bool
}

// Aggregate runs Stage A (absolute gating with FilterWeights and
// AbsoluteThreshold, falling back to the whole pool when nothing passes) and
// then Stage B (min-max normalization of each signal over the kept set,
// recombined with ScoreWeights and clipped to [0, 100]).
func Aggregate(signals Signals, params Params) (*Aggregation, error) {
	n := signals.Len()
	if len(signals.Lexical) != n || len(signals.Overlap) != n {
		return nil, fmt.Errorf("signal length mismatch: semantic=%d lexical=%d overlap=%d",
			len(signals.Semantic), len(signals.Lexical), len(signals.Overlap))
	}

	agg := &Aggregation{Raw: make([]float64, n)}
	if n == 0 {
		return agg, nil
	}

	for i := 0; i < n; i++ {
		agg.Raw[i] = params.FilterWeights.Apply(signals.Semantic[i], signals.Lexical[i], signals.Overlap[i])
		if agg.Raw[i] > params.AbsoluteThreshold {
			agg.Kept = append(agg.Kept, i)
		}
	}
	agg.Passed = len(agg.Kept)
	if agg.Passed == 0 {
		agg.WeakMatch = true
		agg.Kept = make([]int, n)
		for i := range agg.Kept {
			agg.Kept[i] = i
		}
	}

	sem := make([]float64, len(agg.Kept))
	lex := make([]float64, len(agg.Kept))
	ovl := make([]float64, len(agg.Kept))
	for k, i := range agg.Kept {
		c := signals.at(i)
		sem[k], lex[k], ovl[k] = c.Semantic, c.Lexical, c.Overlap
	}
	sem = MinMaxNormalize(sem, params.Epsilon)
	lex = MinMaxNormalize(lex, params.Epsilon)
	ovl = MinMaxNormalize(ovl, params.Epsilon)

	agg.Normalized = make([]types.ScoreComponents, len(agg.Kept))
	agg.Final = make([]float64, len(agg.Kept))
	for k := range agg.Kept {
		agg.Normalized[k] = types.ScoreComponents{Semantic: sem[k], Lexical: lex[k], Overlap: ovl[k]}
		agg.Final[k] = clip(100*params.ScoreWeights.Apply(sem[k], lex[k], ovl[k]), 0, 100)
	}
	return agg, nil
}
