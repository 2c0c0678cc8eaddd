// Package ranking scores candidate documents against a set of job description
// variants with three signals and combines them into a final 0-100 ranking.
package ranking

import "fmt"

// Defaults for Params.
const (
	DefaultTopN              = 15
	DefaultAbsoluteThreshold = 25.0
	DefaultVariantCount      = 4
	DefaultEpsilon           = 1e-8
	DefaultBM25K1            = 1.5
	DefaultBM25B             = 0.75
)

// Weights holds one coefficient per scorer.
type Weights struct {
	Semantic float64 `json:"semantic" koanf:"semantic"`
	Lexical  float64 `json:"lexical" koanf:"lexical"`
	Overlap  float64 `json:"overlap" koanf:"overlap"`
}

// Apply returns the weighted sum of the three signals.
func (w Weights) Apply(semantic, lexical, overlap float64) float64 {
	return w.Semantic*semantic + w.Lexical*lexical + w.Overlap*overlap
}

// BM25Params are the term saturation and length normalization constants.
type BM25Params struct {
	K1 float64 `json:"k1" koanf:"k1"`
	B  float64 `json:"b" koanf:"b"`
}

// Params are the tunables of one ranking run.
type Params struct {
	TopN              int
	AbsoluteThreshold float64
	VariantCount      int
	// FilterWeights combine pooled scores into the Stage A gating score.
	FilterWeights Weights
	// ScoreWeights combine normalized scores into the published score.
	ScoreWeights Weights
	BM25         BM25Params
	Epsilon      float64
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		TopN:              DefaultTopN,
		AbsoluteThreshold: DefaultAbsoluteThreshold,
		VariantCount:      DefaultVariantCount,
		FilterWeights:     Weights{Semantic: 50, Lexical: 0.3, Overlap: 20},
		ScoreWeights:      Weights{Semantic: 0.5, Lexical: 0.3, Overlap: 0.2},
		BM25:              BM25Params{K1: DefaultBM25K1, B: DefaultBM25B},
		Epsilon:           DefaultEpsilon,
	}
}

// Validate rejects parameter sets the scorers cannot run with.
func (p Params) Validate() error {
	switch {
	case p.TopN < 1:
		return fmt.Errorf("top_n must be at least 1, got %d", p.TopN)
	case p.VariantCount < 0:
		return fmt.Errorf("variant_count must be non-negative, got %d", p.VariantCount)
	case p.Epsilon <= 0:
		return fmt.Errorf("epsilon must be positive, got %g", p.Epsilon)
	case p.BM25.K1 < 0:
		return fmt.Errorf("bm25 k1 must be non-negative, got %g", p.BM25.K1)
	case p.BM25.B < 0 || p.BM25.B > 1:
		return fmt.Errorf("bm25 b must be within [0, 1], got %g", p.BM25.B)
	}
	return nil
}
