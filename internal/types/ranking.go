//nolint:revive // types is a standard Go package name pattern
package types

// ScoreComponents holds the three per-scorer values for one document.
type ScoreComponents struct {
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
	Overlap  float64 `json:"overlap"`
}

// RankedCandidate is one row of a final ranking.
type RankedCandidate struct {
	Rank     int      `json:"rank"`
	Document Document `json:"document"`
	// Score is the published 0-100 score.
	Score float64 `json:"score"`
	// RawScore is the Stage A gating score used for the absolute filter
	RawScore float64 `json:"raw_score"`
	// Pooled are the max-pooled scorer outputs before normalization
	Pooled ScoreComponents `json:"pooled"`
	// Normalized are the min-max normalized scorer outputs over the filtered set
	Normalized ScoreComponents `json:"normalized"`
}

// Ranking is the result of one ranking run.
type Ranking struct {
	Candidates []RankedCandidate `json:"candidates"`
	// WeakMatch is true when no document cleared the absolute threshold and
	// the whole pool was ranked relative to itself instead.
	WeakMatch bool `json:"weak_match"`
	// FilteredCount is the number of documents that cleared the absolute threshold.
	FilteredCount int            `json:"filtered_count"`
	PoolSize      int            `json:"pool_size"`
	Variants      []QueryVariant `json:"variants"`
}
