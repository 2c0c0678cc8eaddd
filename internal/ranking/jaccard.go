package ranking

import (
	"github.com/jonathan/candidate-ranker/internal/parsing"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets are a perfect match (1.0);
// one empty set against a non-empty one scores 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// JaccardScores returns each document's best token-set Jaccard similarity
// over all variants, after normalizing both sides.
func JaccardScores(variants []types.QueryVariant, documentTexts []string, normalizer *parsing.Normalizer) []float64 {
	return jaccardPooled(
		normalizer.NormalizeAll(types.VariantTexts(variants)),
		normalizer.NormalizeAll(documentTexts),
	)
}

func jaccardPooled(normVariants, normDocs []string) []float64 {
	docSets := make([]map[string]struct{}, len(normDocs))
	for i, d := range normDocs {
		docSets[i] = parsing.TokenSet(d)
	}

	matrix := make([][]float64, len(normVariants))
	for i, v := range normVariants {
		q := parsing.TokenSet(v)
		row := make([]float64, len(docSets))
		for d, set := range docSets {
			row[d] = Jaccard(q, set)
		}
		matrix[i] = row
	}
	return MaxPool(matrix, len(normDocs))
}
