package ranking

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// SemanticScores embeds every document and variant in one batch call, unit
// normalizes both sides and returns each document's best cosine similarity
// over all variants. Raw text is embedded, never the normalized form.
func SemanticScores(ctx context.Context, docs []types.Document, variants []types.QueryVariant, embedder llm.Embedder, epsilon float64) ([]float64, error) {
	if len(docs) == 0 {
		return []float64{}, nil
	}
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	texts := make([]string, 0, len(docs)+len(variants))
	texts = append(texts, types.DocumentTexts(docs)...)
	texts = append(texts, types.VariantTexts(variants)...)

	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	if err := llm.CheckEmbeddings(len(texts), vectors); err != nil {
		return nil, err
	}

	docUnits := unitNormalize(vectors[:len(docs)], epsilon)
	variantUnits := unitNormalize(vectors[len(docs):], epsilon)

	matrix := make([][]float64, len(variantUnits))
	for i, q := range variantUnits {
		row := make([]float64, len(docUnits))
		for d, v := range docUnits {
			row[d] = dot(q, v)
		}
		matrix[i] = row
	}
	return MaxPool(matrix, len(docs)), nil
}

// unitNormalize divides each vector by its L2 norm plus epsilon.
func unitNormalize(vectors [][]float32, epsilon float64) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		norm := math.Sqrt(sum) + epsilon
		u := make([]float64, len(v))
		for j, x := range v {
			u[j] = float64(x) / norm
		}
		out[i] = u
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
