package ranking

import (
	"math"

	"github.com/jonathan/candidate-ranker/internal/parsing"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// BM25Index is an Okapi BM25 index over a tokenized corpus. IDF uses the
// Lucene form ln(1 + (N - df + 0.5)/(df + 0.5)) so it is never negative.
type BM25Index struct {
	params   BM25Params
	termFreq []map[string]int
	lengths  []int
	avgLen   float64
	idf      map[string]float64
}

// NewBM25Index indexes corpus, one token slice per document.
func NewBM25Index(corpus [][]string, params BM25Params) *BM25Index {
	idx := &BM25Index{
		params:   params,
		termFreq: make([]map[string]int, len(corpus)),
		lengths:  make([]int, len(corpus)),
		idf:      make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		tf := make(map[string]int, len(doc))
		for _, tok := range doc {
			tf[tok]++
		}
		for tok := range tf {
			df[tok]++
		}
		idx.termFreq[i] = tf
		idx.lengths[i] = len(doc)
		total += len(doc)
	}
	if len(corpus) > 0 {
		idx.avgLen = float64(total) / float64(len(corpus))
	}

	n := float64(len(corpus))
	for tok, f := range df {
		idx.idf[tok] = math.Log(1 + (n-float64(f)+0.5)/(float64(f)+0.5))
	}
	return idx
}

// Len returns the number of indexed documents.
func (idx *BM25Index) Len() int {
	return len(idx.lengths)
}

// Scores returns the BM25 score of every document for query. Repeated query
// terms count once and terms outside the corpus vocabulary contribute nothing.
func (idx *BM25Index) Scores(query []string) []float64 {
	scores := make([]float64, len(idx.lengths))
	if idx.avgLen == 0 {
		return scores
	}

	seen := make(map[string]struct{}, len(query))
	k1, b := idx.params.K1, idx.params.B
	for _, term := range query {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		idf, ok := idx.idf[term]
		if !ok {
			continue
		}
		for d, tf := range idx.termFreq {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := k1 * (1 - b + b*float64(idx.lengths[d])/idx.avgLen)
			scores[d] += idf * f / (f + norm)
		}
	}
	return scores
}

// BM25Scores normalizes every document and variant, indexes the documents and
// returns each document's best BM25 score over all variants.
func BM25Scores(docs []types.Document, variants []types.QueryVariant, normalizer *parsing.Normalizer, params BM25Params) []float64 {
	return bm25Pooled(
		tokenizeAll(normalizer.NormalizeAll(types.DocumentTexts(docs))),
		tokenizeAll(normalizer.NormalizeAll(types.VariantTexts(variants))),
		params,
	)
}

func bm25Pooled(corpus, queries [][]string, params BM25Params) []float64 {
	idx := NewBM25Index(corpus, params)
	matrix := make([][]float64, len(queries))
	for i, q := range queries {
		matrix[i] = idx.Scores(q)
	}
	return MaxPool(matrix, len(corpus))
}

func tokenizeAll(normalized []string) [][]string {
	out := make([][]string, len(normalized))
	for i, text := range normalized {
		out[i] = parsing.Tokenize(text)
	}
	return out
}
