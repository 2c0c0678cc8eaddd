// Package types provides type definitions for structured data used throughout the candidate-ranker system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Document is one parsed candidate record in the pool being ranked.
// Text is the display form of the resume content; it is never stemmed.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// QueryVariant is one phrasing of the job description. Index 0 is always
// the original job description verbatim.
type QueryVariant struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// VariantTexts returns the text of each variant in order.
func VariantTexts(variants []QueryVariant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.Text
	}
	return out
}

// DocumentTexts returns the text of each document in order.
func DocumentTexts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}
