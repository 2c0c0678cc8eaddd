//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantTexts(t *testing.T) {
	variants := []QueryVariant{{Index: 0, Text: "python developer"}, {Index: 1, Text: "software engineer"}}
	assert.Equal(t, []string{"python developer", "software engineer"}, VariantTexts(variants))
	assert.Empty(t, VariantTexts(nil))
}

func TestDocumentTexts(t *testing.T) {
	docs := []Document{{ID: "a", Text: "python java"}, {ID: "b", Text: "chef"}}
	assert.Equal(t, []string{"python java", "chef"}, DocumentTexts(docs))
}

func TestRanking_JSONMarshaling(t *testing.T) {
	r := Ranking{
		Candidates: []RankedCandidate{{
			Rank:     1,
			Document: Document{ID: "doc-1", Text: "python", Metadata: map[string]string{"Name": "Ada"}},
			Score:    100,
			RawScore: 42.5,
		}},
		WeakMatch:     true,
		FilteredCount: 0,
		PoolSize:      1,
	}

	jsonBytes, err := json.MarshalIndent(r, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"weak_match": true`)
	assert.Contains(t, string(jsonBytes), `"raw_score": 42.5`)
	assert.Contains(t, string(jsonBytes), `"Name": "Ada"`)
	assert.Contains(t, string(jsonBytes), `"filtered_count": 0`)
}
