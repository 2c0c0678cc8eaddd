package ranking

import (
	"testing"

	"github.com/jonathan/candidate-ranker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		topN     int
		expected []int
	}{
		{"descending", []float64{10, 30, 20}, 15, []int{1, 2, 0}},
		{"ties keep insertion order", []float64{50, 80, 50, 80}, 15, []int{1, 3, 0, 2}},
		{"truncates", []float64{1, 2, 3, 4}, 2, []int{3, 2}},
		{"non-positive keeps all", []float64{1, 2}, 0, []int{1, 0}},
		{"empty", nil, 15, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Order(tt.scores, tt.topN))
		})
	}
}

func TestRank(t *testing.T) {
	docs := []types.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	ranked := Rank(docs, []float64{40, 90, 40}, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].Document.ID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "a", ranked[1].Document.ID)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 40.0, ranked[1].Score)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, nil, 15))
}
