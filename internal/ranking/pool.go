package ranking

import "math"

// MaxPool reduces a variants x documents matrix to one value per document,
// the maximum over every variant. Each row must have nDocs entries.
func MaxPool(matrix [][]float64, nDocs int) []float64 {
	out := make([]float64, nDocs)
	if len(matrix) == 0 {
		return out
	}
	for d := range out {
		out[d] = math.Inf(-1)
	}
	for _, row := range matrix {
		for d, v := range row {
			if v > out[d] {
				out[d] = v
			}
		}
	}
	return out
}
