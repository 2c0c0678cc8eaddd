package ranking

// MinMaxNormalize rescales values to (x - min) / (range + epsilon). When the
// range is below epsilon, including the single-value case, every entry is 1.
func MinMaxNormalize(values []float64, epsilon float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	spread := hi - lo
	if spread < epsilon {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (spread + epsilon)
	}
	return out
}

// clip bounds v to [lo, hi]. NaN maps to lo.
func clip(v, lo, hi float64) float64 {
	switch {
	case v != v:
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
