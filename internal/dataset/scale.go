package dataset

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ScaleRow z-scores one analyte's abundances across its samples using
// the population standard deviation, so two samples at 1.0 and 3.0
// scale to exactly -1 and +1. Missing values stay missing and do not
// contribute to the center or spread. A row with no spread (or fewer
// than two observed values) scales to zero.
func ScaleRow(values []float64) []float64 {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			observed = append(observed, v)
		}
	}

	out := make([]float64, len(values))
	if len(observed) < 2 {
		for i, v := range values {
			if IsMissing(v) {
				out[i] = Missing()
			}
		}
		return out
	}

	mean := stat.Mean(observed, nil)
	std := math.Sqrt(stat.MomentAbout(2, observed, mean, nil))

	for i, v := range values {
		switch {
		case IsMissing(v):
			out[i] = Missing()
		case std == 0:
			out[i] = 0
		default:
			out[i] = (v - mean) / std
		}
	}
	return out
}
