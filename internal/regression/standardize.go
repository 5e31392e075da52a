package regression

import (
	"math"

	"github.com/montanaflynn/stats"
)

// ZScore returns a standardized copy of x using the NaN-skipping mean and the
// population standard deviation. NaN entries stay NaN. When the deviation is
// zero or undefined the copy is returned unchanged.
func ZScore(x []float64) []float64 {
	out := append([]float64(nil), x...)

	present := make(stats.Float64Data, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return out
	}

	mean, err := present.Mean()
	if err != nil {
		return out
	}
	sd, err := present.StandardDeviationPopulation()
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return out
	}
	for i, v := range out {
		out[i] = (v - mean) / sd
	}
	return out
}

// Product returns the element-wise product of a and b
func Product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}
