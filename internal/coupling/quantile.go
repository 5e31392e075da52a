package coupling

import (
	"math"
	"sort"
)

// quantileBreaks returns the k+1 quantiles at evenly spaced probabilities of
// the non-NaN values, with linear interpolation between order statistics and
// repeated breaks collapsed. It returns nil when no value is present.
func quantileBreaks(values []float64, k int) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 || k < 1 {
		return nil
	}
	sort.Float64s(sorted)

	step := 1 / float64(k)
	breaks := make([]float64, 0, k+1)
	for i := 0; i <= k; i++ {
		p := float64(i) * step
		if i == k {
			p = 1
		}
		q := quantile(sorted, p)
		if len(breaks) > 0 && q == breaks[len(breaks)-1] {
			continue
		}
		breaks = append(breaks, q)
	}
	return breaks
}

// quantile interpolates linearly at virtual index p·(n-1) of sorted
func quantile(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return lerp(sorted[i], sorted[i+1], h-lo)
}

// lerp evaluates from the nearer endpoint to stay monotone in t
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}
