package regression

import (
	"math"
	"math/bits"
)

// maxShapleyTerms bounds the 2^k subset enumeration
const maxShapleyTerms = 16

// ShapleyLMG averages each term's R² increment over every subset of the other
// terms with Shapley weights |S|!(k-|S|-1)!/k!. Interaction products are
// treated as ordinary terms. Designs with more than 16 terms yield NaN shares.
type ShapleyLMG struct{}

func (ShapleyLMG) Name() string { return StrategyShapley }

func (ShapleyLMG) Decompose(d Design) []Share {
	terms, y := d.expand()
	if len(y) == 0 {
		return nil
	}
	k := len(terms)
	dom := make([]float64, k)
	if k > maxShapleyTerms {
		for i := range dom {
			dom[i] = math.NaN()
		}
		return normalize(d.Terms(), dom)
	}

	weights := shapleyWeights(k)
	s := newSubsets(terms, y)
	for t := 0; t < k; t++ {
		bit := uint(1) << t
		for mask := uint(0); mask <= s.all(); mask++ {
			if mask&bit != 0 {
				continue
			}
			dom[t] += weights[bits.OnesCount(mask)] * (s.r2(mask|bit) - s.r2(mask))
		}
	}
	return normalize(d.Terms(), dom)
}

// shapleyWeights returns w[m] = m!(k-m-1)!/k! for m in [0, k)
func shapleyWeights(k int) []float64 {
	w := make([]float64, k)
	for m := 0; m < k; m++ {
		// 1 / (k * C(k-1, m))
		w[m] = 1 / (float64(k) * binomial(k-1, m))
	}
	return w
}

func binomial(n, r int) float64 {
	out := 1.0
	for i := 1; i <= r; i++ {
		out = out * float64(n-r+i) / float64(i)
	}
	return out
}
