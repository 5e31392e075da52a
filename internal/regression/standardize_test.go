package regression

import (
	"math"
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
)

func TestZScore_MeanZeroUnitSD(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	x := make([]float64, 300)
	for i := range x {
		x[i] = 5 + 3*rng.NormFloat64()
	}

	z := ZScore(x)

	mean, err := stats.Mean(z)
	assert.NoError(t, err)
	sd, err := stats.StandardDeviationPopulation(z)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, mean, 1e-12)
	assert.InDelta(t, 1.0, sd, 1e-12)
	// input untouched
	assert.NotEqual(t, x[0], z[0])
}

func TestZScore_SkipsNaN(t *testing.T) {
	z := ZScore([]float64{1, math.NaN(), 3})

	assert.InDelta(t, -1.0, z[0], 1e-12)
	assert.True(t, math.IsNaN(z[1]))
	assert.InDelta(t, 1.0, z[2], 1e-12)
}

func TestZScore_Unchanged(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{"constant", []float64{2, 2, 2}},
		{"single value", []float64{4}},
		{"all missing", []float64{math.NaN(), math.NaN()}},
		{"empty", []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZScore(tt.in)
			assert.Len(t, got, len(tt.in))
			for i := range tt.in {
				if math.IsNaN(tt.in[i]) {
					assert.True(t, math.IsNaN(got[i]))
				} else {
					assert.Equal(t, tt.in[i], got[i])
				}
			}
		})
	}
}

func TestProduct(t *testing.T) {
	assert.Equal(t, []float64{2, -6, 0}, Product([]float64{1, 2, 3}, []float64{2, -3, 0}))
}
