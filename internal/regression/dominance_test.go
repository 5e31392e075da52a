package regression

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myelinfc/domain/core"
)

// correlatedDesign builds three correlated predictors driving y
func correlatedDesign(seed int64, n int) Design {
	rng := rand.New(rand.NewSource(seed))
	cal, my, ln := make([]float64, n), make([]float64, n), make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		base := rng.NormFloat64()
		cal[i] = base + 0.5*rng.NormFloat64()
		my[i] = 0.8*base + rng.NormFloat64()
		ln[i] = -0.4*cal[i] + rng.NormFloat64()
		y[i] = 0.6*cal[i] + 0.3*my[i] - 0.2*ln[i] + 0.4*my[i]*cal[i] + rng.NormFloat64()
	}
	return Design{
		Predictors: []Column{{"caliber", cal}, {"myelin", my}, {"length", ln}},
		Response:   y,
	}
}

func sumPercent(shares []Share) float64 {
	var total float64
	for _, s := range shares {
		total += s.Percent
	}
	return total
}

func TestGeneralDominance_PercentagesSumTo100(t *testing.T) {
	d := correlatedDesign(1, 400)

	shares := GeneralDominance{}.Decompose(d)
	require.Len(t, shares, 3)
	assert.InDelta(t, 100.0, sumPercent(shares), 1e-9)

	d.Interactions = []Interaction{{Left: 1, Right: 0}, {Left: 1, Right: 2}}
	shares = GeneralDominance{}.Decompose(d)
	require.Len(t, shares, 5)
	assert.InDelta(t, 100.0, sumPercent(shares), 1e-9)
}

func TestGeneralDominance_TermNames(t *testing.T) {
	d := correlatedDesign(2, 50)
	d.Interactions = []Interaction{{Left: 1, Right: 0}, {Left: 1, Right: 2}}

	shares := GeneralDominance{}.Decompose(d)

	var names []string
	for _, s := range shares {
		names = append(names, s.Term)
	}
	assert.Equal(t, []string{"caliber", "myelin", "length", "myelin:caliber", "myelin:length"}, names)
}

func TestGeneralDominance_SymmetricPredictors(t *testing.T) {
	// orthogonal, equal-variance predictors with equal effects
	a := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	b := []float64{1, 1, -1, -1, 1, 1, -1, -1}
	c := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	y := make([]float64, len(a))
	for i := range y {
		y[i] = a[i] + b[i] + 0.1*c[i]
	}
	d := Design{Predictors: []Column{{"a", a}, {"b", b}, {"c", c}}, Response: y}

	for _, s := range []Strategy{GeneralDominance{}, ShapleyLMG{}} {
		shares := s.Decompose(d)
		require.Len(t, shares, 3, s.Name())
		assert.InDelta(t, shares[0].Value, shares[1].Value, 1e-12, s.Name())
		assert.InDelta(t, shares[0].Percent, shares[1].Percent, 1e-9, s.Name())
		assert.Less(t, shares[2].Value, shares[0].Value, s.Name())
	}
}

func TestGeneralDominance_MatchesSubsetArithmetic(t *testing.T) {
	d := correlatedDesign(3, 300)
	d.Interactions = []Interaction{{Left: 1, Right: 0}, {Left: 1, Right: 2}}
	cal, my, ln := d.Predictors[0].Values, d.Predictors[1].Values, d.Predictors[2].Values
	myCal, myLn := Product(my, cal), Product(my, ln)
	y := d.Response

	full := R2([][]float64{cal, my, ln, myCal, myLn}, y)
	// caliber: rest drops caliber and myelin:caliber
	wantCal := ((full - R2([][]float64{my, ln, myLn}, y)) + R2([][]float64{cal}, y)) / 2
	// myelin: rest drops myelin and both interactions
	wantMy := ((full - R2([][]float64{cal, ln}, y)) + R2([][]float64{my}, y)) / 2
	// myelin:caliber: increment over its parents
	indiv := R2([][]float64{my, cal, myCal}, y) - R2([][]float64{cal, my}, y)
	wantMyCal := ((full - R2([][]float64{cal, my, ln, myLn}, y)) + indiv) / 2

	shares := GeneralDominance{}.Decompose(d)
	require.Len(t, shares, 5)
	assert.InDelta(t, wantCal, shares[0].Value, 1e-10)
	assert.InDelta(t, wantMy, shares[1].Value, 1e-10)
	assert.InDelta(t, wantMyCal, shares[3].Value, 1e-10)
}

func TestGeneralDominance_DropsIncompleteRows(t *testing.T) {
	d := correlatedDesign(4, 100)
	clean := GeneralDominance{}.Decompose(d)

	dirty := Design{Response: append(append([]float64(nil), d.Response...), 1, math.NaN())}
	for _, p := range d.Predictors {
		dirty.Predictors = append(dirty.Predictors, Column{p.Name, append(append([]float64(nil), p.Values...), math.NaN(), 2)})
	}
	got := GeneralDominance{}.Decompose(dirty)

	require.Len(t, got, len(clean))
	for i := range clean {
		assert.InDelta(t, clean[i].Value, got[i].Value, 1e-12)
	}
}

func TestGeneralDominance_Degenerate(t *testing.T) {
	t.Run("no complete rows", func(t *testing.T) {
		d := Design{
			Predictors: []Column{{"a", []float64{math.NaN(), 1}}},
			Response:   []float64{1, math.NaN()},
		}
		assert.Empty(t, GeneralDominance{}.Decompose(d))
		assert.Empty(t, ShapleyLMG{}.Decompose(d))
	})

	t.Run("constant response", func(t *testing.T) {
		d := Design{
			Predictors: []Column{{"a", []float64{1, 2, 3}}, {"b", []float64{3, 1, 2}}},
			Response:   []float64{5, 5, 5},
		}
		shares := GeneralDominance{}.Decompose(d)
		require.Len(t, shares, 2)
		for _, s := range shares {
			assert.True(t, math.IsNaN(s.Value))
			assert.True(t, math.IsNaN(s.Percent))
		}
	})
}

func TestNormalize(t *testing.T) {
	shares := normalize([]string{"a", "b"}, []float64{1, 3})
	assert.InDelta(t, 25.0, shares[0].Percent, 1e-12)
	assert.InDelta(t, 75.0, shares[1].Percent, 1e-12)

	zero := normalize([]string{"a", "b"}, []float64{1, -1})
	assert.True(t, math.IsNaN(zero[0].Percent))
	assert.True(t, math.IsNaN(zero[1].Percent))

	partial := normalize([]string{"a", "b"}, []float64{math.NaN(), 1})
	assert.True(t, math.IsNaN(partial[1].Percent))
}

func TestShapleyLMG_AgreesWithGeneralForTwoPredictors(t *testing.T) {
	d := correlatedDesign(5, 250)
	d.Predictors = d.Predictors[:2]

	general := GeneralDominance{}.Decompose(d)
	shapley := ShapleyLMG{}.Decompose(d)

	require.Len(t, shapley, 2)
	for i := range general {
		assert.InDelta(t, general[i].Value, shapley[i].Value, 1e-12)
		assert.InDelta(t, general[i].Percent, shapley[i].Percent, 1e-9)
	}
}

func TestShapleyLMG_SumsToFullR2(t *testing.T) {
	d := correlatedDesign(6, 300)
	d.Interactions = []Interaction{{Left: 1, Right: 0}, {Left: 1, Right: 2}}
	terms, y := d.expand()

	shares := ShapleyLMG{}.Decompose(d)

	var total float64
	for _, s := range shares {
		total += s.Value
	}
	assert.InDelta(t, R2(terms, y), total, 1e-10)
}

func TestShapleyLMG_DiffersFromGeneral(t *testing.T) {
	d := correlatedDesign(7, 300)

	general := GeneralDominance{}.Decompose(d)
	shapley := ShapleyLMG{}.Decompose(d)

	var maxDiff float64
	for i := range general {
		maxDiff = math.Max(maxDiff, math.Abs(general[i].Value-shapley[i].Value))
	}
	assert.Greater(t, maxDiff, 1e-6)
}

func TestShapleyWeights(t *testing.T) {
	w := shapleyWeights(3)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 6, 1.0 / 3}, w, 1e-15)
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", StrategyGeneral},
		{"general", StrategyGeneral},
		{" Shapley ", StrategyShapley},
		{"lmg", StrategyShapley},
	}
	for _, tt := range tests {
		s, err := StrategyByName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, s.Name())
	}

	_, err := StrategyByName("relative-weights")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownStrategy))
	assert.Contains(t, err.Error(), "general, shapley")
}
