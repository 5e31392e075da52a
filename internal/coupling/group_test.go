package coupling

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myelinfc/domain/core"
	model "myelinfc/domain/coupling"
	"myelinfc/internal/testkit"
)

func syntheticEdges(t *testing.T, seed int64) *model.EdgeTable {
	t.Helper()
	cfg := testkit.DefaultConnectomeConfig()
	cfg.Seed = seed
	edges := testkit.NewConnectomeGenerator(cfg).GenerateEdges()
	require.Greater(t, edges.Len(), 100)
	return edges
}

func termsOf(row model.ResultRow) (coefs, doms []string) {
	for _, c := range row.Coefficients {
		coefs = append(coefs, c.Term)
	}
	for _, d := range row.Dominance {
		doms = append(doms, d.Term)
	}
	return coefs, doms
}

func countMissingMyelin(edges *model.EdgeTable) int {
	n := 0
	for _, v := range edges.Myelin {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func TestFitGroup_Reduced(t *testing.T) {
	edges := syntheticEdges(t, 1)

	row, err := FitGroup(edges, edges.AllRows(), model.DefaultConfig(), false)
	require.NoError(t, err)

	coefs, doms := termsOf(row)
	assert.Equal(t, []string{"Intercept", "caliber", "myelin", "length"}, coefs)
	assert.Equal(t, []string{"caliber", "myelin", "length"}, doms)
	assert.Equal(t, edges.Len(), row.NEdges)
	assert.Equal(t, edges.Len()-countMissingMyelin(edges), row.NObs)
	assert.Greater(t, row.R2, 0.0)
	assert.Less(t, row.R2Adj, row.R2)

	var total float64
	for _, d := range row.Dominance {
		total += d.Percent
	}
	assert.InDelta(t, 100.0, total, 1e-9)

	for _, c := range row.Coefficients {
		assert.GreaterOrEqual(t, c.PValue, 0.0, c.Term)
		assert.LessOrEqual(t, c.PValue, 1.0, c.Term)
	}
}

func TestFitGroup_InteractionTerms(t *testing.T) {
	edges := syntheticEdges(t, 2)

	row, err := FitGroup(edges, edges.AllRows(), model.DefaultConfig(), true)
	require.NoError(t, err)

	coefs, doms := termsOf(row)
	assert.Equal(t, []string{"Intercept", "myelin", "caliber", "myelin_x_caliber", "length", "myelin_x_length"}, coefs)
	assert.Equal(t, []string{"caliber", "myelin", "length", "myelin_x_caliber", "myelin_x_length"}, doms)

	header := (&model.ResultTable{Rows: []model.ResultRow{row}}).Header()
	assert.Contains(t, header, "B_myelin_x_caliber")
	assert.Contains(t, header, "p_myelin_x_length")
	assert.Contains(t, header, "domfrac_myelin_x_caliber")
}

func TestFitGroup_StandardizationKeepsR2(t *testing.T) {
	edges := syntheticEdges(t, 3)
	raw := model.DefaultConfig()
	raw.StandardizePredictors = false
	raw.StandardizeResponse = false

	std, err := FitGroup(edges, edges.AllRows(), model.DefaultConfig(), false)
	require.NoError(t, err)
	plain, err := FitGroup(edges, edges.AllRows(), raw, false)
	require.NoError(t, err)

	assert.InDelta(t, plain.R2, std.R2, 1e-9)
	for i := range plain.Dominance {
		assert.InDelta(t, plain.Dominance[i].Percent, std.Dominance[i].Percent, 1e-7)
	}
	// the intercept of a fully standardized reduced model vanishes
	icpt, _ := std.Coefficient("Intercept")
	assert.InDelta(t, 0.0, icpt.Estimate, 0.05)
}

func TestFitGroup_CustomColumnNames(t *testing.T) {
	edges := syntheticEdges(t, 4)
	cfg := model.DefaultConfig()
	cfg.Columns.Myelin = "myelin fraction"

	row, err := FitGroup(edges, edges.AllRows(), cfg, true)
	require.NoError(t, err)

	coefs, _ := termsOf(row)
	assert.Contains(t, coefs, "myelin_fraction_x_caliber")
}

func TestFitGroup_ShapleyStrategy(t *testing.T) {
	edges := syntheticEdges(t, 5)
	cfg := model.DefaultConfig()
	cfg.Dominance = "shapley"

	row, err := FitGroup(edges, edges.AllRows(), cfg, true)
	require.NoError(t, err)

	var total float64
	for _, d := range row.Dominance {
		total += d.Value
	}
	assert.InDelta(t, row.R2, total, 1e-9)
}

func TestFitGroup_UnknownStrategy(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Dominance = "pratt"

	_, err := FitGroup(model.NewEdgeTable(0), nil, cfg, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownStrategy))
}

func TestFitGroup_AllMissing(t *testing.T) {
	edges := model.NewEdgeTable(2)
	nan := math.NaN()
	edges.Append(model.Edge{I: 1, J: 2, FC: 0.3, Caliber: 1, Myelin: nan, Length: 10})
	edges.Append(model.Edge{I: 2, J: 3, FC: 0.1, Caliber: 2, Myelin: nan, Length: 20})

	row, err := FitGroup(edges, edges.AllRows(), model.DefaultConfig(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, row.NEdges)
	assert.Equal(t, 0, row.NObs)
	assert.True(t, math.IsNaN(row.R2))
	assert.Empty(t, row.Dominance)
}
