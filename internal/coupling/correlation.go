package coupling

import (
	"math"

	"gonum.org/v1/gonum/stat"

	model "myelinfc/domain/coupling"
)

// BinCorrelations computes, per myelin bin, the Pearson correlation between FC
// and each structural predictor over pairwise-complete edges. Every bin is
// reported; a predictor without complete pairs gets NaN and a zero count.
func BinCorrelations(edges *model.EdgeTable, cfg model.Config) *model.CorrelationTable {
	predictors := []struct {
		name   string
		values []float64
	}{
		{cfg.Columns.Caliber, edges.Caliber},
		{cfg.Columns.Myelin, edges.Myelin},
		{cfg.Columns.Length, edges.Length},
	}

	table := &model.CorrelationTable{}
	for _, bin := range BinByMyelin(edges, cfg.MyelinBins).Bins {
		row := model.CorrelationRow{Bin: bin.Label}
		for _, p := range predictors {
			r, n := pairwiseCorrelation(gather(edges.FC, bin.Rows), gather(p.values, bin.Rows))
			row.Correlations = append(row.Correlations, model.PredictorCorrelation{
				Predictor: p.name, R: r, N: n,
			})
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func pairwiseCorrelation(x, y []float64) (float64, int) {
	rows := completeRows(x, y)
	if len(rows) == 0 {
		return math.NaN(), 0
	}
	return stat.Correlation(gather(x, rows), gather(y, rows), nil), len(rows)
}
