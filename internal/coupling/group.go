// Package coupling fits the myelin/FC regression and dominance models per
// group of edges: globally, per network pair, per node and per myelin bin.
package coupling

import (
	"math"

	model "myelinfc/domain/coupling"
	"myelinfc/internal/regression"
)

// GroupFitter fits one group of edges with a fixed configuration
type GroupFitter struct {
	cfg      model.Config
	strategy regression.Strategy
}

// NewGroupFitter resolves the dominance strategy named in cfg
func NewGroupFitter(cfg model.Config) (*GroupFitter, error) {
	strategy, err := regression.StrategyByName(cfg.Dominance)
	if err != nil {
		return nil, err
	}
	return &GroupFitter{cfg: cfg.Clone(), strategy: strategy}, nil
}

// FitGroup fits the rows of edges with cfg; see GroupFitter.Fit
func FitGroup(edges *model.EdgeTable, rows []int, cfg model.Config, withInteractions bool) (model.ResultRow, error) {
	f, err := NewGroupFitter(cfg)
	if err != nil {
		return model.ResultRow{}, err
	}
	return f.Fit(edges, rows, withInteractions), nil
}

// Fit standardizes the selected rows, fits
//
//	FC ~ caliber + myelin + length
//
// or, with interactions,
//
//	FC ~ myelin + caliber + myelin:caliber + length + myelin:length
//
// on complete rows and decomposes R² across the same terms. Level and Key
// are left for the caller.
func (f *GroupFitter) Fit(edges *model.EdgeTable, rows []int, withInteractions bool) model.ResultRow {
	cols := f.cfg.Columns
	fc := gather(edges.FC, rows)
	cal := gather(edges.Caliber, rows)
	my := gather(edges.Myelin, rows)
	ln := gather(edges.Length, rows)

	if f.cfg.StandardizePredictors {
		cal, my, ln = regression.ZScore(cal), regression.ZScore(my), regression.ZScore(ln)
	}
	if f.cfg.StandardizeResponse {
		fc = regression.ZScore(fc)
	}

	complete := completeRows(fc, cal, my, ln)
	y := gather(fc, complete)
	c, m, l := gather(cal, complete), gather(my, complete), gather(ln, complete)

	var names []string
	var columns [][]float64
	if withInteractions {
		names = []string{
			cols.Myelin, cols.Caliber, cols.Myelin + ":" + cols.Caliber,
			cols.Length, cols.Myelin + ":" + cols.Length,
		}
		columns = [][]float64{m, c, regression.Product(m, c), l, regression.Product(m, l)}
	} else {
		names = []string{cols.Caliber, cols.Myelin, cols.Length}
		columns = [][]float64{c, m, l}
	}
	fit := regression.FitOLS(names, columns, y)

	row := model.ResultRow{
		NEdges: len(rows),
		NObs:   fit.NObs,
		R2:     fit.R2,
		R2Adj:  fit.R2Adj,
	}
	for _, coef := range fit.Coefficients {
		row.Coefficients = append(row.Coefficients, model.Coefficient{
			Term:     model.SafeTermName(coef.Name),
			Estimate: coef.Estimate,
			PValue:   coef.PValue,
		})
	}

	design := regression.Design{
		Predictors: []regression.Column{
			{Name: cols.Caliber, Values: cal},
			{Name: cols.Myelin, Values: my},
			{Name: cols.Length, Values: ln},
		},
		Response: fc,
	}
	if withInteractions {
		design.Interactions = []regression.Interaction{{Left: 1, Right: 0}, {Left: 1, Right: 2}}
	}
	for _, s := range f.strategy.Decompose(design) {
		row.Dominance = append(row.Dominance, model.DominanceShare{
			Term:    model.SafeTermName(s.Term),
			Value:   s.Value,
			Percent: s.Percent,
		})
	}
	return row
}

func gather(values []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for k, r := range rows {
		out[k] = values[r]
	}
	return out
}

// completeRows returns the positions where every column is present
func completeRows(columns ...[]float64) []int {
	if len(columns) == 0 {
		return nil
	}
	var rows []int
	for i := range columns[0] {
		ok := true
		for _, col := range columns {
			if math.IsNaN(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}
