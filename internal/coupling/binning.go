package coupling

import (
	"context"
	"math"
	"sort"

	model "myelinfc/domain/coupling"
)

// labelPrecision is the starting number of significant decimals in bin labels
const labelPrecision = 3

// Bin is one right-closed myelin interval and the edge rows inside it
type Bin struct {
	Label        string
	Lower, Upper float64
	Rows         []int
}

// Binning partitions edges by myelin quantile
type Binning struct {
	Breaks []float64
	Bins   []Bin
}

// Len returns the number of bins
func (b Binning) Len() int {
	return len(b.Bins)
}

// BinByMyelin cuts the edges into at most bins quantile intervals of myelin.
// Intervals are (lower, upper] except the first, which also holds its lower
// break. Repeated breaks are collapsed, so fewer bins may result; a constant
// column gives a single bin. Edges with missing myelin are not binned.
func BinByMyelin(edges *model.EdgeTable, bins int) Binning {
	breaks := quantileBreaks(edges.Myelin, bins)
	if len(breaks) == 0 {
		return Binning{}
	}
	if len(breaks) == 1 {
		// degenerate interval [c, c]
		breaks = []float64{breaks[0], breaks[0]}
	}
	labels := binLabels(breaks)

	out := Binning{Breaks: breaks, Bins: make([]Bin, len(breaks)-1)}
	for i := range out.Bins {
		out.Bins[i] = Bin{Label: labels[i], Lower: breaks[i], Upper: breaks[i+1]}
	}
	for k, v := range edges.Myelin {
		if math.IsNaN(v) {
			continue
		}
		idx := sort.SearchFloat64s(breaks, v)
		if v == breaks[0] {
			idx = 1
		}
		if idx == 0 || idx == len(breaks) {
			continue
		}
		out.Bins[idx-1].Rows = append(out.Bins[idx-1].Rows, k)
	}
	return out
}

// binLabels renders "(a, b]" labels with the shortest precision from 3 up
// that keeps the rounded breaks distinct. The first left edge is lowered by
// one unit of that precision so the lowest value reads as included.
func binLabels(breaks []float64) []string {
	precision := inferPrecision(labelPrecision, breaks)
	rounded := make([]float64, len(breaks))
	for i, b := range breaks {
		rounded[i] = roundFrac(b, precision)
	}
	rounded[0] -= math.Pow10(-precision)

	labels := make([]string, len(breaks)-1)
	for i := range labels {
		labels[i] = "(" + model.ReprFloat(rounded[i]) + ", " + model.ReprFloat(rounded[i+1]) + "]"
	}
	return labels
}

func inferPrecision(base int, breaks []float64) int {
	unique := make(map[float64]bool, len(breaks))
	for _, b := range breaks {
		unique[b] = true
	}
	for precision := base; precision < 20; precision++ {
		levels := make(map[float64]bool, len(breaks))
		for _, b := range breaks {
			levels[roundFrac(b, precision)] = true
		}
		if len(levels) == len(unique) {
			return precision
		}
	}
	return base
}

// roundFrac rounds to precision significant decimals for |x| < 1 and to
// precision decimals otherwise
func roundFrac(x float64, precision int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == 0 {
		return x
	}
	whole, frac := math.Modf(x)
	digits := precision
	if whole == 0 {
		digits = -int(math.Floor(math.Log10(math.Abs(frac)))) - 1 + precision
	}
	return around(x, digits)
}

// around rounds half to even at the given number of decimals
func around(x float64, digits int) float64 {
	if digits >= 0 {
		f := math.Pow10(digits)
		return math.RoundToEven(x*f) / f
	}
	f := math.Pow10(-digits)
	return math.RoundToEven(x/f) * f
}

// RunBinned runs the level inside every myelin bin and tags each row with its
// bin label. Bins that produce no rows are skipped.
func (r *Runner) RunBinned(ctx context.Context, edges *model.EdgeTable, level model.Level, withInteractions bool) (*model.ResultTable, error) {
	if _, err := model.ParseLevel(string(level)); err != nil {
		return nil, invalidLevel(level)
	}
	out := model.NewResultTable()
	for _, bin := range BinByMyelin(edges, r.cfg.MyelinBins).Bins {
		table, err := r.Run(ctx, edges.Subset(bin.Rows), level, withInteractions)
		if err != nil {
			return nil, err
		}
		if table.Empty() {
			continue
		}
		for i := range table.Rows {
			table.Rows[i].Bin = bin.Label
		}
		out.Extend(table)
	}
	return out, nil
}

// RunBinned is the one-shot form of Runner.RunBinned
func RunBinned(edges *model.EdgeTable, level model.Level, cfg model.Config, withInteractions bool) (*model.ResultTable, error) {
	r, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	return r.RunBinned(context.Background(), edges, level, withInteractions)
}
