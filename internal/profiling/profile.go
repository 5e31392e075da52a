package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	model "myelinfc/domain/coupling"
	"myelinfc/domain/run"
)

// ProfileEdges profiles FC and the three structural predictors, in that order
func ProfileEdges(edges *model.EdgeTable, cols model.Columns) ([]run.ColumnProfile, error) {
	columns := []struct {
		name   string
		values []float64
	}{
		{cols.FC, edges.FC},
		{cols.Caliber, edges.Caliber},
		{cols.Myelin, edges.Myelin},
		{cols.Length, edges.Length},
	}
	out := make([]run.ColumnProfile, 0, len(columns))
	for _, c := range columns {
		p, err := ProfileColumn(c.name, c.values)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProfileColumn summarizes the non-NaN values of a column. A column without
// values reports its missing count and NaN statistics.
func ProfileColumn(name string, values []float64) (run.ColumnProfile, error) {
	p := run.ColumnProfile{Column: name}
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			p.Missing++
			continue
		}
		data = append(data, v)
	}
	p.Count = len(data)
	if p.Count == 0 {
		nan := math.NaN()
		p.Mean, p.StdDev, p.Min, p.Q25, p.Median, p.Q75, p.Max = nan, nan, nan, nan, nan, nan, nan
		p.Skewness, p.Kurtosis = nan, nan
		return p, nil
	}

	var err error
	if p.Mean, err = data.Mean(); err != nil {
		return p, err
	}
	if p.StdDev, err = data.StandardDeviation(); err != nil {
		return p, err
	}
	if p.Min, err = data.Min(); err != nil {
		return p, err
	}
	if p.Max, err = data.Max(); err != nil {
		return p, err
	}
	if p.Median, err = data.Median(); err != nil {
		return p, err
	}
	// Nearest-rank quartiles, defined for any non-empty column
	if p.Q25, err = data.PercentileNearestRank(25); err != nil {
		return p, err
	}
	if p.Q75, err = data.PercentileNearestRank(75); err != nil {
		return p, err
	}

	p.Skewness = skewness(data, p.Mean, p.StdDev)
	p.Kurtosis = kurtosis(data, p.Mean, p.StdDev)
	p.Outliers = countOutliers(data, p.Q25, p.Q75)
	return p, nil
}

// skewness is the adjusted Fisher-Pearson coefficient; NaN below three
// values or for a constant column
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return math.NaN()
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	// Bias correction for sample skewness
	return sumCubedDeviations / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// kurtosis is the bias-corrected sample excess kurtosis; NaN below four
// values or for a constant column
func kurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return math.NaN()
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	excess := sumFourthDeviations/n - 3
	correction := (n - 1) / ((n - 2) * (n - 3))
	return excess*correction + 6/(n+1)
}

// countOutliers counts values outside the 1.5 IQR fences
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
