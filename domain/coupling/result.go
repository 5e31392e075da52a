package coupling

import (
	"math"
	"strconv"
	"strings"
)

// Coefficient is one fitted model term with its two-sided p-value
type Coefficient struct {
	Term     string  `json:"term"`
	Estimate float64 `json:"estimate"`
	PValue   float64 `json:"p_value"`
}

// DominanceShare is one dominance term: raw R² share and percentage of the total
type DominanceShare struct {
	Term    string  `json:"term"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// ResultRow holds the statistics of one group
type ResultRow struct {
	Level Level  `json:"level"`
	Key   string `json:"key"`
	Bin   string `json:"bin,omitempty"`

	NEdges int     `json:"n_edges"`
	NObs   int     `json:"n_obs"`
	R2     float64 `json:"r2"`
	R2Adj  float64 `json:"r2_adj"`

	Coefficients []Coefficient    `json:"coefficients"`
	Dominance    []DominanceShare `json:"dominance"`
}

// Coefficient looks up a term by its safe name
func (r ResultRow) Coefficient(term string) (Coefficient, bool) {
	for _, c := range r.Coefficients {
		if c.Term == term {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Share looks up a dominance term by its safe name
func (r ResultRow) Share(term string) (DominanceShare, bool) {
	for _, d := range r.Dominance {
		if d.Term == term {
			return d, true
		}
	}
	return DominanceShare{}, false
}

// cells flattens the row into named values, in column order
func (r ResultRow) cells() ([]string, map[string]string) {
	names := []string{"n_edges", "n_obs", "R2", "R2_adj"}
	values := map[string]string{
		"n_edges": strconv.Itoa(r.NEdges),
		"n_obs":   strconv.Itoa(r.NObs),
		"R2":      FormatFloat(r.R2),
		"R2_adj":  FormatFloat(r.R2Adj),
	}
	for _, c := range r.Coefficients {
		b, p := "B_"+c.Term, "p_"+c.Term
		names = append(names, b, p)
		values[b] = FormatFloat(c.Estimate)
		values[p] = FormatFloat(c.PValue)
	}
	for _, d := range r.Dominance {
		v, f := "dom_"+d.Term, "domfrac_"+d.Term
		names = append(names, v, f)
		values[v] = FormatFloat(d.Value)
		values[f] = FormatFloat(d.Percent)
	}
	names = append(names, "level", "key")
	values["level"] = string(r.Level)
	values["key"] = r.Key
	if r.Bin != "" {
		names = append(names, "bin")
		values["bin"] = r.Bin
	}
	return names, values
}

// ResultTable is an ordered collection of group results
type ResultTable struct {
	Rows []ResultRow `json:"rows"`
}

// NewResultTable creates an empty table
func NewResultTable() *ResultTable {
	return &ResultTable{}
}

// Len returns the row count
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t *ResultTable) Empty() bool {
	return t.Len() == 0
}

// Append adds rows at the end
func (t *ResultTable) Append(rows ...ResultRow) {
	t.Rows = append(t.Rows, rows...)
}

// Extend appends every row of other
func (t *ResultTable) Extend(other *ResultTable) {
	if other == nil {
		return
	}
	t.Rows = append(t.Rows, other.Rows...)
}

// Header is the union of all row columns in first-appearance order
func (t *ResultTable) Header() []string {
	var header []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		names, _ := r.cells()
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				header = append(header, n)
			}
		}
	}
	return header
}

// Records renders every row against Header; absent cells are empty
func (t *ResultTable) Records() [][]string {
	header := t.Header()
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		_, values := r.cells()
		rec := make([]string, len(header))
		for i, h := range header {
			rec[i] = values[h]
		}
		out = append(out, rec)
	}
	return out
}

// PredictorCorrelation is the FC correlation of one predictor within a bin
type PredictorCorrelation struct {
	Predictor string  `json:"predictor"`
	R         float64 `json:"r"`
	N         int     `json:"n"`
}

// CorrelationRow holds per-predictor correlations for one myelin bin
type CorrelationRow struct {
	Bin          string                 `json:"bin"`
	Correlations []PredictorCorrelation `json:"correlations"`
}

// CorrelationTable is one row per myelin bin
type CorrelationTable struct {
	Rows []CorrelationRow `json:"rows"`
}

// Len returns the row count
func (t *CorrelationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Header returns bin followed by <predictor>_r, <predictor>_n pairs
func (t *CorrelationTable) Header() []string {
	header := []string{"bin"}
	if len(t.Rows) == 0 {
		return header
	}
	for _, c := range t.Rows[0].Correlations {
		header = append(header, c.Predictor+"_r", c.Predictor+"_n")
	}
	return header
}

// Records renders the rows in Header order
func (t *CorrelationTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := []string{r.Bin}
		for _, c := range r.Correlations {
			rec = append(rec, FormatFloat(c.R), strconv.Itoa(c.N))
		}
		out = append(out, rec)
	}
	return out
}

// FormatFloat renders a value the way the CSV outputs expect: NaN is an empty
// cell, infinities are "inf"/"-inf", other values use the shortest
// round-trip representation with a decimal point kept for whole numbers.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return ReprFloat(v)
}

// ReprFloat renders a finite value in shortest round-trip form, positional
// notation for magnitudes in [1e-4, 1e16), scientific otherwise
func ReprFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(v, 'e', -1, 64)
}

// SafeTermName makes a model term usable as a column suffix: interaction
// separators become "_x_" and spaces become "_"
func SafeTermName(term string) string {
	return strings.ReplaceAll(strings.ReplaceAll(term, ":", "_x_"), " ", "_")
}
