package regression

import (
	"fmt"
	"math"
	"strings"

	"myelinfc/domain/core"
)

// Column is a named predictor
type Column struct {
	Name   string
	Values []float64
}

// Interaction is the product term of two predictors, by index into
// Design.Predictors. It is named "<left>:<right>".
type Interaction struct {
	Left, Right int
}

// Design is the input of a dominance decomposition
type Design struct {
	Predictors   []Column
	Response     []float64
	Interactions []Interaction
}

// InteractionName returns the term name of an interaction
func (d Design) InteractionName(it Interaction) string {
	return d.Predictors[it.Left].Name + ":" + d.Predictors[it.Right].Name
}

// Terms lists the predictor names followed by the interaction names
func (d Design) Terms() []string {
	names := make([]string, 0, len(d.Predictors)+len(d.Interactions))
	for _, p := range d.Predictors {
		names = append(names, p.Name)
	}
	for _, it := range d.Interactions {
		names = append(names, d.InteractionName(it))
	}
	return names
}

// expand keeps the rows where the response and every predictor are present
// and returns the term columns (predictors, then interaction products) on
// those rows.
func (d Design) expand() ([][]float64, []float64) {
	var rows []int
	for i, v := range d.Response {
		if math.IsNaN(v) {
			continue
		}
		complete := true
		for _, p := range d.Predictors {
			if math.IsNaN(p.Values[i]) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}

	pick := func(values []float64) []float64 {
		out := make([]float64, len(rows))
		for k, r := range rows {
			out[k] = values[r]
		}
		return out
	}
	terms := make([][]float64, 0, len(d.Predictors)+len(d.Interactions))
	for _, p := range d.Predictors {
		terms = append(terms, pick(p.Values))
	}
	for _, it := range d.Interactions {
		terms = append(terms, Product(terms[it.Left], terms[it.Right]))
	}
	return terms, pick(d.Response)
}

// Share is the dominance of one term: its raw R² share and its percentage of
// the total
type Share struct {
	Term    string
	Value   float64
	Percent float64
}

// Strategy decomposes the model R² across terms
type Strategy interface {
	Name() string
	Decompose(d Design) []Share
}

const (
	StrategyGeneral = "general"
	StrategyShapley = "shapley"
)

// StrategyNames lists the selectable strategies
func StrategyNames() []string {
	return []string{StrategyGeneral, StrategyShapley}
}

// StrategyByName resolves a strategy; the empty name selects general dominance
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyGeneral:
		return GeneralDominance{}, nil
	case StrategyShapley, "lmg":
		return ShapleyLMG{}, nil
	}
	return nil, fmt.Errorf("%w %q: must be one of %s", core.ErrUnknownStrategy, name, strings.Join(StrategyNames(), ", "))
}

// subsets evaluates R² of term subsets encoded as bit masks, memoized
type subsets struct {
	terms [][]float64
	y     []float64
	memo  map[uint]float64
}

func newSubsets(terms [][]float64, y []float64) *subsets {
	return &subsets{terms: terms, y: y, memo: make(map[uint]float64)}
}

// r2 of the empty model is 0
func (s *subsets) r2(mask uint) float64 {
	if mask == 0 {
		return 0
	}
	if v, ok := s.memo[mask]; ok {
		return v
	}
	var cols [][]float64
	for k := range s.terms {
		if mask&(1<<k) != 0 {
			cols = append(cols, s.terms[k])
		}
	}
	v := R2(cols, s.y)
	s.memo[mask] = v
	return v
}

func (s *subsets) all() uint {
	return 1<<len(s.terms) - 1
}

// GeneralDominance averages, per term, its marginal contribution over the
// rest of the model and its individual R². The rest model of a main effect
// drops every interaction involving it; an interaction's individual R² is its
// increment over its two parents.
type GeneralDominance struct{}

func (GeneralDominance) Name() string { return StrategyGeneral }

func (GeneralDominance) Decompose(d Design) []Share {
	terms, y := d.expand()
	if len(y) == 0 {
		return nil
	}
	s := newSubsets(terms, y)
	all := s.all()
	full := s.r2(all)
	nMain := len(d.Predictors)
	dom := make([]float64, len(terms))

	for i := 0; i < nMain; i++ {
		drop := uint(1) << i
		for j, it := range d.Interactions {
			if it.Left == i || it.Right == i {
				drop |= 1 << (nMain + j)
			}
		}
		marginal := full - s.r2(all&^drop)
		individual := s.r2(1 << i)
		dom[i] = (marginal + individual) / 2
	}
	for j, it := range d.Interactions {
		bit := uint(1) << (nMain + j)
		parents := uint(1)<<it.Left | uint(1)<<it.Right
		marginal := full - s.r2(all&^bit)
		individual := s.r2(parents|bit) - s.r2(parents)
		dom[nMain+j] = (marginal + individual) / 2
	}
	return normalize(d.Terms(), dom)
}

// normalize attaches percentages; they are defined only when every value is
// finite and the total is nonzero
func normalize(names []string, values []float64) []Share {
	total := 0.0
	finite := true
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			finite = false
		}
		total += v
	}
	shares := make([]Share, len(values))
	for i, v := range values {
		pct := math.NaN()
		if finite && total != 0 {
			pct = v / total * 100
		}
		shares[i] = Share{Term: names[i], Value: v, Percent: pct}
	}
	return shares
}
