package coupling

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"myelinfc/domain/core"
	"myelinfc/domain/dataset"
)

// MissingNode marks an endpoint id that was absent or unparseable
const MissingNode int64 = math.MinInt64

// EdgeTable is the columnar edge list consumed by the analysis.
// Missing numeric values are NaN, missing network labels are "".
type EdgeTable struct {
	I, J    []int64
	FC      []float64
	Caliber []float64
	Myelin  []float64
	Length  []float64
	RSNI    []string
	RSNJ    []string
}

// NewEdgeTable allocates an empty table with capacity for n edges
func NewEdgeTable(n int) *EdgeTable {
	return &EdgeTable{
		I:       make([]int64, 0, n),
		J:       make([]int64, 0, n),
		FC:      make([]float64, 0, n),
		Caliber: make([]float64, 0, n),
		Myelin:  make([]float64, 0, n),
		Length:  make([]float64, 0, n),
		RSNI:    make([]string, 0, n),
		RSNJ:    make([]string, 0, n),
	}
}

// Edge is a single row of the table
type Edge struct {
	I, J                        int64
	FC, Caliber, Myelin, Length float64
	RSNI, RSNJ                  string
}

// Append adds one edge
func (t *EdgeTable) Append(e Edge) {
	t.I = append(t.I, e.I)
	t.J = append(t.J, e.J)
	t.FC = append(t.FC, e.FC)
	t.Caliber = append(t.Caliber, e.Caliber)
	t.Myelin = append(t.Myelin, e.Myelin)
	t.Length = append(t.Length, e.Length)
	t.RSNI = append(t.RSNI, e.RSNI)
	t.RSNJ = append(t.RSNJ, e.RSNJ)
}

// Len returns the number of edges
func (t *EdgeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.FC)
}

// Row returns edge k
func (t *EdgeTable) Row(k int) Edge {
	return Edge{
		I: t.I[k], J: t.J[k],
		FC: t.FC[k], Caliber: t.Caliber[k], Myelin: t.Myelin[k], Length: t.Length[k],
		RSNI: t.RSNI[k], RSNJ: t.RSNJ[k],
	}
}

// Subset returns a new table holding the given rows, in the given order
func (t *EdgeTable) Subset(rows []int) *EdgeTable {
	out := NewEdgeTable(len(rows))
	for _, k := range rows {
		out.Append(t.Row(k))
	}
	return out
}

// AllRows returns the identity row-index set 0..n-1
func (t *EdgeTable) AllRows() []int {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// FromFrame builds a typed edge table using the column bindings.
// Every missing required column is reported in one error.
func FromFrame(f *dataset.Frame, cols Columns) (*EdgeTable, error) {
	if missing := f.MissingColumns(cols.Required()...); len(missing) > 0 {
		return nil, core.NewMissingColumnsError("edges", missing)
	}

	idx := func(name string) int { return f.ColumnIndex(name) }
	ci, cj := idx(cols.I), idx(cols.J)
	cfc, ccal, cmy, clen := idx(cols.FC), idx(cols.Caliber), idx(cols.Myelin), idx(cols.Length)
	cri, crj := idx(cols.RSNI), idx(cols.RSNJ)

	t := NewEdgeTable(f.Len())
	for r := 0; r < f.Len(); r++ {
		var e Edge
		var err error
		if e.I, err = ParseNodeID(f.Cell(r, ci)); err != nil {
			return nil, cellError(f, r, cols.I, err)
		}
		if e.J, err = ParseNodeID(f.Cell(r, cj)); err != nil {
			return nil, cellError(f, r, cols.J, err)
		}
		for _, target := range []struct {
			dst  *float64
			col  int
			name string
		}{
			{&e.FC, cfc, cols.FC},
			{&e.Caliber, ccal, cols.Caliber},
			{&e.Myelin, cmy, cols.Myelin},
			{&e.Length, clen, cols.Length},
		} {
			if *target.dst, err = ParseValue(f.Cell(r, target.col)); err != nil {
				return nil, cellError(f, r, target.name, err)
			}
		}
		e.RSNI = normalizeLabel(f.Cell(r, cri))
		e.RSNJ = normalizeLabel(f.Cell(r, crj))
		t.Append(e)
	}
	return t, nil
}

func cellError(f *dataset.Frame, row int, col string, err error) error {
	// +2: header line plus 1-based numbering
	return fmt.Errorf("%w: %s line %d column %q: %v", core.ErrMalformedValue, f.Name, row+2, col, err)
}

var missingTokens = map[string]bool{
	"": true, "na": true, "nan": true, "null": true, "none": true, "n/a": true,
}

func isMissing(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseValue parses a numeric cell; missing tokens become NaN
func ParseValue(s string) (float64, error) {
	if isMissing(s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// ParseNodeID parses an integer node id; integral floats such as "3.0" are accepted
func ParseNodeID(s string) (int64, error) {
	if isMissing(s) {
		return MissingNode, nil
	}
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer node id: %q", s)
	}
	return int64(f), nil
}

func normalizeLabel(s string) string {
	if isMissing(s) {
		return ""
	}
	return s
}

// NodeColumns names the columns of the optional node table
type NodeColumns struct {
	ID  string
	RSN string
}

// DefaultNodeColumns returns the conventional nodes.csv header names
func DefaultNodeColumns() NodeColumns {
	return NodeColumns{ID: "node_id", RSN: "rsn"}
}

// AttachNetworkLabels derives the endpoint network label columns from a node
// table when the edge frame lacks them. Unknown node ids get an empty label.
// It is a no-op when both label columns are already present or nodes is nil.
func AttachNetworkLabels(edges, nodes *dataset.Frame, cols Columns, nodeCols NodeColumns) error {
	if nodes == nil || (edges.HasColumn(cols.RSNI) && edges.HasColumn(cols.RSNJ)) {
		return nil
	}
	if missing := nodes.MissingColumns(nodeCols.ID, nodeCols.RSN); len(missing) > 0 {
		return fmt.Errorf("%w: nodes table must contain columns '%s' and '%s' to derive %s / %s",
			core.ErrMissingColumns, nodeCols.ID, nodeCols.RSN, cols.RSNI, cols.RSNJ)
	}

	ids, _ := nodes.Column(nodeCols.ID)
	rsn, _ := nodes.Column(nodeCols.RSN)
	lookup := make(map[int64]string, len(ids))
	for k, raw := range ids {
		id, err := ParseNodeID(raw)
		if err != nil || id == MissingNode {
			continue
		}
		if _, seen := lookup[id]; !seen {
			lookup[id] = rsn[k]
		}
	}

	for _, pair := range [][2]string{{cols.I, cols.RSNI}, {cols.J, cols.RSNJ}} {
		if edges.HasColumn(pair[1]) {
			continue
		}
		endpoints, err := edges.Column(pair[0])
		if err != nil {
			// the missing id column is reported by FromFrame
			continue
		}
		labels := make([]string, len(endpoints))
		for k, raw := range endpoints {
			if id, err := ParseNodeID(raw); err == nil {
				labels[k] = lookup[id]
			}
		}
		if err := edges.SetColumn(pair[1], labels); err != nil {
			return err
		}
	}
	return nil
}
