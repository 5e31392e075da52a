package dataset

import (
	"fmt"
	"strings"
)

// Frame is a raw tabular dataset: trimmed headers plus string cells.
// Readers for every input format produce a Frame; typed tables are built from it.
type Frame struct {
	Name    string     // Source label used in messages (file name, query)
	Headers []string   // Column headers
	Rows    [][]string // Data rows, possibly shorter than Headers
}

// NewFrame builds a frame from a header row and data rows, trimming headers
func NewFrame(name string, headers []string, rows [][]string) *Frame {
	h := make([]string, len(headers))
	for i, header := range headers {
		h[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}
	return &Frame{Name: name, Headers: h, Rows: rows}
}

// Len returns the number of data rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// ColumnIndex returns the position of a header, or -1
func (f *Frame) ColumnIndex(name string) int {
	for i, h := range f.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the header exists
func (f *Frame) HasColumn(name string) bool {
	return f.ColumnIndex(name) >= 0
}

// MissingColumns returns the requested names absent from the headers, in request order
func (f *Frame) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !f.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Cell returns the trimmed value at (row, col); short rows yield ""
func (f *Frame) Cell(row, col int) string {
	r := f.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Column returns all values of the named column
func (f *Frame) Column(name string) ([]string, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in %s", name, f.Name)
	}
	out := make([]string, len(f.Rows))
	for i := range f.Rows {
		out[i] = f.Cell(i, idx)
	}
	return out, nil
}

// SetColumn appends a new column or replaces an existing one.
// values must have one entry per row.
func (f *Frame) SetColumn(name string, values []string) error {
	if len(values) != len(f.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(f.Rows))
	}
	idx := f.ColumnIndex(name)
	if idx < 0 {
		f.Headers = append(f.Headers, name)
		idx = len(f.Headers) - 1
	}
	for i := range f.Rows {
		for len(f.Rows[i]) <= idx {
			f.Rows[i] = append(f.Rows[i], "")
		}
		f.Rows[i][idx] = values[i]
	}
	return nil
}
