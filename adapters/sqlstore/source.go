package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"myelinfc/domain/core"
	"myelinfc/domain/dataset"
	"myelinfc/internal"
	"myelinfc/internal/errors"
)

// QuerySource loads a table from the result set of one SQL query. Column
// names of the result become frame headers.
type QuerySource struct {
	db     *sqlx.DB
	query  string
	hash   core.Hash
	logger *internal.Logger
}

// NewQuerySource creates a source running query on db
func NewQuerySource(db *sqlx.DB, query string) *QuerySource {
	return &QuerySource{db: db, query: query, logger: internal.DefaultLogger.With("sqlstore")}
}

// Describe returns the query text
func (s *QuerySource) Describe() string {
	return s.query
}

// Fingerprint hashes the rendered result set of the last Load
func (s *QuerySource) Fingerprint() core.Hash {
	return s.hash
}

// Load runs the query and renders every value as text: NULL becomes "",
// floats use their shortest round-trip form
func (s *QuerySource) Load(ctx context.Context) (*dataset.Frame, error) {
	start := time.Now()
	rows, err := s.db.QueryxContext(ctx, s.query)
	if err != nil {
		return nil, errors.DatabaseError("edge query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read result columns", err)
	}

	hasher := core.NewHasher()
	writeRecord(hasher, columns)

	var records [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.DatabaseError("failed to scan result row", err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = renderValue(v)
		}
		writeRecord(hasher, record)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("failed to iterate result rows", err)
	}
	s.hash = hasher.Sum()

	frame := dataset.NewFrame("query", columns, records)
	s.logger.Debug("query returned %d rows in %.2fms", frame.Len(),
		float64(time.Since(start).Nanoseconds())/1e6)
	return frame, nil
}

func writeRecord(h *core.Hasher, record []string) {
	for _, cell := range record {
		h.WriteString(cell)
		h.WriteString("\x1f")
	}
	h.WriteString("\x1e")
}

func renderValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
