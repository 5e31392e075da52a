// Package tabular reads and writes delimited and spreadsheet tables, with
// optional gzip, zstd or lz4 stream compression.
package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"myelinfc/domain/core"
	"myelinfc/domain/dataset"
	"myelinfc/internal"
	"myelinfc/internal/errors"
)

// FileSource reads a table from a .csv, .tsv, .txt or .xlsx file, each
// optionally compressed (.gz, .zst, .lz4)
type FileSource struct {
	path   string
	format string // "csv", "tsv" or "xlsx"
	codec  Codec
	sheet  string
	hash   core.Hash
	logger *internal.Logger
}

// NewFileSource creates a source for path, inferring format and codec from
// the file name
func NewFileSource(path string) *FileSource {
	codec, inner := DetectCodec(path)
	format := "csv"
	switch strings.ToLower(filepath.Ext(inner)) {
	case ".tsv", ".tab":
		format = "tsv"
	case ".xlsx", ".xlsm":
		format = "xlsx"
	}
	return &FileSource{path: path, format: format, codec: codec, logger: internal.DefaultLogger.With("tabular")}
}

// WithSheet selects a worksheet by name for spreadsheet input; the first
// sheet is read otherwise
func (s *FileSource) WithSheet(name string) *FileSource {
	s.sheet = name
	return s
}

// Describe returns the file path
func (s *FileSource) Describe() string {
	return s.path
}

// Fingerprint hashes the raw file bytes read by the last Load
func (s *FileSource) Fingerprint() core.Hash {
	return s.hash
}

// Load reads the whole file into a frame. A header row is required; a file
// without data rows yields an empty frame.
func (s *FileSource) Load(ctx context.Context) (*dataset.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("input file %s", s.path))
		}
		return nil, errors.IOError("open "+s.path, err)
	}
	defer file.Close()

	hasher := core.NewHasher()
	raw := io.TeeReader(file, hasher)
	stream, err := s.codec.NewReader(raw)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("decompress %s (%s)", s.path, s.codec), err)
	}
	defer stream.Close()

	var rows [][]string
	switch s.format {
	case "xlsx":
		rows, err = s.readSpreadsheet(stream)
	case "tsv":
		rows, err = readDelimited(stream, '\t')
	default:
		rows, err = readDelimited(stream, ',')
	}
	if err != nil {
		return nil, errors.IOError("read "+s.path, err)
	}
	// drain so the fingerprint covers the whole file
	if _, err := io.Copy(io.Discard, raw); err != nil {
		return nil, errors.IOError("read "+s.path, err)
	}
	s.hash = hasher.Sum()

	if len(rows) == 0 {
		return nil, errors.MissingInput(fmt.Errorf("%w: %s has no header row", core.ErrEmptyInput, s.path))
	}

	frame := dataset.NewFrame(filepath.Base(s.path), rows[0], rows[1:])
	s.logger.Debug("%s read in %.2fms (%d columns, %d rows)",
		s.path, float64(time.Since(start).Nanoseconds())/1e6, len(frame.Headers), frame.Len())
	return frame, nil
}

func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func (s *FileSource) readSpreadsheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	out := rows[:0]
	for _, row := range rows {
		if !isBlank(row) {
			out = append(out, row)
		}
	}
	return out, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
