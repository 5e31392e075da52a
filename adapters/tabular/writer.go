package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"myelinfc/domain/core"
	"myelinfc/domain/run"
	"myelinfc/internal"
	"myelinfc/internal/errors"
	"myelinfc/ports"
)

// Output formats accepted by NewSink
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// NewSink returns a sink writing tables in format ("csv" or "xlsx") under
// dir. The codec only applies to csv; xlsx files are zip containers already.
func NewSink(dir, format string, codec Codec) (ports.TableSink, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		sink, err := NewCSVSink(dir, codec)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case FormatXLSX:
		sink, err := NewXLSXSink(dir)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	return nil, errors.InvalidArgument(core.ErrUnknownFormat,
		fmt.Sprintf("unknown output format %q: must be one of csv, xlsx", format))
}

// CSVSink writes each table as <name>.csv, compressed with its codec
type CSVSink struct {
	dir    string
	codec  Codec
	logger *internal.Logger
}

// NewCSVSink creates dir if needed
func NewCSVSink(dir string, codec Codec) (*CSVSink, error) {
	if codec == "" {
		codec = CodecNone
	}
	if _, ok := codecExtensions[codec]; !ok {
		return nil, errors.InvalidArgument(core.ErrUnknownCodec, fmt.Sprintf("unknown codec %q", string(codec)))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.IOError("create "+dir, err)
	}
	return &CSVSink{dir: dir, codec: codec, logger: internal.DefaultLogger.With("tabular")}, nil
}

// Dir returns the output directory
func (s *CSVSink) Dir() string {
	return s.dir
}

// WriteTable writes the table through a temp file renamed into place, so a
// failed write never leaves a truncated result behind
func (s *CSVSink) WriteTable(ctx context.Context, name string, header []string, records [][]string) (run.Output, error) {
	if err := ctx.Err(); err != nil {
		return run.Output{}, err
	}
	path := filepath.Join(s.dir, name+".csv"+s.codec.Extension())
	hash, err := writeAtomic(path, func(w io.Writer) error {
		stream, err := s.codec.NewWriter(w)
		if err != nil {
			return err
		}
		cw := csv.NewWriter(stream)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(records); err != nil {
			return err
		}
		return stream.Close()
	})
	if err != nil {
		return run.Output{}, errors.IOError("write "+path, err)
	}

	s.logger.Debug("wrote %s (%d rows)", path, len(records))
	return run.Output{Name: filepath.Base(path), Path: path, Rows: len(records), Hash: hash}, nil
}

// XLSXSink writes each table as a single-sheet <name>.xlsx workbook. Cells
// that parse as numbers are stored as numbers.
type XLSXSink struct {
	dir    string
	logger *internal.Logger
}

// NewXLSXSink creates dir if needed
func NewXLSXSink(dir string) (*XLSXSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.IOError("create "+dir, err)
	}
	return &XLSXSink{dir: dir, logger: internal.DefaultLogger.With("tabular")}, nil
}

// Dir returns the output directory
func (s *XLSXSink) Dir() string {
	return s.dir
}

// WriteTable streams rows into a workbook and saves it
func (s *XLSXSink) WriteTable(ctx context.Context, name string, header []string, records [][]string) (run.Output, error) {
	if err := ctx.Err(); err != nil {
		return run.Output{}, err
	}
	path := filepath.Join(s.dir, name+".xlsx")

	f := excelize.NewFile()
	defer f.Close()
	sheet := sheetName(name)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return run.Output{}, errors.IOError("write "+path, err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return run.Output{}, errors.IOError("write "+path, err)
	}
	if err := setRow(sw, 1, header, false); err != nil {
		return run.Output{}, errors.IOError("write "+path, err)
	}
	for i, record := range records {
		if err := setRow(sw, i+2, record, true); err != nil {
			return run.Output{}, errors.IOError("write "+path, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return run.Output{}, errors.IOError("write "+path, err)
	}

	hash, err := writeAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return run.Output{}, errors.IOError("write "+path, err)
	}

	s.logger.Debug("wrote %s (%d rows)", path, len(records))
	return run.Output{Name: filepath.Base(path), Path: path, Rows: len(records), Hash: hash}, nil
}

func setRow(sw *excelize.StreamWriter, row int, record []string, numeric bool) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(record))
	for i, v := range record {
		values[i] = v
		if numeric && v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				values[i] = f
			}
		}
	}
	return sw.SetRow(cell, values)
}

// sheetName trims a table name to the 31 characters Excel allows
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

// writeAtomic runs write against a temp file in the target directory, then
// renames it to path. It returns the hash of the bytes written.
func writeAtomic(path string, write func(w io.Writer) error) (core.Hash, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	hasher := core.NewHasher()
	if err := write(io.MultiWriter(tmp, hasher)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return hasher.Sum(), nil
}
