package tabular

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"myelinfc/domain/core"
)

// Codec is a stream compression applied to whole table files
type Codec string

const (
	CodecNone Codec = "none"
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
	CodecLZ4  Codec = "lz4"
)

var codecExtensions = map[Codec]string{
	CodecNone: "",
	CodecGzip: ".gz",
	CodecZstd: ".zst",
	CodecLZ4:  ".lz4",
}

// ParseCodec validates a codec name; the empty name means no compression
func ParseCodec(name string) (Codec, error) {
	c := Codec(strings.ToLower(strings.TrimSpace(name)))
	if c == "" {
		return CodecNone, nil
	}
	if _, ok := codecExtensions[c]; !ok {
		return "", fmt.Errorf("%w %q: must be one of none, gzip, zstd, lz4", core.ErrUnknownCodec, name)
	}
	return c, nil
}

// Extension returns the file suffix of the codec, "" for none
func (c Codec) Extension() string {
	return codecExtensions[c]
}

// DetectCodec infers the codec from a path suffix and returns the path with
// that suffix removed
func DetectCodec(path string) (Codec, string) {
	ext := strings.ToLower(filepath.Ext(path))
	for c, suffix := range codecExtensions {
		if suffix != "" && ext == suffix {
			return c, path[:len(path)-len(ext)]
		}
	}
	return CodecNone, path
}

// NewReader wraps r with the decompressor of c
func (c Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CodecNone, "":
		return io.NopCloser(r), nil
	case CodecGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case CodecZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, fmt.Errorf("%w %q", core.ErrUnknownCodec, string(c))
}

// NewWriter wraps w with the compressor of c. Closing the returned writer
// flushes the compressed stream but does not close w.
func (c Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecNone, "":
		return nopWriteCloser{w}, nil
	case CodecGzip:
		return gzip.NewWriter(w), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return enc, nil
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	}
	return nil, fmt.Errorf("%w %q", core.ErrUnknownCodec, string(c))
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
