package ports

import (
	"context"

	"myelinfc/domain/core"
	"myelinfc/domain/dataset"
	"myelinfc/domain/run"
)

// TableSource loads one raw table (edge list or node table)
type TableSource interface {
	// Load reads the whole table
	Load(ctx context.Context) (*dataset.Frame, error)
	// Describe names the source for logs and the manifest
	Describe() string
	// Fingerprint hashes the bytes read by the last Load
	Fingerprint() core.Hash
}

// TableSink persists flat result tables under an output directory
type TableSink interface {
	// WriteTable writes header and records as the named table.
	// name carries no extension; the sink appends its own.
	WriteTable(ctx context.Context, name string, header []string, records [][]string) (run.Output, error)
	// Dir is the directory the sink writes into
	Dir() string
}

// ReportRenderer turns a finished run into human-readable documents keyed by
// file name
type ReportRenderer interface {
	Render(ctx context.Context, summary run.Summary) (map[string][]byte, error)
}

// RunLog keeps a durable record of finished runs
type RunLog interface {
	Record(ctx context.Context, manifest *run.Manifest) error
}
