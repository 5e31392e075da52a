package run

import (
	"myelinfc/domain/core"
	"myelinfc/domain/coupling"
)

// Input describes one table the run read
type Input struct {
	Role   string    `json:"role"`   // edges or nodes
	Source string    `json:"source"` // file path or SQL query
	Rows   int       `json:"rows"`
	Hash   core.Hash `json:"hash"`
}

// Output describes one file the run wrote
type Output struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Rows int       `json:"rows"`
	Hash core.Hash `json:"hash"`
}

// Manifest is the record of one analysis run, written next to its results
type Manifest struct {
	RunID       core.RunID      `json:"run_id"`
	CodeVersion string          `json:"code_version"`
	StartedAt   core.Timestamp  `json:"started_at"`
	FinishedAt  core.Timestamp  `json:"finished_at"`
	Config      coupling.Config `json:"config"`
	Inputs      []Input         `json:"inputs"`
	Outputs     []Output        `json:"outputs"`
	Fingerprint RunFingerprint  `json:"fingerprint"` // Determinism fingerprint
}

// NewManifest starts a manifest for a run beginning now
func NewManifest(runID core.RunID, cfg coupling.Config, codeVersion string) *Manifest {
	return &Manifest{
		RunID:       runID,
		CodeVersion: codeVersion,
		StartedAt:   core.Now(),
		Config:      cfg.Clone(),
	}
}

// AddInput records a loaded table
func (m *Manifest) AddInput(in Input) {
	m.Inputs = append(m.Inputs, in)
}

// AddOutput records a written file
func (m *Manifest) AddOutput(out Output) {
	m.Outputs = append(m.Outputs, out)
}

// Finish stamps the end time and computes the fingerprint over the inputs
func (m *Manifest) Finish() {
	m.FinishedAt = core.Now()
	hashes := make([]core.Hash, len(m.Inputs))
	for i, in := range m.Inputs {
		hashes[i] = in.Hash
	}
	m.Fingerprint = NewRunFingerprint(hashes, m.Config, m.CodeVersion)
}

// Output looks up a written file by name
func (m *Manifest) Output(name string) (Output, bool) {
	for _, o := range m.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewInvalidConfigError("run_manifest", "run_id cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewInvalidConfigError("run_manifest", "code_version cannot be empty")
	}
	if len(m.Inputs) == 0 {
		return core.NewInvalidConfigError("run_manifest", "at least one input is required")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewInvalidConfigError("run_manifest", "fingerprint not computed")
	}
	return nil
}

// Highlight is one result row featured in the run report
type Highlight struct {
	Table string             `json:"table"`
	Row   coupling.ResultRow `json:"row"`
}

// Summary gathers what the run report shows
type Summary struct {
	Manifest     *Manifest
	Profile      []ColumnProfile
	Highlights   []Highlight
	Correlations *coupling.CorrelationTable
}

// ColumnProfile describes the distribution of one numeric input column
type ColumnProfile struct {
	Column   string
	Count    int // non-missing values
	Missing  int
	Mean     float64
	StdDev   float64
	Min      float64
	Q25      float64
	Median   float64
	Q75      float64
	Max      float64
	Skewness float64
	Kurtosis float64
	Outliers int // outside 1.5 IQR of the quartiles
}
