package run

import (
	"encoding/json"
	"strings"

	"myelinfc/domain/core"
	"myelinfc/domain/coupling"
)

// RunFingerprint identifies the determinism inputs of a run: the same input
// bytes, configuration and code version always produce the same results
type RunFingerprint struct {
	InputHashes []core.Hash `json:"input_hashes"`
	ConfigHash  core.Hash   `json:"config_hash"`
	CodeVersion string      `json:"code_version"`
	Fingerprint core.Hash   `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(inputs []core.Hash, cfg coupling.Config, codeVersion string) RunFingerprint {
	configHash := ConfigHash(cfg)
	parts := append(append([]core.Hash(nil), inputs...), configHash, core.Hash(codeVersion))
	return RunFingerprint{
		InputHashes: append([]core.Hash(nil), inputs...),
		ConfigHash:  configHash,
		CodeVersion: codeVersion,
		Fingerprint: core.Combine(parts...),
	}
}

// ConfigHash hashes the canonical JSON encoding of the configuration
func ConfigHash(cfg coupling.Config) core.Hash {
	data, err := json.Marshal(cfg)
	if err != nil {
		// Config holds only strings, bools, ints and slices of them
		panic(err)
	}
	return core.NewHash(data)
}

// SanitizeLabel turns an FC label into a directory name: surrounding space is
// trimmed, inner spaces become "_" and path separators become "-"
func SanitizeLabel(label string) string {
	r := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	return r.Replace(strings.TrimSpace(label))
}
