package run

import (
	"encoding/json"
	"testing"

	"myelinfc/domain/core"
	"myelinfc/domain/coupling"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	// same inputs produce identical fingerprints
	inputs := []core.Hash{core.NewHash([]byte("edges")), core.NewHash([]byte("nodes"))}
	cfg := coupling.DefaultConfig()

	fp1 := NewRunFingerprint(inputs, cfg, "1.0.0")
	fp2 := NewRunFingerprint(inputs, cfg, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.ConfigHash != ConfigHash(cfg) {
		t.Errorf("ConfigHash mismatch: %s vs %s", fp1.ConfigHash, ConfigHash(cfg))
	}
	if len(fp1.InputHashes) != 2 {
		t.Errorf("InputHashes length: got %d, want 2", len(fp1.InputHashes))
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	inputs := []core.Hash{core.NewHash([]byte("edges"))}
	base := NewRunFingerprint(inputs, coupling.DefaultConfig(), "1.0.0")

	moreBins := coupling.DefaultConfig()
	moreBins.MyelinBins = 10
	shapley := coupling.DefaultConfig()
	shapley.Dominance = "shapley"

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different input", NewRunFingerprint([]core.Hash{core.NewHash([]byte("edges v2"))}, coupling.DefaultConfig(), "1.0.0")},
		{"different bins", NewRunFingerprint(inputs, moreBins, "1.0.0")},
		{"different strategy", NewRunFingerprint(inputs, shapley, "1.0.0")},
		{"different version", NewRunFingerprint(inputs, coupling.DefaultConfig(), "1.1.0")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestManifest_Complete(t *testing.T) {
	runID := core.NewRunID()
	manifest := NewManifest(runID, coupling.DefaultConfig(), "1.0.0")

	if err := manifest.Validate(); err == nil {
		t.Errorf("Manifest without inputs should not validate")
	}

	manifest.AddInput(Input{Role: "edges", Source: "edges.csv", Rows: 10, Hash: core.NewHash([]byte("x"))})
	manifest.AddOutput(Output{Name: "global_full.csv", Path: "BOLD/global_full.csv", Rows: 1})
	manifest.Finish()

	if manifest.RunID != runID {
		t.Errorf("RunID not set correctly")
	}
	if manifest.FinishedAt.Sub(manifest.StartedAt) < 0 {
		t.Errorf("FinishedAt before StartedAt")
	}
	if manifest.Fingerprint.Fingerprint == "" {
		t.Errorf("Fingerprint not computed")
	}
	if _, ok := manifest.Output("global_full.csv"); !ok {
		t.Errorf("Output not recorded")
	}
	if err := manifest.Validate(); err != nil {
		t.Errorf("Manifest validation failed: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded Manifest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Fingerprint.Fingerprint != manifest.Fingerprint.Fingerprint {
		t.Errorf("Fingerprint lost in JSON round trip")
	}
}

func TestSanitizeLabel(t *testing.T) {
	testCases := map[string]string{
		"BOLD":            "BOLD",
		"  MEG alpha  ":   "MEG_alpha",
		"EEG/theta":       "EEG-theta",
		`fMRI\rest run 2`: "fMRI-rest_run_2",
	}
	for in, want := range testCases {
		if got := SanitizeLabel(in); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
