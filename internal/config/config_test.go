package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myelinfc/domain/core"
	model "myelinfc/domain/coupling"
	apperrors "myelinfc/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, model.DefaultConfig(), cfg.Analysis)
	assert.Equal(t, "none", cfg.Output.Compress)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("MYELINFC_FC_LABEL", "MEG alpha")
	t.Setenv("MYELINFC_MYELIN_BINS", "4")
	t.Setenv("MYELINFC_STANDARDIZE_Y", "false")
	t.Setenv("MYELINFC_LEVELS_MAIN", "global, nodewise")
	t.Setenv("MYELINFC_LEVELS_BINNED", "rsn_pairs")
	t.Setenv("MYELINFC_DOMINANCE", "shapley")
	t.Setenv("MYELINFC_WORKERS", "3")
	t.Setenv("MYELINFC_COMPRESS", "ZSTD")
	t.Setenv("MYELINFC_FORMAT", "XLSX")

	cfg, err := Load()
	require.NoError(t, err)

	a := cfg.Analysis
	assert.Equal(t, "MEG alpha", a.FCLabel)
	assert.Equal(t, 4, a.MyelinBins)
	assert.True(t, a.StandardizePredictors)
	assert.False(t, a.StandardizeResponse)
	assert.Equal(t, []model.Level{model.LevelGlobal, model.LevelNodewise}, a.LevelsMain)
	assert.Equal(t, []model.Level{model.LevelRSNPairs}, a.LevelsBinned)
	assert.Equal(t, "shapley", a.Dominance)
	assert.Equal(t, 3, a.Workers)
	assert.Equal(t, "zstd", cfg.Output.Compress)
	assert.Equal(t, "xlsx", cfg.Output.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"MYELINFC_MYELIN_BINS", "five"},
		{"MYELINFC_MYELIN_BINS", "0"},
		{"MYELINFC_STANDARDIZE_X", "maybe"},
		{"MYELINFC_LEVELS_MAIN", "global,cortex"},
		{"MYELINFC_DOMINANCE", "relative-weights"},
		{"MYELINFC_COMPRESS", "bzip2"},
		{"MYELINFC_FORMAT", "parquet"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}

func TestLoad_InvalidLevelKeepsSentinel(t *testing.T) {
	t.Setenv("MYELINFC_LEVELS_BINNED", "lobe")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidLevel))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MYELINFC_FC_LABEL=dotenv-label\n"), 0o644))
	t.Setenv("MYELINFC_FC_LABEL", "")
	os.Unsetenv("MYELINFC_FC_LABEL")

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("MYELINFC_FC_LABEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-label", cfg.Analysis.FCLabel)

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"global", "rsn_pairs", "nodewise"}, SplitList(" global,rsn_pairs  nodewise,"))
	assert.Empty(t, SplitList(""))
}
