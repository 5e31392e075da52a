// Package coupling holds the domain model of the myelin/FC coupling analysis:
// the analysis configuration, the edge table and the per-group result tables.
package coupling

import (
	"fmt"
	"strings"

	"myelinfc/domain/core"
)

// Level is a grouping level of the edge table
type Level string

const (
	LevelGlobal   Level = "global"
	LevelRSNPairs Level = "rsn_pairs"
	LevelNodewise Level = "nodewise"
)

// Levels returns every supported level in canonical order
func Levels() []Level {
	return []Level{LevelGlobal, LevelRSNPairs, LevelNodewise}
}

// LevelNames renders the supported levels for messages and flag help
func LevelNames() string {
	names := make([]string, 0, 3)
	for _, l := range Levels() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

// ParseLevel validates a level name
func ParseLevel(s string) (Level, error) {
	switch Level(strings.TrimSpace(s)) {
	case LevelGlobal:
		return LevelGlobal, nil
	case LevelRSNPairs:
		return LevelRSNPairs, nil
	case LevelNodewise:
		return LevelNodewise, nil
	}
	return "", fmt.Errorf("%w %q: level must be one of %s", core.ErrInvalidLevel, s, LevelNames())
}

// ParseLevels validates a list of level names, rejecting duplicates
func ParseLevels(names []string) ([]Level, error) {
	seen := make(map[Level]bool, len(names))
	levels := make([]Level, 0, len(names))
	for _, n := range names {
		l, err := ParseLevel(n)
		if err != nil {
			return nil, err
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		levels = append(levels, l)
	}
	return levels, nil
}

// Columns binds the logical edge fields to column names in the input table
type Columns struct {
	I       string `json:"i"`
	J       string `json:"j"`
	FC      string `json:"fc"`
	Caliber string `json:"caliber"`
	Myelin  string `json:"myelin"`
	Length  string `json:"length"`
	RSNI    string `json:"rsn_i"`
	RSNJ    string `json:"rsn_j"`
}

// DefaultColumns returns the conventional edges.csv header names
func DefaultColumns() Columns {
	return Columns{
		I:       "i",
		J:       "j",
		FC:      "FC",
		Caliber: "caliber",
		Myelin:  "myelin",
		Length:  "length",
		RSNI:    "rsn_i",
		RSNJ:    "rsn_j",
	}
}

// Required lists all eight bound names in table order
func (c Columns) Required() []string {
	return []string{c.I, c.J, c.FC, c.Caliber, c.Myelin, c.Length, c.RSNI, c.RSNJ}
}

// Predictors lists the structural predictor names in model order
func (c Columns) Predictors() []string {
	return []string{c.Caliber, c.Myelin, c.Length}
}

// Config is the immutable analysis configuration passed into every core call
type Config struct {
	Columns Columns `json:"columns"`

	// Whether to z-score predictors / response before fitting
	StandardizePredictors bool `json:"standardize_predictors"`
	StandardizeResponse   bool `json:"standardize_response"`

	// Number of myelin quantile bins
	MyelinBins int `json:"myelin_bins"`

	// FC modality label; names the output subdirectory
	FCLabel string `json:"fc_label"`

	LevelsMain   []Level `json:"levels_main"`
	LevelsBinned []Level `json:"levels_binned"`

	// Dominance strategy name ("general" or "shapley")
	Dominance string `json:"dominance"`

	// Whether binned models include the two interaction terms
	BinnedInteractions bool `json:"binned_interactions"`

	// Concurrent group fits within one level run; 1 runs sequentially
	Workers int `json:"workers"`
}

// DefaultConfig returns the configuration-driven defaults
func DefaultConfig() Config {
	return Config{
		Columns:               DefaultColumns(),
		StandardizePredictors: true,
		StandardizeResponse:   true,
		MyelinBins:            5,
		FCLabel:               "BOLD",
		LevelsMain:            Levels(),
		LevelsBinned:          []Level{LevelGlobal},
		Dominance:             "general",
		BinnedInteractions:    false,
		Workers:               1,
	}
}

// Clone returns a deep copy so callers can derive variants without aliasing
func (c Config) Clone() Config {
	out := c
	out.LevelsMain = append([]Level(nil), c.LevelsMain...)
	out.LevelsBinned = append([]Level(nil), c.LevelsBinned...)
	return out
}

// Validate checks bindings and numeric settings
func (c Config) Validate() error {
	names := map[string]string{
		"i": c.Columns.I, "j": c.Columns.J, "FC": c.Columns.FC,
		"caliber": c.Columns.Caliber, "myelin": c.Columns.Myelin, "length": c.Columns.Length,
		"rsn_i": c.Columns.RSNI, "rsn_j": c.Columns.RSNJ,
	}
	for _, field := range []string{"i", "j", "FC", "caliber", "myelin", "length", "rsn_i", "rsn_j"} {
		if strings.TrimSpace(names[field]) == "" {
			return core.NewInvalidConfigError("columns."+field, "column name cannot be empty")
		}
	}
	if c.MyelinBins < 1 {
		return core.NewInvalidConfigError("myelin_bins", fmt.Sprintf("must be a positive integer, got %d", c.MyelinBins))
	}
	if c.Workers < 1 {
		return core.NewInvalidConfigError("workers", fmt.Sprintf("must be at least 1, got %d", c.Workers))
	}
	for _, l := range append(append([]Level(nil), c.LevelsMain...), c.LevelsBinned...) {
		if _, err := ParseLevel(string(l)); err != nil {
			return err
		}
	}
	return nil
}
