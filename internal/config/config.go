package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	model "myelinfc/domain/coupling"
	"myelinfc/internal/errors"
	"myelinfc/internal/regression"
)

// Config represents the complete application configuration
type Config struct {
	Analysis model.Config
	Output   OutputConfig
	Database DatabaseConfig
	LogLevel string
}

// OutputConfig holds result writing settings
type OutputConfig struct {
	Format   string // csv or xlsx
	Compress string // none, gzip, zstd or lz4; csv only
}

// DatabaseConfig holds the optional SQL edge source connection
type DatabaseConfig struct {
	DSN string
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. A missing default .env is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load env file")
	}
	return nil
}

// Load reads configuration from environment variables on top of the analysis
// defaults and validates it
func Load() (*Config, error) {
	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	config := &Config{
		Analysis: analysis,
		Output: OutputConfig{
			Format:   strings.ToLower(getEnvOrDefault("MYELINFC_FORMAT", "csv")),
			Compress: strings.ToLower(getEnvOrDefault("MYELINFC_COMPRESS", "none")),
		},
		Database: DatabaseConfig{
			DSN: getEnvOrDefault("MYELINFC_DB_DSN", ""),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadAnalysisConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	var err error

	cfg.FCLabel = getEnvOrDefault("MYELINFC_FC_LABEL", cfg.FCLabel)
	cfg.Dominance = getEnvOrDefault("MYELINFC_DOMINANCE", cfg.Dominance)

	if cfg.MyelinBins, err = getEnvInt("MYELINFC_MYELIN_BINS", cfg.MyelinBins); err != nil {
		return cfg, err
	}
	if cfg.Workers, err = getEnvInt("MYELINFC_WORKERS", cfg.Workers); err != nil {
		return cfg, err
	}
	if cfg.StandardizePredictors, err = getEnvBool("MYELINFC_STANDARDIZE_X", cfg.StandardizePredictors); err != nil {
		return cfg, err
	}
	if cfg.StandardizeResponse, err = getEnvBool("MYELINFC_STANDARDIZE_Y", cfg.StandardizeResponse); err != nil {
		return cfg, err
	}
	if cfg.BinnedInteractions, err = getEnvBool("MYELINFC_BINNED_INTERACTIONS", cfg.BinnedInteractions); err != nil {
		return cfg, err
	}
	if cfg.LevelsMain, err = getEnvLevels("MYELINFC_LEVELS_MAIN", cfg.LevelsMain); err != nil {
		return cfg, err
	}
	if cfg.LevelsBinned, err = getEnvLevels("MYELINFC_LEVELS_BINNED", cfg.LevelsBinned); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the assembled configuration
func Validate(config *Config) error {
	if err := config.Analysis.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := regression.StrategyByName(config.Analysis.Dominance); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	switch config.Output.Format {
	case "", "csv", "xlsx":
	default:
		return errors.ConfigInvalid("MYELINFC_FORMAT must be one of csv, xlsx, got " + strconv.Quote(config.Output.Format))
	}
	switch config.Output.Compress {
	case "", "none", "gzip", "zstd", "lz4":
	default:
		return errors.ConfigInvalid("MYELINFC_COMPRESS must be one of none, gzip, zstd, lz4, got " + strconv.Quote(config.Output.Compress))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, errors.ConfigInvalid(key + " must be an integer, got " + strconv.Quote(value))
	}
	return intValue, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, errors.ConfigInvalid(key + " must be a boolean, got " + strconv.Quote(value))
	}
	return boolValue, nil
}

func getEnvLevels(key string, defaultValue []model.Level) ([]model.Level, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	levels, err := model.ParseLevels(SplitList(value))
	if err != nil {
		return defaultValue, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return levels, nil
}

// SplitList splits a comma or whitespace separated list, dropping empty items
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
