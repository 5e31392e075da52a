package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrMissingColumns = errors.New("required columns missing")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrEmptyInput     = errors.New("empty input table")
	ErrMalformedValue = errors.New("malformed value")

	// Argument errors
	ErrInvalidLevel    = errors.New("invalid level")
	ErrUnknownStrategy = errors.New("unknown dominance strategy")
	ErrUnknownCodec    = errors.New("unknown compression codec")
	ErrUnknownFormat   = errors.New("unknown table format")
)

// Error constructors with context
func NewMissingColumnsError(table string, missing []string) error {
	return fmt.Errorf("%w: %s table missing columns: [%s]", ErrMissingColumns, table, strings.Join(missing, ", "))
}

func NewInvalidConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingColumns) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrMalformedValue)
}

func IsArgumentError(err error) bool {
	return errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, ErrUnknownStrategy) ||
		errors.Is(err, ErrUnknownCodec) ||
		errors.Is(err, ErrUnknownFormat)
}
