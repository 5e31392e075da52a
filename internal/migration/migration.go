package migration

import (
	"context"

	"myelinfc/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run log schema. Statements are idempotent and
// portable between Postgres and SQLite.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create myelinfc_runs table")
	}

	if err := r.createRunOutputsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create myelinfc_run_outputs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS myelinfc_runs (
			run_id VARCHAR(64) PRIMARY KEY,
			fc_label VARCHAR(255) NOT NULL,
			code_version VARCHAR(64) NOT NULL,
			started_at VARCHAR(40) NOT NULL,
			finished_at VARCHAR(40) NOT NULL,
			config_hash VARCHAR(32) NOT NULL,
			fingerprint VARCHAR(32) NOT NULL,
			config TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createRunOutputsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS myelinfc_run_outputs (
			run_id VARCHAR(64) NOT NULL REFERENCES myelinfc_runs(run_id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			path TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			hash VARCHAR(32) NOT NULL,
			PRIMARY KEY (run_id, name)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_myelinfc_runs_fingerprint ON myelinfc_runs(fingerprint)",
		"CREATE INDEX IF NOT EXISTS idx_myelinfc_runs_started_at ON myelinfc_runs(started_at)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}

	return nil
}
