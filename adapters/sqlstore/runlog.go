package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"myelinfc/domain/core"
	"myelinfc/domain/run"
	"myelinfc/internal/errors"
	"myelinfc/internal/migration"
)

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRecord is one row of the run log
type RunRecord struct {
	RunID       string `db:"run_id"`
	FCLabel     string `db:"fc_label"`
	CodeVersion string `db:"code_version"`
	StartedAt   string `db:"started_at"`
	FinishedAt  string `db:"finished_at"`
	ConfigHash  string `db:"config_hash"`
	Fingerprint string `db:"fingerprint"`
	Config      string `db:"config"`
}

type outputRecord struct {
	RunID    string `db:"run_id"`
	Name     string `db:"name"`
	Path     string `db:"path"`
	RowCount int    `db:"row_count"`
	Hash     string `db:"hash"`
}

// RunLog records finished runs so repeated analyses of the same inputs can be
// found by fingerprint
type RunLog struct {
	db *sqlx.DB
}

// NewRunLog migrates the run log schema on db
func NewRunLog(ctx context.Context, db *sqlx.DB) (*RunLog, error) {
	var m migration.Migrator = migration.NewRunner()
	if err := m.Run(ctx, db); err != nil {
		return nil, errors.DatabaseError("run log migration failed", err)
	}
	return &RunLog{db: db}, nil
}

// Record stores a finished manifest and its outputs in one transaction
func (l *RunLog) Record(ctx context.Context, m *run.Manifest) error {
	config, err := json.Marshal(m.Config)
	if err != nil {
		return errors.Wrap(err, "failed to encode run config")
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin run log transaction", err)
	}
	defer tx.Rollback()

	rec := RunRecord{
		RunID:       m.RunID.String(),
		FCLabel:     m.Config.FCLabel,
		CodeVersion: m.CodeVersion,
		StartedAt:   m.StartedAt.Time().UTC().Format(timeLayout),
		FinishedAt:  m.FinishedAt.Time().UTC().Format(timeLayout),
		ConfigHash:  m.Fingerprint.ConfigHash.String(),
		Fingerprint: m.Fingerprint.Fingerprint.String(),
		Config:      string(config),
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO myelinfc_runs (
		run_id, fc_label, code_version, started_at, finished_at, config_hash, fingerprint, config
	) VALUES (
		:run_id, :fc_label, :code_version, :started_at, :finished_at, :config_hash, :fingerprint, :config
	)`, rec)
	if err != nil {
		return errors.DatabaseError("failed to record run", err)
	}

	for _, out := range m.Outputs {
		_, err = tx.NamedExecContext(ctx, `INSERT INTO myelinfc_run_outputs (
			run_id, name, path, row_count, hash
		) VALUES (
			:run_id, :name, :path, :row_count, :hash
		)`, outputRecord{RunID: rec.RunID, Name: out.Name, Path: out.Path, RowCount: out.Rows, Hash: out.Hash.String()})
		if err != nil {
			return errors.DatabaseError("failed to record run output "+out.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run log", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first
func (l *RunLog) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	var records []RunRecord
	query := l.db.Rebind(`SELECT run_id, fc_label, code_version, started_at, finished_at, config_hash, fingerprint, config
		FROM myelinfc_runs ORDER BY started_at DESC LIMIT ?`)
	if err := l.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return records, nil
}

// ByFingerprint returns earlier runs with the same determinism fingerprint,
// oldest first
func (l *RunLog) ByFingerprint(ctx context.Context, fingerprint string) ([]RunRecord, error) {
	var records []RunRecord
	query := l.db.Rebind(`SELECT run_id, fc_label, code_version, started_at, finished_at, config_hash, fingerprint, config
		FROM myelinfc_runs WHERE fingerprint = ? ORDER BY started_at`)
	if err := l.db.SelectContext(ctx, &records, query, fingerprint); err != nil {
		return nil, errors.DatabaseError("failed to look up runs", err)
	}
	return records, nil
}

// Outputs returns the files recorded for a run, by name
func (l *RunLog) Outputs(ctx context.Context, runID string) ([]run.Output, error) {
	var records []outputRecord
	query := l.db.Rebind(`SELECT run_id, name, path, row_count, hash
		FROM myelinfc_run_outputs WHERE run_id = ? ORDER BY name`)
	if err := l.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, errors.DatabaseError("failed to list run outputs", err)
	}
	outputs := make([]run.Output, len(records))
	for i, r := range records {
		outputs[i] = run.Output{Name: r.Name, Path: r.Path, Rows: r.RowCount, Hash: core.Hash(r.Hash)}
	}
	return outputs, nil
}

// Has reports whether a run is already recorded
func (l *RunLog) Has(ctx context.Context, runID string) (bool, error) {
	var n int
	query := l.db.Rebind(`SELECT COUNT(*) FROM myelinfc_runs WHERE run_id = ?`)
	if err := l.db.GetContext(ctx, &n, query, runID); err != nil {
		return false, errors.DatabaseError("failed to look up run", err)
	}
	return n > 0, nil
}
