package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"myelinfc/adapters/sqlstore"
	"myelinfc/app"
	"myelinfc/domain/run"
	"myelinfc/internal"
	"myelinfc/internal/config"
	"myelinfc/internal/errors"
)

// newMigrateCmd creates the run log schema and backfills it from the
// manifests of runs made without --record
func newMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate [results-dir]",
		Short: "Create the run log schema and import manifests found under a results directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := internal.DefaultLogger.With("migrate")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db-dsn") {
				cfg.Database.DSN = dsn
			}
			if cfg.Database.DSN == "" {
				return errors.ConfigInvalid("migrate needs --db-dsn or MYELINFC_DB_DSN")
			}

			db, err := sqlstore.Open(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()
			runLog, err := sqlstore.NewRunLog(ctx, db)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Run log schema is up to date")
				return nil
			}

			files, err := findManifests(args[0])
			if err != nil {
				return err
			}
			logger.Info("found %d manifests under %s", len(files), args[0])

			imported, skipped := 0, 0
			for _, file := range files {
				m, err := loadManifest(file)
				if err != nil {
					logger.Warn("skipping %s: %v", file, err)
					skipped++
					continue
				}
				exists, err := runLog.Has(ctx, m.RunID.String())
				if err != nil {
					return err
				}
				if exists {
					skipped++
					continue
				}
				if err := runLog.Record(ctx, m); err != nil {
					return err
				}
				imported++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d runs, skipped %d\n", imported, skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "db-dsn", "", "Database DSN (default MYELINFC_DB_DSN)")

	return cmd
}

func findManifests(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == app.ManifestFile {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.IOError("scan results directory", err)
	}
	return files, nil
}

func loadManifest(path string) (*run.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError("read manifest", err)
	}
	var m run.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "invalid manifest JSON")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
