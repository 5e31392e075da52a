package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"myelinfc/adapters/sqlstore"
	"myelinfc/internal/config"
	"myelinfc/internal/errors"
)

func newHistoryCmd() *cobra.Command {
	var dsn string
	var limit int
	var showOutputs bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded with run --record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db-dsn") {
				cfg.Database.DSN = dsn
			}
			if cfg.Database.DSN == "" {
				return errors.ConfigInvalid("history needs --db-dsn or MYELINFC_DB_DSN")
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
			records, err := runLog.Recent(ctx, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tFC LABEL\tSTARTED\tVERSION\tFINGERPRINT")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.RunID, r.FCLabel, r.StartedAt, r.CodeVersion, r.Fingerprint)
				if !showOutputs {
					continue
				}
				outputs, err := runLog.Outputs(ctx, r.RunID)
				if err != nil {
					return err
				}
				for _, o := range outputs {
					fmt.Fprintf(w, "\t  %s\t%d rows\t\t%s\n", o.Name, o.Rows, o.Hash)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dsn, "db-dsn", "", "Database DSN (default MYELINFC_DB_DSN)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&showOutputs, "outputs", false, "List the files of each run")

	return cmd
}
