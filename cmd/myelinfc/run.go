package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"myelinfc/adapters/report"
	"myelinfc/adapters/sqlstore"
	"myelinfc/adapters/tabular"
	"myelinfc/app"
	model "myelinfc/domain/coupling"
	"myelinfc/internal"
	"myelinfc/internal/config"
	"myelinfc/internal/errors"
	"myelinfc/ports"
)

type runOptions struct {
	edges      string
	nodes      string
	sheet      string
	out        string
	edgesQuery string
	nodesQuery string
	dbDSN      string
	record     bool

	fcLabel            string
	levelsMain         []string
	levelsBinned       []string
	noStandardizeX     bool
	noStandardizeY     bool
	myelinBins         int
	dominance          string
	workers            int
	binnedInteractions bool
	compress           string
	format             string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit coupling models for every configured level and write the result tables",
		Long: `Fit FC ~ caliber + myelin + length (with and without myelin interactions) per
grouping level, plus the myelin-binned models and per-bin FC correlations.

Defaults come from MYELINFC_* environment variables (and .env); flags override them.
Results are written to <out>/<fc-label>/ together with manifest.json and a report.

Examples:
  myelinfc run --edges edges.csv --out results
  myelinfc run --edges edges.csv.zst --nodes nodes.xlsx --out results --fc-label "MEG alpha" --dominance shapley
  myelinfc run --db-dsn postgres://localhost/connectome --edges-query "SELECT * FROM edges" --out results --record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.edges, "edges", "", "Edge table (.csv, .tsv, .xlsx; optionally .gz, .zst or .lz4)")
	f.StringVar(&opts.nodes, "nodes", "", "Optional node table with node_id and rsn columns")
	f.StringVar(&opts.sheet, "sheet", "", "Worksheet of spreadsheet inputs (default first sheet)")
	f.StringVar(&opts.out, "out", "results", "Output directory")
	f.StringVar(&opts.edgesQuery, "edges-query", "", "SQL query returning the edge table (needs --db-dsn)")
	f.StringVar(&opts.nodesQuery, "nodes-query", "", "SQL query returning the node table (needs --db-dsn)")
	f.StringVar(&opts.dbDSN, "db-dsn", "", "Database DSN: postgres://... or sqlite:path (default MYELINFC_DB_DSN)")
	f.BoolVar(&opts.record, "record", false, "Record the finished run in the database run log")

	f.StringVar(&opts.fcLabel, "fc-label", "", "FC modality label naming the output subdirectory")
	f.StringSliceVar(&opts.levelsMain, "levels-main", nil, "Levels for full and reduced models: "+model.LevelNames())
	f.StringSliceVar(&opts.levelsBinned, "levels-binned", nil, "Levels for myelin-binned models")
	f.BoolVar(&opts.noStandardizeX, "no-standardize-x", false, "Do not z-score the predictors")
	f.BoolVar(&opts.noStandardizeY, "no-standardize-y", false, "Do not z-score FC")
	f.IntVar(&opts.myelinBins, "myelin-bins", 0, "Number of myelin quantile bins")
	f.StringVar(&opts.dominance, "dominance", "", "Dominance strategy: general or shapley")
	f.IntVar(&opts.workers, "workers", 0, "Concurrent group fits per level")
	f.BoolVar(&opts.binnedInteractions, "binned-interactions", false, "Include myelin interactions in binned models")
	f.StringVar(&opts.compress, "compress", "", "Compress CSV outputs: none, gzip, zstd or lz4")
	f.StringVar(&opts.format, "format", "", "Output table format: csv or xlsx")

	return cmd
}

func runAnalysis(cmd *cobra.Command, opts runOptions) error {
	ctx := cmd.Context()
	logger := internal.DefaultLogger.With("run")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, opts, cfg); err != nil {
		return err
	}

	codec, err := tabular.ParseCodec(cfg.Output.Compress)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	format := cfg.Output.Format
	sinks := func(dir string) (ports.TableSink, error) {
		return tabular.NewSink(dir, format, codec)
	}

	svc, err := app.NewCouplingService(cfg.Analysis, sinks, report.NewRenderer(), version)
	if err != nil {
		return err
	}

	var runLog *sqlstore.RunLog
	req := app.RunRequest{OutDir: opts.out}
	needsDB := opts.edgesQuery != "" || opts.nodesQuery != "" || opts.record
	if needsDB {
		if cfg.Database.DSN == "" {
			return errors.ConfigInvalid("--edges-query, --nodes-query and --record need --db-dsn or MYELINFC_DB_DSN")
		}
		db, err := sqlstore.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if opts.edgesQuery != "" {
			req.Edges = sqlstore.NewQuerySource(db, opts.edgesQuery)
		}
		if opts.nodesQuery != "" {
			req.Nodes = sqlstore.NewQuerySource(db, opts.nodesQuery)
		}
		if opts.record {
			if runLog, err = sqlstore.NewRunLog(ctx, db); err != nil {
				return err
			}
			svc.WithRunLog(runLog)
		}
	}

	if req.Edges == nil {
		if opts.edges == "" {
			return errors.InvalidInput("either --edges or --edges-query is required")
		}
		req.Edges = tabular.NewFileSource(opts.edges).WithSheet(opts.sheet)
	}
	if req.Nodes == nil && opts.nodes != "" {
		req.Nodes = tabular.NewFileSource(opts.nodes).WithSheet(opts.sheet)
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s wrote %d files to %s\n", result.Manifest.RunID, len(result.Manifest.Outputs), result.Dir)
	if runLog != nil {
		reportRepeats(ctx, runLog, result.Manifest.RunID.String(), result.Manifest.Fingerprint.Fingerprint.String(), logger)
	}
	return nil
}

// applyRunFlags overrides environment configuration with explicitly set flags
// and validates the result
func applyRunFlags(cmd *cobra.Command, opts runOptions, cfg *config.Config) error {
	f := cmd.Flags()
	a := &cfg.Analysis
	var err error

	if f.Changed("fc-label") {
		a.FCLabel = opts.fcLabel
	}
	if f.Changed("levels-main") {
		if a.LevelsMain, err = model.ParseLevels(trimAll(opts.levelsMain)); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}
	if f.Changed("levels-binned") {
		if a.LevelsBinned, err = model.ParseLevels(trimAll(opts.levelsBinned)); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}
	if f.Changed("no-standardize-x") {
		a.StandardizePredictors = !opts.noStandardizeX
	}
	if f.Changed("no-standardize-y") {
		a.StandardizeResponse = !opts.noStandardizeY
	}
	if f.Changed("myelin-bins") {
		a.MyelinBins = opts.myelinBins
	}
	if f.Changed("dominance") {
		a.Dominance = opts.dominance
	}
	if f.Changed("workers") {
		a.Workers = opts.workers
	}
	if f.Changed("binned-interactions") {
		a.BinnedInteractions = opts.binnedInteractions
	}
	if f.Changed("compress") {
		cfg.Output.Compress = strings.ToLower(opts.compress)
	}
	if f.Changed("format") {
		cfg.Output.Format = strings.ToLower(opts.format)
	}
	if f.Changed("db-dsn") {
		cfg.Database.DSN = opts.dbDSN
	}

	return config.Validate(cfg)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// reportRepeats notes earlier runs over the same inputs, configuration and
// code version; their results are identical
func reportRepeats(ctx context.Context, runLog *sqlstore.RunLog, runID, fingerprint string, logger *internal.Logger) {
	same, err := runLog.ByFingerprint(ctx, fingerprint)
	if err != nil {
		logger.Warn("run log lookup failed: %v", err)
		return
	}
	for _, rec := range same {
		if rec.RunID != runID {
			logger.Info("identical to run %s recorded at %s", rec.RunID, rec.StartedAt)
			return
		}
	}
}
