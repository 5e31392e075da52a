package app

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"myelinfc/domain/core"
	model "myelinfc/domain/coupling"
	"myelinfc/domain/run"
	"myelinfc/internal"
	"myelinfc/internal/coupling"
	"myelinfc/internal/errors"
	"myelinfc/internal/profiling"
	"myelinfc/ports"
)

// ManifestFile is written next to the result tables of every run
const ManifestFile = "manifest.json"

// CorrelationTableName is the per-bin FC correlation table, always written
const CorrelationTableName = "global_bin_corr"

// SinkFactory opens a table sink writing into dir
type SinkFactory func(dir string) (ports.TableSink, error)

// RunRequest names the inputs of one run and the directory results go under.
// Results land in OutDir/<sanitized FC label>.
type RunRequest struct {
	Edges  ports.TableSource
	Nodes  ports.TableSource // optional
	OutDir string
}

// RunResult is what a finished run produced
type RunResult struct {
	Dir          string
	Manifest     *run.Manifest
	Tables       map[string]*model.ResultTable
	Correlations *model.CorrelationTable
}

// CouplingService runs the full analysis: load, fit every configured level,
// write result tables, the manifest and the report
type CouplingService struct {
	runner   *coupling.Runner
	sinks    SinkFactory
	renderer ports.ReportRenderer
	runLog   ports.RunLog
	version  string
	logger   *internal.Logger
}

// NewCouplingService validates cfg and wires the output side. renderer may be
// nil to skip the report.
func NewCouplingService(cfg model.Config, sinks SinkFactory, renderer ports.ReportRenderer, version string) (*CouplingService, error) {
	runner, err := coupling.NewRunner(cfg)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return &CouplingService{
		runner:   runner,
		sinks:    sinks,
		renderer: renderer,
		version:  version,
		logger:   internal.DefaultLogger.With("coupling"),
	}, nil
}

// WithRunLog records every finished run in log
func (s *CouplingService) WithRunLog(log ports.RunLog) *CouplingService {
	s.runLog = log
	return s
}

// WithLogger replaces the default logger
func (s *CouplingService) WithLogger(logger *internal.Logger) *CouplingService {
	s.logger = logger
	return s
}

// Run executes one analysis. Any load, fit or write failure aborts the run;
// a failing run log only produces a warning since the results are on disk.
func (s *CouplingService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	cfg := s.runner.Config()
	manifest := run.NewManifest(core.NewRunID(), cfg, s.version)
	start := time.Now()
	s.logger.Info("run %s started (fc_label=%s, dominance=%s)", manifest.RunID, cfg.FCLabel, cfg.Dominance)

	edges, err := s.loadEdges(ctx, req, manifest)
	if err != nil {
		return nil, err
	}
	profile, err := profiling.ProfileEdges(edges, cfg.Columns)
	if err != nil {
		s.logger.Warn("input profile skipped: %v", err)
	}

	dir := filepath.Join(req.OutDir, run.SanitizeLabel(cfg.FCLabel))
	sink, err := s.sinks(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open output directory")
	}
	result := &RunResult{Dir: sink.Dir(), Manifest: manifest, Tables: make(map[string]*model.ResultTable)}
	var highlights []run.Highlight

	write := func(name string, table *model.ResultTable) error {
		result.Tables[name] = table
		if table.Empty() {
			s.logger.Info("%s: no groups, nothing written", name)
			return nil
		}
		out, err := sink.WriteTable(ctx, name, table.Header(), table.Records())
		if err != nil {
			return errors.Wrapf(err, "failed to write %s", name)
		}
		manifest.AddOutput(out)
		if best, ok := bestFit(table); ok {
			highlights = append(highlights, run.Highlight{Table: name, Row: best})
		}
		s.logger.Info("%s: %d groups", name, table.Len())
		return nil
	}

	for _, level := range cfg.LevelsMain {
		for _, variant := range []struct {
			suffix       string
			interactions bool
		}{{"full", true}, {"reduced", false}} {
			table, err := s.runner.Run(ctx, edges, level, variant.interactions)
			if err != nil {
				return nil, errors.Wrapf(err, "%s level run failed", level)
			}
			if err := write(string(level)+"_"+variant.suffix, table); err != nil {
				return nil, err
			}
		}
	}

	for _, level := range cfg.LevelsBinned {
		table, err := s.runner.RunBinned(ctx, edges, level, cfg.BinnedInteractions)
		if err != nil {
			return nil, errors.Wrapf(err, "%s binned run failed", level)
		}
		if err := write(string(level)+"_bins", table); err != nil {
			return nil, err
		}
	}

	corr := coupling.BinCorrelations(edges, cfg)
	result.Correlations = corr
	out, err := sink.WriteTable(ctx, CorrelationTableName, corr.Header(), corr.Records())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", CorrelationTableName)
	}
	manifest.AddOutput(out)

	manifest.Finish()
	if err := s.writeReport(ctx, sink.Dir(), run.Summary{Manifest: manifest, Profile: profile, Highlights: highlights, Correlations: corr}); err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInternalError, err)
	}
	if err := writeJSON(filepath.Join(sink.Dir(), ManifestFile), manifest); err != nil {
		return nil, errors.IOError("write "+ManifestFile, err)
	}

	if s.runLog != nil {
		if err := s.runLog.Record(ctx, manifest); err != nil {
			s.logger.Warn("run %s not recorded in run log: %v", manifest.RunID, err)
		}
	}

	s.logger.Info("run %s finished in %s: %d files in %s (fingerprint %s)",
		manifest.RunID, time.Since(start).Round(time.Millisecond), len(manifest.Outputs), sink.Dir(), manifest.Fingerprint.Fingerprint)
	return result, nil
}

// loadEdges reads the edge table, joins network labels from the node table
// when one is given and parses the typed edge table
func (s *CouplingService) loadEdges(ctx context.Context, req RunRequest, manifest *run.Manifest) (*model.EdgeTable, error) {
	if req.Edges == nil {
		return nil, errors.InvalidInput("an edge table source is required")
	}
	cfg := manifest.Config

	frame, err := req.Edges.Load(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load edges from %s", req.Edges.Describe())
	}
	manifest.AddInput(run.Input{Role: "edges", Source: req.Edges.Describe(), Rows: frame.Len(), Hash: req.Edges.Fingerprint()})

	if req.Nodes != nil {
		nodes, err := req.Nodes.Load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load nodes from %s", req.Nodes.Describe())
		}
		manifest.AddInput(run.Input{Role: "nodes", Source: req.Nodes.Describe(), Rows: nodes.Len(), Hash: req.Nodes.Fingerprint()})
		if err := model.AttachNetworkLabels(frame, nodes, cfg.Columns, model.DefaultNodeColumns()); err != nil {
			return nil, errors.MissingInput(err)
		}
	}

	edges, err := model.FromFrame(frame, cfg.Columns)
	if err != nil {
		return nil, errors.MissingInput(err)
	}
	s.logger.Info("loaded %d edges from %s", edges.Len(), req.Edges.Describe())
	return edges, nil
}

func (s *CouplingService) writeReport(ctx context.Context, dir string, summary run.Summary) error {
	if s.renderer == nil {
		return nil
	}
	docs, err := s.renderer.Render(ctx, summary)
	if err != nil {
		return errors.Wrap(err, "failed to render report")
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, docs[name], 0o644); err != nil {
			return errors.IOError("write "+name, err)
		}
		summary.Manifest.AddOutput(run.Output{Name: name, Path: path, Hash: core.NewHash(docs[name])})
	}
	return nil
}

// bestFit picks the row with the highest finite R²
func bestFit(table *model.ResultTable) (model.ResultRow, bool) {
	best := -1
	for i, row := range table.Rows {
		if math.IsNaN(row.R2) || math.IsInf(row.R2, 0) {
			continue
		}
		if best < 0 || row.R2 > table.Rows[best].R2 {
			best = i
		}
	}
	if best < 0 {
		return model.ResultRow{}, false
	}
	return table.Rows[best], true
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
