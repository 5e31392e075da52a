package coupling

import (
	"context"

	"golang.org/x/sync/errgroup"

	model "myelinfc/domain/coupling"
)

// Runner fits every group of a level and collects one row per group
type Runner struct {
	cfg    model.Config
	fitter *GroupFitter
}

// NewRunner validates cfg and prepares the group fitter
func NewRunner(cfg model.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fitter, err := NewGroupFitter(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: fitter.cfg, fitter: fitter}, nil
}

// Config returns the configuration the runner was built with
func (r *Runner) Config() model.Config {
	return r.cfg.Clone()
}

// Run groups the edges by level and fits each group in key order. With
// Workers > 1 the groups are fitted concurrently; rows keep key order.
// An empty grouping yields an empty table.
func (r *Runner) Run(ctx context.Context, edges *model.EdgeTable, level model.Level, withInteractions bool) (*model.ResultTable, error) {
	groups, err := GroupRows(edges, level)
	if err != nil {
		return nil, err
	}
	table := model.NewResultTable()
	if len(groups) == 0 {
		return table, nil
	}

	rows := make([]model.ResultRow, len(groups))
	fit := func(i int) {
		row := r.fitter.Fit(edges, groups[i].Rows, withInteractions)
		row.Level = level
		row.Key = groups[i].Key
		rows[i] = row
	}

	if r.cfg.Workers <= 1 || len(groups) == 1 {
		for i := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fit(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Workers)
		for i := range groups {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				fit(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	table.Append(rows...)
	return table, nil
}

// Run is the one-shot form of Runner.Run
func Run(edges *model.EdgeTable, level model.Level, withInteractions bool, cfg model.Config) (*model.ResultTable, error) {
	r, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	return r.Run(context.Background(), edges, level, withInteractions)
}
