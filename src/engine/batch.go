package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finrules-server/src/models"
)

// RunBatch runs one orchestration per journal against a shared read-only
// snapshot, up to parallelism runs at a time. Runs are mutually
// independent; reports come back in input order. A malformed snapshot fails
// the whole batch before any run starts, matching the single-run contract.
func (e *Engine) RunBatch(ctx context.Context, graph *models.RuleGraph, journals []*models.Journal, phase models.Phase, parallelism int) ([]*models.ExecutionReport, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("rule graph snapshot for owner %s: %w", graph.OwnerID, err)
	}
	if parallelism < 1 {
		parallelism = 4
	}

	reports := make([]*models.ExecutionReport, len(journals))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, j := range journals {
		i, j := i, j
		g.Go(func() error {
			report, err := e.Run(ctx, graph, j, phase)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
