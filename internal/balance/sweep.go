package balance

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

// SweepOptions selects what a sweep evaluates. Empty Kinds means every kind,
// empty ScenarioIDs means every catalog scenario.
type SweepOptions struct {
	Bundle      dataset.Bundle
	Kinds       []entity.Kind
	ScenarioIDs []string
	Runs        int
	Seed        int64
	Workers     int
}

type sweepJob struct {
	slot     int
	kind     entity.Kind
	rec      entity.Record
	scenario string
}

// Sweep evaluates every entity of the selected kinds under every selected
// scenario. Results come back in (kind, entity, scenario) order no matter which
// worker finished first.
func Sweep(ctx context.Context, opts SweepOptions) ([]Result, error) {
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = entity.Kinds
	}
	for _, k := range kinds {
		if !k.Valid() {
			_, err := entity.ParseKind(string(k))
			return nil, err
		}
	}
	scenarios := opts.ScenarioIDs
	if len(scenarios) == 0 {
		for _, sc := range Scenarios() {
			scenarios = append(scenarios, sc.ID)
		}
	}

	var jobs []sweepJob
	for _, k := range kinds {
		for _, rec := range opts.Bundle.List(k) {
			for _, sc := range scenarios {
				jobs = append(jobs, sweepJob{slot: len(jobs), kind: k, rec: rec, scenario: sc})
			}
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger.Info("Starting sweep", "jobs", len(jobs), "workers", workers)

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := Simulate(Options{
				SchemaName: string(job.kind),
				Entity:     job.rec,
				Datasets:   opts.Bundle,
				ScenarioID: job.scenario,
				Runs:       opts.Runs,
				Seed:       opts.Seed,
			})
			if err != nil {
				return err
			}
			results[job.slot] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
