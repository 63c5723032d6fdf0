package balance

import (
	"fmt"
	"math"

	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

const (
	MinRuns     = 50
	MaxRuns     = 2000
	DefaultRuns = 300
	DefaultSeed = 1

	draftID = "draft"
)

// Options is one evaluation request.
type Options struct {
	SchemaName string
	Entity     entity.Record
	Datasets   dataset.Bundle
	ScenarioID string
	Runs       int
	Seed       int64
}

// Result is the outcome of one evaluation.
type Result struct {
	SchemaName  string   `json:"schemaName"`
	EntityID    string   `json:"entityId"`
	EntityLabel string   `json:"entityLabel"`
	ScenarioID  string   `json:"scenarioId"`
	Runs        int      `json:"runs"`
	Seed        int64    `json:"seed"`
	Metrics     Metrics  `json:"metrics"`
	Warnings    []string `json:"warnings"`
	Notes       []string `json:"notes"`
	Summary     string   `json:"summary"`
}

type evaluator func(rec entity.Record, l *links, sc Scenario, runs int, seed int64) evaluation

// ClampRuns rounds a requested run count and bounds it to [MinRuns, MaxRuns].
// NaN falls back to DefaultRuns.
func ClampRuns(runs float64) int {
	if math.IsNaN(runs) {
		return DefaultRuns
	}
	return int(clamp(math.Round(runs), MinRuns, MaxRuns))
}

func evaluatorFor(kind entity.Kind) (evaluator, error) {
	switch kind {
	case entity.Abilities:
		return evaluateAbility, nil
	case entity.Items:
		return evaluateItem, nil
	case entity.Effects:
		return evaluateEffect, nil
	case entity.Encounters:
		return evaluateEncounter, nil
	case entity.CombatProfiles:
		return evaluateProfile, nil
	case entity.Characters:
		return evaluateCharacter, nil
	default:
		return nil, fmt.Errorf("no evaluator for %q: %w", kind, entity.ErrUnsupportedKind)
	}
}

// Simulate evaluates one entity against one scenario. An unknown schema name is
// rejected before any work is done; an unknown scenario falls back to the
// default catalog entry.
func Simulate(opts Options) (Result, error) {
	kind, err := entity.ParseKind(opts.SchemaName)
	if err != nil {
		return Result{}, err
	}
	eval, err := evaluatorFor(kind)
	if err != nil {
		return Result{}, err
	}

	runs := ClampRuns(float64(opts.Runs))
	seed := ClampSeed(opts.Seed)
	sc, found := ScenarioByID(opts.ScenarioID)
	if !found && opts.ScenarioID != "" {
		logger.Debug("Unknown scenario, using default", "scenario", opts.ScenarioID, "fallback", sc.ID)
	}

	ev := eval(opts.Entity, newLinks(opts.Datasets), sc, runs, seed)

	id := opts.Entity.ID()
	if id == "" {
		id = draftID
	}
	res := Result{
		SchemaName:  string(kind),
		EntityID:    id,
		EntityLabel: opts.Entity.Label(kind),
		ScenarioID:  sc.ID,
		Runs:        runs,
		Seed:        seed,
		Metrics:     ev.Metrics,
		Warnings:    nonNil(ev.Warnings),
		Notes:       nonNil(ev.Notes),
	}
	res.Summary = Summarize(res)

	logger.Debug("Simulated entity",
		"kind", kind,
		"id", res.EntityID,
		"scenario", res.ScenarioID,
		"runs", runs,
		"seed", seed,
		"power", res.Metrics.Power,
		"warnings", len(res.Warnings))
	return res, nil
}

// identityWarnings adds the warnings every kind shares.
func identityWarnings(ev *evaluation, rec entity.Record) {
	if rec.ID() == "" {
		ev.warn("Missing id; evaluated as a draft.")
	}
	if rec.String("name", "") == "" && rec.String("title", "") == "" {
		ev.warn("Missing name/title; a fallback label is used.")
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
