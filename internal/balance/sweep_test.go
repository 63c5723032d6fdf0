package balance

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

func TestSweepOrderAndCount(t *testing.T) {
	bundle := sampleBundle()
	opts := SweepOptions{
		Bundle:      bundle,
		Kinds:       []entity.Kind{entity.Abilities, entity.Items},
		ScenarioIDs: []string{"duel_baseline", "boss_siege"},
		Runs:        50,
		Seed:        11,
		Workers:     3,
	}
	results, err := Sweep(context.Background(), opts)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	want := (len(bundle.List(entity.Abilities)) + len(bundle.List(entity.Items))) * 2
	if len(results) != want {
		t.Fatalf("len(results) = %d, want %d", len(results), want)
	}

	i := 0
	for _, kind := range opts.Kinds {
		for _, rec := range bundle.List(kind) {
			for _, sc := range opts.ScenarioIDs {
				r := results[i]
				if r.SchemaName != string(kind) || r.EntityID != rec.ID() || r.ScenarioID != sc {
					t.Errorf("results[%d] = %s/%s/%s, want %s/%s/%s", i, r.SchemaName, r.EntityID, r.ScenarioID, kind, rec.ID(), sc)
				}
				i++
			}
		}
	}
}

func TestSweepMatchesSerialSimulate(t *testing.T) {
	bundle := sampleBundle()
	results, err := Sweep(context.Background(), SweepOptions{Bundle: bundle, Kinds: []entity.Kind{entity.Characters}, ScenarioIDs: []string{"group_skirmish"}, Runs: 80, Seed: 5, Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	for i, rec := range bundle.List(entity.Characters) {
		serial, err := Simulate(Options{SchemaName: "characters", Entity: rec, Datasets: bundle, ScenarioID: "group_skirmish", Runs: 80, Seed: 5})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(serial, results[i]) {
			t.Errorf("sweep result %d differs from serial Simulate", i)
		}
	}
}

func TestSweepDefaultsToEverything(t *testing.T) {
	bundle := sampleBundle()
	results, err := Sweep(context.Background(), SweepOptions{Bundle: bundle, Runs: 50, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if want := bundle.Count() * len(Scenarios()); len(results) != want {
		t.Errorf("len(results) = %d, want %d", len(results), want)
	}
}

func TestSweepRejectsUnknownKind(t *testing.T) {
	_, err := Sweep(context.Background(), SweepOptions{Bundle: sampleBundle(), Kinds: []entity.Kind{"spells"}})
	if !errors.Is(err, entity.ErrUnsupportedKind) {
		t.Errorf("error = %v, want ErrUnsupportedKind", err)
	}
}

func TestSweepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sweep(ctx, SweepOptions{Bundle: sampleBundle(), Runs: 50, Seed: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
