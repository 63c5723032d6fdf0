package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/fabolze/SoAWebApp-sub000/internal/config"
	"github.com/fabolze/SoAWebApp-sub000/internal/database"
	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
)

// openStore opens the configured entity store. YAML sources have no store.
func openStore(cfg *config.Config) (*database.Database, error) {
	if cfg.Datasets.Source != config.SourceSQLite && cfg.Datasets.Source != config.SourcePostgres {
		return nil, fmt.Errorf("needs a sqlite or postgres store, got %q", cfg.Datasets.Source)
	}
	return database.OpenWithConfig(cfg.Datasets.Database())
}

// storedEntity fetches one record straight from the store.
func storedEntity(ctx context.Context, db *database.Database, kind entity.Kind, id string) (entity.Record, error) {
	rec, ok, err := db.GetEntity(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no %s with id %q in the store", kind, id)
	}
	return rec, nil
}

// importBundle writes b into the store and returns how many records were
// written plus the store's per-kind totals after the commit.
func importBundle(ctx context.Context, db *database.Database, b dataset.Bundle) (int, map[entity.Kind]int, error) {
	n, err := db.ImportBundle(ctx, b)
	if err != nil {
		return 0, nil, err
	}
	counts, err := db.CountByKind(ctx)
	if err != nil {
		return n, nil, err
	}
	return n, counts, nil
}

func deleteStored(ctx context.Context, db *database.Database, kind entity.Kind, id string) error {
	deleted, err := db.DeleteEntity(ctx, kind, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no %s with id %q in the store", kind, id)
	}
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	kind := fs.String("kind", "", "Entity kind to list")
	asJSON := fs.Bool("json", false, "Print records as JSON")
	fs.Parse(args)

	cfg, err := setup(*configPath, false, true)
	if err != nil {
		return err
	}
	k, err := entity.ParseKind(*kind)
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ListEntities(context.Background(), k)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(records)
	}
	printRecords(k, records)
	return nil
}

func runSave(args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	kind := fs.String("kind", "", "Entity kind")
	file := fs.String("file", "", "YAML/JSON file holding the entity")
	id := fs.String("id", "", "Record id within -file (default the first record)")
	fs.Parse(args)

	cfg, err := setup(*configPath, false, true)
	if err != nil {
		return err
	}
	k, err := entity.ParseKind(*kind)
	if err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	rec, err := pickEntity(nil, k, *id, *file)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := db.SaveEntity(context.Background(), k, rec)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s %q (%s)\n", k, saved.ID(), saved.Label(k))
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	kind := fs.String("kind", "", "Entity kind")
	id := fs.String("id", "", "Entity id to remove")
	fs.Parse(args)

	cfg, err := setup(*configPath, false, true)
	if err != nil {
		return err
	}
	k, err := entity.ParseKind(*kind)
	if err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := deleteStored(context.Background(), db, k, *id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s %q\n", k, *id)
	return nil
}
