package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fabolze/SoAWebApp-sub000/internal/balance"
	"github.com/fabolze/SoAWebApp-sub000/internal/config"
	"github.com/fabolze/SoAWebApp-sub000/internal/database"
	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/entity"
	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
	"github.com/fabolze/SoAWebApp-sub000/internal/server"
)

const defaultConfigPath = "data/balance.yaml"

// setup loads the service config and starts the logger. One-shot commands
// only log warnings unless verbose is set, so their output stays readable.
func setup(configPath string, verbose, quiet bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logCfg, err := logger.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	switch {
	case verbose:
		logCfg.Level = "DEBUG"
	case quiet:
		logCfg.Level = "WARNING"
	}
	if err := logger.Initialize(logCfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSource returns the configured dataset loader and a func that releases it.
func openSource(cfg *config.Config) (dataset.Loader, func(), error) {
	switch cfg.Datasets.Source {
	case config.SourceSQLite, config.SourcePostgres:
		db, err := database.OpenWithConfig(cfg.Datasets.Database())
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		return dataset.NewYAMLLoader(cfg.Datasets.Dir), func() {}, nil
	}
}

func loadBundle(ctx context.Context, cfg *config.Config) (dataset.Bundle, error) {
	loader, closeFn, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return loader.Load(ctx)
}

func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	kind := fs.String("kind", "", "Entity kind (abilities, items, effects, encounters, combat_profiles, characters)")
	id := fs.String("id", "", "Entity id to evaluate (looked up in -file, or in the datasets)")
	file := fs.String("file", "", "YAML/JSON file holding the entity (a list or a {kind: [...]} document)")
	scenario := fs.String("scenario", "", "Scenario id (default from config)")
	runs := fs.Float64("runs", 0, "Monte Carlo runs, clamped to [50, 2000] (default from config)")
	seed := fs.Float64("seed", 0, "Base seed (default from config)")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)

	cfg, err := setup(*configPath, *verbose, true)
	if err != nil {
		return err
	}
	k, err := entity.ParseKind(*kind)
	if err != nil {
		return err
	}

	ctx := context.Background()
	loader, closeFn, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	// a stored entity is fetched directly so a bad id fails before the full load
	var rec entity.Record
	if db, ok := loader.(*database.Database); ok && *file == "" && *id != "" {
		if rec, err = storedEntity(ctx, db, k, *id); err != nil {
			return err
		}
	}

	bundle, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		if rec, err = pickEntity(bundle, k, *id, *file); err != nil {
			return err
		}
	}

	opts := balance.Options{
		SchemaName: string(k),
		Entity:     rec,
		Datasets:   bundle,
		ScenarioID: *scenario,
		Runs:       cfg.Simulation.Runs,
		Seed:       cfg.Simulation.Seed,
	}
	if opts.ScenarioID == "" {
		opts.ScenarioID = cfg.Simulation.DefaultScenario
	}
	if *runs != 0 {
		opts.Runs = balance.ClampRuns(*runs)
	}
	if *seed != 0 {
		opts.Seed = balance.NormalizeSeed(*seed)
	}

	res, err := balance.Simulate(opts)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(res)
	}
	printResult(res)
	return nil
}

// pickEntity finds the record to evaluate: from file when given, otherwise
// from the loaded datasets. An empty id picks the file's first record.
func pickEntity(bundle dataset.Bundle, kind entity.Kind, id, file string) (entity.Record, error) {
	if file != "" {
		records, err := dataset.ReadRecordsFile(file, kind)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("%s holds no %s records", file, kind)
		}
		if id == "" {
			return records[0], nil
		}
		if rec, ok := dataset.LookupByID(records)[id]; ok {
			return rec, nil
		}
		return nil, fmt.Errorf("%s has no %s with id %q", file, kind, id)
	}

	if id == "" {
		return nil, errors.New("either -id or -file is required")
	}
	rec, ok := bundle.Index(kind)[id]
	if !ok {
		return nil, fmt.Errorf("no %s with id %q in the datasets", kind, id)
	}
	return rec, nil
}

func runScenarios(args []string) error {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the catalog as JSON")
	fs.Parse(args)

	if *asJSON {
		return printJSON(balance.Scenarios())
	}
	printScenarios(balance.Scenarios())
	return nil
}

func runSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	kinds := fs.String("kinds", "", "Comma-separated kinds (default all)")
	scenarios := fs.String("scenarios", "", "Comma-separated scenario ids (default all)")
	runs := fs.Float64("runs", 0, "Monte Carlo runs per evaluation (default from config)")
	seed := fs.Float64("seed", 0, "Base seed (default from config)")
	workers := fs.Int("workers", 0, "Concurrent evaluations (default from config, then GOMAXPROCS)")
	asJSON := fs.Bool("json", false, "Print results as JSON")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(args)

	cfg, err := setup(*configPath, *verbose, true)
	if err != nil {
		return err
	}

	opts := balance.SweepOptions{
		ScenarioIDs: splitList(*scenarios),
		Runs:        cfg.Simulation.Runs,
		Seed:        cfg.Simulation.Seed,
		Workers:     cfg.Simulation.Workers,
	}
	for _, name := range splitList(*kinds) {
		k, err := entity.ParseKind(name)
		if err != nil {
			return err
		}
		opts.Kinds = append(opts.Kinds, k)
	}
	if *runs != 0 {
		opts.Runs = balance.ClampRuns(*runs)
	}
	if *seed != 0 {
		opts.Seed = balance.NormalizeSeed(*seed)
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Bundle, err = loadBundle(ctx, cfg); err != nil {
		return err
	}
	results, err := balance.Sweep(ctx, opts)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(results)
	}
	printSweep(results)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	dir := fs.String("dir", "", "Fixture directory with one <kind>.yaml per kind (default datasets.dir)")
	source := fs.String("to", "", "Target store: sqlite or postgres (default datasets.source)")
	dryRun := fs.Bool("dry-run", false, "Count what would be imported without writing")
	fs.Parse(args)

	cfg, err := setup(*configPath, false, false)
	if err != nil {
		return err
	}
	if *dir == "" {
		*dir = cfg.Datasets.Dir
	}
	if *source != "" {
		cfg.Datasets.Source = *source
	}
	if cfg.Datasets.Source != config.SourceSQLite && cfg.Datasets.Source != config.SourcePostgres {
		return fmt.Errorf("import needs a sqlite or postgres target, got %q", cfg.Datasets.Source)
	}

	ctx := context.Background()
	bundle, err := dataset.NewYAMLLoader(*dir).Load(ctx)
	if err != nil {
		return err
	}
	for _, k := range entity.Kinds {
		fmt.Printf("  %-16s %d\n", k, len(bundle.List(k)))
	}
	if *dryRun {
		fmt.Printf("DRY RUN: %d records would be imported from %s\n", bundle.Count(), *dir)
		return nil
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, counts, err := importBundle(ctx, db, bundle)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d records into %s\n", n, cfg.Datasets.Source)
	fmt.Println("Store now holds:")
	for _, k := range entity.Kinds {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config YAML file")
	addr := fs.String("addr", "", "Listen address (default server.addr)")
	fs.Parse(args)

	cfg, err := setup(*configPath, false, false)
	if err != nil {
		return err
	}
	defer logger.Close()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	loader, closeFn, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("Starting balance service",
		"source", cfg.Datasets.Source,
		"default_scenario", cfg.Simulation.DefaultScenario,
		"runs", cfg.Simulation.Runs,
		"admin_enabled", cfg.Server.AdminTokenHash != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := dataset.NewCache(loader)
	// warm the cache so the first request does not pay for the load
	if _, err := cache.Get(ctx, false); err != nil {
		logger.Warning("Initial dataset load failed; retrying on first request", "error", err)
	}

	srv := server.New(cfg, cache)
	defer srv.Close()
	return srv.ListenAndServe(ctx)
}

func runHashToken(args []string) error {
	fs := flag.NewFlagSet("hash-token", flag.ExitOnError)
	token := fs.String("token", "", "Admin token to hash (default: read BALANCE_ADMIN_TOKEN)")
	fs.Parse(args)

	if *token == "" {
		*token = os.Getenv("BALANCE_ADMIN_TOKEN")
	}
	hash, err := server.HashAdminToken(*token)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
