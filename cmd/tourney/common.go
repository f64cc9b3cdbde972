package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/logging"
	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
	"github.com/ugitourney/tourney/internal/storage/memstore"
	"github.com/ugitourney/tourney/internal/storage/pg"
	"github.com/ugitourney/tourney/internal/timecontrol"
	"github.com/ugitourney/tourney/internal/ugi"
)

// globalFlags holds the flags every subcommand accepts, per SPEC_FULL.md
// §6.4's ADDED global-flags clause.
type globalFlags struct {
	configPath string
	logLevel   string
	json       bool
}

// addGlobalFlags registers the shared flags on fs and returns a pointer the
// caller reads after fs.Parse.
func addGlobalFlags(fs *flag.FlagSet) *globalFlags {
	g := &globalFlags{}
	fs.StringVar(&g.configPath, "config", "", "path to the JSON tournament/engine document (overrides "+config.EnginesConfigEnv+")")
	fs.StringVar(&g.logLevel, "log-level", "", "one of "+fmt.Sprint(logging.ValidLevels))
	fs.BoolVar(&g.json, "json", false, "machine-readable output")
	return g
}

// applyLogLevel validates and exports --log-level as the environment
// variable logw itself reads, before any logw call in the command runs.
func (g *globalFlags) applyLogLevel() error {
	if g.logLevel == "" {
		return nil
	}
	if !logging.IsValidLevel(g.logLevel) {
		return fmt.Errorf("invalid --log-level %q, want one of %v", g.logLevel, logging.ValidLevels)
	}
	return os.Setenv(logging.LevelEnv, g.logLevel)
}

// pgDSNEnvVars are the standard libpq environment variables that indicate a
// database connection is configured. DATABASE_URL is checked separately
// since it's a single connection string rather than a libpq component.
var pgDSNEnvVars = []string{"PGHOST", "PGDATABASE", "PGUSER", "PGPASSWORD"}

// databaseConfigured reports whether the environment names a PostgreSQL
// connection, per SPEC_FULL.md §4.6's ADDED default-adapter-resolution
// clause: memstore when unset, pg otherwise.
func databaseConfigured() (dsn string, ok bool) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, true
	}
	for _, v := range pgDSNEnvVars {
		if os.Getenv(v) != "" {
			// Pass an empty dsn: lib/pq parses the standard PG* environment
			// variables itself when given no conninfo string.
			return "", true
		}
	}
	return "", false
}

// openAdapter resolves the storage.Adapter this process should use: pg if a
// database connection is configured in the environment, memstore otherwise.
// The returned close func is a no-op for memstore.
func openAdapter(ctx context.Context) (storage.Adapter, func() error, error) {
	dsn, ok := databaseConfigured()
	if !ok {
		return memstore.New(), func() error { return nil }, nil
	}
	store, err := pg.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return store, store.Close, nil
}

// loadDocument resolves --config (falling back to ENGINES_CONFIG, then the
// default path) and loads the tournament/engine JSON document.
func loadDocument(ctx context.Context, g *globalFlags) (config.Document, error) {
	return config.LoadDocument(ctx, g.configPath)
}

// launcherFrom builds a scheduler.Launcher-shaped lookup (engine id ->
// ugi.Config) from the document's engine entries, keyed by the ids the
// storage adapter assigned them. Engines present in storage but absent from
// the current document (e.g. disabled or removed) are simply not
// launchable; the scheduler already treats "no launch config" as skip the
// pair.
func launcherFrom(doc config.Document, nameToID map[string]int64) func(id int64) (ugi.Config, bool) {
	byID := make(map[int64]model.EngineConfig, len(doc.Engines))
	for _, ec := range doc.ToEngineConfigs() {
		id, ok := nameToID[ec.Name]
		if !ok {
			continue
		}
		byID[id] = ec
	}
	return func(id int64) (ugi.Config, bool) {
		ec, ok := byID[id]
		if !ok {
			return ugi.Config{}, false
		}
		return ugi.Config{
			Name:             ec.Name,
			Executable:       ec.Executable,
			WorkingDirectory: ec.WorkingDirectory,
			Arguments:        ec.Arguments,
			Env:              ec.Env,
			Options:          ec.Options,
		}, true
	}
}

// engineNameIndex builds a name -> id map from the adapter's current
// engines, used to correlate document entries (identified by name) with
// persisted rows (identified by id).
func engineNameIndex(ctx context.Context, adapter storage.Adapter) (map[string]int64, error) {
	engines, err := adapter.EnginesForScheduling(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(engines))
	for _, e := range engines {
		out[e.Name] = e.ID
	}
	return out, nil
}

// defaultTimeControl is used by play-game and run-tournament when neither
// --time-control nor the document's tournament.timeControl names one.
const defaultTimeControl = "60+1"

// resolveTimeControl parses --time-control, falling back to the document's
// tournament.timeControl when the flag is empty, and finally to
// defaultTimeControl so both commands work with no configuration at all.
func resolveTimeControl(flagValue, docValue string) (timecontrol.TimeControl, error) {
	s := flagValue
	if s == "" {
		s = docValue
	}
	if s == "" {
		s = defaultTimeControl
	}
	tc, err := timecontrol.Parse(s)
	if err != nil {
		return timecontrol.TimeControl{}, fmt.Errorf("parse time control %q: %w", s, err)
	}
	return tc, nil
}
