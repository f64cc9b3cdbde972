package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/seekerror/logw"

	"github.com/ugitourney/tourney/internal/storage/pg"
)

func runInitDB(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init-db", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := g.applyLogLevel(); err != nil {
		return err
	}

	dsn, ok := databaseConfigured()
	if !ok {
		return fmt.Errorf("no database configured: set DATABASE_URL or PGHOST/PGDATABASE/PGUSER/PGPASSWORD")
	}

	store, err := pg.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}

	logw.Infof(ctx, "init-db: schema ready")
	return nil
}
