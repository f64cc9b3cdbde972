package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/seekerror/logw"

	"github.com/ugitourney/tourney/internal/storage/pg"
)

// runTestDB verifies connectivity to the configured database (Open pings as
// part of connecting) without touching its schema or data.
func runTestDB(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("test-db", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := g.applyLogLevel(); err != nil {
		return err
	}

	dsn, ok := databaseConfigured()
	if !ok {
		fmt.Println("no database configured (would use the in-memory store); set DATABASE_URL or PGHOST/PGDATABASE/PGUSER/PGPASSWORD to test PostgreSQL connectivity")
		return nil
	}

	store, err := pg.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	logw.Infof(ctx, "test-db: connected successfully")
	fmt.Println("ok")
	return nil
}
