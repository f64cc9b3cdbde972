// Command tourney is the UGI Tournament Orchestrator CLI: it loads engine
// configuration, runs the continuous Pairing Scheduler, plays one-off games,
// and reports standings, against either an in-memory store or PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ugitourney/tourney/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "init-db":
		err = runInitDB(ctx, args)
	case "load-config":
		err = runLoadConfig(ctx, args)
	case "run-tournament":
		err = runTournament(ctx, args)
	case "play-game":
		err = runPlayGame(ctx, args)
	case "rankings":
		err = runRankings(ctx, args)
	case "list-engines":
		err = runListEngines(ctx, args)
	case "test-db":
		err = runTestDB(ctx, args)
	case "-h", "--help", "help":
		usage()
		return
	case "-v", "--version", "version":
		fmt.Printf("tourney %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildDate)
		return
	default:
		fmt.Fprintf(os.Stderr, "tourney: unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tourney %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: tourney <command> [options]

Commands:
  init-db                     bootstrap the PostgreSQL schema
  load-config [--file PATH] [--replace]
                               load engines from the JSON tournament document
  run-tournament [--rounds N] [--pairs N] [--concurrency N] [--time-control S]
                 [--watch] [--metrics-addr ADDR]
                               run the continuous pairing scheduler
  play-game --engine1 ID --engine2 ID [--time-control S]
                               play a single game, no match-set semantics
  rankings [--limit N] [--detailed] [--copy] [--watch] [--json]
  list-engines [--json]
  test-db

  version                      print the build version

Global flags (any command): --config PATH  --log-level LEVEL  --json
`)
}
