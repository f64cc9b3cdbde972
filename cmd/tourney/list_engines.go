package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
)

func runListEngines(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list-engines", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := g.applyLogLevel(); err != nil {
		return err
	}

	adapter, closeAdapter, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeAdapter()

	engines, err := adapter.EnginesForScheduling(ctx)
	if err != nil {
		return fmt.Errorf("list engines: %w", err)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i].Name < engines[j].Name })

	if g.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(engines)
	}

	for _, e := range engines {
		fmt.Printf("%4d  %-24s  rating %5d  games %d\n", e.ID, e.Name, e.Rating, e.GamesPlayed)
	}
	return nil
}
