package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/storage"
	"github.com/ugitourney/tourney/internal/tui"
	"github.com/ugitourney/tourney/internal/util"
)

func runRankings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rankings", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	limit := fs.Int("limit", 0, "show only the top N engines (0 = all)")
	detailed := fs.Bool("detailed", false, "include games/wins/losses/draws")
	cp := fs.Bool("copy", false, "copy the rendered table to the clipboard")
	watch := fs.Bool("watch", false, "show the live dashboard instead of a one-off snapshot")
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

	if *watch {
		// No scheduler is running alongside a standalone `rankings --watch`,
		// so there's no event feed to pass; with a nil channel the dashboard
		// never listens for events and only runs its periodic poll of
		// adapter.
		prefs := config.LoadPreferences()
		return tui.Run(adapter, nil, prefs)
	}

	rankings, err := adapter.EnginesForScheduling(ctx)
	if err != nil {
		return fmt.Errorf("list engines: %w", err)
	}
	sort.Slice(rankings, func(i, j int) bool { return rankings[i].Rating > rankings[j].Rating })
	if *limit > 0 && *limit < len(rankings) {
		rankings = rankings[:*limit]
	}

	if g.json {
		return printRankingsJSON(rankings, *detailed)
	}

	var text string
	if *detailed {
		text = tui.RenderRankingsDetailed(rankings)
	} else {
		text = tui.RenderRankingsPlain(rankings)
	}
	fmt.Print(text)

	if *cp {
		if err := util.CopyToClipboard(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	return nil
}

func printRankingsJSON(rankings []storage.EngineSummary, detailed bool) error {
	type row struct {
		Rank        int    `json:"rank"`
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Rating      int    `json:"rating"`
		GamesPlayed int    `json:"gamesPlayed,omitempty"`
		Wins        int    `json:"wins,omitempty"`
		Losses      int    `json:"losses,omitempty"`
		Draws       int    `json:"draws,omitempty"`
	}
	out := make([]row, 0, len(rankings))
	for i, e := range rankings {
		r := row{Rank: i + 1, ID: e.ID, Name: e.Name, Rating: e.Rating}
		if detailed {
			r.GamesPlayed = e.GamesPlayed
			r.Wins = e.Wins
			r.Losses = e.Losses
			r.Draws = e.Draws
		}
		out = append(out, r)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
