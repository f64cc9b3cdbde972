package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/seekerror/logw"

	"github.com/ugitourney/tourney/internal/config"
	"github.com/ugitourney/tourney/internal/elo"
	"github.com/ugitourney/tourney/internal/matchset"
	"github.com/ugitourney/tourney/internal/model"
)

// runPlayGame plays exactly one game between two already-loaded engines,
// with no match-set context (no position iteration, no color swap, no
// settle delay), and applies its own one-off Elo update for N=1 rather than
// going through the Pairing Scheduler (SPEC_FULL.md OQ-1).
func runPlayGame(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play-game", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	id1 := fs.Int64("engine1", 0, "storage id of the engine to play as white (required)")
	id2 := fs.Int64("engine2", 0, "storage id of the engine to play as black (required)")
	timeControlFlag := fs.String("time-control", "", "base+increment seconds, e.g. 60+1")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := g.applyLogLevel(); err != nil {
		return err
	}
	if *id1 == 0 || *id2 == 0 {
		return fmt.Errorf("--engine1 and --engine2 are required")
	}
	if *id1 == *id2 {
		return fmt.Errorf("--engine1 and --engine2 must name different engines")
	}

	doc, err := loadDocument(ctx, g)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adapter, closeAdapter, err := openAdapter(ctx)
	if err != nil {
		return err
	}
	defer closeAdapter()

	nameToID, err := engineNameIndex(ctx, adapter)
	if err != nil {
		return fmt.Errorf("list existing engines: %w", err)
	}
	launch := launcherFrom(doc, nameToID)

	cfg1, ok := launch(*id1)
	if !ok {
		return fmt.Errorf("engine id %d has no launch configuration in the loaded document", *id1)
	}
	cfg2, ok := launch(*id2)
	if !ok {
		return fmt.Errorf("engine id %d has no launch configuration in the loaded document", *id2)
	}

	tc, err := resolveTimeControl(*timeControlFlag, doc.Tournament.TimeControl)
	if err != nil {
		return err
	}

	sp := startingPositionFor(doc)

	opts := matchset.Options{
		TimeControl:   tc,
		EnforceClocks: doc.Tournament.EnforceClocksOrDefault(),
	}
	e1 := matchset.EngineSpec{ID: *id1, Config: cfg1}
	e2 := matchset.EngineSpec{ID: *id2, Config: cfg2}

	logw.Infof(ctx, "play-game: %d (white) vs %d (black)", *id1, *id2)
	game := matchset.PlaySingle(ctx, e1, e2, sp, model.White, opts)
	logw.Infof(ctx, "play-game: result %s", game.Result)

	delta1, delta2, err := elo.Apply(ctx, adapter, doc.Tournament.KFactorOrDefault(), singleGameResult(game))
	if err != nil {
		return fmt.Errorf("apply rating update: %w", err)
	}
	logw.Infof(ctx, "play-game: rating deltas %+d / %+d", delta1, delta2)
	return nil
}

// singleGameResult wraps one played game as a MatchSetResult of N=1, the
// shape elo.Apply expects, per SPEC_FULL.md OQ-1.
func singleGameResult(g model.Game) model.MatchSetResult {
	e1Score, e2Score := g.Result.Score()
	nonError := 1
	if g.Result == model.ResultError {
		nonError = 0
	}
	return model.MatchSetResult{
		Engine1ID:     g.Engine1ID,
		Engine2ID:     g.Engine2ID,
		MatchSetName:  g.MatchSetName,
		Games:         []model.Game{g},
		Engine1Score:  e1Score,
		Engine2Score:  e2Score,
		TotalGames:    1,
		NonErrorGames: nonError,
		Completed:     g.Result != model.ResultError,
	}
}

// startingPositionFor picks the first starting position of the document's
// default match set, or else of the first match set that has positions,
// falling back to the engine's own initial position when no match sets are
// configured.
func startingPositionFor(doc config.Document) model.StartingPosition {
	matchSets := doc.ToMatchSets()
	for _, ms := range matchSets {
		if ms.Name == doc.Tournament.DefaultMatchSet && len(ms.StartingPositions) > 0 {
			return ms.StartingPositions[0]
		}
	}
	for _, ms := range matchSets {
		if len(ms.StartingPositions) > 0 {
			return ms.StartingPositions[0]
		}
	}
	return model.StartingPosition{Name: "start"}
}
