// Package elo implements the Elo Updater (C4): it transactionally persists
// a played match set and applies the resulting aggregate rating delta.
package elo

import (
	"context"
	"fmt"
	"math"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
)

// DefaultKFactor is the maximum per-match-set rating change when the caller
// does not override it (SPEC_FULL.md OQ-2 exposes this as a config knob).
const DefaultKFactor = 32

// Apply persists result's games and applies the aggregate rating delta for
// the pair, all inside one transaction. It returns the rating deltas
// applied to engine1 and engine2. If every game in result errored, no
// rating change is made but the (error) game rows are still persisted.
func Apply(ctx context.Context, adapter storage.Adapter, kFactor int, result model.MatchSetResult) (delta1, delta2 int, err error) {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}

	tx, err := adapter.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("elo: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	r1, err := tx.ReadRating(ctx, result.Engine1ID)
	if err != nil {
		return 0, 0, fmt.Errorf("elo: read rating for engine %v: %w", result.Engine1ID, err)
	}
	r2, err := tx.ReadRating(ctx, result.Engine2ID)
	if err != nil {
		return 0, 0, fmt.Errorf("elo: read rating for engine %v: %w", result.Engine2ID, err)
	}

	n := result.NonErrorGames
	var d1, d2 int
	post1, post2 := r1, r2

	if n > 0 {
		e1 := expectedScore(r1, r2)
		e2 := 1 - e1
		a1 := result.Engine1Score / float64(n)
		a2 := result.Engine2Score / float64(n)

		d1 = roundToInt(float64(kFactor) * (a1 - e1))
		d2 = roundToInt(float64(kFactor) * (a2 - e2))
		post1 = r1 + d1
		post2 = r2 + d2
	}

	w1, l1, dr1 := 0, 0, 0
	for _, g := range result.Games {
		switch g.Result {
		case model.ResultWin:
			w1++
		case model.ResultLoss:
			l1++
		case model.ResultDraw:
			dr1++
		}

		g.Engine1RatingPre, g.Engine2RatingPre = r1, r2
		g.Engine1RatingPost, g.Engine2RatingPost = post1, post2
		switch g.Result {
		case model.ResultWin:
			g.WinnerID = lang.Some(result.Engine1ID)
		case model.ResultLoss:
			g.WinnerID = lang.Some(result.Engine2ID)
		case model.ResultDraw:
			g.IsDraw = true
		}

		if err := tx.InsertGame(ctx, g); err != nil {
			return 0, 0, fmt.Errorf("elo: insert game: %w", err)
		}
	}

	if n > 0 {
		if err := tx.UpdateEngine(ctx, result.Engine1ID, storage.RatingDelta{
			NewRating: post1, GamesPlayed: n, Wins: w1, Losses: l1, Draws: dr1,
		}); err != nil {
			return 0, 0, fmt.Errorf("elo: update engine %v: %w", result.Engine1ID, err)
		}
		// engine2's wins/losses are engine1's mirrored, since every
		// non-draw, non-error game has exactly one winner.
		if err := tx.UpdateEngine(ctx, result.Engine2ID, storage.RatingDelta{
			NewRating: post2, GamesPlayed: n, Wins: l1, Losses: w1, Draws: dr1,
		}); err != nil {
			return 0, 0, fmt.Errorf("elo: update engine %v: %w", result.Engine2ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("elo: commit: %w", err)
	}

	logw.Infof(ctx, "elo: match set %q: engine %v %+d, engine %v %+d (N=%v)",
		result.MatchSetName, result.Engine1ID, d1, result.Engine2ID, d2, n)

	return d1, d2, nil
}

// expectedScore is the standard Elo expected-score formula for the first
// engine given both ratings.
func expectedScore(r1, r2 int) float64 {
	return 1 / (1 + math.Pow(10, float64(r2-r1)/400))
}

// roundToInt rounds half away from zero, matching the spec's round(...)
// with no further tie-breaking rule specified.
func roundToInt(f float64) int {
	return int(math.Round(f))
}
