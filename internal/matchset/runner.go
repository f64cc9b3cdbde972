// Package matchset plays a full match set — every starting position, twice
// each with colors swapped — for one engine pair, sequentially, and
// aggregates the games into a model.MatchSetResult.
package matchset

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/game"
	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/timecontrol"
	"github.com/ugitourney/tourney/internal/ugi"
)

// DefaultSettleDelay is the pause between games, giving a restarted engine
// process time to settle before the next handshake.
const DefaultSettleDelay = time.Second

// EngineSpec is the subset of an Engine's identity and launch configuration
// the runner needs to spawn a fresh session for each game.
type EngineSpec struct {
	ID     int64
	Config ugi.Config
}

// Options configures a match-set run.
type Options struct {
	TimeControl   timecontrol.TimeControl
	MoveCap       int
	EnforceClocks bool
	SettleDelay   time.Duration // 0 means DefaultSettleDelay
}

// Run plays ms against the pair (e1, e2), once per StartingPosition with e1
// as white and once with e1 as black, in position order, sequentially. Every
// scheduled game is attempted regardless of earlier errors; completed is
// true only if none of them errored.
func Run(ctx context.Context, e1, e2 EngineSpec, ms model.MatchSet, opts Options) model.MatchSetResult {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	result := model.MatchSetResult{
		Engine1ID:    e1.ID,
		Engine2ID:    e2.ID,
		MatchSetName: ms.Name,
		Completed:    true,
	}

	first := true
	for _, sp := range ms.StartingPositions {
		for _, c := range []model.Color{model.White, model.Black} {
			if !first {
				sleepCtx(ctx, opts.SettleDelay)
			}
			first = false

			gr := playOne(ctx, e1, e2, sp, c, opts)
			g := toGame(e1.ID, e2.ID, ms.Name, sp.Name, gr)

			result.Games = append(result.Games, g)
			result.TotalGames++
			if gr.Result == model.ResultError {
				result.Completed = false
				continue
			}
			result.NonErrorGames++
			e1s, e2s := gr.Result.Score()
			result.Engine1Score += e1s
			result.Engine2Score += e2s
		}
	}

	logw.Infof(ctx, "matchset: %q finished for engines %d/%d: %d/%d games ok, completed=%v",
		ms.Name, e1.ID, e2.ID, result.NonErrorGames, result.TotalGames, result.Completed)

	return result
}

// PlaySingle plays exactly one game for the pair (e1, e2) with no
// match-set context: no position iteration, no color swap, no settle
// delay. It backs `play-game`, which per OQ-1 wraps the game in a one-game
// MatchSetResult and applies its own one-off Elo update (N=1) directly
// rather than going through the Pairing Scheduler.
func PlaySingle(ctx context.Context, e1, e2 EngineSpec, sp model.StartingPosition, c model.Color, opts Options) model.Game {
	gr := playOne(ctx, e1, e2, sp, c, opts)
	return toGame(e1.ID, e2.ID, "", sp.Name, gr)
}

// playOne spawns and handshakes a fresh session per engine and plays one
// game. A spawn or handshake failure is reported as an error GameResult
// rather than panicking the runner, matching the Game Driver's own
// tear-down-on-any-exit contract.
func playOne(ctx context.Context, e1, e2 EngineSpec, sp model.StartingPosition, c model.Color, opts Options) game.Result {
	s1, err := spawn(ctx, e1.Config)
	if err != nil {
		return game.Result{
			Result:       model.ResultError,
			Engine1Color: c,
			Engine2Color: c.Opposite(),
			ErrorText:    err.Error(),
		}
	}
	s2, err := spawn(ctx, e2.Config)
	if err != nil {
		_ = s1.Shutdown(ctx)
		return game.Result{
			Result:       model.ResultError,
			Engine1Color: c,
			Engine2Color: c.Opposite(),
			ErrorText:    err.Error(),
		}
	}

	return game.Play(ctx, s1, s2, sp, c, game.Options{
		TimeControl:   opts.TimeControl,
		MoveCap:       opts.MoveCap,
		EnforceClocks: opts.EnforceClocks,
	})
}

func spawn(ctx context.Context, cfg ugi.Config) (*ugi.Session, error) {
	s, err := ugi.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Handshake(ctx, nil); err != nil {
		_ = s.Shutdown(ctx)
		return nil, err
	}
	return s, nil
}

func toGame(e1ID, e2ID int64, matchSetName, positionName string, gr game.Result) model.Game {
	g := model.Game{
		Engine1ID:        e1ID,
		Engine2ID:        e2ID,
		ExternalRef:      uuid.NewString(),
		Moves:            gr.Moves,
		DurationMS:       gr.Duration.Milliseconds(),
		StartingPosition: positionName,
		MatchSetName:     matchSetName,
		Engine1Color:     gr.Engine1Color,
		Engine2Color:     gr.Engine2Color,
		Result:           gr.Result,
		PlayedAt:         time.Now(),
		FinalStatus:      gr.FinalStatus,
		IsDraw:           gr.Result == model.ResultDraw,
	}
	if gr.ErrorText != "" {
		g.Error = lang.Some(gr.ErrorText)
	}
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
