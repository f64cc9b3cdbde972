// Package game plays exactly one game between two already-handshaked UGI
// sessions and produces a GameResult.
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/timecontrol"
	"github.com/ugitourney/tourney/internal/ugi"
	"github.com/ugitourney/tourney/internal/ugierr"
)

// DefaultMoveCap is the hard move limit before a game is declared a
// move-cap draw.
const DefaultMoveCap = 500

// DefaultStatusTimeout bounds a single status query.
const DefaultStatusTimeout = 5 * time.Second

// session is the subset of *ugi.Session the driver depends on; it lets
// tests substitute a fake without spawning a process.
type session interface {
	SetPosition(fen string) error
	ApplyMove(move string) error
	RequestMove(ctx context.Context, deadline time.Duration) (string, error)
	QueryStatus(ctx context.Context, deadline time.Duration) (ugi.StatusResult, error)
	Probe(ctx context.Context, deadline time.Duration) bool
	Shutdown(ctx context.Context) error
	Name() string
}

// Options configures a single game.
type Options struct {
	TimeControl   timecontrol.TimeControl
	MoveCap       int  // 0 means DefaultMoveCap
	EnforceClocks bool // flag-fall on clock exhaustion (SPEC_FULL.md OQ-4)
}

// Result is the full record of one played game, ready to be persisted by
// the caller (the Elo Updater consumes this via the Match-Set Runner).
type Result struct {
	Result       model.Result
	Moves        []string
	Duration     time.Duration
	FinalStatus  model.GameStatus
	Engine1Color model.Color
	Engine2Color model.Color
	ErrorText    string
}

// Play drives s1 (engine1, color c) and s2 (engine2, the other color)
// through one game from the given starting position, querying status via
// s1 (authoritative) after every move. Both sessions are torn down on
// every exit path.
func Play(ctx context.Context, s1, s2 session, sp model.StartingPosition, c model.Color, opts Options) Result {
	start := time.Now()
	defer func() {
		_ = s1.Shutdown(ctx)
		_ = s2.Shutdown(ctx)
	}()

	if opts.MoveCap <= 0 {
		opts.MoveCap = DefaultMoveCap
	}

	moves := make([]string, 0, 80)

	if sp.HasAlternateState() {
		fen, _ := sp.FEN.Get()
		if err := s1.SetPosition(fen); err != nil {
			return errorResult(moves, start, c, fmt.Sprintf("%v: %v", ugierr.ErrSetupFailed, err))
		}
		if err := s2.SetPosition(fen); err != nil {
			return errorResult(moves, start, c, fmt.Sprintf("%v: %v", ugierr.ErrSetupFailed, err))
		}
	}
	for _, mv := range sp.Moves {
		if err := applyBoth(s1, s2, mv); err != nil {
			return errorResult(moves, start, c, err.Error())
		}
		moves = append(moves, mv)
	}

	clock1 := timecontrol.NewClock(opts.TimeControl)
	clock2 := timecontrol.NewClock(opts.TimeControl)

	status, err := s1.QueryStatus(ctx, DefaultStatusTimeout)
	if err != nil {
		return errorResult(moves, start, c, err.Error())
	}

	for status.InProgress {
		if contextx.IsCancelled(ctx) {
			return errorResult(moves, start, c, ctx.Err().Error())
		}
		if len(moves) >= opts.MoveCap {
			logw.Infof(ctx, "game: move cap (%v) reached, declaring draw", opts.MoveCap)
			return Result{
				Result:       model.ResultDraw,
				Moves:        moves,
				Duration:     time.Since(start),
				Engine1Color: c,
				Engine2Color: c.Opposite(),
			}
		}

		owner, ownerClock := ownerFor(status.PlayerToMove, c, s1, s2, clock1, clock2)

		deadline := ownerClock.Deadline(ugi.DefaultMoveHardCap)
		moveStart := time.Now()
		mv, err := owner.RequestMove(ctx, deadline)
		elapsed := time.Since(moveStart)

		if opts.EnforceClocks && !ownerClock.Consume(elapsed) {
			return Result{
				Result:       resultForFlagFall(owner, s1, c),
				Moves:        moves,
				Duration:     time.Since(start),
				Engine1Color: c,
				Engine2Color: c.Opposite(),
				ErrorText:    "flag-fall",
			}
		}

		if err != nil {
			return errorResult(moves, start, c, err.Error())
		}

		if err := applyBoth(s1, s2, mv); err != nil {
			return errorResult(moves, start, c, err.Error())
		}
		moves = append(moves, mv)

		status, err = s1.QueryStatus(ctx, DefaultStatusTimeout)
		if err != nil {
			return errorResult(moves, start, c, err.Error())
		}
	}

	result := translateFinalStatus(status, c)
	return Result{
		Result:       result,
		Moves:        moves,
		Duration:     time.Since(start),
		FinalStatus:  toModelStatus(status),
		Engine1Color: c,
		Engine2Color: c.Opposite(),
	}
}

func applyBoth(s1, s2 session, mv string) error {
	if err := s1.ApplyMove(mv); err != nil {
		return err
	}
	if err := s2.ApplyMove(mv); err != nil {
		return err
	}
	return nil
}

// ownerFor maps the protocol's 1-indexed playerToMove onto the session that
// plays that color, and returns it with its clock, given which color
// engine1 (s1) is playing.
func ownerFor(playerToMove int, c model.Color, s1, s2 session, clock1, clock2 *timecontrol.Clock) (session, *timecontrol.Clock) {
	// player 1 is always whoever owns model.White in the status protocol's
	// numbering; engine1 owns player 1 iff it plays white.
	e1IsPlayer1 := c == model.White
	if (playerToMove == 1) == e1IsPlayer1 {
		return s1, clock1
	}
	return s2, clock2
}

func resultForFlagFall(owner session, s1 session, c model.Color) model.Result {
	// The clock that ran out belongs to `owner`; engine1 loses iff owner is s1.
	if owner == s1 {
		return model.ResultLoss
	}
	return model.ResultWin
}

func errorResult(moves []string, start time.Time, c model.Color, msg string) Result {
	return Result{
		Result:       model.ResultError,
		Moves:        moves,
		Duration:     time.Since(start),
		Engine1Color: c,
		Engine2Color: c.Opposite(),
		ErrorText:    msg,
	}
}

// translateFinalStatus turns the engine's per-player result tokens into a
// Result from engine1's perspective, given the color engine1 is playing.
// Both players reporting a win is a protocol violation and becomes an
// error; neither reporting anything while the game is no longer in
// progress defaults to a draw.
func translateFinalStatus(status ugi.StatusResult, c model.Color) model.Result {
	e1IsPlayer1 := c == model.White

	p1Win := status.Player1.HasResult && isWinToken(status.Player1.Result)
	p2Win := status.Player2.HasResult && isWinToken(status.Player2.Result)

	if p1Win && p2Win {
		return model.ResultError
	}
	if p1Win {
		if e1IsPlayer1 {
			return model.ResultWin
		}
		return model.ResultLoss
	}
	if p2Win {
		if e1IsPlayer1 {
			return model.ResultLoss
		}
		return model.ResultWin
	}

	p1Draw := status.Player1.HasResult && isDrawToken(status.Player1.Result)
	p2Draw := status.Player2.HasResult && isDrawToken(status.Player2.Result)
	if p1Draw || p2Draw {
		return model.ResultDraw
	}

	// Neither side reported a recognizable result but the game ended:
	// ambiguous terminal status defaults to a draw per spec.
	return model.ResultDraw
}

func isWinToken(tok string) bool {
	return tok == "win"
}

func isDrawToken(tok string) bool {
	return tok == "draw"
}

func toModelStatus(s ugi.StatusResult) model.GameStatus {
	return model.GameStatus{
		InProgress:   s.InProgress,
		PlayerToMove: s.PlayerToMove,
		Player1: model.PlayerStatus{
			HasResult: s.Player1.HasResult,
			Result:    s.Player1.Result,
			Score:     s.Player1.Score,
		},
		Player2: model.PlayerStatus{
			HasResult: s.Player2.HasResult,
			Result:    s.Player2.Result,
			Score:     s.Player2.Score,
		},
	}
}
