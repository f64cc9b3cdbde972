package game

import (
	"context"
	"testing"
	"time"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/timecontrol"
	"github.com/ugitourney/tourney/internal/ugi"
)

// fakeSession is a scripted stand-in for *ugi.Session used to exercise the
// Game Driver's loop logic without spawning real processes.
type fakeSession struct {
	name string

	moves      []string // bestmove tokens to hand out, in order
	statuses   []ugi.StatusResult
	moveIdx    int
	statusIdx  int
	applied    []string
	shutdownN  int
	failMoveAt int // if > 0, RequestMove fails on this 1-indexed call
}

func (f *fakeSession) SetPosition(string) error { return nil }

func (f *fakeSession) ApplyMove(move string) error {
	f.applied = append(f.applied, move)
	return nil
}

func (f *fakeSession) RequestMove(ctx context.Context, deadline time.Duration) (string, error) {
	f.moveIdx++
	if f.failMoveAt > 0 && f.moveIdx == f.failMoveAt {
		return "", context.DeadlineExceeded
	}
	if f.moveIdx-1 >= len(f.moves) {
		return "", context.DeadlineExceeded
	}
	return f.moves[f.moveIdx-1], nil
}

func (f *fakeSession) QueryStatus(ctx context.Context, deadline time.Duration) (ugi.StatusResult, error) {
	if len(f.statuses) == 0 {
		return finished("draw", "draw"), nil
	}
	if f.statusIdx >= len(f.statuses) {
		return f.statuses[len(f.statuses)-1], nil
	}
	s := f.statuses[f.statusIdx]
	f.statusIdx++
	return s, nil
}

func (f *fakeSession) Probe(ctx context.Context, deadline time.Duration) bool { return true }

func (f *fakeSession) Shutdown(ctx context.Context) error {
	f.shutdownN++
	return nil
}

func (f *fakeSession) Name() string { return f.name }

func inProgress(playerToMove int) ugi.StatusResult {
	return ugi.StatusResult{InProgress: true, PlayerToMove: playerToMove}
}

func finished(p1Result, p2Result string) ugi.StatusResult {
	return ugi.StatusResult{
		InProgress: false,
		Player1:    ugi.PlayerResult{HasResult: p1Result != "", Result: p1Result},
		Player2:    ugi.PlayerResult{HasResult: p2Result != "", Result: p2Result},
	}
}

func TestPlayEngine1WinsAsWhite(t *testing.T) {
	s1 := &fakeSession{
		name:    "e1",
		moves:   []string{"e2e4", "g1f3"},
		statuses: []ugi.StatusResult{
			inProgress(1), inProgress(2), finished("win", "loss"),
		},
	}
	s2 := &fakeSession{name: "e2", moves: []string{"e7e5"}}

	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.White, Options{})

	if res.Result != model.ResultWin {
		t.Fatalf("Result = %v, want win", res.Result)
	}
	if len(res.Moves) != 2 {
		t.Fatalf("Moves = %v, want 2 moves", res.Moves)
	}
	if s1.shutdownN != 1 || s2.shutdownN != 1 {
		t.Fatalf("both sessions must be shut down exactly once, got %d/%d", s1.shutdownN, s2.shutdownN)
	}
}

func TestPlayEngine1LosesAsBlack(t *testing.T) {
	// engine1 plays black: player 1 (white) is owned by s2. Status is always
	// queried via s1 (authoritative), regardless of which color it plays.
	s1 := &fakeSession{
		name:  "e1",
		moves: []string{"e7e5"},
		statuses: []ugi.StatusResult{
			inProgress(1), inProgress(2), finished("win", "loss"),
		},
	}
	s2 := &fakeSession{name: "e2", moves: []string{"e2e4"}}

	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.Black, Options{})

	// player 1 (white, owned by s2/engine2) won, so engine1 lost.
	if res.Result != model.ResultLoss {
		t.Fatalf("Result = %v, want loss", res.Result)
	}
}

func TestPlayBothReportWinIsError(t *testing.T) {
	s1 := &fakeSession{statuses: []ugi.StatusResult{finished("win", "win")}}
	s2 := &fakeSession{}

	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.White, Options{})
	if res.Result != model.ResultError {
		t.Fatalf("Result = %v, want error", res.Result)
	}
}

func TestPlayAmbiguousEndIsDraw(t *testing.T) {
	s1 := &fakeSession{statuses: []ugi.StatusResult{finished("", "")}}
	s2 := &fakeSession{}

	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.White, Options{})
	if res.Result != model.ResultDraw {
		t.Fatalf("Result = %v, want draw", res.Result)
	}
}

func TestPlayMoveCapDeclaresDraw(t *testing.T) {
	statuses := make([]ugi.StatusResult, 0, 10)
	moves := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		statuses = append(statuses, inProgress(1))
		moves = append(moves, "a2a3")
	}
	s1 := &fakeSession{moves: moves, statuses: statuses}
	s2 := &fakeSession{moves: moves}

	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.White, Options{MoveCap: 4})
	if res.Result != model.ResultDraw {
		t.Fatalf("Result = %v, want draw (move cap)", res.Result)
	}
	if len(res.Moves) != 4 {
		t.Fatalf("Moves = %d, want 4 (move cap)", len(res.Moves))
	}
}

func TestPlayRequestMoveFailureIsError(t *testing.T) {
	s1 := &fakeSession{statuses: []ugi.StatusResult{inProgress(1)}, failMoveAt: 1}
	s2 := &fakeSession{}

	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.White, Options{})
	if res.Result != model.ResultError {
		t.Fatalf("Result = %v, want error", res.Result)
	}
	if res.ErrorText == "" {
		t.Error("expected non-empty ErrorText")
	}
}

func TestPlayAppliesStartingPositionMovesBeforeLoop(t *testing.T) {
	s1 := &fakeSession{
		statuses: []ugi.StatusResult{finished("draw", "draw")},
	}
	s2 := &fakeSession{}
	sp := model.StartingPosition{Name: "ruy-lopez", Moves: []string{"e2e4", "e7e5", "g1f3"}}

	res := Play(context.Background(), s1, s2, sp, model.White, Options{})

	if len(s1.applied) != 3 || len(s2.applied) != 3 {
		t.Fatalf("expected 3 prefix moves applied to both sessions, got %d/%d", len(s1.applied), len(s2.applied))
	}
	if res.Result != model.ResultDraw {
		t.Fatalf("Result = %v, want draw", res.Result)
	}
}

func TestPlayEnforcedClockNoFlagFallForFastReplies(t *testing.T) {
	s1 := &fakeSession{moves: []string{"e2e4"}, statuses: []ugi.StatusResult{inProgress(1)}}
	s2 := &fakeSession{}

	tc, err := timecontrol.Parse("0.01+0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// This mainly guards against a panic/deadlock regression when clock
	// enforcement is on; the fake's RequestMove returns effectively
	// instantly so it should not flag-fall against a 10ms budget.
	res := Play(context.Background(), s1, s2, model.StartingPosition{}, model.White, Options{
		TimeControl:   tc,
		EnforceClocks: true,
	})
	if res.Result != model.ResultWin && res.Result != model.ResultError {
		t.Fatalf("Result = %v, want win or error", res.Result)
	}
}
