// Package model holds the persistent and value types shared by every
// tournament component: engines, starting positions, match sets, games,
// and the in-memory aggregates produced while a match set is being played.
package model

import (
	"time"

	"github.com/seekerror/stdlib/pkg/lang"
)

// Color is a player's side in a single game.
type Color int

const (
	// White moves first.
	White Color = iota
	// Black moves second.
	Black
)

// String implements fmt.Stringer.
func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Opposite returns the other color.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// Engine is the persistent row tracked for a configured engine. Only the
// Elo Updater mutates Rating, GamesPlayed, Wins, Losses and Draws, and only
// inside the transaction that appends the corresponding Game rows.
type Engine struct {
	ID          int64
	Name        string
	Description string
	Rating      int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
	CreatedAt   time.Time
}

// EngineConfig is the ephemeral, configuration-file view of an engine. It is
// never persisted directly; the loader uses it to populate or refresh an
// Engine row via the Persistence Adapter.
type EngineConfig struct {
	Name             string
	Executable       string
	WorkingDirectory string
	Arguments        []string
	Options          map[string]string
	Env              map[string]string
	InitialRating    int
	Enabled          bool
	Description      lang.Optional[string]
}

// StartingPosition is a value object describing how to set up the board
// before a game begins. Exactly one of Moves and FEN is authoritative; if
// both are present, FEN is applied first and Moves are replayed after it.
type StartingPosition struct {
	Name        string
	Description lang.Optional[string]
	Moves       []string
	FEN         lang.Optional[string]
}

// HasAlternateState reports whether this position overrides the engine's
// default initial game state.
func (p StartingPosition) HasAlternateState() bool {
	return p.FEN.Present()
}

// MatchSet is a named, ordered bundle of starting positions played by a
// pair of engines. GamesPerPosition must be even; the core always uses 2
// (white and black once each).
type MatchSet struct {
	Name              string
	Description       string
	StartingPositions []StartingPosition
	GamesPerPosition  int
}

// Result is the outcome of a single game, always from engine1's perspective.
type Result int

const (
	// ResultWin means engine1 won.
	ResultWin Result = iota
	// ResultLoss means engine1 lost.
	ResultLoss
	// ResultDraw means the game was drawn.
	ResultDraw
	// ResultError means the game could not be completed and is excluded
	// from scoring.
	ResultError
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultLoss:
		return "loss"
	case ResultDraw:
		return "draw"
	default:
		return "error"
	}
}

// Score returns engine1's and engine2's point contributions for this result.
// Error results contribute 0/0 and are excluded from the caller's
// denominator separately.
func (r Result) Score() (e1, e2 float64) {
	switch r {
	case ResultWin:
		return 1, 0
	case ResultLoss:
		return 0, 1
	case ResultDraw:
		return 0.5, 0.5
	default:
		return 0, 0
	}
}

// Game is the persistent, append-only record of one played game.
type Game struct {
	ID                int64
	Engine1ID         int64
	Engine2ID         int64
	WinnerID          lang.Optional[int64]
	IsDraw            bool
	Engine1RatingPre  int
	Engine2RatingPre  int
	Engine1RatingPost int
	Engine2RatingPost int
	Moves             []string
	DurationMS        int64
	Error             lang.Optional[string]
	FinalStatus       GameStatus
	StartingPosition  string
	MatchSetName      string
	Engine1Color      Color
	Engine2Color      Color
	Result            Result
	PlayedAt          time.Time
	ExternalRef       string // correlation id surfaced in logs/TUI, not a primary key
}

// MatchSetResult is the in-memory aggregate the Runner hands to the Elo
// Updater. Its lifetime ends once the transaction that consumes it commits.
type MatchSetResult struct {
	Engine1ID     int64
	Engine2ID     int64
	MatchSetName  string
	Games         []Game
	Engine1Score  float64
	Engine2Score  float64
	TotalGames    int
	NonErrorGames int
	Completed     bool
}

// GameStatus is the protocol-level view of a game observed from an engine.
type GameStatus struct {
	InProgress   bool
	PlayerToMove int // 1 or 2
	Player1      PlayerStatus
	Player2      PlayerStatus
}

// PlayerStatus carries one player's terminal result/score tokens, as
// reported by the "info player <n> result <r> score <s>" UGI line.
type PlayerStatus struct {
	HasResult bool
	Result    string
	Score     string
}
