// Package storage defines the narrow persistence contract the orchestrator
// core depends on (§4.6): engine reads for scheduling, pair/volatility
// reads, and a transaction type for atomically recording a match set's
// games and rating deltas. Concrete adapters live in storage/memstore and
// storage/pg.
package storage

import (
	"context"
	"time"

	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
)

// EngineSummary is the scheduling-relevant projection of an Engine row.
// Wins/Losses/Draws are carried for `rankings --detailed`; the scheduler
// and Elo Updater only ever consult Rating/GamesPlayed.
type EngineSummary struct {
	ID          int64
	Name        string
	Rating      int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
}

// PairKey identifies an unordered engine pair; A is always <= B so two
// adapters never disagree on how a pair is keyed.
type PairKey struct {
	A, B int64
}

// NewPairKey normalizes (a, b) into a PairKey regardless of argument order.
func NewPairKey(a, b int64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// RatingDelta is the aggregate update the Elo Updater applies to one
// engine's row at the end of a match-set transaction.
type RatingDelta struct {
	NewRating   int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
}

// Adapter is the read-side and transaction-factory contract consumed by the
// Pairing Scheduler and Elo Updater.
type Adapter interface {
	// AddEngine creates or, if name already exists, returns the existing
	// engine's id (idempotent on name collision).
	AddEngine(ctx context.Context, name string, rating int, description lang.Optional[string]) (int64, error)

	// UpdateEngineMeta overwrites an existing engine's rating and
	// description in place, without touching GamesPlayed/Wins/Losses/Draws
	// history. It backs `load-config --replace`.
	UpdateEngineMeta(ctx context.Context, id int64, rating int, description lang.Optional[string]) error

	// EnginesForScheduling returns every engine's scheduling-relevant
	// fields.
	EnginesForScheduling(ctx context.Context) ([]EngineSummary, error)

	// RecentGames returns games played within the last window, for the
	// scheduler's volatility term.
	RecentGames(ctx context.Context, window time.Duration) ([]model.Game, error)

	// PairGameCounts returns, for every unordered pair that has played at
	// least one game, the cumulative game count between them.
	PairGameCounts(ctx context.Context) (map[PairKey]int, error)

	// BeginTx starts a transaction for the Elo Updater's atomic
	// insert-games-and-update-ratings operation.
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a single match-set-scoped transaction. ReadRating must observe a
// consistent snapshot for the lifetime of the transaction so the Elo
// Updater computes deltas against ratings read inside it, never a value
// read before BeginTx or after Commit.
type Tx interface {
	ReadRating(ctx context.Context, engineID int64) (int, error)
	InsertGame(ctx context.Context, g model.Game) error
	UpdateEngine(ctx context.Context, engineID int64, delta RatingDelta) error
	Commit() error
	Rollback() error
}
