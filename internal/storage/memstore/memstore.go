// Package memstore is an in-memory storage.Adapter: the default backend for
// tests and for any command (play-game included) run where no database is
// configured. It keeps every Engine and Game row in maps guarded by a single
// mutex, the same "shared state behind one lock" shape the orchestrator's
// other in-process coordinators use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
)

// Store is a storage.Adapter backed entirely by process memory. The zero
// value is not usable; construct with New.
type Store struct {
	mu      sync.Mutex
	engines map[int64]*model.Engine
	byName  map[string]int64
	games   []model.Game
	nextEng int64
	nextGm  int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		engines: make(map[int64]*model.Engine),
		byName:  make(map[string]int64),
	}
}

var _ storage.Adapter = (*Store)(nil)

// AddEngine is idempotent on name: a second call with the same name returns
// the id already assigned to it rather than creating a duplicate row.
func (s *Store) AddEngine(ctx context.Context, name string, rating int, description lang.Optional[string]) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[name]; ok {
		return id, nil
	}

	s.nextEng++
	id := s.nextEng
	desc := ""
	if d, ok := description.Get(); ok {
		desc = d
	}
	s.engines[id] = &model.Engine{
		ID:          id,
		Name:        name,
		Description: desc,
		Rating:      rating,
		CreatedAt:   time.Now(),
	}
	s.byName[name] = id
	return id, nil
}

// UpdateEngineMeta overwrites the rating and description of an existing
// engine row; unknown ids are reported as an error rather than silently
// creating a row (callers look the id up via AddEngine/EnginesForScheduling
// first).
func (s *Store) UpdateEngineMeta(ctx context.Context, id int64, rating int, description lang.Optional[string]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.engines[id]
	if !ok {
		return fmt.Errorf("memstore: unknown engine id %d", id)
	}
	e.Rating = rating
	if d, ok := description.Get(); ok {
		e.Description = d
	}
	return nil
}

// EnginesForScheduling returns every engine, in a deterministic id order so
// pairing is reproducible given the same rng seed.
func (s *Store) EnginesForScheduling(ctx context.Context) ([]storage.EngineSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]storage.EngineSummary, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, storage.EngineSummary{
			ID:          e.ID,
			Name:        e.Name,
			Rating:      e.Rating,
			GamesPlayed: e.GamesPlayed,
			Wins:        e.Wins,
			Losses:      e.Losses,
			Draws:       e.Draws,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RecentGames returns every game played within window of now.
func (s *Store) RecentGames(ctx context.Context, window time.Duration) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var out []model.Game
	for _, g := range s.games {
		if g.PlayedAt.After(cutoff) {
			out = append(out, g)
		}
	}
	return out, nil
}

// PairGameCounts tallies every persisted game (including error games) by
// unordered engine pair.
func (s *Store) PairGameCounts(ctx context.Context) (map[storage.PairKey]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[storage.PairKey]int)
	for _, g := range s.games {
		out[storage.NewPairKey(g.Engine1ID, g.Engine2ID)]++
	}
	return out, nil
}

// BeginTx locks the store for the duration of the transaction: memstore has
// no concurrent-writer story beyond a single mutex, so a transaction is
// simply "hold the lock until Commit or Rollback".
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	s.mu.Lock()
	return &tx{store: s}, nil
}

// tx implements storage.Tx by staging games and engine updates in memory and
// only splicing them into the Store's committed state on Commit. Rollback
// (or a Commit never being called) discards the staged writes.
type tx struct {
	store  *Store
	games  []model.Game
	deltas map[int64]storage.RatingDelta
	done   bool
}

func (t *tx) ReadRating(ctx context.Context, engineID int64) (int, error) {
	e, ok := t.store.engines[engineID]
	if !ok {
		return 0, fmt.Errorf("memstore: unknown engine id %d", engineID)
	}
	return e.Rating, nil
}

func (t *tx) InsertGame(ctx context.Context, g model.Game) error {
	t.store.nextGm++
	g.ID = t.store.nextGm
	t.games = append(t.games, g)
	return nil
}

func (t *tx) UpdateEngine(ctx context.Context, engineID int64, delta storage.RatingDelta) error {
	if t.deltas == nil {
		t.deltas = make(map[int64]storage.RatingDelta)
	}
	t.deltas[engineID] = delta
	return nil
}

// Commit applies every staged game and engine update atomically from the
// caller's point of view: all of it becomes visible at once, under the lock
// already held since BeginTx.
func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("memstore: transaction already closed")
	}
	t.done = true
	defer t.store.mu.Unlock()

	t.store.games = append(t.store.games, t.games...)
	for id, delta := range t.deltas {
		e, ok := t.store.engines[id]
		if !ok {
			continue
		}
		e.Rating = delta.NewRating
		e.GamesPlayed += delta.GamesPlayed
		e.Wins += delta.Wins
		e.Losses += delta.Losses
		e.Draws += delta.Draws
	}
	return nil
}

// Rollback discards every staged write. It is a no-op once Commit has
// already run, so a deferred Rollback after a successful Commit is safe.
func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}
