package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
	"github.com/ugitourney/tourney/internal/timecontrol"
	"github.com/ugitourney/tourney/internal/ugi"
)

// slowScript behaves like matchset's countingScript but pauses briefly on
// every "go" so a match set takes long enough to observe overlap between
// concurrently running match sets.
const slowScript = `#!/bin/sh
moves=0
while IFS= read -r line; do
  case "$line" in
    ugi) printf 'ugiok\n' ;;
    isready) printf 'readyok\n' ;;
    makemove*) moves=$((moves+1)) ;;
    go) sleep 0.05; printf 'bestmove e2e4\n' ;;
    status)
      if [ "$moves" -ge 2 ]; then
        printf 'status checkmate playertomove 1\ninfo player 1 result win score 1-0\ninfo player 2 result loss score 0-1\n'
      else
        printf 'status inprogress playertomove 1\n'
      fi
      ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`

func writeScript(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.sh")
	if err := os.WriteFile(path, []byte(slowScript), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

// fakeStore is a minimal, mutex-guarded storage.Adapter double backing a
// fixed pool of engines with equal ratings, so every pair is a valid
// candidate throughout the test.
type fakeStore struct {
	mu      sync.Mutex
	ratings map[int64]int
	games   []model.Game
}

func newFakeStore(ids []int64) *fakeStore {
	r := make(map[int64]int, len(ids))
	for _, id := range ids {
		r[id] = 1500
	}
	return &fakeStore{ratings: r}
}

func (s *fakeStore) AddEngine(ctx context.Context, name string, rating int, desc lang.Optional[string]) (int64, error) {
	return 0, nil
}

func (s *fakeStore) UpdateEngineMeta(ctx context.Context, id int64, rating int, desc lang.Optional[string]) error {
	return nil
}

func (s *fakeStore) EnginesForScheduling(ctx context.Context) ([]storage.EngineSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.EngineSummary, 0, len(s.ratings))
	for id, r := range s.ratings {
		out = append(out, storage.EngineSummary{ID: id, Name: "e", Rating: r, GamesPlayed: 0})
	}
	return out, nil
}

func (s *fakeStore) RecentGames(ctx context.Context, window time.Duration) ([]model.Game, error) {
	return nil, nil
}

func (s *fakeStore) PairGameCounts(ctx context.Context) (map[storage.PairKey]int, error) {
	return nil, nil
}

func (s *fakeStore) BeginTx(ctx context.Context) (storage.Tx, error) {
	return &fakeTxStore{store: s}, nil
}

type fakeTxStore struct {
	store *fakeStore
}

func (t *fakeTxStore) ReadRating(ctx context.Context, id int64) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.ratings[id], nil
}

func (t *fakeTxStore) InsertGame(ctx context.Context, g model.Game) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.games = append(t.store.games, g)
	return nil
}

func (t *fakeTxStore) UpdateEngine(ctx context.Context, id int64, delta storage.RatingDelta) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.ratings[id] = delta.NewRating
	return nil
}

func (t *fakeTxStore) Commit() error   { return nil }
func (t *fakeTxStore) Rollback() error { return nil }

func newTestScheduler(t *testing.T, concurrency int) (*Scheduler, *fakeStore) {
	t.Helper()
	exe := writeScript(t)
	ids := []int64{1, 2, 3, 4}
	store := newFakeStore(ids)

	launcher := func(id int64) (ugi.Config, bool) {
		for _, want := range ids {
			if id == want {
				return ugi.Config{Name: "e", Executable: exe, HandshakeTimeout: 2 * time.Second}, true
			}
		}
		return ugi.Config{}, false
	}

	cfg := Config{
		Concurrency: concurrency,
		MatchSets: []model.MatchSet{{
			Name:              "quick",
			StartingPositions: []model.StartingPosition{{Name: "start"}},
			GamesPerPosition:  2,
		}},
		DefaultMatchSet: "quick",
		TimeControl:     timecontrol.TimeControl{Base: 5 * time.Second},
		KFactor:         32,
		RetryDelay:      20 * time.Millisecond,
		SettleDelay:     5 * time.Millisecond,
	}

	return New(store, launcher, cfg), store
}

func TestSchedulerConcurrencyCapNeverExceeded(t *testing.T) {
	s, _ := newTestScheduler(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	max := 0
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(800 * time.Millisecond)
poll:
	for {
		select {
		case <-ticker.C:
			if n := s.RunningCount(); n > max {
				max = n
			}
		case <-deadline:
			break poll
		}
	}

	s.Stop()
	<-done

	if max > 2 {
		t.Errorf("observed RunningCount = %d, want <= 2", max)
	}
	if max == 0 {
		t.Error("expected at least one match set to have run concurrently with polling")
	}
	if n := s.RunningCount(); n != 0 {
		t.Errorf("RunningCount after Run returns = %d, want 0", n)
	}
}

func TestSchedulerGracefulShutdownDrainsInFlight(t *testing.T) {
	s, store := newTestScheduler(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	started := make(chan struct{}, 64)
	go func() {
		for ev := range s.Events() {
			if ev.Kind == EventMatchSetStarted {
				select {
				case started <- struct{}{}:
				default:
				}
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Let at least one match set begin before asking the scheduler to stop.
	select {
	case <-started:
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for a match set to start")
	}

	s.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after Stop within the timeout")
	}

	if n := s.RunningCount(); n != 0 {
		t.Errorf("RunningCount after graceful shutdown = %d, want 0", n)
	}

	store.mu.Lock()
	numGames := len(store.games)
	store.mu.Unlock()
	if numGames == 0 {
		t.Error("expected at least one game to have been persisted by the drained match set")
	}
}
