package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
)

// testDSNEnv names the environment variable this package's integration test
// reads for a live Postgres connection string. Unset (the default in CI
// without a database), the test is skipped rather than failed.
const testDSNEnv = "TOURNEY_TEST_PG_DSN"

func TestStoreAgainstLiveDatabase(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping live database test", testDSNEnv)
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	id1, err := s.AddEngine(ctx, "pg-test-alpha", 1500, lang.Optional[string]{})
	if err != nil {
		t.Fatalf("AddEngine: %v", err)
	}
	id2, err := s.AddEngine(ctx, "pg-test-beta", 1500, lang.Optional[string]{})
	if err != nil {
		t.Fatalf("AddEngine: %v", err)
	}

	if err := s.UpdateEngineMeta(ctx, id1, 1550, lang.Some("updated")); err != nil {
		t.Fatalf("UpdateEngineMeta: %v", err)
	}
	engines, err := s.EnginesForScheduling(ctx)
	if err != nil {
		t.Fatalf("EnginesForScheduling: %v", err)
	}
	var found bool
	for _, e := range engines {
		if e.ID == id1 {
			found = true
			if e.Rating != 1550 {
				t.Errorf("rating = %d, want 1550 after UpdateEngineMeta", e.Rating)
			}
		}
	}
	if !found {
		t.Fatal("expected to find updated engine in EnginesForScheduling")
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.InsertGame(ctx, model.Game{
		Engine1ID: id1, Engine2ID: id2, Result: model.ResultWin, PlayedAt: time.Now(),
		Moves: []string{"e2e4", "e7e5"},
	}); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}
	if err := tx.UpdateEngine(ctx, id1, storage.RatingDelta{NewRating: 1566, GamesPlayed: 1, Wins: 1}); err != nil {
		t.Fatalf("UpdateEngine: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	games, err := s.RecentGames(ctx, time.Hour)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	var sawGame bool
	for _, g := range games {
		if g.Engine1ID == id1 && g.Engine2ID == id2 {
			sawGame = true
			if len(g.Moves) != 2 {
				t.Errorf("moves = %v, want 2 entries round-tripped through jsonb", g.Moves)
			}
		}
	}
	if !sawGame {
		t.Error("expected the inserted game to appear in RecentGames")
	}
}
