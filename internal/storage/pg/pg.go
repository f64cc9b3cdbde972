// Package pg is the PostgreSQL-backed storage.Adapter: the production
// persistence layer, driven over database/sql with lib/pq as the driver.
// Schema is created by Bootstrap, which the init-db command runs; every
// other method assumes the tables already exist and only reads and writes
// rows.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
	"github.com/ugitourney/tourney/internal/storage"
)

// Store is a storage.Adapter backed by a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (a standard postgres:// or key=value connection
// string) and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ storage.Adapter = (*Store)(nil)

// schema creates the two append-mostly tables the adapter depends on if
// they do not already exist. games is append-only and indexed by played_at,
// match_set_name, and starting_position per §6.3.
const schema = `
CREATE TABLE IF NOT EXISTS engines (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	description  TEXT NOT NULL DEFAULT '',
	rating       INTEGER NOT NULL,
	games_played INTEGER NOT NULL DEFAULT 0,
	wins         INTEGER NOT NULL DEFAULT 0,
	losses       INTEGER NOT NULL DEFAULT 0,
	draws        INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
	id                  BIGSERIAL PRIMARY KEY,
	engine1_id          BIGINT NOT NULL REFERENCES engines(id),
	engine2_id          BIGINT NOT NULL REFERENCES engines(id),
	winner_id           BIGINT REFERENCES engines(id),
	is_draw             BOOLEAN NOT NULL DEFAULT false,
	engine1_rating_pre  INTEGER NOT NULL,
	engine2_rating_pre  INTEGER NOT NULL,
	engine1_rating_post INTEGER NOT NULL,
	engine2_rating_post INTEGER NOT NULL,
	moves               JSONB NOT NULL DEFAULT '[]',
	duration_ms         BIGINT NOT NULL DEFAULT 0,
	error               TEXT,
	final_status        JSONB NOT NULL DEFAULT '{}',
	starting_position    TEXT NOT NULL DEFAULT '',
	match_set_name      TEXT NOT NULL DEFAULT '',
	engine1_color       SMALLINT NOT NULL,
	engine2_color       SMALLINT NOT NULL,
	result              SMALLINT NOT NULL,
	played_at           TIMESTAMPTZ NOT NULL,
	external_ref        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS games_played_at_idx ON games (played_at);
CREATE INDEX IF NOT EXISTS games_match_set_name_idx ON games (match_set_name);
CREATE INDEX IF NOT EXISTS games_starting_position_idx ON games (starting_position);
`

// Bootstrap creates the engines and games tables if they do not already
// exist. It is the only place in this package that issues DDL; every other
// method assumes the schema is already in place.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("pg: bootstrap: %w", err)
	}
	return nil
}

const (
	addEngineSQL = `
INSERT INTO engines (name, rating, description)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET name = engines.name
RETURNING id`

	updateEngineMetaSQL = `
UPDATE engines SET rating = $2, description = $3 WHERE id = $1`

	enginesForSchedulingSQL = `
SELECT id, name, rating, games_played, wins, losses, draws FROM engines ORDER BY id`

	recentGamesSQL = `
SELECT id, engine1_id, engine2_id, winner_id, is_draw,
       engine1_rating_pre, engine2_rating_pre, engine1_rating_post, engine2_rating_post,
       moves, duration_ms, error, final_status, starting_position, match_set_name,
       engine1_color, engine2_color, result, played_at, external_ref
FROM games
WHERE played_at > $1
ORDER BY played_at`

	pairGameCountsSQL = `
SELECT engine1_id, engine2_id, COUNT(*) FROM games GROUP BY engine1_id, engine2_id`
)

// AddEngine inserts a new engine row, or returns the id of the existing row
// with the same name (idempotent upsert on the unique name constraint).
func (s *Store) AddEngine(ctx context.Context, name string, rating int, description lang.Optional[string]) (int64, error) {
	desc := ""
	if d, ok := description.Get(); ok {
		desc = d
	}

	var id int64
	err := s.db.QueryRowContext(ctx, addEngineSQL, name, rating, desc).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("pg: AddEngine %q: %w", name, err)
	}
	return id, nil
}

// UpdateEngineMeta overwrites an existing engine row's rating and
// description in place; it never touches games_played/wins/losses/draws.
func (s *Store) UpdateEngineMeta(ctx context.Context, id int64, rating int, description lang.Optional[string]) error {
	desc := ""
	if d, ok := description.Get(); ok {
		desc = d
	}
	res, err := s.db.ExecContext(ctx, updateEngineMetaSQL, id, rating, desc)
	if err != nil {
		return fmt.Errorf("pg: UpdateEngineMeta %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pg: UpdateEngineMeta %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("pg: UpdateEngineMeta: unknown engine id %d", id)
	}
	return nil
}

// EnginesForScheduling returns every engine row's scheduling-relevant
// fields.
func (s *Store) EnginesForScheduling(ctx context.Context) ([]storage.EngineSummary, error) {
	rows, err := s.db.QueryContext(ctx, enginesForSchedulingSQL)
	if err != nil {
		return nil, fmt.Errorf("pg: EnginesForScheduling: %w", err)
	}
	defer rows.Close()

	var out []storage.EngineSummary
	for rows.Next() {
		var e storage.EngineSummary
		if err := rows.Scan(&e.ID, &e.Name, &e.Rating, &e.GamesPlayed, &e.Wins, &e.Losses, &e.Draws); err != nil {
			return nil, fmt.Errorf("pg: EnginesForScheduling scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentGames returns games played within the last window.
func (s *Store) RecentGames(ctx context.Context, window time.Duration) ([]model.Game, error) {
	rows, err := s.db.QueryContext(ctx, recentGamesSQL, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("pg: RecentGames: %w", err)
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		var g model.Game
		var winnerID sql.NullInt64
		var errText sql.NullString
		var finalStatus, moves []byte
		if err := rows.Scan(
			&g.ID, &g.Engine1ID, &g.Engine2ID, &winnerID, &g.IsDraw,
			&g.Engine1RatingPre, &g.Engine2RatingPre, &g.Engine1RatingPost, &g.Engine2RatingPost,
			&moves, &g.DurationMS, &errText, &finalStatus, &g.StartingPosition, &g.MatchSetName,
			&g.Engine1Color, &g.Engine2Color, &g.Result, &g.PlayedAt, &g.ExternalRef,
		); err != nil {
			return nil, fmt.Errorf("pg: RecentGames scan: %w", err)
		}
		if winnerID.Valid {
			g.WinnerID = lang.Some(winnerID.Int64)
		}
		if errText.Valid {
			g.Error = lang.Some(errText.String)
		}
		if len(finalStatus) > 0 {
			if err := json.Unmarshal(finalStatus, &g.FinalStatus); err != nil {
				return nil, fmt.Errorf("pg: RecentGames unmarshal final_status: %w", err)
			}
		}
		if len(moves) > 0 {
			if err := json.Unmarshal(moves, &g.Moves); err != nil {
				return nil, fmt.Errorf("pg: RecentGames unmarshal moves: %w", err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// PairGameCounts tallies every persisted game by unordered engine pair.
func (s *Store) PairGameCounts(ctx context.Context) (map[storage.PairKey]int, error) {
	rows, err := s.db.QueryContext(ctx, pairGameCountsSQL)
	if err != nil {
		return nil, fmt.Errorf("pg: PairGameCounts: %w", err)
	}
	defer rows.Close()

	out := make(map[storage.PairKey]int)
	for rows.Next() {
		var a, b int64
		var n int
		if err := rows.Scan(&a, &b, &n); err != nil {
			return nil, fmt.Errorf("pg: PairGameCounts scan: %w", err)
		}
		out[storage.NewPairKey(a, b)] += n
	}
	return out, rows.Err()
}

// BeginTx opens a real database/sql transaction for the Elo Updater's
// atomic insert-games-and-update-ratings operation.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pg: BeginTx: %w", err)
	}
	return &tx{ctx: ctx, sqlTx: sqlTx}, nil
}

// tx wraps a *sql.Tx. Every method runs within the same underlying database
// transaction, so ReadRating always observes a consistent snapshot for the
// lifetime of the transaction (Postgres's default READ COMMITTED isolation
// is sufficient here because only one writer — the Elo Updater — ever
// touches a given engine's row within a match set).
type tx struct {
	ctx   context.Context
	sqlTx *sql.Tx
}

func (t *tx) ReadRating(ctx context.Context, engineID int64) (int, error) {
	var rating int
	err := t.sqlTx.QueryRowContext(ctx, `SELECT rating FROM engines WHERE id = $1 FOR UPDATE`, engineID).Scan(&rating)
	if err != nil {
		return 0, fmt.Errorf("pg: ReadRating %d: %w", engineID, err)
	}
	return rating, nil
}

func (t *tx) InsertGame(ctx context.Context, g model.Game) error {
	var winnerID sql.NullInt64
	if id, ok := g.WinnerID.Get(); ok {
		winnerID = sql.NullInt64{Int64: id, Valid: true}
	}
	var errText sql.NullString
	if e, ok := g.Error.Get(); ok {
		errText = sql.NullString{String: e, Valid: true}
	}
	finalStatus, err := json.Marshal(g.FinalStatus)
	if err != nil {
		return fmt.Errorf("pg: InsertGame marshal final_status: %w", err)
	}
	moves, err := json.Marshal(g.Moves)
	if err != nil {
		return fmt.Errorf("pg: InsertGame marshal moves: %w", err)
	}

	_, err = t.sqlTx.ExecContext(ctx, `
INSERT INTO games (
	engine1_id, engine2_id, winner_id, is_draw,
	engine1_rating_pre, engine2_rating_pre, engine1_rating_post, engine2_rating_post,
	moves, duration_ms, error, final_status, starting_position, match_set_name,
	engine1_color, engine2_color, result, played_at, external_ref
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		g.Engine1ID, g.Engine2ID, winnerID, g.IsDraw,
		g.Engine1RatingPre, g.Engine2RatingPre, g.Engine1RatingPost, g.Engine2RatingPost,
		moves, g.DurationMS, errText, finalStatus, g.StartingPosition, g.MatchSetName,
		g.Engine1Color, g.Engine2Color, g.Result, g.PlayedAt, g.ExternalRef,
	)
	if err != nil {
		return fmt.Errorf("pg: InsertGame: %w", err)
	}
	return nil
}

func (t *tx) UpdateEngine(ctx context.Context, engineID int64, delta storage.RatingDelta) error {
	_, err := t.sqlTx.ExecContext(ctx, `
UPDATE engines
SET rating = $1, games_played = games_played + $2, wins = wins + $3, losses = losses + $4, draws = draws + $5
WHERE id = $6`,
		delta.NewRating, delta.GamesPlayed, delta.Wins, delta.Losses, delta.Draws, engineID,
	)
	if err != nil {
		return fmt.Errorf("pg: UpdateEngine %d: %w", engineID, err)
	}
	return nil
}

func (t *tx) Commit() error {
	if err := t.sqlTx.Commit(); err != nil {
		return fmt.Errorf("pg: Commit: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	err := t.sqlTx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		logw.Warningf(t.ctx, "pg: Rollback: %v", err)
		return fmt.Errorf("pg: Rollback: %w", err)
	}
	return nil
}
