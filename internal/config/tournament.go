package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/ugitourney/tourney/internal/model"
)

// EnginesConfigEnv overrides DefaultConfigPath.
const EnginesConfigEnv = "ENGINES_CONFIG"

// DefaultConfigPath is used when neither a --config flag nor ENGINES_CONFIG
// names a file.
const DefaultConfigPath = "tournament.json"

// DefaultKFactor and DefaultVolatilityWindow are the Elo Updater and
// Pairing Scheduler knobs when the document leaves them unset (SPEC_FULL.md
// OQ-2).
const (
	DefaultKFactor          = 32
	DefaultVolatilityWindow = 24 * time.Hour
)

// Document is the top-level shape of the JSON tournament/engine
// configuration file (§6.1). Unknown keys are ignored by
// encoding/json.Unmarshal, matching the loader's documented behavior.
type Document struct {
	Tournament TournamentDoc `json:"tournament"`
	Engines    []EngineDoc   `json:"engines"`
}

// TournamentDoc is the "tournament" section of the document.
type TournamentDoc struct {
	Name                  string        `json:"name"`
	Description           string        `json:"description,omitempty"`
	TimeControl           string        `json:"timeControl"`
	Rounds                int           `json:"rounds,omitempty"`
	GamesPerPair          int           `json:"gamesPerPair,omitempty"`
	Concurrency           int           `json:"concurrency,omitempty"`
	DefaultMatchSet       string        `json:"defaultMatchSet,omitempty"`
	MatchSets             []MatchSetDoc `json:"matchSets,omitempty"`
	KFactor               int           `json:"kFactor,omitempty"`
	VolatilityWindowHours int           `json:"volatilityWindowHours,omitempty"`
	EnforceClocks         *bool         `json:"enforceClocks,omitempty"`
}

// MatchSetDoc is one entry of "tournament.matchSets".
type MatchSetDoc struct {
	Name              string                `json:"name"`
	Description       string                `json:"description,omitempty"`
	GamesPerPosition  int                   `json:"gamesPerPosition"`
	StartingPositions []StartingPositionDoc `json:"startingPositions"`
}

// StartingPositionDoc is one entry of a MatchSetDoc's startingPositions.
type StartingPositionDoc struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Moves       []string `json:"moves,omitempty"`
	FEN         string   `json:"fen,omitempty"`
}

// EngineDoc is one entry of the top-level "engines" array.
type EngineDoc struct {
	Name             string            `json:"name"`
	Executable       string            `json:"executable"`
	WorkingDirectory string            `json:"workingDirectory,omitempty"`
	Arguments        []string          `json:"arguments,omitempty"`
	InitialRating    int               `json:"initialRating"`
	Enabled          bool              `json:"enabled"`
	Description      string            `json:"description,omitempty"`
	Options          map[string]string `json:"options,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
}

// LoadDocument reads the JSON tournament/engine configuration from path. An
// empty path resolves ENGINES_CONFIG, falling back to DefaultConfigPath. A
// missing file is not an error: the loader logs once and returns an empty
// Document so the caller proceeds with no engines configured. Malformed JSON
// is fatal to the caller (returned as an error, per §6.1 "Invalid JSON →
// fatal").
func LoadDocument(ctx context.Context, path string) (Document, error) {
	if path == "" {
		path = os.Getenv(EnginesConfigEnv)
	}
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logw.Warningf(ctx, "config: %v not found, starting with no engines", path)
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("config: reading %v: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("config: invalid json in %v: %w", path, err)
	}
	return doc, nil
}

// KFactorOrDefault returns the configured K-factor, or DefaultKFactor if unset.
func (t TournamentDoc) KFactorOrDefault() int {
	if t.KFactor <= 0 {
		return DefaultKFactor
	}
	return t.KFactor
}

// VolatilityWindowOrDefault returns the configured volatility window, or
// DefaultVolatilityWindow if unset. The Pairing Scheduler does not read it:
// its volatility term always looks back over a fixed 24h window.
func (t TournamentDoc) VolatilityWindowOrDefault() time.Duration {
	if t.VolatilityWindowHours <= 0 {
		return DefaultVolatilityWindow
	}
	return time.Duration(t.VolatilityWindowHours) * time.Hour
}

// EnforceClocksOrDefault returns the configured flag-fall setting, defaulting
// to enabled per SPEC_FULL.md OQ-4.
func (t TournamentDoc) EnforceClocksOrDefault() bool {
	if t.EnforceClocks == nil {
		return true
	}
	return *t.EnforceClocks
}

// ToMatchSets converts the document's match sets into model.MatchSet
// values.
func (d Document) ToMatchSets() []model.MatchSet {
	out := make([]model.MatchSet, 0, len(d.Tournament.MatchSets))
	for _, ms := range d.Tournament.MatchSets {
		positions := make([]model.StartingPosition, 0, len(ms.StartingPositions))
		for _, sp := range ms.StartingPositions {
			p := model.StartingPosition{Name: sp.Name, Moves: sp.Moves}
			if sp.Description != "" {
				p.Description = lang.Some(sp.Description)
			}
			if sp.FEN != "" {
				p.FEN = lang.Some(sp.FEN)
			}
			positions = append(positions, p)
		}
		gpp := ms.GamesPerPosition
		if gpp <= 0 {
			gpp = 2
		}
		out = append(out, model.MatchSet{
			Name:              ms.Name,
			Description:       ms.Description,
			StartingPositions: positions,
			GamesPerPosition:  gpp,
		})
	}
	return out
}

// ToEngineConfigs converts the document's engines into model.EngineConfig
// values, skipping disabled entries per §6.1 ("Disabled engines → skipped by
// the loader but may still exist in persistence from prior runs").
func (d Document) ToEngineConfigs() []model.EngineConfig {
	out := make([]model.EngineConfig, 0, len(d.Engines))
	for _, e := range d.Engines {
		if !e.Enabled {
			continue
		}
		cfg := model.EngineConfig{
			Name:             e.Name,
			Executable:       e.Executable,
			WorkingDirectory: e.WorkingDirectory,
			Arguments:        e.Arguments,
			Options:          e.Options,
			Env:              e.Env,
			InitialRating:    e.InitialRating,
			Enabled:          e.Enabled,
		}
		if e.Description != "" {
			cfg.Description = lang.Some(e.Description)
		}
		out = append(out, cfg)
	}
	return out
}
