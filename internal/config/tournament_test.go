package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDocumentMissingFileIsNotFatal(t *testing.T) {
	doc, err := LoadDocument(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(doc.Engines) != 0 || len(doc.Tournament.MatchSets) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestLoadDocumentInvalidJSONIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tournament.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := LoadDocument(context.Background(), path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

const sampleDoc = `{
  "tournament": {
    "name": "weekly",
    "timeControl": "30+1",
    "defaultMatchSet": "openers",
    "matchSets": [
      {
        "name": "openers",
        "gamesPerPosition": 2,
        "startingPositions": [
          {"name": "start"},
          {"name": "sicilian", "moves": ["e2e4", "c7c5"]}
        ]
      }
    ]
  },
  "engines": [
    {"name": "alpha", "executable": "/bin/alpha", "initialRating": 1500, "enabled": true},
    {"name": "beta", "executable": "/bin/beta", "initialRating": 1600, "enabled": false}
  ],
  "someUnknownKey": {"ignored": true}
}`

func TestLoadDocumentParsesMatchSetsAndEngines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tournament.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	doc, err := LoadDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	if doc.Tournament.Name != "weekly" || doc.Tournament.TimeControl != "30+1" {
		t.Errorf("tournament section = %+v", doc.Tournament)
	}

	matchSets := doc.ToMatchSets()
	if len(matchSets) != 1 || len(matchSets[0].StartingPositions) != 2 {
		t.Fatalf("ToMatchSets() = %+v", matchSets)
	}
	if matchSets[0].GamesPerPosition != 2 {
		t.Errorf("GamesPerPosition = %d, want 2", matchSets[0].GamesPerPosition)
	}

	engines := doc.ToEngineConfigs()
	if len(engines) != 1 {
		t.Fatalf("ToEngineConfigs() = %+v, want 1 enabled engine (beta is disabled)", engines)
	}
	if engines[0].Name != "alpha" {
		t.Errorf("engine name = %q, want alpha", engines[0].Name)
	}
}

func TestEnginesConfigEnvOverridesDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	t.Setenv(EnginesConfigEnv, path)

	doc, err := LoadDocument(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.Tournament.Name != "weekly" {
		t.Errorf("expected document to load from ENGINES_CONFIG path, got %+v", doc.Tournament)
	}
}

func TestKFactorAndVolatilityWindowDefaults(t *testing.T) {
	var d TournamentDoc
	if d.KFactorOrDefault() != DefaultKFactor {
		t.Errorf("KFactorOrDefault() = %d, want %d", d.KFactorOrDefault(), DefaultKFactor)
	}
	if d.VolatilityWindowOrDefault() != DefaultVolatilityWindow {
		t.Errorf("VolatilityWindowOrDefault() = %v, want %v", d.VolatilityWindowOrDefault(), DefaultVolatilityWindow)
	}
	if !d.EnforceClocksOrDefault() {
		t.Error("EnforceClocksOrDefault() = false, want true (default on)")
	}
}
