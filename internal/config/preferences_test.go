package config

import (
	"os"
	"testing"
)

func TestLoadPreferencesMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(ConfigDirEnv, t.TempDir())

	p := LoadPreferences()
	if p != DefaultPreferences() {
		t.Errorf("LoadPreferences() = %+v, want defaults", p)
	}
}

func TestSaveAndLoadPreferencesRoundTrip(t *testing.T) {
	t.Setenv(ConfigDirEnv, t.TempDir())

	want := Preferences{
		UseUnicodePieces:        false,
		UseColor:                false,
		Theme:                   "modern",
		CopyRankingsToClipboard: true,
	}
	if err := SavePreferences(want); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got := LoadPreferences()
	if got != want {
		t.Errorf("LoadPreferences() = %+v, want %+v", got, want)
	}
}

func TestLoadPreferencesMalformedFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)

	path, err := getPreferencesFilePath()
	if err != nil {
		t.Fatalf("getPreferencesFilePath: %v", err)
	}
	if err := os.WriteFile(path, []byte("not valid toml {{{"), 0o644); err != nil {
		t.Fatalf("writing malformed file: %v", err)
	}

	p := LoadPreferences()
	if p != DefaultPreferences() {
		t.Errorf("LoadPreferences() with malformed file = %+v, want defaults", p)
	}
}

func TestLoadPreferencesEmptyThemeDefaults(t *testing.T) {
	f := preferencesFile{Theme: ""}
	if got := f.toPreferences().Theme; got != DefaultTheme {
		t.Errorf("Theme = %q, want %q", got, DefaultTheme)
	}
}
