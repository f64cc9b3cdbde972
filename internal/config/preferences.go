// Package config loads the two configuration documents the orchestrator
// reads: the JSON tournament/engine document (§6.1, tournament.go) and a
// small, optional TOML file of CLI display preferences (preferences.go).
// Only the latter lives under this package's TOML loader, and it has no
// bearing on tournament semantics.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultTheme is the default rankings table theme.
const DefaultTheme = "classic"

// Preferences holds purely cosmetic CLI settings. Only UseColor is read, by
// the optional TUI dashboard; UseUnicodePieces, Theme and
// CopyRankingsToClipboard are saved and loaded but nothing else reads them.
// Nothing in here affects how a tournament is scheduled, played, or scored.
type Preferences struct {
	UseUnicodePieces       bool
	UseColor               bool
	Theme                  string
	CopyRankingsToClipboard bool
}

// DefaultPreferences returns reasonable defaults for a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		UseUnicodePieces:        true,
		UseColor:                true,
		Theme:                   DefaultTheme,
		CopyRankingsToClipboard: false,
	}
}

// preferencesFile mirrors Preferences' on-disk TOML shape.
type preferencesFile struct {
	UseUnicodePieces bool   `toml:"use_unicode_pieces"`
	UseColor         bool   `toml:"use_color"`
	Theme            string `toml:"theme"`
	CopyToClipboard  bool   `toml:"copy_rankings_to_clipboard"`
}

func (f preferencesFile) toPreferences() Preferences {
	theme := f.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	return Preferences{
		UseUnicodePieces:        f.UseUnicodePieces,
		UseColor:                f.UseColor,
		Theme:                   theme,
		CopyRankingsToClipboard: f.CopyToClipboard,
	}
}

func (p Preferences) toFile() preferencesFile {
	theme := p.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	return preferencesFile{
		UseUnicodePieces: p.UseUnicodePieces,
		UseColor:         p.UseColor,
		Theme:            theme,
		CopyToClipboard:  p.CopyRankingsToClipboard,
	}
}

// LoadPreferences reads ~/.tourney/preferences.toml. If the file is missing,
// unreadable, or malformed, it returns DefaultPreferences() — this function
// never fails the calling command, since display preferences are strictly
// cosmetic.
func LoadPreferences() Preferences {
	path, err := getPreferencesFilePath()
	if err != nil {
		return DefaultPreferences()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultPreferences()
	}

	var f preferencesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return DefaultPreferences()
	}
	return f.toPreferences()
}

// SavePreferences writes p to ~/.tourney/preferences.toml, creating the
// directory if necessary.
func SavePreferences(p Preferences) error {
	dir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := getPreferencesFilePath()
	if err != nil {
		return fmt.Errorf("failed to get preferences file path: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preferences file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(p.toFile()); err != nil {
		return fmt.Errorf("failed to encode preferences to TOML: %w", err)
	}
	return nil
}
