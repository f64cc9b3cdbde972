package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDirEnv overrides the preferences directory, primarily for tests.
const ConfigDirEnv = "TOURNEY_CONFIG_DIR"

// GetConfigDir returns the path to the tourney preferences directory,
// ~/.tourney, or the directory named by TOURNEY_CONFIG_DIR if set.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tourney"), nil
}

// getPreferencesFilePath returns the full path to preferences.toml.
func getPreferencesFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "preferences.toml"), nil
}
