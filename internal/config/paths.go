package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EnvHome overrides the state/config directory.
const EnvHome = "CLIROUTER_HOME"

// File names inside Dir().
const (
	ConfigFile      = "config.yaml"
	ToolsFileYAML   = "tools.yaml"
	ToolsFileTOML   = "tools.toml"
	PreferencesFile = "command_preferences.json"
	StatusFile      = "cli_status.json"
	HistoryFile     = "success_patterns.json"
)

// Dir returns the clirouter directory holding config and persisted state.
// $CLIROUTER_HOME wins; otherwise on Linux this typically resolves to
// $XDG_CONFIG_HOME/clirouter, on macOS to ~/Library/Application Support/clirouter
// and on Windows to %AppData%/clirouter. Falls back to ~/.clirouter.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvHome)); v != "" {
		return v, nil
	}
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			return filepath.Join(home, ".clirouter"), nil
		}
		return "", errors.New("cannot determine config directory")
	}
	return filepath.Join(base, "clirouter"), nil
}
