// Package config handles gallerycaptions configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvJournal overrides the journal location.
const EnvJournal = "GALLERYCAPTIONS_DB"

// Config represents the gallerycaptions configuration file.
type Config struct {
	// Root is the albums directory resolved paths are relative to.
	// Defaults to the current directory.
	Root string `toml:"root" yaml:"root"`

	// Policy is the caption merge policy: append or dedupe.
	Policy string `toml:"policy" yaml:"policy"`

	// Journal is the path of the SQLite audit journal.
	Journal string `toml:"journal" yaml:"journal"`

	// DisableJournal turns the audit journal off.
	DisableJournal bool `toml:"disable_journal" yaml:"disable_journal"`

	// ExifTool is the exiftool binary to run (defaults to exiftool on PATH).
	ExifTool string `toml:"exiftool" yaml:"exiftool"`

	// Excludes are gitignore-style patterns; matching resolved paths are skipped.
	Excludes []string `toml:"exclude" yaml:"exclude"`

	// MaxDepth bounds each walk up the album tree (default 256).
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path. Files ending in
// .yaml or .yml are read as YAML, everything else as TOML.
func LoadFrom(path string) (*Config, error) {
	var config Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/gallerycaptions/config.toml first (XDG style),
// then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "gallerycaptions", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "gallerycaptions", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// JournalPath returns the journal location: $GALLERYCAPTIONS_DB, then the
// configured path, then ~/.gallerycaptions/journal.db.
func (c *Config) JournalPath() string {
	if env := os.Getenv(EnvJournal); env != "" {
		return env
	}
	if c.Journal != "" {
		return expandHome(c.Journal)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gallerycaptions", "journal.db")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
