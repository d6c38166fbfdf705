package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
root = "/srv/g2data/albums"
policy = "dedupe"
journal = "/var/lib/gallerycaptions/journal.db"
exiftool = "/usr/local/bin/exiftool"
exclude = ["*.avi", "private/"]
log_level = "debug"
max_depth = 64
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/g2data/albums", cfg.Root)
	assert.Equal(t, "dedupe", cfg.Policy)
	assert.Equal(t, "/usr/local/bin/exiftool", cfg.ExifTool)
	assert.Equal(t, []string{"*.avi", "private/"}, cfg.Excludes)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.False(t, cfg.DisableJournal)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
policy: append
disable_journal: true
exclude:
  - "*.mov"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "append", cfg.Policy)
	assert.True(t, cfg.DisableJournal)
	assert.Equal(t, []string{"*.mov"}, cfg.Excludes)
}

func TestLoadFromInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("policy = [unterminated"), 0o644))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadMissingDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestJournalPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvJournal, "")

	cfg := &Config{}
	assert.Equal(t, filepath.Join(home, ".gallerycaptions", "journal.db"), cfg.JournalPath())

	cfg.Journal = "~/captions.db"
	assert.Equal(t, filepath.Join(home, "captions.db"), cfg.JournalPath())

	t.Setenv(EnvJournal, "/tmp/override.db")
	assert.Equal(t, "/tmp/override.db", cfg.JournalPath())
}
