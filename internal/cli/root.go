// Package cli implements the gallerycaptions CLI commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcliao/gallerycaptions/internal/config"
	"github.com/rcliao/gallerycaptions/internal/journal"
)

var (
	dbPath     string
	configPath string
	logLevel   string
	formatFlag string

	cfg *config.Config
)

// RootCmd is the top-level command. Given the three export files it runs the
// caption batch.
var RootCmd = &cobra.Command{
	Use:   "gallerycaptions [flags] <item.csv> <child_entity.csv> <filesystem_entity.csv>",
	Short: "Copy Gallery2 captions into image metadata",
	Long: `Reads the g2_Item, g2_ChildEntity and g2_FileSystemEntity tables exported
from a Gallery2 database, rebuilds each item's path below the albums directory
and stores the item's description, summary and title as the IPTC caption of
the image.

Run it from the albums directory or pass --root.`,
	Args:              cobra.ExactArgs(3),
	PersistentPreRunE: setup,
	Run:               runBatch,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Journal path (default: $GALLERYCAPTIONS_DB or ~/.gallerycaptions/journal.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.config/gallerycaptions/config.toml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default warn)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format for journal commands: json or text")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetLevel(lvl)
	return nil
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.JournalPath()
}

func openJournal() (*journal.SQLiteJournal, error) {
	return journal.Open(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
