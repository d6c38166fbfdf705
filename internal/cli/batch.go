package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcliao/gallerycaptions/internal/batch"
	"github.com/rcliao/gallerycaptions/internal/caption"
	"github.com/rcliao/gallerycaptions/internal/journal"
	"github.com/rcliao/gallerycaptions/internal/loader"
	"github.com/rcliao/gallerycaptions/internal/metadata"
	"github.com/rcliao/gallerycaptions/internal/ui"
)

// LockName is the advisory lock file created in the albums directory.
const LockName = ".gallerycaptions.lock"

func init() {
	f := RootCmd.Flags()
	f.String("root", "", "Albums directory the resolved paths are relative to (default: current directory)")
	f.Bool("dry-run", false, "Show what would be written without touching any file")
	f.String("policy", "", "Caption merge policy: append or dedupe (default append)")
	f.StringArray("exclude", nil, "Skip paths matching a gitignore-style pattern (repeatable)")
	f.Bool("no-journal", false, "Do not record the run in the journal")
	f.String("exiftool", "", "exiftool binary (default: exiftool on PATH)")
	f.Int("max-depth", 0, "Maximum album nesting followed when rebuilding a path (default 256)")
}

func runBatch(cmd *cobra.Command, args []string) {
	f := cmd.Flags()
	dryRun, _ := f.GetBool("dry-run")

	root := cfg.Root
	if f.Changed("root") {
		root, _ = f.GetString("root")
	}
	if root == "" {
		root = "."
	}

	policyName := cfg.Policy
	if f.Changed("policy") {
		policyName, _ = f.GetString("policy")
	}
	policy, err := caption.ParsePolicy(policyName)
	if err != nil {
		exitErr("policy", err)
	}

	excludes := cfg.Excludes
	if f.Changed("exclude") {
		more, _ := f.GetStringArray("exclude")
		excludes = append(append([]string(nil), excludes...), more...)
	}

	bin := cfg.ExifTool
	if f.Changed("exiftool") {
		bin, _ = f.GetString("exiftool")
	}

	maxDepth := cfg.MaxDepth
	if f.Changed("max-depth") {
		maxDepth, _ = f.GetInt("max-depth")
	}

	noJournal, _ := f.GetBool("no-journal")
	noJournal = noJournal || cfg.DisableJournal

	info, err := os.Stat(root)
	if err != nil {
		exitErr("albums directory", err)
	}
	if !info.IsDir() {
		exitErr("albums directory", fmt.Errorf("%s is not a directory", root))
	}

	lock := flock.New(filepath.Join(root, LockName))
	locked, err := lock.TryLock()
	if err != nil {
		exitErr("acquire lock", err)
	}
	if !locked {
		exitErr("acquire lock", errors.New("another run is already captioning "+root))
	}
	defer lock.Unlock()

	out := ui.Stdout()
	out.Inputs(args[0], args[1], args[2])

	tagger, err := metadata.NewExifTool(bin)
	if err != nil {
		exitErr("start exiftool", err)
	}
	defer tagger.Close()

	var jr journal.Journal
	if !noJournal {
		j, err := openJournal()
		if err != nil {
			logrus.WithError(err).Warn("journal disabled")
		} else {
			defer j.Close()
			jr = j
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sum, err := batch.Run(ctx, batch.Options{
		Paths: loader.Paths{
			Items:      args[0],
			Children:   args[1],
			Filesystem: args[2],
		},
		Root:     root,
		Policy:   policy,
		DryRun:   dryRun,
		Excludes: excludes,
		MaxDepth: maxDepth,
		Tagger:   tagger,
		Journal:  jr,
		Printer:  out,
	})
	if sum != nil {
		out.Summary(sum.Totals(dryRun))
	}
	if err != nil {
		// exitErr skips deferred cleanup.
		tagger.Close()
		lock.Unlock()
		exitErr("caption batch", err)
	}
}
