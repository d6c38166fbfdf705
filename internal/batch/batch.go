// Package batch runs the caption pipeline over a gallery export.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/gallerycaptions/internal/caption"
	"github.com/rcliao/gallerycaptions/internal/journal"
	"github.com/rcliao/gallerycaptions/internal/loader"
	"github.com/rcliao/gallerycaptions/internal/metadata"
	"github.com/rcliao/gallerycaptions/internal/model"
	"github.com/rcliao/gallerycaptions/internal/pathres"
	"github.com/rcliao/gallerycaptions/internal/ui"
)

// ErrNoPath is returned for items whose parent links resolve to nothing.
var ErrNoPath = errors.New("no path for item")

// Options configures a batch run.
type Options struct {
	Paths    loader.Paths
	Root     string
	Policy   caption.Policy
	DryRun   bool
	Excludes []string
	// MaxDepth bounds each parent walk; zero uses pathres.DefaultMaxDepth.
	MaxDepth int

	// Tagger reads and writes captions. Required.
	Tagger metadata.Tagger
	// Journal records every decision. Optional.
	Journal journal.Journal
	// Printer receives operator output. Optional.
	Printer *ui.Printer
}

// Result is the decision taken for one target.
type Result struct {
	ItemID  string
	Outcome metadata.Outcome
	Err     error
}

// Summary holds the totals of a run.
type Summary struct {
	RunID     string
	Items     int
	Written   int
	Unchanged int
	Skipped   int
	Failed    int
	Results   []Result
}

// Run loads the three export files and captions every resolvable image.
//
// Structural input errors abort the run before anything is written.
// Per-file metadata errors are counted as failures and the run continues.
// Cancelling ctx stops the run between files.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Tagger == nil {
		return nil, errors.New("batch: no tagger")
	}

	tables, err := loader.LoadTables(opts.Paths)
	if err != nil {
		return nil, err
	}

	filter := NewFilter(opts.Excludes)
	targets, unresolved := Plan(tables, opts.MaxDepth)

	sum := &Summary{Items: len(tables.Items), Skipped: unresolved}
	jr := beginRun(ctx, opts)
	if jr != nil {
		sum.RunID = jr.run.ID
	}

	writer := metadata.NewWriter(opts.Tagger, metadata.WriterOptions{
		Root:   opts.Root,
		Policy: opts.Policy,
		DryRun: opts.DryRun,
	})

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			jr.finish(sum)
			return sum, err
		}

		var (
			out    metadata.Outcome
			runErr error
		)
		if filter.Excluded(t.Path) {
			out = metadata.Outcome{Path: t.Path, Caption: t.Caption, Status: model.StatusExcluded}
			logrus.WithField("path", t.Path).Debug("excluded")
		} else {
			out, runErr = writer.Apply(ctx, t.Path, t.Caption)
		}

		sum.add(out.Status)
		sum.Results = append(sum.Results, Result{ItemID: t.ItemID, Outcome: out, Err: runErr})
		report(opts.Printer, out, runErr)
		jr.record(ctx, t.ItemID, out, runErr)
	}

	jr.finish(sum)
	return sum, nil
}

func (s *Summary) add(status model.Status) {
	switch status {
	case model.StatusWritten, model.StatusDryRun:
		s.Written++
	case model.StatusUnchanged:
		s.Unchanged++
	case model.StatusFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// Totals converts s for the summary line.
func (s *Summary) Totals(dryRun bool) ui.Totals {
	return ui.Totals{
		Written:   s.Written,
		Unchanged: s.Unchanged,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		DryRun:    dryRun,
	}
}

func report(p *ui.Printer, out metadata.Outcome, err error) {
	log := logrus.WithField("path", out.Path)
	switch out.Status {
	case model.StatusWritten:
		if out.HadPrevious {
			log = log.WithField("previous", out.Previous)
		}
		log.Debug("caption written")
		if p != nil {
			p.Caption(out.Path, out.Caption)
		}
	case model.StatusDryRun:
		if p != nil {
			p.Planned(out.Path, out.Caption)
		}
	case model.StatusFailed:
		log.WithError(err).Warn("caption failed")
		if p != nil {
			p.Failed(out.Path, err)
		}
	case model.StatusMissing:
		log.Debug("no such file")
	case model.StatusEmpty:
		log.Info("item has no description, summary or title; nothing written")
	case model.StatusUnchanged:
		log.Debug("caption already present")
	}
}

// Target is one image to caption.
type Target struct {
	ItemID  string
	Path    string
	Caption string
}

// Plan resolves a path and caption for every item, in ascending id order.
// When two items resolve to the same path the later one wins. The second
// return value counts items whose path could not be resolved.
func Plan(tables *model.Tables, maxDepth int) ([]Target, int) {
	res := pathres.New(tables).WithMaxDepth(maxDepth)

	ids := make([]string, 0, len(tables.Items))
	for id := range tables.Items {
		ids = append(ids, id)
	}
	SortIDs(ids)

	var (
		targets    []Target
		byPath     = make(map[string]int)
		unresolved int
	)
	for _, id := range ids {
		t, err := target(res, tables.Items[id])
		if err != nil {
			logrus.WithField("item", id).Debug(err)
			unresolved++
			continue
		}

		if i, ok := byPath[t.Path]; ok {
			logrus.WithFields(logrus.Fields{
				"path":     t.Path,
				"item":     id,
				"replaces": targets[i].ItemID,
			}).Warn("two items resolve to the same file")
			targets[i] = t
			continue
		}
		byPath[t.Path] = len(targets)
		targets = append(targets, t)
	}
	return targets, unresolved
}

func target(res *pathres.Resolver, item model.Item) (Target, error) {
	path, ok := res.ResolvePath(item.ID)
	if !ok {
		return Target{}, fmt.Errorf("item %s: %w", item.ID, ErrNoPath)
	}
	return Target{ItemID: item.ID, Path: path, Caption: caption.Resolve(item)}, nil
}

// SortIDs orders ids ascending. Integer ids come first in numeric order,
// the rest follow in byte order.
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}
