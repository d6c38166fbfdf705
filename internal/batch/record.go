package batch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/gallerycaptions/internal/journal"
	"github.com/rcliao/gallerycaptions/internal/metadata"
	"github.com/rcliao/gallerycaptions/internal/model"
)

// runJournal wraps an open journal run. Journal failures are logged and
// never abort the batch; a nil *runJournal records nothing.
type runJournal struct {
	j   journal.Journal
	run *model.Run
}

func beginRun(ctx context.Context, opts Options) *runJournal {
	if opts.Journal == nil {
		return nil
	}
	run, err := opts.Journal.BeginRun(ctx, journal.RunParams{
		ItemFile:       opts.Paths.Items,
		ChildFile:      opts.Paths.Children,
		FilesystemFile: opts.Paths.Filesystem,
		Policy:         string(opts.Policy),
		DryRun:         opts.DryRun,
	})
	if err != nil {
		logrus.WithError(err).Warn("journal: begin run")
		return nil
	}
	return &runJournal{j: opts.Journal, run: run}
}

func (r *runJournal) record(ctx context.Context, itemID string, out metadata.Outcome, runErr error) {
	if r == nil {
		return
	}
	p := journal.RecordParams{
		RunID:      r.run.ID,
		Path:       out.Path,
		ItemID:     itemID,
		Previous:   out.Previous,
		Caption:    out.Caption,
		Status:     out.Status,
		CapturedAt: out.CapturedAt,
	}
	if runErr != nil {
		p.Error = runErr.Error()
	}
	if _, err := r.j.Record(ctx, p); err != nil {
		logrus.WithError(err).WithField("path", out.Path).Warn("journal: record")
	}
}

func (r *runJournal) finish(sum *Summary) {
	if r == nil {
		return
	}
	r.run.Written = sum.Written
	r.run.Skipped = sum.Skipped + sum.Unchanged
	r.run.Failed = sum.Failed
	// The batch context may already be cancelled; the totals are still stored.
	if err := r.j.FinishRun(context.Background(), r.run); err != nil {
		logrus.WithError(err).Warn("journal: finish run")
	}
}
