// Package journal records every caption decision of a batch in SQLite.
package journal

import (
	"context"
	"time"

	"github.com/rcliao/gallerycaptions/internal/model"
)

// RunParams holds parameters for starting a run.
type RunParams struct {
	ItemFile       string
	ChildFile      string
	FilesystemFile string
	Policy         string
	DryRun         bool
}

// RecordParams holds one caption decision.
type RecordParams struct {
	RunID      string
	Path       string
	ItemID     string
	Previous   string
	Caption    string
	Status     model.Status
	Error      string
	CapturedAt *time.Time
}

// HistoryParams filters journal entries.
type HistoryParams struct {
	Path   string
	RunID  string
	Status model.Status
	Limit  int
}

// Journal defines the audit journal.
type Journal interface {
	// BeginRun opens a run and returns it with its ID set.
	BeginRun(ctx context.Context, p RunParams) (*model.Run, error)

	// Record stores one entry for a run.
	Record(ctx context.Context, p RecordParams) (*model.Entry, error)

	// FinishRun stamps the run with its totals.
	FinishRun(ctx context.Context, run *model.Run) error

	// History lists entries, newest first.
	History(ctx context.Context, p HistoryParams) ([]model.Entry, error)

	// Close closes the journal.
	Close() error
}
