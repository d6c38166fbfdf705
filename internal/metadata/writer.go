package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rcliao/gallerycaptions/internal/caption"
	"github.com/rcliao/gallerycaptions/internal/model"
)

// Outcome describes what Apply did to one file.
type Outcome struct {
	Path        string
	Previous    string
	HadPrevious bool
	Caption     string
	Status      model.Status
	CapturedAt  *time.Time
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Root is the directory resolved paths are relative to.
	Root   string
	Policy caption.Policy
	DryRun bool
}

// Writer merges derived captions into image files.
type Writer struct {
	tagger Tagger
	opts   WriterOptions
}

// NewWriter returns a Writer that stores captions through t.
func NewWriter(t Tagger, opts WriterOptions) *Writer {
	if opts.Policy == "" {
		opts.Policy = caption.PolicyAppend
	}
	return &Writer{tagger: t, opts: opts}
}

// Apply merges derived into the caption of the image at relPath.
//
// Paths that are not regular files come back as StatusMissing with a nil
// error. A non-nil error means the file could not be read or written; the
// file's timestamps are restored in every case where a write was attempted.
func (w *Writer) Apply(ctx context.Context, relPath, derived string) (Outcome, error) {
	out := Outcome{Path: relPath, Caption: derived}
	full := filepath.Join(w.opts.Root, relPath)

	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		out.Status = model.StatusMissing
		return out, nil
	}
	if derived == "" {
		out.Status = model.StatusEmpty
		return out, nil
	}

	if t, err := CaptureTime(full); err == nil {
		out.CapturedAt = &t
	}

	prev, present, err := w.tagger.ReadCaption(ctx, full)
	if err != nil {
		out.Status = model.StatusFailed
		return out, fmt.Errorf("read caption %s: %w", relPath, err)
	}
	out.Previous, out.HadPrevious = prev, present

	merged, write := caption.Merge(prev, present, derived, w.opts.Policy)
	out.Caption = merged
	if !write {
		out.Status = model.StatusUnchanged
		return out, nil
	}
	if w.opts.DryRun {
		out.Status = model.StatusDryRun
		return out, nil
	}

	atime, mtime := accessTime(info), info.ModTime()
	writeErr := w.tagger.WriteCaption(ctx, full, merged)
	if err := os.Chtimes(full, atime, mtime); err != nil {
		logrus.WithError(err).WithField("path", relPath).Warn("restore timestamps")
		if writeErr == nil {
			writeErr = fmt.Errorf("restore timestamps: %w", err)
		}
	}
	if writeErr != nil {
		out.Status = model.StatusFailed
		return out, fmt.Errorf("write caption %s: %w", relPath, writeErr)
	}

	out.Status = model.StatusWritten
	return out, nil
}
