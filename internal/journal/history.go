package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/gallerycaptions/internal/model"
)

// History returns entries matching p, newest first.
func (j *SQLiteJournal) History(ctx context.Context, p HistoryParams) ([]model.Entry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}

	where := []string{"1 = 1"}
	args := []interface{}{}

	if p.Path != "" {
		where = append(where, "path = ?")
		args = append(args, p.Path)
	}
	if p.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, p.RunID)
	}
	if p.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(p.Status))
	}

	query := fmt.Sprintf(`SELECT %s FROM entries WHERE %s ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		entryColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastWritten returns the most recent caption written to path, if any.
func (j *SQLiteJournal) LastWritten(ctx context.Context, path string) (*model.Entry, error) {
	entries, err := j.History(ctx, HistoryParams{Path: path, Status: model.StatusWritten, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Runs lists the most recent runs, newest first.
func (j *SQLiteJournal) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
