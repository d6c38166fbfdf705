package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/gallerycaptions/internal/model"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db      *sql.DB
	entropy *rand.Rand
}

// Open opens or creates a journal database at the given path.
func Open(dbPath string) (*SQLiteJournal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &SQLiteJournal{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), j.entropy).String()
}

func (j *SQLiteJournal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		started_at      TEXT NOT NULL,
		finished_at     TEXT,
		item_file       TEXT NOT NULL,
		child_file      TEXT NOT NULL,
		filesystem_file TEXT NOT NULL,
		policy          TEXT NOT NULL DEFAULT 'append',
		dry_run         INTEGER NOT NULL DEFAULT 0,
		written         INTEGER NOT NULL DEFAULT 0,
		skipped         INTEGER NOT NULL DEFAULT 0,
		failed          INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY,
		run_id      TEXT NOT NULL REFERENCES runs(id),
		path        TEXT NOT NULL,
		item_id     TEXT NOT NULL,
		previous    TEXT,
		caption     TEXT NOT NULL,
		status      TEXT NOT NULL,
		error       TEXT,
		captured_at TEXT,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
	CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
	CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(status);
	`
	_, err := j.db.Exec(schema)
	return err
}

// withRetry retries fn while another process holds the database lock.
func withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isLocked),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

func isLocked(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func (j *SQLiteJournal) BeginRun(ctx context.Context, p RunParams) (*model.Run, error) {
	run := &model.Run{
		ID:             j.newID(),
		StartedAt:      time.Now().UTC(),
		ItemFile:       p.ItemFile,
		ChildFile:      p.ChildFile,
		FilesystemFile: p.FilesystemFile,
		Policy:         p.Policy,
		DryRun:         p.DryRun,
	}
	if run.Policy == "" {
		run.Policy = "append"
	}

	err := withRetry(ctx, func() error {
		_, err := j.db.ExecContext(ctx,
			`INSERT INTO runs (id, started_at, item_file, child_file, filesystem_file, policy, dry_run)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.StartedAt.Format(timeLayout), run.ItemFile, run.ChildFile,
			run.FilesystemFile, run.Policy, run.DryRun)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (j *SQLiteJournal) Record(ctx context.Context, p RecordParams) (*model.Entry, error) {
	if !model.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid status %q", p.Status)
	}

	e := &model.Entry{
		ID:         j.newID(),
		RunID:      p.RunID,
		Path:       p.Path,
		ItemID:     p.ItemID,
		Previous:   p.Previous,
		Caption:    p.Caption,
		Status:     p.Status,
		Error:      p.Error,
		CapturedAt: p.CapturedAt,
		CreatedAt:  time.Now().UTC(),
	}

	var previous, errMsg, captured *string
	if p.Previous != "" {
		previous = &p.Previous
	}
	if p.Error != "" {
		errMsg = &p.Error
	}
	if p.CapturedAt != nil {
		s := p.CapturedAt.Format(time.RFC3339)
		captured = &s
	}

	err := withRetry(ctx, func() error {
		_, err := j.db.ExecContext(ctx,
			`INSERT INTO entries (id, run_id, path, item_id, previous, caption, status, error, captured_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.RunID, e.Path, e.ItemID, previous, e.Caption, string(e.Status), errMsg, captured,
			e.CreatedAt.Format(timeLayout))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func (j *SQLiteJournal) FinishRun(ctx context.Context, run *model.Run) error {
	now := time.Now().UTC()
	err := withRetry(ctx, func() error {
		res, err := j.db.ExecContext(ctx,
			`UPDATE runs SET finished_at = ?, written = ?, skipped = ?, failed = ? WHERE id = ?`,
			now.Format(timeLayout), run.Written, run.Skipped, run.Failed, run.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run not found: %s", run.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	run.FinishedAt = &now
	return nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface {
	Scan(dest ...interface{}) error
}

const entryColumns = `id, run_id, path, item_id, previous, caption, status, error, captured_at, created_at`

func scanEntry(row scanner) (model.Entry, error) {
	var e model.Entry
	var previous, errMsg, captured sql.NullString
	var status, createdAt string

	err := row.Scan(&e.ID, &e.RunID, &e.Path, &e.ItemID, &previous, &e.Caption,
		&status, &errMsg, &captured, &createdAt)
	if err != nil {
		return e, err
	}

	e.Status = model.Status(status)
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	if previous.Valid {
		e.Previous = previous.String
	}
	if errMsg.Valid {
		e.Error = errMsg.String
	}
	if captured.Valid {
		t, _ := time.Parse(time.RFC3339, captured.String)
		e.CapturedAt = &t
	}
	return e, nil
}

const runColumns = `id, started_at, finished_at, item_file, child_file, filesystem_file, policy, dry_run, written, skipped, failed`

func scanRun(row scanner) (model.Run, error) {
	var r model.Run
	var startedAt string
	var finishedAt sql.NullString

	err := row.Scan(&r.ID, &startedAt, &finishedAt, &r.ItemFile, &r.ChildFile, &r.FilesystemFile,
		&r.Policy, &r.DryRun, &r.Written, &r.Skipped, &r.Failed)
	if err != nil {
		return r, err
	}

	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(timeLayout, finishedAt.String)
		r.FinishedAt = &t
	}
	return r, nil
}
