// Package model defines the gallery export records and the journal entry types.
package model

import "time"

// NullSentinel is the token a MySQL export writes for a NULL column.
const NullSentinel = `\N`

// Item is a gallery content record carrying descriptive text.
type Item struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	Title       string `json:"title"`
}

// FilesystemEntity maps a gallery node to one path segment.
// PathComponent is NullSentinel for nodes that are not on disk (the album root).
type FilesystemEntity struct {
	ID            string `json:"id"`
	PathComponent string `json:"path_component"`
}

// ChildEntity links a gallery node to its parent.
type ChildEntity struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
}

// Tables holds the three lookup tables built by the loader.
// They are read-only once constructed.
type Tables struct {
	Items      map[string]Item
	Children   map[string]string // id -> parent id
	Filesystem map[string]string // id -> path component
}

// IsNull reports whether v is the NULL sentinel.
func IsNull(v string) bool {
	return v == NullSentinel
}

// Status describes what happened to one resolved file.
type Status string

const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusMissing   Status = "missing"
	StatusEmpty     Status = "empty"
	StatusExcluded  Status = "excluded"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry-run"
)

// ValidStatuses are the statuses a journal entry may carry.
var ValidStatuses = map[Status]bool{
	StatusWritten:   true,
	StatusUnchanged: true,
	StatusMissing:   true,
	StatusEmpty:     true,
	StatusExcluded:  true,
	StatusFailed:    true,
	StatusDryRun:    true,
}

// Entry is one journal record of a caption decision.
type Entry struct {
	ID         string     `json:"id"`
	RunID      string     `json:"run_id"`
	Path       string     `json:"path"`
	ItemID     string     `json:"item_id"`
	Previous   string     `json:"previous,omitempty"`
	Caption    string     `json:"caption"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Run summarises one batch invocation.
type Run struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	ItemFile       string     `json:"item_file"`
	ChildFile      string     `json:"child_file"`
	FilesystemFile string     `json:"filesystem_file"`
	Policy         string     `json:"policy"`
	DryRun         bool       `json:"dry_run"`
	Written        int        `json:"written"`
	Skipped        int        `json:"skipped"`
	Failed         int        `json:"failed"`
}
