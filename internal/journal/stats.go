package journal

import (
	"context"
	"fmt"
	"os"
)

// Stats holds journal statistics.
type Stats struct {
	DBPath      string        `json:"db_path"`
	DBSizeBytes int64         `json:"db_size_bytes"`
	Runs        int           `json:"runs"`
	Entries     int           `json:"entries"`
	Files       int           `json:"files"`
	ByStatus    []StatusCount `json:"by_status"`
}

// StatusCount holds per-status counts.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Stats returns journal statistics.
func (j *SQLiteJournal) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM runs`, &st.Runs},
		{`SELECT COUNT(*) FROM entries`, &st.Entries},
		{`SELECT COUNT(DISTINCT path) FROM entries WHERE status = 'written'`, &st.Files},
	}
	for _, c := range counts {
		if err := j.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS cnt
		FROM entries
		GROUP BY status ORDER BY cnt DESC, status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		st.ByStatus = append(st.ByStatus, sc)
	}

	return st, rows.Err()
}
