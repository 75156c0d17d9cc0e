// Package store persists pipeline run history and cleaned incidents to
// SQLite. This is the read path the dashboard and chat layers query; the
// pipeline only ever appends to it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cdmx-insight/incident-etl/internal/eda"
	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// Store wraps the SQLite run-history database.
type Store struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	rows_in     INTEGER NOT NULL,
	rows_out    INTEGER NOT NULL,
	stats       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS incidents (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	crime_group    TEXT,
	crime_macro    TEXT,
	violence_class TEXT,
	borough        TEXT,
	region         TEXT,
	incident_date  TEXT,
	latitude       REAL,
	longitude      REAL
);

CREATE INDEX IF NOT EXISTS idx_incidents_run_id ON incidents(run_id);
CREATE INDEX IF NOT EXISTS idx_incidents_group ON incidents(crime_group);
CREATE INDEX IF NOT EXISTS idx_incidents_borough ON incidents(borough);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one persisted pipeline run.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	RowsIn     int        `json:"rows_in"`
	RowsOut    int        `json:"rows_out"`
	Stats      *eda.Stats `json:"stats,omitempty"`
}

// RecordRun persists a completed run's report.
func (s *Store) RecordRun(ctx context.Context, stats *eda.Stats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "store: marshal stats")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, rows_in, rows_out, stats) VALUES (?, ?, ?, ?, ?, ?)`,
		stats.RunID, stats.StartedAt, stats.FinishedAt, stats.ShapeIn.Rows, stats.ShapeOut.Rows, string(statsJSON),
	)
	return eris.Wrapf(err, "store: insert run %s", stats.RunID)
}

// GetRun fetches one run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, rows_in, rows_out, stats FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, rows_in, rows_out, stats FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "store: iterate runs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var statsJSON string
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.RowsIn, &r.RowsOut, &statsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "store: run not found")
		}
		return nil, eris.Wrap(err, "store: scan run")
	}
	if statsJSON != "" {
		var st eda.Stats
		if err := json.Unmarshal([]byte(statsJSON), &st); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal stats")
		}
		r.Stats = &st
	}
	return &r, nil
}

// SaveIncidents appends the cleaned batch's canonical columns to the
// incidents table. Columns absent from the batch store as NULL.
func (s *Store) SaveIncidents(ctx context.Context, runID string, t *frame.Table, cols eda.ColumnNames) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO incidents (run_id, crime_group, crime_macro, violence_class, borough, region, incident_date, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "store: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for i := 0; i < t.NumRows(); i++ {
		_, err := stmt.ExecContext(ctx,
			runID,
			nullable(t.Get(i, "crime_group")),
			nullable(t.Get(i, "crime_macro")),
			nullable(t.Get(i, "violence_class")),
			nullable(t.Get(i, cols.Borough)),
			nullable(t.Get(i, eda.ColRegion)),
			nullable(t.Get(i, cols.Date)),
			nullableFloat(t, i, cols.Latitude),
			nullableFloat(t, i, cols.Longitude),
		)
		if err != nil {
			return n, eris.Wrapf(err, "store: insert incident row %d", i)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "store: commit")
	}
	return n, nil
}

func nullable(v string) any {
	if frame.IsMissing(v) {
		return nil
	}
	return v
}

func nullableFloat(t *frame.Table, row int, col string) any {
	if f, ok := t.Float(row, col); ok {
		return f
	}
	return nil
}
