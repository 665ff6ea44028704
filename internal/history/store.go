// Package history keeps past audit runs in a SQLite file.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"styleaudit/internal/log"
	"styleaudit/internal/model"
)

var ErrRunNotFound = errors.New("history: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER NOT NULL,
	pages         INTEGER NOT NULL,
	total_issues  INTEGER NOT NULL,
	errored_pages INTEGER NOT NULL,
	pass          INTEGER NOT NULL,
	fatal_error   TEXT NOT NULL DEFAULT '',
	report        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// Summary is one row of the run list.
type Summary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Pages        int       `json:"pages"`
	TotalIssues  int       `json:"total_issues"`
	ErroredPages int       `json:"errored_pages"`
	Pass         bool      `json:"pass"`
	FatalError   string    `json:"fatal_error,omitempty"`
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" works
// for throwaway stores.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run, replacing any earlier row with the same ID.
func (s *Store) Record(ctx context.Context, run model.AuditRun) error {
	report, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, started_at, finished_at, pages, total_issues, errored_pages, pass, fatal_error, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		len(run.Pages),
		run.TotalIssues,
		run.ErroredPages,
		run.Pass,
		run.FatalError,
		string(report),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Recent lists the newest runs first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, pages, total_issues, errored_pages, pass, fatal_error
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum             Summary
			started, finish int64
		)
		if err := rows.Scan(&sum.ID, &started, &finish, &sum.Pages, &sum.TotalIssues,
			&sum.ErroredPages, &sum.Pass, &sum.FatalError); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.StartedAt = time.UnixMilli(started)
		sum.FinishedAt = time.UnixMilli(finish)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get returns the full stored run.
func (s *Store) Get(ctx context.Context, id string) (model.AuditRun, error) {
	var report string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AuditRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return model.AuditRun{}, fmt.Errorf("load run %s: %w", id, err)
	}

	var run model.AuditRun
	if err := json.Unmarshal([]byte(report), &run); err != nil {
		return model.AuditRun{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

// PageDone is a no-op; history is written once per run.
func (s *Store) PageDone(model.PageAuditResult) {}

// RunDone records the run. A failed write is logged, never fatal.
func (s *Store) RunDone(ctx context.Context, run model.AuditRun) {
	if err := s.Record(ctx, run); err != nil {
		log.Logger.Warn("failed to record run history", zap.String("run_id", run.ID), zap.Error(err))
	}
}
