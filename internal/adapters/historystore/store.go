// Package historystore persists completed rating runs in SQLite so histories
// can be queried after the process exits.
//
// Only change points are stored: the first column of every competitor and
// each column where the rating differs from the previous one. A history is
// therefore a step function over the run's dates.
package historystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/pkg/logger"
)

// Table is the read side of a completed rating matrix.
type Table interface {
	Dates() []model.EventDate
	Competitors() []string
	Row(id string) ([]float64, error)
}

// Run describes one persisted rating pass.
type Run struct {
	ID          string
	Rule        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Dates       int
	Competitors int
	Skipped     int
}

// Store is a SQLite-backed run archive.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger logger.Logger
	closed bool
}

// Open creates or opens the database at path and ensures the schema.
func Open(ctx context.Context, path string, lg logger.Logger) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if lg == nil {
		lg = logger.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT    PRIMARY KEY,
			rule         TEXT    NOT NULL,
			started_at   TEXT    NOT NULL,
			finished_at  TEXT    NOT NULL,
			dates        INTEGER NOT NULL,
			competitors  INTEGER NOT NULL,
			skipped      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS competitors (
			run_id  TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			id      TEXT    NOT NULL,
			name    TEXT,
			races   INTEGER NOT NULL,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			competitor_id  TEXT NOT NULL,
			date           TEXT NOT NULL,
			rating         REAL NOT NULL,
			PRIMARY KEY (run_id, competitor_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	var runs int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		db.Close()
		return nil, fmt.Errorf("read run count: %w", err)
	}
	lg.Info(ctx, "history store opened", logger.String("path", path), logger.Int("runs", int(runs)))

	return &Store{db: db, logger: lg}, nil
}

// SaveRun writes a run, its competitors and their rating change points in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, t Table, names map[string]string, counts map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, rule, started_at, finished_at, dates, competitors, skipped) VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.Rule,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Dates, run.Competitors, run.Skipped,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	compStmt, err := tx.PrepareContext(ctx, `INSERT INTO competitors (run_id, id, name, races) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare competitors: %w", err)
	}
	defer compStmt.Close()
	rateStmt, err := tx.PrepareContext(ctx, `INSERT INTO ratings (run_id, competitor_id, date, rating) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare ratings: %w", err)
	}
	defer rateStmt.Close()

	dates := t.Dates()
	points := 0
	for _, id := range t.Competitors() {
		var name sql.NullString
		if n, ok := names[id]; ok && !model.IsMissingName(n) {
			name = sql.NullString{String: n, Valid: true}
		}
		if _, err := compStmt.ExecContext(ctx, run.ID, id, name, counts[id]); err != nil {
			return fmt.Errorf("insert competitor %s: %w", id, err)
		}

		row, err := t.Row(id)
		if err != nil {
			return fmt.Errorf("read row %s: %w", id, err)
		}
		prev := math.NaN()
		for c, v := range row {
			if v == prev {
				continue
			}
			if _, err := rateStmt.ExecContext(ctx, run.ID, id, dates[c].String(), v); err != nil {
				return fmt.Errorf("insert rating %s %s: %w", id, dates[c], err)
			}
			prev = v
			points++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	s.logger.Info(ctx, "run archived",
		logger.String("run_id", run.ID),
		logger.String("rule", run.Rule),
		logger.Int("points", points),
	)
	return nil
}

// LatestRun returns the most recently finished run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	rows, err := s.queryRuns(ctx, `ORDER BY finished_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return Run{}, err
	}
	if len(rows) == 0 {
		return Run{}, fmt.Errorf("%w: no runs", ErrNotFound)
	}
	return rows[0], nil
}

// Runs lists every run, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `ORDER BY finished_at DESC, id DESC`)
}

func (s *Store) queryRuns(ctx context.Context, suffix string) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rule, started_at, finished_at, dates, competitors, skipped FROM runs `+suffix)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Rule, &started, &finished, &r.Dates, &r.Competitors, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// History returns the change points of one competitor in one run, ascending by
// date.
func (s *Store) History(ctx context.Context, runID, competitorID string) (types.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.History{}, ErrClosed
	}

	h := types.History{CompetitorID: competitorID}
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT name, races FROM competitors WHERE run_id = ? AND id = ?`, runID, competitorID,
	).Scan(&name, &h.Races)
	if errors.Is(err, sql.ErrNoRows) {
		return types.History{}, fmt.Errorf("%w: competitor %s in run %s", ErrNotFound, competitorID, runID)
	}
	if err != nil {
		return types.History{}, fmt.Errorf("query competitor %s: %w", competitorID, err)
	}
	h.Name = name.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, rating FROM ratings WHERE run_id = ? AND competitor_id = ? ORDER BY date ASC`,
		runID, competitorID)
	if err != nil {
		return types.History{}, fmt.Errorf("query ratings %s: %w", competitorID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p types.Point
		if err := rows.Scan(&p.Date, &p.Rating); err != nil {
			return types.History{}, fmt.Errorf("scan rating: %w", err)
		}
		h.Points = append(h.Points, p)
	}
	return h, rows.Err()
}

// DeleteRun removes a run and everything stored under it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
