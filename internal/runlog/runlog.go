// Package runlog persists an audit trail of composition runs: one row per
// run plus an ordered event stream of every heading match, extraction,
// splice, and repair action. The same messages go to the process log; the
// store exists so a report's provenance survives the process.
package runlog

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	mode         TEXT NOT NULL,
	patent       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'running',
	summary      TEXT NOT NULL DEFAULT '{}',
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_events (
	run_id     TEXT NOT NULL,
	position   INTEGER NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Store is the SQLite-backed audit log. A single connection with WAL keeps
// concurrent event appends from composition goroutines safe.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex

	positions map[string]int
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, positions: map[string]int{}}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Run is one persisted composition run.
type Run struct {
	RunID      string `db:"run_id" json:"run_id"`
	Mode       string `db:"mode" json:"mode"`
	Patent     string `db:"patent" json:"patent"`
	Status     string `db:"status" json:"status"`
	Summary    string `db:"summary" json:"summary"`
	StartedAt  string `db:"started_at" json:"started_at"`
	FinishedAt string `db:"finished_at" json:"finished_at"`
}

// Event is one audit line within a run.
type Event struct {
	RunID     string `db:"run_id" json:"run_id"`
	Position  int    `db:"position" json:"position"`
	Message   string `db:"message" json:"message"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// StartRun opens a new run row and returns its id.
func (s *Store) StartRun(mode, patent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, mode, patent, started_at) VALUES (?, ?, ?, ?)`,
		runID, mode, patent, now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	s.positions[runID] = 0
	return runID, nil
}

// Append records one event for the run. Failures are returned, not fatal;
// callers treat the audit trail as best-effort.
func (s *Store) Append(runID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.positions[runID]
	s.positions[runID] = pos + 1
	_, err := s.db.Exec(
		`INSERT INTO run_events (run_id, position, message, created_at) VALUES (?, ?, ?, ?)`,
		runID, pos, message, now(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// FinishRun closes the run row with a status and a JSON-encodable summary.
func (s *Store) FinishRun(runID, status string, summary any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := []byte(`{}`)
	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			raw = b
		}
	}
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, summary = ?, finished_at = ? WHERE run_id = ?`,
		status, string(raw), now(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	delete(s.positions, runID)
	return nil
}

// GetRun returns one run row.
func (s *Store) GetRun(runID string) (Run, error) {
	var r Run
	if err := s.db.Get(&r, `SELECT * FROM runs WHERE run_id = ?`, runID); err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []Run
	err := s.db.Select(&runs, `SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Events returns a run's events in append order.
func (s *Store) Events(runID string) ([]Event, error) {
	var events []Event
	err := s.db.Select(&events, `SELECT * FROM run_events WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Sink adapts a run to the composition log callback: every message the
// composer emits lands in the event stream. Append errors are swallowed
// here; the process log still carries the message.
func (s *Store) Sink(runID string, tee func(string)) func(string) {
	return func(message string) {
		_ = s.Append(runID, message)
		if tee != nil {
			tee(message)
		}
	}
}
