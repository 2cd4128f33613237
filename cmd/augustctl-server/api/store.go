// Package api provides the persistence layer of augustctl-server.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store provides SQLite persistence for the operation history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new store with the given database path.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second pooled connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`PRAGMA journal_mode = WAL;`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		lock_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		outcome TEXT NOT NULL,
		lock_state TEXT,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_history_started_at ON history(started_at);
	CREATE INDEX IF NOT EXISTS idx_history_lock_id ON history(lock_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e, assigning an ID if it has none.
func (s *Store) Record(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := s.db.Exec(`
		INSERT INTO history (id, lock_id, operation, outcome, lock_state, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.LockID, e.Operation, e.Outcome, e.LockState, e.Error, e.StartedAt, e.FinishedAt)

	return err
}

// Get retrieves an entry by ID. It returns nil when none exists.
func (s *Store) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, lock_id, operation, outcome, lock_state, error, started_at, finished_at
		FROM history WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves entries, most recent first.
func (s *Store) List(limit, offset int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, lock_id, operation, outcome, lock_state, error, started_at, finished_at
		FROM history
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	return entries, rows.Err()
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var lockState, errMsg sql.NullString
	var finishedAt sql.NullTime

	if err := row.Scan(
		&e.ID, &e.LockID, &e.Operation, &e.Outcome,
		&lockState, &errMsg, &e.StartedAt, &finishedAt,
	); err != nil {
		return nil, err
	}

	e.LockState = lockState.String
	e.Error = errMsg.String
	if finishedAt.Valid {
		e.FinishedAt = &finishedAt.Time
		e.Duration = finishedAt.Time.Sub(e.StartedAt).Round(time.Millisecond).String()
	}
	return &e, nil
}
