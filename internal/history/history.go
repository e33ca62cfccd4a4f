// Package history persists a record of every snapshot-set operation the
// daemon runs, backed by sqlite in the state directory.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Entry is one recorded operation.
type Entry struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Action     string        `json:"action"`
	SetName    string        `json:"set_name"`
	ReturnCode int           `json:"return_code"`
	Errors     string        `json:"errors,omitempty"`
	Changed    bool          `json:"changed"`
	Duration   time.Duration `json:"duration_ms"`
}

type Store struct {
	log zerolog.Logger
	db  *sql.DB
}

// Open opens (creating if needed) the history database under stateDir.
func Open(log zerolog.Logger, stateDir string) (*Store, error) {
	dbPath := filepath.Join(stateDir, "history.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		log: log.With().Str("component", "history").Logger(),
		db:  db,
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		action TEXT NOT NULL,
		set_name TEXT NOT NULL,
		return_code INTEGER NOT NULL,
		errors TEXT,
		changed INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	)`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	index := `CREATE INDEX IF NOT EXISTS idx_operations_started ON operations (started_at)`
	if _, err := s.db.Exec(index); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Record stores one finished operation and returns its assigned id.
func (s *Store) Record(e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO operations (id, started_at, action, set_name, return_code, errors, changed, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StartedAt.UnixMilli(), e.Action, e.SetName, e.ReturnCode, e.Errors,
		boolToInt(e.Changed), e.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record operation: %w", err)
	}
	s.log.Debug().Str("id", e.ID).Str("action", e.Action).Str("set", e.SetName).
		Int("return_code", e.ReturnCode).Msg("operation recorded")
	return e.ID, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, action, set_name, return_code, errors, changed, duration_ms
		 FROM operations ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var startedMs, durationMs int64
		var changed int
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &startedMs, &e.Action, &e.SetName, &e.ReturnCode,
			&errText, &changed, &durationMs); err != nil {
			return nil, err
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Errors = errText.String
		e.Changed = changed != 0
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
