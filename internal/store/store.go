// Package store keeps snapshots of a VM's global table in SQLite so an
// interactive session can be saved and resumed.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/funvibe/jihll/internal/vm"

	_ "modernc.org/sqlite"
)

// Store is a SQLite database holding one snapshot of data-valued globals,
// one row per name.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS globals (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored snapshot with the data values of globals.
// Natives, functions and lists containing them cannot be stored; their names
// are returned in skipped.
func (s *Store) Save(globals *vm.Globals) (saved int, skipped []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := globals.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM globals"); err != nil {
		return 0, nil, fmt.Errorf("clearing snapshot: %w", err)
	}

	now := time.Now().Unix()
	for _, name := range names {
		v := snapshot[name]
		text, err := Encode(v)
		if errors.Is(err, ErrNotData) {
			skipped = append(skipped, name)
			continue
		}
		if err != nil {
			return 0, nil, fmt.Errorf("encoding %s: %w", name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO globals (name, kind, value, saved_at) VALUES (?, ?, ?, ?)",
			name, v.Type.String(), text, now,
		); err != nil {
			return 0, nil, fmt.Errorf("saving %s: %w", name, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing snapshot: %w", err)
	}
	return saved, skipped, nil
}

// Load reads the stored snapshot
func (s *Store) Load() (map[string]vm.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, value FROM globals")
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	out := make(map[string]vm.Value)
	for rows.Next() {
		var name, text string
		if err := rows.Scan(&name, &text); err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		v, err := Decode(text)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		out[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return out, nil
}

// Restore loads the snapshot into globals, keeping bindings it does not name.
func (s *Store) Restore(globals *vm.Globals) (int, error) {
	vars, err := s.Load()
	if err != nil {
		return 0, err
	}
	globals.Restore(vars)
	return len(vars), nil
}
