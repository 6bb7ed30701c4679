package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an AppID is not present in the ledger.
var ErrNotFound = errors.New("app not found in ledger")

// Store is the local ledger: the single source of truth for which AppIDs
// this system believes are installed, with their depots and the manifest
// filenames copied into the depot cache on their behalf.
//
// All operations are serialized by a store-level mutex on top of the
// single-connection pool. The tool is single-process and single-user; the
// lock defends against callers that bypass the engine's own lock.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// New opens (or creates) the ledger at dbPath and applies the schema.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without applying the schema.
// Tests use it to substitute a mock connection for fault injection.
func NewWithDB(db *sql.DB, path string) *Store {
	return &Store{db: db, path: path}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) createSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DeleteDatabase closes the connection and removes the database file from
// disk. It backs the final step of ClearAll; in-memory databases are only
// closed. The store must not be used afterwards.
func (s *Store) DeleteDatabase() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if s.path == "" || s.path == ":memory:" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove database file: %w", err)
	}
	// WAL sidecar files are created next to the database.
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")
	return nil
}
