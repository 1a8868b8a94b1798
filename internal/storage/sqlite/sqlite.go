// Package sqlite provides a SQLite-backed implementation of the storage interfaces.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/internal/storage"
)

// Ensure SQLiteStore implements the storage interfaces
var (
	_ storage.CredentialStore = (*SQLiteStore)(nil)
	_ storage.ContactStore    = (*SQLiteStore)(nil)
)

// SQLiteStore implements storage.CredentialStore and storage.ContactStore
// using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	sealer *auth.Sealer
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithSealer encrypts the stored session token with s.
func WithSealer(s *auth.Sealer) Option {
	return func(store *SQLiteStore) {
		store.sealer = s
	}
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; the CLI never needs more.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
