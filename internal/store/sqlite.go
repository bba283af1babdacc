// Package store provides lastfm.SessionStore implementations for the CLI.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
	_ "modernc.org/sqlite"
)

// DefaultAccount is the row used when no account name is given.
const DefaultAccount = "default"

// SQLiteStore keeps the encoded session in a SQLite database, one row per
// account. The database can be shared with the scrobble queue.
type SQLiteStore struct {
	db      *sql.DB
	account string
}

var _ lastfm.SessionStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath, account string) (*SQLiteStore, error) {
	if account == "" {
		account = DefaultAccount
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			account TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, account: account}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save implements lastfm.SessionStore.
func (s *SQLiteStore) Save(data []byte) error {
	query := `
		INSERT INTO sessions (account, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, s.account, data, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load implements lastfm.SessionStore.
func (s *SQLiteStore) Load() ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM sessions WHERE account = ?", s.account).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lastfm.ErrNoStoredSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

// Delete implements lastfm.SessionStore.
func (s *SQLiteStore) Delete() error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE account = ?", s.account); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
