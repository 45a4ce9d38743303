package artifact

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists artifacts in a single SQLite table. It is a drop-in
// alternative to FSStore for deployments that want one file for the whole
// corpus instead of one file per case.
type SQLiteStore struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	key        TEXT PRIMARY KEY,
	blob       BLOB NOT NULL,
	written_at TEXT NOT NULL
);
`

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Exists(key string) (bool, error) {
	var one int
	err := s.db.Get(&one, "SELECT 1 FROM artifacts WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Read(key string) ([]byte, error) {
	var blob []byte
	err := s.db.Get(&blob, "SELECT blob FROM artifacts WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Key: key}
	}
	return blob, err
}

func (s *SQLiteStore) Write(key string, blob []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO artifacts (key, blob, written_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, written_at = excluded.written_at",
		key, blob, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *SQLiteStore) Delete(key string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM artifacts WHERE key = ?", key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) List() ([]string, error) {
	var keys []string
	if err := s.db.Select(&keys, "SELECT key FROM artifacts ORDER BY key"); err != nil {
		return nil, err
	}
	return keys, nil
}
