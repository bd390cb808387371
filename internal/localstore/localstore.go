// Package localstore is the device-local review database. It mirrors the
// server's review shape plus the sync bookkeeping columns (synced_at,
// is_deleted) that drive reconciliation.
package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("resource not found")

// Timestamps are stored as fixed-width UTC strings so SQL comparisons like
// updated_at > synced_at order correctly as plain text.
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	// RFC3339Nano also accepts the fixed layout; tolerate both.
	return time.Parse(time.RFC3339Nano, s)
}

type Store struct {
	db *sql.DB

	Reviews *ReviewStore
	Users   *UserStore
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}

	// The sync orchestrator assumes a single writer.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local tables: %w", err)
	}

	store.Reviews = &ReviewStore{db: db}
	store.Users = &UserStore{db: db}
	return store, nil
}

func (s *Store) initTables() error {
	_, err := s.db.Exec(`
        CREATE TABLE IF NOT EXISTS reviews (
            id INTEGER PRIMARY KEY,
            restaurant_id INTEGER NOT NULL,
            restaurant_name TEXT NOT NULL,
            restaurant_lat REAL NOT NULL,
            restaurant_lon REAL NOT NULL,
            restaurant_address TEXT NOT NULL DEFAULT '',
            rating REAL NOT NULL,
            comment TEXT NOT NULL DEFAULT '',
            visit_date TEXT NOT NULL,
            user_id TEXT NOT NULL,
            user_name TEXT NOT NULL,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            synced_at TEXT,
            is_deleted INTEGER NOT NULL DEFAULT 0
        );

        CREATE INDEX IF NOT EXISTS idx_reviews_restaurant ON reviews(restaurant_id);
        CREATE INDEX IF NOT EXISTS idx_reviews_deleted ON reviews(is_deleted);
        CREATE INDEX IF NOT EXISTS idx_reviews_updated ON reviews(updated_at);

        CREATE TABLE IF NOT EXISTS users (
            user_id TEXT PRIMARY KEY,
            user_name TEXT NOT NULL,
            created_at TEXT NOT NULL,
            is_current_user INTEGER NOT NULL DEFAULT 0
        );
    `)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
