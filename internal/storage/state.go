// Package storage persists the ledger state as a small key/value table in
// SQLite. Each key holds the JSON encoding of one logical state field; the
// whole file is the device-local durable source of truth.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Logical state keys. The names double as the field names of the snapshot
// blob shared with other household devices.
const (
	KeyTransactions = "txns"
	KeyBaseBudget   = "monthlyBudget"
	KeyBudgets      = "catBudgetsMap"
	KeyDefaultCaps  = "defaultBudgets"
	KeyCurrentUser  = "currentUser"
)

// StateStore is the durable key/value persistence the ledger store writes
// through on every mutation.
type StateStore interface {
	// Get returns the stored value for key, or nil when the key has never
	// been written.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}

type SQLiteStateStore struct {
	db *sql.DB
}

var _ StateStore = (*SQLiteStateStore)(nil)

func NewSQLiteStateStore(dbPath string) (*SQLiteStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStateStore{db: db}, nil
}

func (s *SQLiteStateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM ledger_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %q: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLiteStateStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_state (key, value, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = CURRENT_TIMESTAMP`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("write state %q: %w", key, err)
	}
	return nil
}
