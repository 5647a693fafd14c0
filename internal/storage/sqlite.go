// Package storage persists the sales working set in SQLite. It is a plain
// record sink: it stores and returns records in order and knows nothing about
// summaries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements service.SalesStore using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	retry  common.RetryOptions
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath.
// Open and ping failures are reported as *common.ConnectivityError.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &common.ConnectivityError{Op: "open", Err: err}
	}

	// One connection keeps :memory: databases alive and avoids SQLITE_BUSY on writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &common.ConnectivityError{Op: "ping", Err: err}
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		retry:  common.DefaultStoreRetry(),
	}, nil
}

// NewFromDB wraps an already opened handle. The caller is responsible for
// having run Migrate against it.
func NewFromDB(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db, retry: common.DefaultStoreRetry()}
}

// SetRetry replaces the retry budget used for every store call.
func (s *SQLiteStorage) SetRetry(opts common.RetryOptions) {
	s.retry = opts
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// do runs fn under the store retry budget. Constraint violations, cancelled
// contexts and errors marked permanent pass through; exhausted retries become
// a ConnectivityError.
func (s *SQLiteStorage) do(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	err := common.WithRetry(ctx, func() error {
		err := fn(ctx)
		if isConstraint(err) {
			return common.Permanent(err)
		}
		return err
	}, s.retry)
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrMaxRetries) {
		return &common.ConnectivityError{Op: op, Err: err}
	}
	return err
}

// inTx runs fn inside a transaction that is committed only if fn succeeds.
func (s *SQLiteStorage) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
