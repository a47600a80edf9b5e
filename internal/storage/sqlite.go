// Package storage provides the data persistence layer backed by SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	cacheExpiry  time.Time
	db           *sql.DB
	patternCache map[string][]model.ClassificationPattern
	dbPath       string
	cacheMutex   sync.RWMutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:           db,
		dbPath:       dbPath,
		patternCache: make(map[string][]model.ClassificationPattern),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction scoped to one statement's writes.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{tx: tx, storage: s}, nil
}

// sqliteTx wraps sql.Tx to implement service.Tx.
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}
	return t.storage.saveTransactionsTx(ctx, t.tx, transactions)
}

func (t *sqliteTx) UpdateStatement(ctx context.Context, stmt *model.Statement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.updateStatementTx(ctx, t.tx, stmt)
}

func (t *sqliteTx) DeleteTransactionsByStatement(ctx context.Context, statementID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, "DELETE FROM transactions WHERE statement_id = ?", statementID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}

// invalidatePatternCache drops the cached patterns for a scope after writes.
func (s *SQLiteStorage) invalidatePatternCache(scopeID string) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	delete(s.patternCache, scopeID)
}
