package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS statements (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					source_url TEXT,
					document_type TEXT NOT NULL,
					kind TEXT,
					status TEXT NOT NULL DEFAULT 'queued',
					page_count INTEGER DEFAULT 0,
					bank_name TEXT,
					account_number TEXT,
					period_start DATETIME,
					period_end DATETIME,
					flags TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					completed_at DATETIME
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					statement_id TEXT NOT NULL,
					hash TEXT NOT NULL,
					seq INTEGER NOT NULL DEFAULT 0,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					debit REAL,
					credit REAL,
					balance REAL,
					reference TEXT,
					category TEXT,
					category_confidence REAL DEFAULT 0,
					source TEXT,
					channels TEXT,
					flags TEXT,
					review TEXT NOT NULL DEFAULT 'unreviewed',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (statement_id) REFERENCES statements(id),
					UNIQUE(statement_id, hash)
				)`,

				`CREATE TABLE IF NOT EXISTS patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					scope_id TEXT NOT NULL,
					pattern TEXT NOT NULL,
					category TEXT NOT NULL,
					occurrences INTEGER NOT NULL DEFAULT 1,
					confidence REAL NOT NULL DEFAULT 0,
					superseded INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_used_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS feedback (
					id TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					scope_id TEXT NOT NULL,
					predicted_category TEXT,
					predicted_confidence REAL DEFAULT 0,
					predicted_source TEXT,
					final_category TEXT NOT NULL,
					correction_type TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (transaction_id) REFERENCES transactions(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Query indexes and one-feedback-per-transaction",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_statement ON transactions(statement_id, seq)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_review ON transactions(review)`,
				`CREATE INDEX IF NOT EXISTS idx_statements_owner ON statements(owner_id)`,
				`CREATE INDEX IF NOT EXISTS idx_feedback_scope ON feedback(scope_id, created_at)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_feedback_transaction ON feedback(transaction_id)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "One active pattern per scope and description",
		Up: func(tx *sql.Tx) error {
			query := `CREATE UNIQUE INDEX IF NOT EXISTS idx_patterns_active
				ON patterns(scope_id, pattern) WHERE superseded = 0`
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to execute query: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
