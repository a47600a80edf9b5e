package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

// CreateStatement persists a newly uploaded statement.
func (s *SQLiteStorage) CreateStatement(ctx context.Context, stmt *model.Statement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStatement(stmt); err != nil {
		return err
	}

	if stmt.CreatedAt.IsZero() {
		stmt.CreatedAt = time.Now()
	}
	if stmt.Status == "" {
		stmt.Status = model.StatusQueued
	}

	query := `
		INSERT INTO statements (
			id, owner_id, source_url, document_type, kind, status,
			page_count, bank_name, account_number, period_start, period_end,
			flags, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		stmt.ID, stmt.OwnerID, stmt.SourceURL, string(stmt.DocumentType),
		string(stmt.Kind), string(stmt.Status), stmt.PageCount,
		stmt.BankName, stmt.AccountNumber, stmt.PeriodStart, stmt.PeriodEnd,
		flagsToString(stmt.Flags), stmt.CreatedAt, stmt.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}

	return nil
}

// GetStatement retrieves one statement by id.
func (s *SQLiteStorage) GetStatement(ctx context.Context, id string) (*model.Statement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, source_url, document_type, kind, status,
			page_count, bank_name, account_number, period_start, period_end,
			flags, created_at, completed_at
		FROM statements WHERE id = ?
	`

	var stmt model.Statement
	var sourceURL, kind, bankName, accountNumber, flags sql.NullString
	var periodStart, periodEnd, completedAt sql.NullTime
	var documentType, status string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&stmt.ID, &stmt.OwnerID, &sourceURL, &documentType, &kind, &status,
		&stmt.PageCount, &bankName, &accountNumber, &periodStart, &periodEnd,
		&flags, &stmt.CreatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrStatementNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}

	stmt.SourceURL = sourceURL.String
	stmt.DocumentType = model.DocumentType(documentType)
	stmt.Kind = model.DocumentKind(kind.String)
	stmt.Status = model.ProcessingStatus(status)
	stmt.BankName = bankName.String
	stmt.AccountNumber = accountNumber.String
	stmt.Flags = flagsFromString(flags.String)
	if periodStart.Valid {
		stmt.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		stmt.PeriodEnd = &periodEnd.Time
	}
	if completedAt.Valid {
		stmt.CompletedAt = &completedAt.Time
	}

	return &stmt, nil
}

// UpdateStatement writes back statement status, metadata and flags.
func (s *SQLiteStorage) UpdateStatement(ctx context.Context, stmt *model.Statement) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStatement(stmt); err != nil {
		return err
	}
	return s.updateStatementTx(ctx, nil, stmt)
}

func (s *SQLiteStorage) updateStatementTx(ctx context.Context, tx *sql.Tx, stmt *model.Statement) error {
	query := `
		UPDATE statements SET
			kind = ?, status = ?, page_count = ?, bank_name = ?,
			account_number = ?, period_start = ?, period_end = ?,
			flags = ?, completed_at = ?
		WHERE id = ?
	`
	args := []any{
		string(stmt.Kind), string(stmt.Status), stmt.PageCount, stmt.BankName,
		stmt.AccountNumber, stmt.PeriodStart, stmt.PeriodEnd,
		flagsToString(stmt.Flags), stmt.CompletedAt, stmt.ID,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, args...)
	} else {
		result, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("failed to update statement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrStatementNotFound, stmt.ID)
	}

	return nil
}

// flagsToString stores compliance flags as a comma-joined column.
func flagsToString(flags []model.ComplianceFlag) string {
	if len(flags) == 0 {
		return ""
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func flagsFromString(s string) []model.ComplianceFlag {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	flags := make([]model.ComplianceFlag, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			flags = append(flags, model.ComplianceFlag(p))
		}
	}
	return flags
}
