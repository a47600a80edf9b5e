package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/adesina-io/kudiflow/internal/model"
)

// SaveTransactions persists a batch of transactions. Rows whose
// (statement_id, hash) pair already exists are silently skipped, so the call
// is safe to retry.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.saveTransactionsTx(ctx, tx, transactions); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) error {
	query := `
		INSERT OR IGNORE INTO transactions (
			id, statement_id, hash, seq, date, description,
			debit, credit, balance, reference, category,
			category_confidence, source, channels, flags, review
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		review := txn.Review
		if review == "" {
			review = model.ReviewUnreviewed
		}

		_, err := stmt.ExecContext(ctx,
			txn.ID, txn.StatementID, txn.Hash, txn.Seq, txn.Date, txn.Description,
			txn.Debit, txn.Credit, txn.Balance, txn.Reference, txn.Category,
			txn.CategoryConfidence, string(txn.Source),
			channelsToString(txn.Enrichment.Channels),
			flagsToString(txn.Enrichment.Flags),
			string(review),
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return nil
}

// GetTransaction retrieves one transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectTransactionQuery+" WHERE id = ?", id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionsByStatement returns a statement's transactions in extraction
// order.
func (s *SQLiteStorage) GetTransactionsByStatement(ctx context.Context, statementID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(statementID, "statementID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		selectTransactionQuery+" WHERE statement_id = ? ORDER BY seq", statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// UpdateTransaction writes back a transaction's mutable fields: amounts,
// date, classification, enrichment and review state.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET
			date = ?, description = ?, debit = ?, credit = ?, balance = ?,
			category = ?, category_confidence = ?, source = ?,
			channels = ?, flags = ?, review = ?
		 WHERE id = ?`,
		txn.Date, txn.Description, txn.Debit, txn.Credit, txn.Balance,
		txn.Category, txn.CategoryConfidence, string(txn.Source),
		channelsToString(txn.Enrichment.Channels),
		flagsToString(txn.Enrichment.Flags),
		string(txn.Review), txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, txn.ID)
	}
	return nil
}

// MarkTransactionReviewed sets the terminal review state and the final
// category in one write.
func (s *SQLiteStorage) MarkTransactionReviewed(ctx context.Context, id string, status model.ReviewStatus, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if status != model.ReviewConfirmed && status != model.ReviewCorrected {
		return fmt.Errorf("%w: review status %q is not terminal", ErrInvalidTransaction, status)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET review = ?, category = ? WHERE id = ?",
		string(status), category, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction reviewed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return nil
}

// DeleteTransactionsByStatement removes all rows for a statement, used when a
// failed run is reprocessed from scratch.
func (s *SQLiteStorage) DeleteTransactionsByStatement(ctx context.Context, statementID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(statementID, "statementID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE statement_id = ?", statementID)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}

const selectTransactionQuery = `
	SELECT id, statement_id, hash, seq, date, description,
		debit, credit, balance, reference, category,
		category_confidence, source, channels, flags, review
	FROM transactions
`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var reference, category, source, channels, flags sql.NullString
	var review string

	err := row.Scan(
		&txn.ID, &txn.StatementID, &txn.Hash, &txn.Seq, &txn.Date, &txn.Description,
		&txn.Debit, &txn.Credit, &txn.Balance, &reference, &category,
		&txn.CategoryConfidence, &source, &channels, &flags, &review,
	)
	if err != nil {
		return nil, err
	}

	txn.Reference = reference.String
	txn.Category = category.String
	txn.Source = model.ClassificationSource(source.String)
	txn.Review = model.ReviewStatus(review)
	txn.Enrichment = model.Enrichment{
		Channels: channelsFromString(channels.String),
		Flags:    flagsFromString(flags.String),
		Version:  model.EnrichmentVersion,
	}

	return &txn, nil
}

func channelsToString(channels []model.ChannelTag) string {
	if len(channels) == 0 {
		return ""
	}
	parts := make([]string, len(channels))
	for i, c := range channels {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func channelsFromString(s string) []model.ChannelTag {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	channels := make([]model.ChannelTag, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			channels = append(channels, model.ChannelTag(p))
		}
	}
	return channels
}
