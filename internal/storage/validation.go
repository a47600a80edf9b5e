package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adesina-io/kudiflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrEmptySlice          = errors.New("slice cannot be empty")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidStatement    = errors.New("invalid statement")
	ErrInvalidFeedback     = errors.New("invalid feedback record")
	ErrStatementNotFound   = errors.New("statement not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction for persistence.
func validateTransaction(txn *model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	}
	if txn.StatementID == "" {
		return fmt.Errorf("%w: missing statement id", ErrInvalidTransaction)
	}
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return nil
}

// validateStatement validates a statement for persistence.
func validateStatement(stmt *model.Statement) error {
	if stmt == nil {
		return fmt.Errorf("%w: statement", ErrNilParameter)
	}
	if stmt.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidStatement)
	}
	if stmt.OwnerID == "" {
		return fmt.Errorf("%w: missing owner id", ErrInvalidStatement)
	}
	if !model.ValidDocumentType(stmt.DocumentType) {
		return fmt.Errorf("%w: document type %q", ErrInvalidStatement, stmt.DocumentType)
	}
	return nil
}

// validateFeedback validates a feedback record for persistence.
func validateFeedback(record *model.FeedbackRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidFeedback)
	}
	if record.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction id", ErrInvalidFeedback)
	}
	if record.FinalCategory == "" {
		return fmt.Errorf("%w: missing final category", ErrInvalidFeedback)
	}
	return nil
}
