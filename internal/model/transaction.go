// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"
)

// ClassificationSource indicates which cascade tier produced a category.
type ClassificationSource string

// Classification source constants.
const (
	SourcePattern ClassificationSource = "pattern"
	SourceRule    ClassificationSource = "rule"
	SourceAI      ClassificationSource = "ai"
)

// ReviewStatus tracks the feedback state of a classified transaction.
// Transitions are unreviewed -> confirmed or unreviewed -> corrected; both
// are terminal.
type ReviewStatus string

// Review status constants.
const (
	ReviewUnreviewed ReviewStatus = "unreviewed"
	ReviewConfirmed  ReviewStatus = "confirmed"
	ReviewCorrected  ReviewStatus = "corrected"
)

// Transaction validation errors.
var (
	ErrBothAmountsSet = errors.New("transaction has both debit and credit set")
	ErrNoAmountSet    = errors.New("transaction has neither debit nor credit set")
	ErrNoDescription  = errors.New("transaction description is empty")
	ErrNoDate         = errors.New("transaction date is not set")
)

// Transaction represents a single ledger row extracted from a statement.
// Exactly one of Debit/Credit is set on a valid transaction.
type Transaction struct {
	Date               time.Time
	Debit              *float64
	Credit             *float64
	Balance            *float64
	ID                 string
	StatementID        string
	Description        string
	Reference          string
	Hash               string
	Category           string
	Source             ClassificationSource
	Review             ReviewStatus
	Enrichment         Enrichment
	CategoryConfidence float64
	Seq                int
}

// GenerateHash creates the natural key used for duplicate detection and
// idempotent persistence.
func (t *Transaction) GenerateHash() string {
	debit, credit := 0.0, 0.0
	if t.Debit != nil {
		debit = *t.Debit
	}
	if t.Credit != nil {
		credit = *t.Credit
	}
	data := fmt.Sprintf("%s:%s:%.2f:%.2f",
		t.Date.Format("2006-01-02"),
		t.Description,
		debit,
		credit)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Amount returns the magnitude of the transaction regardless of direction.
func (t *Transaction) Amount() float64 {
	if t.Debit != nil {
		return *t.Debit
	}
	if t.Credit != nil {
		return *t.Credit
	}
	return 0
}

// IsDebit reports whether the transaction is an outflow.
func (t *Transaction) IsDebit() bool {
	return t.Debit != nil
}

// Validate checks the one-of debit/credit invariant and required fields.
func (t *Transaction) Validate() error {
	if t.Debit != nil && t.Credit != nil {
		return ErrBothAmountsSet
	}
	if t.Debit == nil && t.Credit == nil {
		return ErrNoAmountSet
	}
	if t.Description == "" {
		return ErrNoDescription
	}
	if t.Date.IsZero() {
		return ErrNoDate
	}
	return nil
}

// ClassificationResult is the outcome of one cascade evaluation.
type ClassificationResult struct {
	Category   string
	Source     ClassificationSource
	Confidence float64
}
