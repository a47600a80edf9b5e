// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Pipeline errors.
	ErrNoTransactions  = errors.New("no transactions extracted")
	ErrAlreadyReviewed = errors.New("transaction already reviewed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ExtractionError means no strategy produced usable content from a document.
// It is fatal to the statement and never retried.
type ExtractionError struct {
	Err    error
	Reason string
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unprocessable document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unprocessable document: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a fatal extraction error.
func NewExtractionError(reason string, err error) error {
	return &ExtractionError{Reason: reason, Err: err}
}

// ProviderErrorKind classifies external-provider failures.
type ProviderErrorKind string

// Provider error kinds.
const (
	ProviderUnavailable   ProviderErrorKind = "unavailable"
	ProviderTimeout       ProviderErrorKind = "timeout"
	ProviderLowConfidence ProviderErrorKind = "low_confidence"
	ProviderRateLimited   ProviderErrorKind = "rate_limited"
)

// ProviderError wraps a failure from an external OCR/LLM provider.
// Unavailable, timeout and rate-limit failures are transient and retryable;
// low confidence is a signal to fall through to the next strategy.
type ProviderError struct {
	Err      error
	Provider string
	Op       string
	Kind     ProviderErrorKind
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ProviderUnavailable, ProviderTimeout, ProviderRateLimited:
		return true
	}
	return false
}

// NewProviderError creates a typed provider error.
func NewProviderError(provider, op string, kind ProviderErrorKind, err error) error {
	return &ProviderError{Provider: provider, Op: op, Kind: kind, Err: err}
}

// ParseError means an interpretation call returned output that does not match
// the expected schema. The caller retries the single call once with a
// stricter reminder prompt, then fails that page/batch only.
type ParseError struct {
	Err     error
	Content string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed structured output: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a parse error keeping the offending content for logs.
func NewParseError(content string, err error) error {
	return &ParseError{Content: content, Err: err}
}

// ValidationError means an extracted transaction is missing required fields
// or violates the one-of debit/credit invariant. The single row is dropped
// with a logged warning; the batch survives.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid transaction (%s): %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid transaction: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a row-level validation error.
func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// UserError represents an error that should be shown to the user. Raw
// provider errors are never surfaced directly.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable()
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}

// IsFatalExtraction reports whether err ends statement processing outright.
func IsFatalExtraction(err error) bool {
	var extractionErr *ExtractionError
	return errors.As(err, &extractionErr)
}
