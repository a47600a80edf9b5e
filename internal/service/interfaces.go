// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

// Storage defines the contract for our persistence layer. All writes are
// idempotent under retry: transactions key on their natural hash, feedback
// keys on the transaction id.
type Storage interface {
	// Statement operations
	CreateStatement(ctx context.Context, stmt *model.Statement) error
	GetStatement(ctx context.Context, id string) (*model.Statement, error)
	UpdateStatement(ctx context.Context, stmt *model.Statement) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsByStatement(ctx context.Context, statementID string) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	MarkTransactionReviewed(ctx context.Context, id string, status model.ReviewStatus, category string) error
	DeleteTransactionsByStatement(ctx context.Context, statementID string) error

	// Pattern operations
	UpsertPattern(ctx context.Context, scopeID, pattern, category string) (*model.ClassificationPattern, error)
	GetPatternsByScope(ctx context.Context, scopeID string) ([]model.ClassificationPattern, error)
	TouchPattern(ctx context.Context, id int64, usedAt time.Time) error

	// Feedback operations
	RecordFeedback(ctx context.Context, record *model.FeedbackRecord) error
	GetFeedbackByScope(ctx context.Context, scopeID string, limit int) ([]model.FeedbackRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction scoped to one statement's writes.
type Tx interface {
	Commit() error
	Rollback() error

	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	UpdateStatement(ctx context.Context, stmt *model.Statement) error
	DeleteTransactionsByStatement(ctx context.Context, statementID string) error
}

// OCRResult is the outcome of a text-recognition call.
type OCRResult struct {
	Text       string
	Confidence float64
}

// OCRProvider is the cloud text-recognition capability. Implementations fail
// with a typed provider error (unavailable, timeout, low confidence) rather
// than returning partial garbage.
type OCRProvider interface {
	ExtractText(ctx context.Context, image []byte) (OCRResult, error)
	ProcessMultiPagePDF(ctx context.Context, pdf []byte, maxPages int) (OCRResult, error)
}

// BusinessContext carries the scope-specific hints included in LLM prompts.
type BusinessContext struct {
	ScopeID           string
	Sector            string
	RecentCorrections []string
}

// ClassifyRequest asks the LLM tier for a single category decision.
type ClassifyRequest struct {
	Description string
	Business    BusinessContext
	Amount      float64
	IsDebit     bool
}

// DocumentInterpreter is the multimodal LLM capability consumed by the
// extractor and the classification cascade's last tier.
type DocumentInterpreter interface {
	// InterpretText turns extracted statement text into ordered raw
	// transactions. Output that does not match the transaction schema fails
	// loudly with a parse error.
	InterpretText(ctx context.Context, text string) ([]model.Transaction, error)
	// InterpretImages does the same for a batch of page images.
	InterpretImages(ctx context.Context, pages [][]byte) ([]model.Transaction, error)
	// Classify returns a category and model-reported confidence, clamped to
	// [0,1]. It always produces a result when the call succeeds.
	Classify(ctx context.Context, req ClassifyRequest) (model.ClassificationResult, error)
}

// Completion is published to the calling collaborator when processing ends.
// EstimatedTime repeats the up-front prediction so the front-end can compare
// it against the measured Elapsed.
type Completion struct {
	StatementID      string
	Status           model.ProcessingStatus
	TransactionCount int
	EstimatedTime    time.Duration
	Elapsed          time.Duration
}

// Notifier delivers processing outcomes to the front-end collaborator.
type Notifier interface {
	StatementProcessed(ctx context.Context, completion Completion) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
