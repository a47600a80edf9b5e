// Package engine orchestrates statement processing end to end: normalize,
// extract, classify, enrich, persist, notify.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adesina-io/kudiflow/internal/classify"
	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/document"
	"github.com/adesina-io/kudiflow/internal/enrich"
	"github.com/adesina-io/kudiflow/internal/extract"
	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

// Pipeline drives one statement from upload to reviewed-ready transactions.
// Stages run strictly forward; only feedback (elsewhere) writes back into the
// pattern store the cascade reads.
type Pipeline struct {
	storage    service.Storage
	normalizer *document.Normalizer
	extractor  *extract.Extractor
	cascade    *classify.Cascade
	channels   *enrich.ChannelDetector
	compliance *enrich.ComplianceChecker
	thresholds enrich.ThresholdSnapshot
	notifier   service.Notifier
	logger     *slog.Logger
}

// Options wires the pipeline's collaborators. Storage, Normalizer, Extractor
// and Cascade are required; Notifier is optional.
type Options struct {
	Storage    service.Storage
	Normalizer *document.Normalizer
	Extractor  *extract.Extractor
	Cascade    *classify.Cascade
	Thresholds enrich.ThresholdSnapshot
	Notifier   service.Notifier
	Logger     *slog.Logger
}

// NewPipeline creates a processing pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("%w: storage is required", common.ErrInvalidConfig)
	}
	if opts.Normalizer == nil {
		return nil, fmt.Errorf("%w: normalizer is required", common.ErrInvalidConfig)
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("%w: extractor is required", common.ErrInvalidConfig)
	}
	if opts.Cascade == nil {
		return nil, fmt.Errorf("%w: cascade is required", common.ErrInvalidConfig)
	}
	if opts.Thresholds.ExpiresAt.IsZero() {
		opts.Thresholds = enrich.DefaultThresholds(time.Now())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		storage:    opts.Storage,
		normalizer: opts.Normalizer,
		extractor:  opts.Extractor,
		cascade:    opts.Cascade,
		channels:   enrich.NewChannelDetector(),
		compliance: enrich.NewComplianceChecker(),
		thresholds: opts.Thresholds,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
	}, nil
}

// Processing-time estimate parameters, tuned against observed provider
// latency for typical statements.
const (
	baseProcessingTime    = 5 * time.Second
	perPageProcessingTime = 3 * time.Second
)

// EstimateDuration predicts processing time from the page count. The
// front-end shows it in the upload acknowledgment; an unknown page count
// gets the single-page estimate.
func EstimateDuration(pageCount int) time.Duration {
	if pageCount < 1 {
		pageCount = 1
	}
	return baseProcessingTime + time.Duration(pageCount)*perPageProcessingTime
}

// Submit registers an uploaded document and returns the queued statement.
func (p *Pipeline) Submit(ctx context.Context, ownerID, sourceURL string, docType model.DocumentType) (*model.Statement, error) {
	stmt := &model.Statement{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		SourceURL:    sourceURL,
		DocumentType: docType,
		Status:       model.StatusQueued,
		CreatedAt:    time.Now(),
	}
	if err := p.storage.CreateStatement(ctx, stmt); err != nil {
		return nil, err
	}

	p.logger.Info("Statement queued",
		"statement_id", stmt.ID,
		"owner_id", ownerID,
		"document_type", string(docType))
	return stmt, nil
}

// Process runs the full pipeline over raw document bytes. On any failure the
// statement moves to failed with no partial transaction rows left behind.
func (p *Pipeline) Process(ctx context.Context, statementID string, raw []byte, mediaType string) (*service.Completion, error) {
	started := time.Now()

	stmt, err := p.storage.GetStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if err := stmt.TransitionTo(model.StatusProcessing); err != nil {
		return nil, err
	}
	if err := p.storage.UpdateStatement(ctx, stmt); err != nil {
		return nil, err
	}

	transactions, err := p.run(ctx, stmt, raw, mediaType)
	if err != nil {
		p.fail(ctx, stmt, err)
		completion := p.notify(ctx, stmt, 0, started)
		return completion, err
	}

	if err := p.persist(ctx, stmt, transactions); err != nil {
		p.fail(ctx, stmt, err)
		completion := p.notify(ctx, stmt, 0, started)
		return completion, err
	}

	p.logger.Info("Statement processed",
		"statement_id", stmt.ID,
		"transactions", len(transactions),
		"elapsed", time.Since(started).Round(time.Millisecond))

	return p.notify(ctx, stmt, len(transactions), started), nil
}

// run executes the forward stages and returns the fully annotated rows.
func (p *Pipeline) run(ctx context.Context, stmt *model.Statement, raw []byte, mediaType string) ([]model.Transaction, error) {
	content, err := p.normalizer.Normalize(ctx, raw, mediaType)
	if err != nil {
		return nil, err
	}

	stmt.Kind = contentKind(content, mediaType)
	stmt.PageCount = content.PageCount
	if content.Kind == document.KindText || content.Kind == document.KindMixed {
		detectHeader(stmt, content.Text)
	}

	result, err := p.extractor.Extract(ctx, content)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		p.logger.Warn("Extraction warning",
			"statement_id", stmt.ID,
			"warning", warning)
	}

	transactions := result.Transactions
	if err := p.annotate(ctx, stmt, transactions); err != nil {
		return nil, err
	}

	return transactions, nil
}

// annotate classifies each row through the cascade and attaches channel tags
// and risk flags. Statement-level flags land on the statement itself.
func (p *Pipeline) annotate(ctx context.Context, stmt *model.Statement, transactions []model.Transaction) error {
	for i := range transactions {
		txn := &transactions[i]
		txn.ID = uuid.NewString()
		txn.StatementID = stmt.ID
		txn.Review = model.ReviewUnreviewed

		classification, err := p.cascade.Classify(ctx, *txn, stmt.OwnerID)
		if err != nil {
			return fmt.Errorf("classification failed for %q: %w", txn.Description, err)
		}
		txn.Category = classification.Category
		txn.CategoryConfidence = classification.Confidence
		txn.Source = classification.Source

		txn.Enrichment = model.Enrichment{
			Channels: p.channels.Detect(*txn),
			Version:  model.EnrichmentVersion,
		}
		txn.Enrichment.Flags = p.compliance.CheckTransaction(*txn, p.thresholds)
	}

	stmt.Flags = p.compliance.CheckStatement(transactions, p.thresholds)
	return nil
}

// ProcessRows runs classification, enrichment and persistence over rows that
// arrived already structured, such as OFX imports. Normalization and
// extraction are skipped.
func (p *Pipeline) ProcessRows(ctx context.Context, statementID string, rows []model.Transaction) (*service.Completion, error) {
	started := time.Now()

	stmt, err := p.storage.GetStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if err := stmt.TransitionTo(model.StatusProcessing); err != nil {
		return nil, err
	}
	if err := p.storage.UpdateStatement(ctx, stmt); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		err := common.ErrNoTransactions
		p.fail(ctx, stmt, err)
		return p.notify(ctx, stmt, 0, started), err
	}

	if err := p.annotate(ctx, stmt, rows); err != nil {
		p.fail(ctx, stmt, err)
		return p.notify(ctx, stmt, 0, started), err
	}

	if err := p.persist(ctx, stmt, rows); err != nil {
		p.fail(ctx, stmt, err)
		return p.notify(ctx, stmt, 0, started), err
	}

	return p.notify(ctx, stmt, len(rows), started), nil
}

// persist writes the rows and the completed statement in one database
// transaction. Cancellation mid-flight rolls everything back; a reprocessed
// statement first clears its previous partial rows.
func (p *Pipeline) persist(ctx context.Context, stmt *model.Statement, transactions []model.Transaction) error {
	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteTransactionsByStatement(ctx, stmt.ID); err != nil {
		return err
	}
	if err := tx.SaveTransactions(ctx, transactions); err != nil {
		return err
	}

	if err := stmt.TransitionTo(model.StatusCompleted); err != nil {
		return err
	}
	if err := tx.UpdateStatement(ctx, stmt); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return tx.Commit()
}

// fail moves the statement to its terminal failed state. The original error
// is preserved for the caller; a user-facing message is logged instead of the
// raw provider error.
func (p *Pipeline) fail(ctx context.Context, stmt *model.Statement, cause error) {
	p.logger.Error("Statement processing failed",
		"statement_id", stmt.ID,
		"error", cause)

	if stmt.Status != model.StatusFailed {
		if err := stmt.TransitionTo(model.StatusFailed); err != nil {
			p.logger.Warn("Failed statement already terminal", "statement_id", stmt.ID, "error", err)
			return
		}
	}
	if err := p.storage.UpdateStatement(context.WithoutCancel(ctx), stmt); err != nil {
		p.logger.Error("Failed to record failed status",
			"statement_id", stmt.ID,
			"error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, stmt *model.Statement, count int, started time.Time) *service.Completion {
	completion := &service.Completion{
		StatementID:      stmt.ID,
		Status:           stmt.Status,
		TransactionCount: count,
		EstimatedTime:    EstimateDuration(stmt.PageCount),
		Elapsed:          time.Since(started),
	}
	if p.notifier != nil {
		if err := p.notifier.StatementProcessed(context.WithoutCancel(ctx), *completion); err != nil {
			p.logger.Warn("Completion notification failed",
				"statement_id", stmt.ID,
				"error", err)
		}
	}
	return completion
}

// UserMessage maps pipeline errors to text safe to show the user.
func UserMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	switch {
	case errors.Is(err, common.ErrNoTransactions):
		return "no transactions could be read from this document"
	case common.IsFatalExtraction(err):
		return "this document could not be processed; try a clearer copy"
	default:
		return "statement processing failed; please try again"
	}
}

func contentKind(content *document.Content, mediaType string) model.DocumentKind {
	switch {
	case content.ScannedPDF:
		return model.KindScannedPDF
	case content.Kind == document.KindText && mediaType == "application/pdf":
		return model.KindTextPDF
	case content.Kind == document.KindText && content.PageCount > 1:
		return model.KindTextPDF
	default:
		return model.KindImage
	}
}
