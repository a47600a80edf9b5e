// Package extract turns normalized document content into ordered, validated,
// deduplicated transaction candidates.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/document"
	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

// Config holds extraction settings.
type Config struct {
	// BatchSize is the number of pages sent per interpretation call.
	BatchSize int
	// Workers bounds concurrent interpretation calls per statement.
	Workers int
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		BatchSize: 5,
		Workers:   5,
	}
}

// Result carries the extracted transactions plus observability warnings.
type Result struct {
	Transactions []model.Transaction
	Warnings     []string
}

// Extractor runs the interpretation strategy appropriate to the content kind.
type Extractor struct {
	interpreter service.DocumentInterpreter
	cfg         Config
}

// NewExtractor creates an extractor backed by the given interpreter.
func NewExtractor(interpreter service.DocumentInterpreter, cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &Extractor{interpreter: interpreter, cfg: cfg}
}

// Extract produces the ordered, deduplicated transaction list for one
// statement's content. Image batches that fail are skipped with a warning; a
// text interpretation failure fails the whole extraction unless mixed-content
// page images can still carry the statement.
func (e *Extractor) Extract(ctx context.Context, content *document.Content) (*Result, error) {
	var candidates []model.Transaction
	warnings := append([]string(nil), content.Warnings...)
	var err error

	switch content.Kind {
	case document.KindText:
		candidates, err = e.interpreter.InterpretText(ctx, content.Text)
		if err != nil {
			return nil, fmt.Errorf("text interpretation failed: %w", err)
		}
	case document.KindImages:
		var batchWarnings []string
		candidates, batchWarnings, err = e.extractFromImages(ctx, content.Pages)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, batchWarnings...)
	case document.KindMixed:
		var mixedWarnings []string
		candidates, mixedWarnings, err = e.extractMixed(ctx, content)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, mixedWarnings...)
	default:
		return nil, fmt.Errorf("unknown content kind: %s", content.Kind)
	}

	result := &Result{Warnings: warnings}
	result.Transactions = e.finalize(candidates, result)

	if warning := plausibilityWarning(result.Transactions); warning != "" {
		slog.Warn("Implausible extraction shape", "warning", warning)
		result.Warnings = append(result.Warnings, warning)
	}

	if len(result.Transactions) == 0 {
		return nil, common.ErrNoTransactions
	}

	return result, nil
}

// batchResult keeps the batch index so merged output preserves page order
// regardless of worker completion order.
type batchResult struct {
	err          error
	transactions []model.Transaction
	index        int
}

// extractFromImages fans page batches out over a bounded worker pool and
// joins before merging. A failed batch is logged and skipped; it never fails
// the statement.
func (e *Extractor) extractFromImages(ctx context.Context, pages [][]byte) ([]model.Transaction, []string, error) {
	batches := make([][][]byte, 0, (len(pages)+e.cfg.BatchSize-1)/e.cfg.BatchSize)
	for start := 0; start < len(pages); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(pages) {
			end = len(pages)
		}
		batches = append(batches, pages[start:end])
	}

	results := make([]batchResult, len(batches))
	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup

	for idx, batch := range batches {
		wg.Add(1)
		go func(idx int, batch [][]byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Cancellation stops batches that have not started; a batch
			// already past this gate runs to completion and its results are
			// discarded at the post-join check below.
			if ctx.Err() != nil {
				results[idx] = batchResult{index: idx, err: ctx.Err()}
				return
			}

			transactions, err := e.interpreter.InterpretImages(context.WithoutCancel(ctx), batch)
			results[idx] = batchResult{index: idx, transactions: transactions, err: err}
		}(idx, batch)
	}

	// Join barrier: dedup must not start until every batch completed or failed.
	wg.Wait()

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	var merged []model.Transaction
	var warnings []string
	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			slog.Warn("Batch interpretation failed, skipping",
				"batch", r.index,
				"error", r.err)
			warnings = append(warnings, fmt.Sprintf("batch %d failed: %v", r.index, r.err))
			continue
		}
		merged = append(merged, r.transactions...)
	}

	if failed == len(batches) {
		return nil, nil, common.NewExtractionError("every page batch failed", nil)
	}

	return merged, warnings, nil
}

// extractMixed interprets the recognized text and the vision-fallback pages
// of partially recognized content, then merges both contributions. Either
// side may fail alone; only losing both is fatal.
func (e *Extractor) extractMixed(ctx context.Context, content *document.Content) ([]model.Transaction, []string, error) {
	var merged []model.Transaction
	var warnings []string

	textRows, textErr := e.interpreter.InterpretText(ctx, content.Text)
	if textErr != nil {
		slog.Warn("Recognized-text interpretation failed, continuing with page images", "error", textErr)
		warnings = append(warnings, fmt.Sprintf("recognized-text interpretation failed: %v", textErr))
	} else {
		merged = append(merged, textRows...)
	}

	imageRows, imageWarnings, imageErr := e.extractFromImages(ctx, content.Pages)
	warnings = append(warnings, imageWarnings...)
	switch {
	case imageErr == nil:
		merged = append(merged, imageRows...)
	case textErr != nil:
		return nil, nil, imageErr
	case !common.IsFatalExtraction(imageErr):
		return nil, nil, imageErr
	default:
		warnings = append(warnings, "every page batch failed; keeping recognized-text rows only")
	}

	return merged, warnings, nil
}

// finalize validates, deduplicates and re-sequences candidates. Duplicates
// share a (date, description, debit, credit) natural key; the first
// occurrence wins, which compensates for page-boundary re-extraction. Merged
// candidates arrive in batch order, so Seq is a dense first-seen index.
func (e *Extractor) finalize(candidates []model.Transaction, result *Result) []model.Transaction {
	seen := make(map[string]struct{}, len(candidates))
	kept := make([]model.Transaction, 0, len(candidates))

	for _, txn := range candidates {
		if err := txn.Validate(); err != nil {
			validationErr := common.NewValidationError("", err)
			slog.Warn("Dropping invalid transaction",
				"description", txn.Description,
				"error", validationErr)
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped row %q: %v", txn.Description, err))
			continue
		}

		txn.Hash = txn.GenerateHash()
		if _, dup := seen[txn.Hash]; dup {
			continue
		}
		seen[txn.Hash] = struct{}{}

		txn.Seq = len(kept)
		kept = append(kept, txn)
	}

	return kept
}

// plausibilityWarning flags statements whose debit/credit shape suggests a
// column-mapping defect. Heuristic only, never a hard failure.
func plausibilityWarning(transactions []model.Transaction) string {
	var debits, credits int
	for _, txn := range transactions {
		if txn.Debit != nil {
			debits++
		} else if txn.Credit != nil {
			credits++
		}
	}

	if credits >= 5 && debits == 0 {
		return fmt.Sprintf("statement has %d credits and no debits; columns may be misread", credits)
	}
	return ""
}
