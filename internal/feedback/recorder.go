// Package feedback turns user review decisions into learned classification
// patterns.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adesina-io/kudiflow/internal/classify"
	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/enrich"
	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

// ThresholdSource supplies the current compliance thresholds; risk flags are
// recomputed whenever a correction changes the amount or category.
type ThresholdSource func() enrich.ThresholdSnapshot

// Correction carries the fields a user may change on review. Zero-valued
// fields are left as predicted.
type Correction struct {
	Category string
	Debit    *float64
	Credit   *float64
	Date     *time.Time
}

// Recorder applies review decisions: it persists an immutable feedback record,
// moves the transaction to its terminal review state, and feeds the pattern
// store so the next statement classifies better.
type Recorder struct {
	storage    service.Storage
	checker    *enrich.ComplianceChecker
	thresholds ThresholdSource
	logger     *slog.Logger
}

// NewRecorder creates a feedback recorder.
func NewRecorder(storage service.Storage, thresholds ThresholdSource, logger *slog.Logger) *Recorder {
	if thresholds == nil {
		thresholds = func() enrich.ThresholdSnapshot {
			return enrich.DefaultThresholds(time.Now())
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		storage:    storage,
		checker:    enrich.NewComplianceChecker(),
		thresholds: thresholds,
		logger:     logger,
	}
}

// Confirm accepts the predicted category as correct.
func (r *Recorder) Confirm(ctx context.Context, transactionID string) (*model.FeedbackRecord, error) {
	return r.review(ctx, transactionID, Correction{})
}

// Correct applies the user's edits. A changed category is a full override; an
// amount or date edit with the category retained is a partial edit; no
// effective change is treated as a confirmation.
func (r *Recorder) Correct(ctx context.Context, transactionID string, correction Correction) (*model.FeedbackRecord, error) {
	return r.review(ctx, transactionID, correction)
}

func (r *Recorder) review(ctx context.Context, transactionID string, correction Correction) (*model.FeedbackRecord, error) {
	txn, err := r.storage.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Review != model.ReviewUnreviewed {
		return nil, fmt.Errorf("%w: %s is %s", common.ErrAlreadyReviewed, transactionID, txn.Review)
	}

	stmt, err := r.storage.GetStatement(ctx, txn.StatementID)
	if err != nil {
		return nil, err
	}
	scopeID := stmt.OwnerID

	updated := *txn
	fieldsEdited := applyEdits(&updated, correction)
	if err := updated.Validate(); err != nil {
		return nil, common.NewUserError("the edited transaction is invalid", err)
	}

	record := &model.FeedbackRecord{
		ID:                  uuid.NewString(),
		TransactionID:       txn.ID,
		ScopeID:             scopeID,
		PredictedCategory:   txn.Category,
		PredictedConfidence: txn.CategoryConfidence,
		PredictedSource:     txn.Source,
		FinalCategory:       updated.Category,
		CorrectionType:      correctionType(txn.Category, updated.Category, fieldsEdited),
	}

	if err := r.storage.RecordFeedback(ctx, record); err != nil {
		return nil, err
	}

	if record.CorrectionType == model.CorrectionConfirmation {
		updated.Review = model.ReviewConfirmed
	} else {
		updated.Review = model.ReviewCorrected
	}

	// Amount and category drive the risk rules, so flags are stale after any
	// real edit.
	if record.CorrectionType != model.CorrectionConfirmation {
		updated.Enrichment.Flags = r.checker.CheckTransaction(updated, r.thresholds())
	}

	if err := r.storage.UpdateTransaction(ctx, &updated); err != nil {
		return nil, err
	}

	r.updatePatterns(ctx, scopeID, txn, record)

	r.logger.Info("Recorded feedback",
		"transaction_id", txn.ID,
		"scope_id", scopeID,
		"correction_type", string(record.CorrectionType),
		"final_category", record.FinalCategory)

	return record, nil
}

// applyEdits copies the correction onto the transaction and reports whether
// any amount or date field actually changed.
func applyEdits(txn *model.Transaction, correction Correction) bool {
	edited := false

	if correction.Debit != nil {
		txn.Debit = correction.Debit
		txn.Credit = nil
		edited = true
	}
	if correction.Credit != nil {
		txn.Credit = correction.Credit
		if correction.Debit == nil {
			txn.Debit = nil
		}
		edited = true
	}
	if correction.Date != nil && !correction.Date.Equal(txn.Date) {
		txn.Date = *correction.Date
		edited = true
	}
	if correction.Category != "" {
		txn.Category = correction.Category
	}

	return edited
}

// updatePatterns feeds the learned-pattern store. A changed category always
// teaches the new mapping; a confirmation only reinforces when the prediction
// came from the pattern tier, since rule and AI hits carry no stored pattern
// to strengthen. Pattern failures never fail the review itself.
func (r *Recorder) updatePatterns(ctx context.Context, scopeID string, txn *model.Transaction, record *model.FeedbackRecord) {
	categoryChanged := record.FinalCategory != record.PredictedCategory
	if !categoryChanged && txn.Source != model.SourcePattern {
		return
	}
	if record.FinalCategory == "" {
		return
	}

	normalized := classify.NormalizeDescription(txn.Description)
	if normalized == "" {
		return
	}

	pattern, err := r.storage.UpsertPattern(ctx, scopeID, normalized, record.FinalCategory)
	if err != nil {
		r.logger.Warn("Failed to update pattern from feedback",
			"transaction_id", txn.ID,
			"error", err)
		return
	}

	r.logger.Debug("Updated pattern",
		"pattern", pattern.Pattern,
		"category", pattern.Category,
		"occurrences", pattern.Occurrences,
		"confidence", pattern.Confidence)
}

// correctionType derives how far the final state departs from the prediction.
func correctionType(predicted, final string, fieldsEdited bool) model.CorrectionType {
	switch {
	case final != predicted:
		return model.CorrectionFullOverride
	case fieldsEdited:
		return model.CorrectionPartialEdit
	default:
		return model.CorrectionConfirmation
	}
}
