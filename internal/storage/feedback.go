package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/model"
)

// RecordFeedback stores one review event. The feedback table carries a unique
// index on transaction_id, so a second review of the same transaction returns
// ErrDuplicateEntry instead of silently overwriting the first.
func (s *SQLiteStorage) RecordFeedback(ctx context.Context, record *model.FeedbackRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedback(record); err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO feedback (
			id, transaction_id, scope_id, predicted_category,
			predicted_confidence, predicted_source, final_category,
			correction_type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.TransactionID, record.ScopeID, record.PredictedCategory,
		record.PredictedConfidence, string(record.PredictedSource), record.FinalCategory,
		string(record.CorrectionType), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: feedback for transaction %s",
			common.ErrDuplicateEntry, record.TransactionID)
	}
	return nil
}

// GetFeedbackByScope returns the most recent feedback for a scope, newest
// first, used to build the correction hints in LLM prompts.
func (s *SQLiteStorage) GetFeedbackByScope(ctx context.Context, scopeID string, limit int) ([]model.FeedbackRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(scopeID, "scopeID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transaction_id, scope_id, predicted_category,
			predicted_confidence, predicted_source, final_category,
			correction_type, created_at
		 FROM feedback
		 WHERE scope_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`, scopeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.FeedbackRecord
	for rows.Next() {
		var r model.FeedbackRecord
		var predictedCategory, predictedSource sql.NullString
		err := rows.Scan(&r.ID, &r.TransactionID, &r.ScopeID, &predictedCategory,
			&r.PredictedConfidence, &predictedSource, &r.FinalCategory,
			&r.CorrectionType, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		r.PredictedCategory = predictedCategory.String
		r.PredictedSource = model.ClassificationSource(predictedSource.String)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return records, nil
}
