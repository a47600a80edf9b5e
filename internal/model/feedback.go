package model

import "time"

// CorrectionType classifies how a user-supplied fix differs from the
// original prediction.
type CorrectionType string

// Correction type constants.
const (
	CorrectionConfirmation CorrectionType = "confirmation"
	CorrectionPartialEdit  CorrectionType = "partial_edit"
	CorrectionFullOverride CorrectionType = "full_override"
)

// FeedbackRecord is one immutable user correction or confirmation event.
// It feeds pattern updates exactly once.
type FeedbackRecord struct {
	CreatedAt           time.Time
	ID                  string
	TransactionID       string
	ScopeID             string
	PredictedCategory   string
	PredictedSource     ClassificationSource
	FinalCategory       string
	CorrectionType      CorrectionType
	PredictedConfidence float64
}
