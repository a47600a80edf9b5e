package model

import "time"

// ClassificationPattern is a learned description-to-category mapping scoped
// to one business. Confidence grows asymptotically with repeat evidence and
// never reaches 1.0. Patterns are superseded, never hard-deleted.
type ClassificationPattern struct {
	CreatedAt   time.Time
	LastUsedAt  time.Time
	ScopeID     string
	Pattern     string
	Category    string
	ID          int64
	Occurrences int
	Confidence  float64
	Superseded  bool
}

// PatternConfidence is the confidence-growth curve for repeated confirmations
// and corrections: occurrences / (occurrences + 2). Monotone in the number of
// observations, asymptotic to 1.0.
func PatternConfidence(occurrences int) float64 {
	if occurrences <= 0 {
		return 0
	}
	return float64(occurrences) / float64(occurrences+2)
}
