package classify

import (
	"context"
	"log/slog"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

// PatternStore is the slice of storage the pattern tier needs.
type PatternStore interface {
	GetPatternsByScope(ctx context.Context, scopeID string) ([]model.ClassificationPattern, error)
	TouchPattern(ctx context.Context, id int64, usedAt time.Time) error
}

// PatternStrategy is tier 1: learned per-business patterns, matched exactly
// first and by trigram similarity second.
type PatternStrategy struct {
	store PatternStore
	cfg   Config
}

// NewPatternStrategy creates the learned-pattern tier.
func NewPatternStrategy(store PatternStore, cfg Config) *PatternStrategy {
	return &PatternStrategy{store: store, cfg: cfg}
}

// Name identifies the tier in logs.
func (s *PatternStrategy) Name() string { return "pattern" }

// TryClassify looks the normalized description up in the business's learned
// patterns. It matches only when the stored confidence meets the tier
// threshold; a low-confidence pattern falls through rather than competing
// with later tiers.
func (s *PatternStrategy) TryClassify(ctx context.Context, txn model.Transaction, scopeID string) (model.ClassificationResult, bool, error) {
	normalized := NormalizeDescription(txn.Description)
	if normalized == "" {
		return model.ClassificationResult{}, false, nil
	}

	patterns, err := s.store.GetPatternsByScope(ctx, scopeID)
	if err != nil {
		return model.ClassificationResult{}, false, err
	}

	best := s.bestMatch(normalized, patterns)
	if best == nil {
		return model.ClassificationResult{}, false, nil
	}

	confidence := best.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	if confidence < s.cfg.PatternThreshold {
		return model.ClassificationResult{}, false, nil
	}

	if err := s.store.TouchPattern(ctx, best.ID, time.Now()); err != nil {
		slog.Warn("Failed to touch pattern", "pattern_id", best.ID, "error", err)
	}

	return model.ClassificationResult{
		Category:   best.Category,
		Confidence: confidence,
		Source:     model.SourcePattern,
	}, true, nil
}

// bestMatch prefers an exact normalized match; otherwise the most similar
// pattern at or above the similarity threshold.
func (s *PatternStrategy) bestMatch(normalized string, patterns []model.ClassificationPattern) *model.ClassificationPattern {
	var best *model.ClassificationPattern
	bestSimilarity := 0.0

	for idx := range patterns {
		p := &patterns[idx]
		if p.Superseded {
			continue
		}
		if p.Pattern == normalized {
			return p
		}
		similarity := trigramSimilarity(normalized, p.Pattern)
		if similarity >= s.cfg.SimilarityThreshold && similarity > bestSimilarity {
			best = p
			bestSimilarity = similarity
		}
	}

	return best
}
