// Package classify implements the confidence-gated classification cascade:
// learned patterns, then static rules, then the LLM tier of last resort.
package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adesina-io/kudiflow/internal/model"
)

// Strategy is one cascade tier. TryClassify returns matched=false when the
// tier cannot meet its own threshold; thresholds are never compared across
// tiers.
type Strategy interface {
	Name() string
	TryClassify(ctx context.Context, txn model.Transaction, scopeID string) (model.ClassificationResult, bool, error)
}

// Config holds the cascade's policy knobs. All thresholds are inclusive.
type Config struct {
	// PatternThreshold gates tier 1 on the stored pattern confidence.
	PatternThreshold float64
	// SimilarityThreshold is the minimum trigram similarity for a fuzzy
	// pattern match.
	SimilarityThreshold float64
	// RuleThreshold gates tier 2 on the matched rule's fixed confidence.
	RuleThreshold float64
}

// DefaultConfig returns the default cascade policy.
func DefaultConfig() Config {
	return Config{
		PatternThreshold:    0.85,
		SimilarityThreshold: 0.55,
		RuleThreshold:       0.75,
	}
}

// Cascade evaluates strategies strictly in order and stops at the first
// tier that matches.
type Cascade struct {
	strategies []Strategy
}

// NewCascade creates a cascade from ordered strategies. The last strategy is
// expected to always match (the LLM tier).
func NewCascade(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// Classify assigns a category, confidence and source tier to one transaction.
func (c *Cascade) Classify(ctx context.Context, txn model.Transaction, scopeID string) (model.ClassificationResult, error) {
	for _, strategy := range c.strategies {
		result, matched, err := strategy.TryClassify(ctx, txn, scopeID)
		if err != nil {
			slog.Warn("Cascade tier errored, falling through",
				"tier", strategy.Name(),
				"description", txn.Description,
				"error", err)
			continue
		}
		if !matched {
			continue
		}

		slog.Debug("Cascade tier matched",
			"tier", strategy.Name(),
			"category", result.Category,
			"confidence", result.Confidence)
		return result, nil
	}

	return model.ClassificationResult{}, fmt.Errorf("no cascade tier produced a result for %q", txn.Description)
}
