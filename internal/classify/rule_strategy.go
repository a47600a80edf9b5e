package classify

import (
	"context"
	"sort"

	"github.com/adesina-io/kudiflow/internal/model"
)

// RuleStrategy is tier 2: an ordered list of static keyword/regex rules with
// fixed confidences.
type RuleStrategy struct {
	rules []Rule
	cfg   Config
}

// NewRuleStrategy creates the static-rule tier. Passing nil rules uses the
// default Nigerian-market set.
func NewRuleStrategy(rules []Rule, cfg Config) *RuleStrategy {
	if rules == nil {
		rules = DefaultRules()
	}
	compiled := compileRules(rules)
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return &RuleStrategy{rules: compiled, cfg: cfg}
}

// Name identifies the tier in logs.
func (s *RuleStrategy) Name() string { return "rule" }

// TryClassify matches the description against the rule set and accepts the
// best match iff its confidence meets the tier threshold (inclusive).
func (s *RuleStrategy) TryClassify(_ context.Context, txn model.Transaction, _ string) (model.ClassificationResult, bool, error) {
	normalized := NormalizeDescription(txn.Description)

	var best *Rule
	for idx := range s.rules {
		rule := &s.rules[idx]
		if !rule.re.MatchString(normalized) {
			continue
		}
		if best == nil || rule.Confidence > best.Confidence {
			best = rule
		}
	}

	if best == nil || best.Confidence < s.cfg.RuleThreshold {
		return model.ClassificationResult{}, false, nil
	}

	return model.ClassificationResult{
		Category:   best.Category,
		Confidence: best.Confidence,
		Source:     model.SourceRule,
	}, true, nil
}
