package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adesina-io/kudiflow/internal/model"
)

// stubPatternStore serves a fixed pattern set.
type stubPatternStore struct {
	patterns []model.ClassificationPattern
	touched  []int64
	err      error
}

func (s *stubPatternStore) GetPatternsByScope(_ context.Context, _ string) ([]model.ClassificationPattern, error) {
	return s.patterns, s.err
}

func (s *stubPatternStore) TouchPattern(_ context.Context, id int64, _ time.Time) error {
	s.touched = append(s.touched, id)
	return nil
}

// stubStrategy returns a canned answer.
type stubStrategy struct {
	name    string
	result  model.ClassificationResult
	matched bool
	err     error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) TryClassify(_ context.Context, _ model.Transaction, _ string) (model.ClassificationResult, bool, error) {
	return s.result, s.matched, s.err
}

func debitTxn(description string, amount float64) model.Transaction {
	return model.Transaction{
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: description,
		Debit:       &amount,
	}
}

func TestPatternTierBeatsRuleTier(t *testing.T) {
	// An exact pattern at 0.90 must win even though the rule set would also
	// match this description at 0.85.
	store := &stubPatternStore{patterns: []model.ClassificationPattern{
		{ID: 1, Pattern: "pos prch chicken republic", Category: "Staff Meals", Confidence: 0.90, Occurrences: 16},
	}}

	cfg := DefaultConfig()
	cascade := NewCascade(
		NewPatternStrategy(store, cfg),
		NewRuleStrategy(nil, cfg),
	)

	result, err := cascade.Classify(context.Background(), debitTxn("POS PRCH Chicken Republic", 4500), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, model.SourcePattern, result.Source)
	assert.Equal(t, "Staff Meals", result.Category)
	assert.InDelta(t, 0.90, result.Confidence, 0.0001)
	assert.Equal(t, []int64{1}, store.touched)
}

func TestLowConfidencePatternFallsThrough(t *testing.T) {
	// A stored pattern under the tier threshold never competes with later
	// tiers, even though it matched exactly.
	store := &stubPatternStore{patterns: []model.ClassificationPattern{
		{ID: 7, Pattern: "pos prch chicken republic", Category: "Staff Meals", Confidence: 0.33, Occurrences: 1},
	}}

	cfg := DefaultConfig()
	cascade := NewCascade(
		NewPatternStrategy(store, cfg),
		NewRuleStrategy(nil, cfg),
	)

	result, err := cascade.Classify(context.Background(), debitTxn("POS PRCH Chicken Republic", 4500), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, model.SourceRule, result.Source)
	assert.Empty(t, store.touched)
}

func TestRuleThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		confidence float64
		wantMatch  bool
	}{
		{"exactly at threshold matches", 0.75, true},
		{"just below threshold falls through", 0.7499, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []Rule{{
				Name:       "test rule",
				Regex:      `suya spot`,
				Category:   "Entertainment",
				Confidence: tt.confidence,
			}}
			strategy := NewRuleStrategy(rules, cfg)

			_, matched, err := strategy.TryClassify(context.Background(), debitTxn("SUYA SPOT LAGOS", 2000), "biz-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, matched)
		})
	}
}

func TestCascadeFallsThroughTierErrors(t *testing.T) {
	failing := &stubStrategy{name: "pattern", err: errors.New("store offline")}
	final := &stubStrategy{
		name:    "ai",
		matched: true,
		result:  model.ClassificationResult{Category: "Office Supplies", Confidence: 0.6, Source: model.SourceAI},
	}

	cascade := NewCascade(failing, final)
	result, err := cascade.Classify(context.Background(), debitTxn("stationery purchase", 12000), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, model.SourceAI, result.Source)
}

func TestCascadeNoTierMatches(t *testing.T) {
	cascade := NewCascade(&stubStrategy{name: "pattern"})
	_, err := cascade.Classify(context.Background(), debitTxn("mystery", 100), "biz-1")
	assert.Error(t, err)
}

func TestDefaultRulesMatchNigerianVocabulary(t *testing.T) {
	strategy := NewRuleStrategy(nil, DefaultConfig())

	tests := []struct {
		description  string
		wantCategory string
	}{
		{"SMS ALERT CHARGE", "Bank Charges"},
		{"POS PRCH SHOPRITE IKEJA", "POS Purchases"},
		{"AIRTIME VTU 0803XXXXXXX", "Airtime & Data"},
		{"SALARY PAYMENT MARCH", "Salaries"},
		{"EKEDC PREPAID TOKEN", "Utilities"},
		{"ATM WDL IKOYI", "Cash Withdrawals"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			result, matched, err := strategy.TryClassify(context.Background(), debitTxn(tt.description, 5000), "biz-1")
			require.NoError(t, err)
			require.True(t, matched)
			assert.Equal(t, tt.wantCategory, result.Category)
		})
	}
}
