package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/model"
)

func TestParseTransactions(t *testing.T) {
	content := `[
		{"date": "2025-01-05", "description": "Transfer to Chidi", "debit": 50000, "credit": null, "balance": 250000, "reference": "NIP/0001"},
		{"date": "2025-01-06", "description": "Customer deposit", "debit": null, "credit": 120000, "balance": null, "reference": null}
	]`

	transactions, err := parseTransactions(content)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	first := transactions[0]
	assert.Equal(t, "Transfer to Chidi", first.Description)
	require.NotNil(t, first.Debit)
	assert.InDelta(t, 50000.0, *first.Debit, 0.001)
	assert.Nil(t, first.Credit)
	assert.Equal(t, "NIP/0001", first.Reference)
	assert.Equal(t, model.ReviewUnreviewed, first.Review)

	second := transactions[1]
	assert.Nil(t, second.Debit)
	require.NotNil(t, second.Credit)
	assert.Empty(t, second.Reference)
}

func TestParseTransactionsStripsMarkdownFences(t *testing.T) {
	content := "```json\n[{\"date\": \"2025-01-05\", \"description\": \"POS PRCH\", \"debit\": 100}]\n```"

	transactions, err := parseTransactions(content)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestParseTransactionsRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "Here are your transactions: 1. Transfer"},
		{"object instead of array", `{"date": "2025-01-05"}`},
		{"non-ISO date", `[{"date": "05/01/2025", "description": "x", "debit": 1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTransactions(tt.content)
			require.Error(t, err)

			var parseErr *common.ParseError
			assert.True(t, errors.As(err, &parseErr), "expected a ParseError, got %T", err)
		})
	}
}

func TestParseClassification(t *testing.T) {
	result, err := parseClassification(`{"category": "Bank Charges", "confidence": 0.83}`)
	require.NoError(t, err)
	assert.Equal(t, "Bank Charges", result.Category)
	assert.InDelta(t, 0.83, result.Confidence, 0.0001)
	assert.Equal(t, model.SourceAI, result.Source)
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	result, err := parseClassification(`{"category": "Transfers", "confidence": 1.7}`)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.Confidence, 0.0001)

	result, err = parseClassification(`{"category": "Transfers", "confidence": -0.4}`)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.Confidence, 0.0001)
}

func TestParseClassificationRequiresCategory(t *testing.T) {
	_, err := parseClassification(`{"confidence": 0.9}`)
	assert.Error(t, err)
}
