package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/model"
)

// rawTransaction mirrors the extraction schema exactly. Optional fields
// default to unset; nothing else is coerced.
type rawTransaction struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Debit       *float64 `json:"debit"`
	Credit      *float64 `json:"credit"`
	Balance     *float64 `json:"balance"`
	Reference   *string  `json:"reference"`
}

// parseTransactions parses an interpretation response against the strict
// transaction schema. Malformed or partial JSON fails the whole call.
func parseTransactions(content string) ([]model.Transaction, error) {
	cleaned := cleanMarkdownWrapper(content)

	var raw []rawTransaction
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, common.NewParseError(content, err)
	}

	transactions := make([]model.Transaction, 0, len(raw))
	for i, r := range raw {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, common.NewParseError(content,
				fmt.Errorf("row %d: date %q is not ISO 8601: %w", i, r.Date, err))
		}

		txn := model.Transaction{
			Date:        date,
			Description: strings.TrimSpace(r.Description),
			Debit:       r.Debit,
			Credit:      r.Credit,
			Balance:     r.Balance,
			Review:      model.ReviewUnreviewed,
		}
		if r.Reference != nil {
			txn.Reference = strings.TrimSpace(*r.Reference)
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

// parseClassification parses the single-category response of the LLM tier.
// Confidence is clamped to [0,1].
func parseClassification(content string) (model.ClassificationResult, error) {
	cleaned := cleanMarkdownWrapper(content)

	var resp struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return model.ClassificationResult{}, common.NewParseError(content, err)
	}

	if resp.Category == "" {
		return model.ClassificationResult{}, common.NewParseError(content,
			fmt.Errorf("no category in response"))
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return model.ClassificationResult{
		Category:   resp.Category,
		Confidence: confidence,
		Source:     model.SourceAI,
	}, nil
}

// cleanMarkdownWrapper strips markdown code fences some models insist on.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
