package classify

import (
	"context"

	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

// FeedbackReader supplies the recent-corrections summary for LLM prompts.
type FeedbackReader interface {
	GetFeedbackByScope(ctx context.Context, scopeID string, limit int) ([]model.FeedbackRecord, error)
}

// LLMStrategy is tier 3, the tier of last resort. It always produces a
// result when the call succeeds.
type LLMStrategy struct {
	interpreter service.DocumentInterpreter
	feedback    FeedbackReader
	sector      string
}

// NewLLMStrategy creates the LLM fallback tier. feedback may be nil when no
// correction history is available.
func NewLLMStrategy(interpreter service.DocumentInterpreter, feedback FeedbackReader, sector string) *LLMStrategy {
	return &LLMStrategy{interpreter: interpreter, feedback: feedback, sector: sector}
}

// Name identifies the tier in logs.
func (s *LLMStrategy) Name() string { return "ai" }

// TryClassify issues a single categorization call with business context.
func (s *LLMStrategy) TryClassify(ctx context.Context, txn model.Transaction, scopeID string) (model.ClassificationResult, bool, error) {
	business := service.BusinessContext{
		ScopeID: scopeID,
		Sector:  s.sector,
	}

	if s.feedback != nil {
		records, err := s.feedback.GetFeedbackByScope(ctx, scopeID, 5)
		if err == nil {
			for _, r := range records {
				if r.CorrectionType == model.CorrectionConfirmation {
					continue
				}
				business.RecentCorrections = append(business.RecentCorrections,
					r.PredictedCategory+" -> "+r.FinalCategory)
			}
		}
	}

	result, err := s.interpreter.Classify(ctx, service.ClassifyRequest{
		Description: txn.Description,
		Amount:      txn.Amount(),
		IsDebit:     txn.IsDebit(),
		Business:    business,
	})
	if err != nil {
		return model.ClassificationResult{}, false, err
	}

	result.Source = model.SourceAI
	return result, true, nil
}
