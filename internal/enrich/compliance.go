package enrich

import (
	"regexp"
	"strings"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

// ThresholdSnapshot is an explicit, injected snapshot of the regulatory
// thresholds in force. It is passed through the call chain rather than held
// in a global cache; callers refresh it when ExpiresAt passes.
type ThresholdSnapshot struct {
	FetchedAt        time.Time
	ExpiresAt        time.Time
	RelatedPartyNGN  float64
	HighValueNGN     float64
	MaxPersonalShare float64
}

// DefaultThresholds returns the statutory defaults with a 24h validity.
func DefaultThresholds(now time.Time) ThresholdSnapshot {
	return ThresholdSnapshot{
		RelatedPartyNGN:  5_000_000,
		HighValueNGN:     10_000_000,
		MaxPersonalShare: 0.20,
		FetchedAt:        now,
		ExpiresAt:        now.Add(24 * time.Hour),
	}
}

// Expired reports whether the snapshot should be refreshed before use.
func (s ThresholdSnapshot) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

var relatedPartyRe = regexp.MustCompile(`(?i)\b(director|shareholder|related\s*party|sister\s*company|affiliate|proprietor)\b`)

// personalCategories are the category names counted toward the
// mixed-account-usage ratio.
var personalCategories = map[string]struct{}{
	"personal":          {},
	"personal expenses": {},
	"personal transfer": {},
}

// ComplianceChecker evaluates regulatory risk rules. Stateless per
// transaction; the statement-level check aggregates over the full set.
type ComplianceChecker struct{}

// NewComplianceChecker creates a checker.
func NewComplianceChecker() *ComplianceChecker {
	return &ComplianceChecker{}
}

// CheckTransaction returns the risk flags for one transaction. Recompute
// whenever the transaction's category or amount changes.
func (c *ComplianceChecker) CheckTransaction(txn model.Transaction, thresholds ThresholdSnapshot) []model.ComplianceFlag {
	var flags []model.ComplianceFlag

	if isRelatedParty(txn) && txn.Amount() > thresholds.RelatedPartyNGN {
		flags = append(flags, model.FlagRelatedPartyRisk)
	}
	if txn.Enrichment.HasChannel(model.ChannelForeignCurrency) {
		flags = append(flags, model.FlagForeignCurrency)
	}
	if txn.Amount() > thresholds.HighValueNGN {
		flags = append(flags, model.FlagHighValue)
	}

	return flags
}

// CheckStatement returns statement-level flags computed over all
// transactions. A personal-spend share above the threshold flags the
// statement, not the individual rows.
func (c *ComplianceChecker) CheckStatement(transactions []model.Transaction, thresholds ThresholdSnapshot) []model.ComplianceFlag {
	if len(transactions) == 0 {
		return nil
	}

	var personal int
	for _, txn := range transactions {
		if _, ok := personalCategories[strings.ToLower(txn.Category)]; ok {
			personal++
		}
	}

	share := float64(personal) / float64(len(transactions))
	if share > thresholds.MaxPersonalShare {
		return []model.ComplianceFlag{model.FlagMixedAccountUsage}
	}
	return nil
}

// isRelatedParty reports whether the transaction looks like a related-party
// transfer, from its category or description signature.
func isRelatedParty(txn model.Transaction) bool {
	if strings.EqualFold(txn.Category, "Related Party Transfer") {
		return true
	}
	return relatedPartyRe.MatchString(txn.Description)
}
