// Package enrich annotates classified transactions with payment-channel tags
// and regulatory risk flags. Enrichment never alters category or confidence.
package enrich

import (
	"regexp"
	"strings"

	"github.com/adesina-io/kudiflow/internal/model"
)

var (
	// Bank USSD short-codes: *737# (GTB), *901# (Access), *919# (UBA),
	// *894# (First Bank), *966# (Zenith), *822# (Sterling).
	ussdRe = regexp.MustCompile(`\*(?:737|901|919|894|966|822|426|770)(?:\*\d+)*\#?`)

	posRe = regexp.MustCompile(`(?i)\b(pos|web\s*pos|pos\s*prch|terminal|merchant\s*pay)\b`)

	airtimeRe = regexp.MustCompile(`(?i)\b(airtime|vtu|recharge|data\s*bundle)\b`)

	billPayRe = regexp.MustCompile(`(?i)\b(quickteller|remita|buypower|irecharge|bill\s*pay(ment)?|dstv|gotv|ekedc|ikedc|aedc)\b`)

	transferRe = regexp.MustCompile(`(?i)\b(nip|trf|transfer|ft\d|neft|rtgs)\b`)

	// ISO currency codes that are not naira.
	foreignCurrencyRe = regexp.MustCompile(`\b(USD|GBP|EUR|CAD|ZAR|CNY|AED|GHS)\b`)
)

// mobileMoneyOperators are the named wallet operators treated as the
// mobile-money rail.
var mobileMoneyOperators = []string{
	"opay", "palmpay", "moniepoint", "paga", "kuda", "momo", "smartcash", "pocket app",
}

// ChannelDetector attaches zero-or-more channel tags per transaction.
type ChannelDetector struct{}

// NewChannelDetector creates a detector with the built-in signature tables.
func NewChannelDetector() *ChannelDetector {
	return &ChannelDetector{}
}

// Detect inspects the description against fixed signatures and returns the
// matching channel tags.
func (d *ChannelDetector) Detect(txn model.Transaction) []model.ChannelTag {
	description := txn.Description
	lower := strings.ToLower(description)

	var tags []model.ChannelTag

	if ussdRe.MatchString(description) {
		tags = append(tags, model.ChannelUSSD)
	}
	for _, operator := range mobileMoneyOperators {
		if strings.Contains(lower, operator) {
			tags = append(tags, model.ChannelMobileMoney)
			break
		}
	}
	if posRe.MatchString(description) {
		tags = append(tags, model.ChannelPOS)
	}
	if airtimeRe.MatchString(description) {
		tags = append(tags, model.ChannelAirtime)
	}
	if billPayRe.MatchString(description) {
		tags = append(tags, model.ChannelBillPayment)
	}
	if transferRe.MatchString(description) {
		tags = append(tags, model.ChannelBankTransfer)
	}
	if foreignCurrencyRe.MatchString(description) {
		tags = append(tags, model.ChannelForeignCurrency)
	}

	return tags
}
