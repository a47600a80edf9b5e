package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

// knownBanks maps header signatures to canonical bank names. Matched against
// the first chunk of extracted text only, where statement letterheads live.
var knownBanks = []struct {
	signature string
	name      string
}{
	{"guaranty trust", "Guaranty Trust Bank"},
	{"gtbank", "Guaranty Trust Bank"},
	{"gtco", "Guaranty Trust Bank"},
	{"access bank", "Access Bank"},
	{"zenith bank", "Zenith Bank"},
	{"first bank", "First Bank of Nigeria"},
	{"firstbank", "First Bank of Nigeria"},
	{"united bank for africa", "United Bank for Africa"},
	{"uba", "United Bank for Africa"},
	{"union bank", "Union Bank"},
	{"fidelity bank", "Fidelity Bank"},
	{"stanbic", "Stanbic IBTC Bank"},
	{"sterling bank", "Sterling Bank"},
	{"wema bank", "Wema Bank"},
	{"polaris bank", "Polaris Bank"},
	{"ecobank", "Ecobank"},
	{"keystone bank", "Keystone Bank"},
	{"providus", "Providus Bank"},
	{"kuda", "Kuda Microfinance Bank"},
	{"opay", "OPay Digital Services"},
	{"moniepoint", "Moniepoint Microfinance Bank"},
}

var (
	// NUBAN account numbers are exactly ten digits, usually labelled.
	accountNumberRe = regexp.MustCompile(`(?i)(?:account\s*(?:no|number|#)?\s*[:.]?\s*)(\d{10})\b`)
	bareNUBANRe     = regexp.MustCompile(`\b(\d{10})\b`)

	// Statement periods appear as "01/01/2025 - 31/03/2025" or
	// "01-Jan-2025 to 31-Mar-2025".
	periodRe = regexp.MustCompile(`(?i)(\d{1,2}[-/][A-Za-z0-9]{1,3}[-/]\d{4})\s*(?:-|to|through)\s*(\d{1,2}[-/][A-Za-z0-9]{1,3}[-/]\d{4})`)
)

var periodLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02/Jan/2006",
}

// detectHeader fills bank name, account number and statement period from the
// document's leading text. Best-effort only; missing metadata never fails
// processing.
func detectHeader(stmt *model.Statement, text string) {
	header := text
	if len(header) > 2000 {
		header = header[:2000]
	}
	lower := strings.ToLower(header)

	for _, bank := range knownBanks {
		if strings.Contains(lower, bank.signature) {
			stmt.BankName = bank.name
			break
		}
	}

	if m := accountNumberRe.FindStringSubmatch(header); m != nil {
		stmt.AccountNumber = m[1]
	} else if m := bareNUBANRe.FindStringSubmatch(header); m != nil {
		stmt.AccountNumber = m[1]
	}

	if m := periodRe.FindStringSubmatch(header); m != nil {
		if start, ok := parsePeriodDate(m[1]); ok {
			stmt.PeriodStart = &start
		}
		if end, ok := parsePeriodDate(m[2]); ok {
			stmt.PeriodEnd = &end
		}
	}
}

func parsePeriodDate(s string) (time.Time, bool) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
