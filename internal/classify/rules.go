package classify

import (
	"regexp"
)

// Rule is one static keyword/regex rule with a fixed confidence.
type Rule struct {
	re         *regexp.Regexp
	Name       string
	Regex      string
	Category   string
	Confidence float64
	Priority   int
}

// DefaultRules returns the rule set tuned to Nigerian payment vocabulary.
// Ordering inside the tier is by priority; the tier threshold decides
// whether the best match wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "POS Purchase",
			Regex:      `\b(pos(\s|/)|pos\s*prch|pos\s*purchase|web\s*pos|pos\s*trf)`,
			Category:   "POS Purchases",
			Priority:   95,
			Confidence: 0.85,
		},
		{
			Name:       "Airtime Top-up",
			Regex:      `\b(airtime|vtu|recharge|top\s*up)\b|\*(?:555|606|310)\#?`,
			Category:   "Airtime & Data",
			Priority:   95,
			Confidence: 0.88,
		},
		{
			Name:       "Data Bundle",
			Regex:      `\b(data\s*bundle|mtn\s*data|glo\s*data|airtel\s*data|9mobile)\b`,
			Category:   "Airtime & Data",
			Priority:   90,
			Confidence: 0.85,
		},
		{
			Name:       "Bank Charges",
			Regex:      `\b(sms\s*(alert|chg)|acct\s*maint|account\s*maintenance|c\.?o\.?t\.?|stamp\s*duty|emtl|levy|vat\s*on|commission|nip\s*chg|transfer\s*fee)\b`,
			Category:   "Bank Charges",
			Priority:   100,
			Confidence: 0.92,
		},
		{
			Name:       "Bill Payment Aggregator",
			Regex:      `\b(quickteller|paga|jumia\s*pay|flutterwave|paystack|remita|interswitch|buypower|irecharge)\b`,
			Category:   "Bill Payments",
			Priority:   85,
			Confidence: 0.80,
		},
		{
			Name:       "Electricity Bill",
			Regex:      `\b(phcn|nepa|ekedc|ikedc|aedc|phed|eedc|kedco|electricity|prepaid\s*meter)\b`,
			Category:   "Utilities",
			Priority:   90,
			Confidence: 0.88,
		},
		{
			Name:       "Cable TV",
			Regex:      `\b(dstv|gotv|startimes|multichoice)\b`,
			Category:   "Utilities",
			Priority:   90,
			Confidence: 0.88,
		},
		{
			Name:       "Salary Payment",
			Regex:      `\b(salary|sal\s*for|payroll|staff\s*pay|wages)\b`,
			Category:   "Salaries",
			Priority:   95,
			Confidence: 0.90,
		},
		{
			Name:       "Fuel Purchase",
			Regex:      `\b(nnpc|total\s*energies|oando|mobil|conoil|ardova|filling\s*station|petrol|diesel)\b`,
			Category:   "Fuel & Transport",
			Priority:   85,
			Confidence: 0.82,
		},
		{
			Name:       "Ride Hailing",
			Regex:      `\b(uber|bolt\s*(trip|ride)?|indrive|lagride)\b`,
			Category:   "Fuel & Transport",
			Priority:   80,
			Confidence: 0.78,
		},
		{
			Name:       "Mobile Money Transfer",
			Regex:      `\b(opay|palmpay|moniepoint|kuda|carbon|fairmoney)\b`,
			Category:   "Transfers",
			Priority:   75,
			Confidence: 0.70,
		},
		{
			Name:       "Loan Repayment",
			Regex:      `\b(loan\s*(repay|rpmt|repayment)|lending|renmoney|branch\s*loan)\b`,
			Category:   "Loan Repayments",
			Priority:   85,
			Confidence: 0.85,
		},
		{
			Name:       "Rent Payment",
			Regex:      `\b(rent\s*(for|payment)|annual\s*rent|lease)\b`,
			Category:   "Rent",
			Priority:   80,
			Confidence: 0.80,
		},
		{
			Name:       "Interest Income",
			Regex:      `\b(interest\s*(earned|credit|capitalis)|int\.?\s*pd)\b`,
			Category:   "Interest Income",
			Priority:   85,
			Confidence: 0.88,
		},
		{
			Name:       "Cash Withdrawal",
			Regex:      `\b(atm\s*(wd|wdl|withdrawal|cash)|cash\s*withdrawal|cheque\s*withdrawal)\b`,
			Category:   "Cash Withdrawals",
			Priority:   85,
			Confidence: 0.85,
		},
	}
}

// compileRules precompiles the case-insensitive matchers, skipping any rule
// whose pattern fails to compile.
func compileRules(rules []Rule) []Rule {
	compiled := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(`(?i)` + rule.Regex)
		if err != nil {
			continue
		}
		rule.re = re
		compiled = append(compiled, rule)
	}
	return compiled
}
