package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adesina-io/kudiflow/internal/model"
)

func debit(description string, amount float64) model.Transaction {
	return model.Transaction{
		Date:        time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Description: description,
		Debit:       &amount,
	}
}

func TestChannelDetection(t *testing.T) {
	detector := NewChannelDetector()

	tests := []struct {
		name        string
		description string
		want        []model.ChannelTag
	}{
		{
			name:        "USSD short code",
			description: "*737*1*5000# AIRTIME GTB",
			want:        []model.ChannelTag{model.ChannelUSSD, model.ChannelAirtime},
		},
		{
			name:        "mobile money operator",
			description: "OPAY WALLET FUNDING",
			want:        []model.ChannelTag{model.ChannelMobileMoney},
		},
		{
			name:        "POS terminal",
			description: "POS PRCH SHOPRITE",
			want:        []model.ChannelTag{model.ChannelPOS},
		},
		{
			name:        "NIP transfer",
			description: "NIP TRANSFER TO ADAEZE VENTURES",
			want:        []model.ChannelTag{model.ChannelBankTransfer},
		},
		{
			name:        "bill payment aggregator",
			description: "QUICKTELLER DSTV SUBSCRIPTION",
			want:        []model.ChannelTag{model.ChannelBillPayment},
		},
		{
			name:        "foreign currency",
			description: "SWIFT INWARD USD 1,200.00",
			want:        []model.ChannelTag{model.ChannelForeignCurrency},
		},
		{
			name:        "no channel signature",
			description: "CHEQUE 0042 LODGEMENT",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(debit(tt.description, 10000)))
		})
	}
}

func TestRelatedPartyThreshold(t *testing.T) {
	checker := NewComplianceChecker()
	thresholds := DefaultThresholds(time.Now())

	above := debit("TRANSFER TO DIRECTOR ADEBAYO", 6_000_000)
	flags := checker.CheckTransaction(above, thresholds)
	assert.Contains(t, flags, model.FlagRelatedPartyRisk)

	below := debit("TRANSFER TO DIRECTOR ADEBAYO", 4_000_000)
	flags = checker.CheckTransaction(below, thresholds)
	assert.NotContains(t, flags, model.FlagRelatedPartyRisk)
}

func TestRelatedPartyByCategory(t *testing.T) {
	checker := NewComplianceChecker()
	thresholds := DefaultThresholds(time.Now())

	txn := debit("TRANSFER TO SUNRISE LTD", 7_500_000)
	txn.Category = "Related Party Transfer"

	flags := checker.CheckTransaction(txn, thresholds)
	assert.Contains(t, flags, model.FlagRelatedPartyRisk)
}

func TestHighValueFlag(t *testing.T) {
	checker := NewComplianceChecker()
	thresholds := DefaultThresholds(time.Now())

	flags := checker.CheckTransaction(debit("EQUIPMENT PURCHASE", 12_000_000), thresholds)
	assert.Contains(t, flags, model.FlagHighValue)

	flags = checker.CheckTransaction(debit("EQUIPMENT PURCHASE", 9_000_000), thresholds)
	assert.NotContains(t, flags, model.FlagHighValue)
}

func TestForeignCurrencyFlagFollowsChannel(t *testing.T) {
	checker := NewComplianceChecker()
	thresholds := DefaultThresholds(time.Now())

	txn := debit("SWIFT OUTWARD GBP 900.00", 1_800_000)
	txn.Enrichment.Channels = NewChannelDetector().Detect(txn)

	flags := checker.CheckTransaction(txn, thresholds)
	assert.Contains(t, flags, model.FlagForeignCurrency)
}

func TestMixedAccountUsage(t *testing.T) {
	checker := NewComplianceChecker()
	thresholds := DefaultThresholds(time.Now())

	business := func() model.Transaction {
		txn := debit("SUPPLIER PAYMENT", 100_000)
		txn.Category = "Inventory"
		return txn
	}
	personal := func() model.Transaction {
		txn := debit("SCHOOL FEES", 50_000)
		txn.Category = "Personal Expenses"
		return txn
	}

	// 3 of 10 personal: above the 20% share.
	var transactions []model.Transaction
	for i := 0; i < 7; i++ {
		transactions = append(transactions, business())
	}
	for i := 0; i < 3; i++ {
		transactions = append(transactions, personal())
	}
	flags := checker.CheckStatement(transactions, thresholds)
	assert.Equal(t, []model.ComplianceFlag{model.FlagMixedAccountUsage}, flags)

	// 2 of 10 personal: exactly 20%, not above.
	transactions = transactions[:0]
	for i := 0; i < 8; i++ {
		transactions = append(transactions, business())
	}
	for i := 0; i < 2; i++ {
		transactions = append(transactions, personal())
	}
	assert.Nil(t, checker.CheckStatement(transactions, thresholds))

	assert.Nil(t, checker.CheckStatement(nil, thresholds))
}

func TestThresholdSnapshotExpiry(t *testing.T) {
	now := time.Now()
	snapshot := DefaultThresholds(now)

	assert.False(t, snapshot.Expired(now.Add(23*time.Hour)))
	assert.True(t, snapshot.Expired(now.Add(25*time.Hour)))
}
