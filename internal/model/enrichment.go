package model

// EnrichmentVersion identifies the shape of the Enrichment struct so stored
// rows can be migrated if new annotation fields are added.
const EnrichmentVersion = 1

// ChannelTag identifies the payment rail a transaction moved through.
type ChannelTag string

// Channel tag constants.
const (
	ChannelUSSD            ChannelTag = "ussd"
	ChannelMobileMoney     ChannelTag = "mobile_money"
	ChannelPOS             ChannelTag = "pos"
	ChannelBankTransfer    ChannelTag = "bank_transfer"
	ChannelAirtime         ChannelTag = "airtime"
	ChannelBillPayment     ChannelTag = "bill_payment"
	ChannelForeignCurrency ChannelTag = "foreign_currency"
)

// ComplianceFlag is a regulatory-risk annotation attached during enrichment.
type ComplianceFlag string

// Compliance flag constants.
const (
	FlagRelatedPartyRisk  ComplianceFlag = "related_party_risk"
	FlagForeignCurrency   ComplianceFlag = "foreign_currency"
	FlagHighValue         ComplianceFlag = "high_value"
	FlagMixedAccountUsage ComplianceFlag = "mixed_account_usage"
)

// StatutoryReference returns the legal provision backing a flag, if any.
func (f ComplianceFlag) StatutoryReference() string {
	switch f {
	case FlagRelatedPartyRisk:
		return "CITA s.22 (artificial transactions between related parties)"
	case FlagMixedAccountUsage:
		return "FIRS Information Circular 2021/07 (business records)"
	default:
		return ""
	}
}

// Enrichment is the closed set of annotations the enricher passes attach to a
// transaction. Explicit fields per enricher; no open metadata maps.
type Enrichment struct {
	Channels []ChannelTag
	Flags    []ComplianceFlag
	Version  int
}

// HasChannel reports whether the given channel tag is present.
func (e Enrichment) HasChannel(tag ChannelTag) bool {
	for _, c := range e.Channels {
		if c == tag {
			return true
		}
	}
	return false
}

// HasFlag reports whether the given compliance flag is present.
func (e Enrichment) HasFlag(flag ComplianceFlag) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
