package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>NGN
<BANKACCTFROM>
<BANKID>058152052
<ACCTID>0123456789
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20250101120000[0:GMT]
<DTEND>20250131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250105120000[0:GMT]
<TRNAMT>-50000.00
<FITID>2025010501
<NAME>TRANSFER TO CHIDI OKEKE
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250106120000[0:GMT]
<TRNAMT>120000.00
<FITID>2025010601
<NAME>CUSTOMER DEPOSIT
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250107120000[0:GMT]
<TRNAMT>-52.50
<FITID>2025010701
<NAME>DEBIT
<MEMO>SMS ALERT CHARGE JANUARY
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>250000.00
<DTASOF>20250131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	parser := NewParser()

	result, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	assert.Equal(t, "0123456789", result.AccountNumber)
	require.Len(t, result.Transactions, 3)

	first := result.Transactions[0]
	assert.Equal(t, "TRANSFER TO CHIDI OKEKE", first.Description)
	require.NotNil(t, first.Debit)
	assert.InDelta(t, 50000.0, *first.Debit, 0.001)
	assert.Nil(t, first.Credit)
	assert.Equal(t, "2025010501", first.Reference)
	assert.Equal(t, 0, first.Seq)
	assert.NotEmpty(t, first.Hash)
	assert.NoError(t, first.Validate())

	second := result.Transactions[1]
	require.NotNil(t, second.Credit)
	assert.InDelta(t, 120000.0, *second.Credit, 0.001)
	assert.Nil(t, second.Debit)
	assert.Equal(t, 1, second.Seq)

	// A generic NAME falls back to the MEMO field.
	third := result.Transactions[2]
	assert.Equal(t, "SMS ALERT CHARGE JANUARY", third.Description)
}

func TestParseFileRejectsGarbage(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseFile(context.Background(), strings.NewReader("this is not ofx"))
	assert.Error(t, err)
}

func TestPreprocessFixesCommonIssues(t *testing.T) {
	parser := NewParser()

	fixed := parser.preprocessOFX("\n\nOFXHEADER:100\n<SEVERITY>Info</SEVERITY>\n<ACCTID")
	assert.True(t, strings.HasPrefix(fixed, "OFXHEADER"))
	assert.Contains(t, fixed, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, fixed, "<ACCTID>")
}
