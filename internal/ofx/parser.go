// Package ofx imports OFX/QFX exports as an alternative to document
// processing: the file already carries structured rows, so OCR and LLM
// interpretation are skipped entirely.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/adesina-io/kudiflow/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// Result carries the parsed rows plus the account metadata from the file.
type Result struct {
	AccountNumber string
	Transactions  []model.Transaction
}

// preprocessOFX fixes common formatting issues in bank OFX exports.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR).
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on a tag
	// that ends the line.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file into ordered transactions. Rows keep the
// one-of debit/credit shape: OFX signs amounts, negative for outflows.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	result := &Result{}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if result.AccountNumber == "" {
				result.AccountNumber = string(stmt.BankAcctFrom.AcctID)
			}
			result.Transactions = append(result.Transactions, p.statementRows(stmt.BankTranList)...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if result.AccountNumber == "" {
				result.AccountNumber = string(stmt.CCAcctFrom.AcctID)
			}
			result.Transactions = append(result.Transactions, p.statementRows(stmt.BankTranList)...)
		}
	}

	for i := range result.Transactions {
		result.Transactions[i].Seq = i
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(result.Transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return result, nil
}

func (p *Parser) statementRows(list *ofxgo.TransactionList) []model.Transaction {
	if list == nil {
		return nil
	}
	rows := make([]model.Transaction, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		rows = append(rows, p.convertTransaction(ofxTx))
	}
	return rows
}

// convertTransaction maps one OFX row onto the ledger shape.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	txn := model.Transaction{
		Date:        ofxTx.DtPosted.Time,
		Description: p.describeTransaction(ofxTx),
		Reference:   string(ofxTx.FiTID),
		Review:      model.ReviewUnreviewed,
	}

	if amount < 0 {
		debit := -amount
		txn.Debit = &debit
	} else {
		credit := amount
		txn.Credit = &credit
	}

	txn.Hash = txn.GenerateHash()
	return txn
}

// describeTransaction builds the best available description from the NAME,
// PAYEE and MEMO fields.
func (p *Parser) describeTransaction(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	if name == "" {
		name = fmt.Sprintf("%v", tx.TrnType)
	}
	return name
}

// isGenericDescription checks if a transaction name is too generic to be
// useful on its own.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"TRANSFER",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}
