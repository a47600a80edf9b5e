package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/model"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testStatement(id string) *model.Statement {
	return &model.Statement{
		ID:           id,
		OwnerID:      "biz-1",
		SourceURL:    "/tmp/statement.pdf",
		DocumentType: model.DocumentBankStatement,
		Status:       model.StatusQueued,
	}
}

func testTransaction(id, statementID, description string, seq int) model.Transaction {
	debit := 50000.0
	txn := model.Transaction{
		ID:          id,
		StatementID: statementID,
		Date:        time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: description,
		Debit:       &debit,
		Category:    "Transfers",
		Source:      model.SourceRule,
		Review:      model.ReviewUnreviewed,
		Seq:         seq,
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

func TestStatementLifecycle(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	stmt := testStatement("stmt-1")
	require.NoError(t, store.CreateStatement(ctx, stmt))

	loaded, err := store.GetStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, loaded.Status)
	assert.Equal(t, "biz-1", loaded.OwnerID)

	loaded.Status = model.StatusProcessing
	loaded.BankName = "Guaranty Trust Bank"
	loaded.AccountNumber = "0123456789"
	loaded.Flags = []model.ComplianceFlag{model.FlagMixedAccountUsage}
	require.NoError(t, store.UpdateStatement(ctx, loaded))

	reloaded, err := store.GetStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, reloaded.Status)
	assert.Equal(t, "Guaranty Trust Bank", reloaded.BankName)
	assert.Equal(t, []model.ComplianceFlag{model.FlagMixedAccountUsage}, reloaded.Flags)

	_, err = store.GetStatement(ctx, "missing")
	assert.ErrorIs(t, err, ErrStatementNotFound)
}

func TestSaveTransactionsIsIdempotent(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))

	batch := []model.Transaction{
		testTransaction("txn-1", "stmt-1", "Transfer to Chidi", 0),
		testTransaction("txn-2", "stmt-1", "Fuel purchase", 1),
	}
	require.NoError(t, store.SaveTransactions(ctx, batch))

	// Retrying the same natural keys must not duplicate rows.
	retry := []model.Transaction{
		testTransaction("txn-3", "stmt-1", "Transfer to Chidi", 0),
		testTransaction("txn-4", "stmt-1", "Fuel purchase", 1),
	}
	require.NoError(t, store.SaveTransactions(ctx, retry))

	rows, err := store.GetTransactionsByStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Transfer to Chidi", rows[0].Description)
	assert.Equal(t, "Fuel purchase", rows[1].Description)
}

func TestTransactionsOrderedBySeq(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))

	batch := []model.Transaction{
		testTransaction("txn-c", "stmt-1", "Third", 2),
		testTransaction("txn-a", "stmt-1", "First", 0),
		testTransaction("txn-b", "stmt-1", "Second", 1),
	}
	require.NoError(t, store.SaveTransactions(ctx, batch))

	rows, err := store.GetTransactionsByStatement(ctx, "stmt-1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "First", rows[0].Description)
	assert.Equal(t, "Second", rows[1].Description)
	assert.Equal(t, "Third", rows[2].Description)
}

func TestEnrichmentRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))

	txn := testTransaction("txn-1", "stmt-1", "NIP TRANSFER USD PAYMENT", 0)
	txn.Enrichment = model.Enrichment{
		Channels: []model.ChannelTag{model.ChannelBankTransfer, model.ChannelForeignCurrency},
		Flags:    []model.ComplianceFlag{model.FlagForeignCurrency, model.FlagHighValue},
		Version:  model.EnrichmentVersion,
	}
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	loaded, err := store.GetTransaction(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, txn.Enrichment.Channels, loaded.Enrichment.Channels)
	assert.Equal(t, txn.Enrichment.Flags, loaded.Enrichment.Flags)
}

func TestMarkTransactionReviewed(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))
	txn := testTransaction("txn-1", "stmt-1", "Transfer to Chidi", 0)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	require.NoError(t, store.MarkTransactionReviewed(ctx, "txn-1", model.ReviewCorrected, "Director Loans"))

	loaded, err := store.GetTransaction(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewCorrected, loaded.Review)
	assert.Equal(t, "Director Loans", loaded.Category)

	// Only terminal states are accepted.
	assert.Error(t, store.MarkTransactionReviewed(ctx, "txn-1", model.ReviewUnreviewed, "x"))
	assert.ErrorIs(t, store.MarkTransactionReviewed(ctx, "missing", model.ReviewConfirmed, "x"), ErrTransactionNotFound)
}

func TestPatternUpsertReinforces(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	first, err := store.UpsertPattern(ctx, "biz-1", "transfer to chidi okeke", "Director Loans")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Occurrences)
	assert.InDelta(t, model.PatternConfidence(1), first.Confidence, 0.0001)

	second, err := store.UpsertPattern(ctx, "biz-1", "transfer to chidi okeke", "Director Loans")
	require.NoError(t, err)
	third, err := store.UpsertPattern(ctx, "biz-1", "transfer to chidi okeke", "Director Loans")
	require.NoError(t, err)

	assert.Equal(t, 3, third.Occurrences)
	assert.Greater(t, second.Confidence, first.Confidence)
	assert.Greater(t, third.Confidence, second.Confidence)
	assert.Less(t, third.Confidence, 1.0)
	assert.InDelta(t, model.PatternConfidence(3), third.Confidence, 0.0001)
}

func TestPatternUpsertSupersedesOnCategoryChange(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := store.UpsertPattern(ctx, "biz-1", "ekedc prepaid token", "Utilities")
	require.NoError(t, err)
	_, err = store.UpsertPattern(ctx, "biz-1", "ekedc prepaid token", "Utilities")
	require.NoError(t, err)

	replaced, err := store.UpsertPattern(ctx, "biz-1", "ekedc prepaid token", "Factory Overheads")
	require.NoError(t, err)
	assert.Equal(t, "Factory Overheads", replaced.Category)
	assert.Equal(t, 1, replaced.Occurrences, "a category change restarts the evidence count")

	// The active set holds exactly one pattern for the description; the old
	// row survives as superseded rather than being deleted.
	active, err := store.GetPatternsByScope(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Factory Overheads", active[0].Category)

	var total int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM patterns WHERE scope_id = ? AND pattern = ?",
		"biz-1", "ekedc prepaid token").Scan(&total))
	assert.Equal(t, 2, total)
}

func TestPatternsScopedPerBusiness(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := store.UpsertPattern(ctx, "biz-1", "suya spot", "Entertainment")
	require.NoError(t, err)

	other, err := store.GetPatternsByScope(ctx, "biz-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFeedbackIsRecordedOncePerTransaction(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))
	txn := testTransaction("txn-1", "stmt-1", "Transfer to Chidi", 0)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	record := &model.FeedbackRecord{
		ID:                "fb-1",
		TransactionID:     "txn-1",
		ScopeID:           "biz-1",
		PredictedCategory: "Transfers",
		PredictedSource:   model.SourceRule,
		FinalCategory:     "Director Loans",
		CorrectionType:    model.CorrectionFullOverride,
	}
	require.NoError(t, store.RecordFeedback(ctx, record))

	duplicate := *record
	duplicate.ID = "fb-2"
	assert.ErrorIs(t, store.RecordFeedback(ctx, &duplicate), common.ErrDuplicateEntry)

	records, err := store.GetFeedbackByScope(ctx, "biz-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Director Loans", records[0].FinalCategory)
	assert.Equal(t, model.CorrectionFullOverride, records[0].CorrectionType)
}

func TestTransactionRollback(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "stmt-1", "Transfer to Chidi", 0),
	}))
	require.NoError(t, tx.Rollback())

	rows, err := store.GetTransactionsByStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteTransactionsByStatement(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateStatement(ctx, testStatement("stmt-1")))
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("txn-1", "stmt-1", "Transfer to Chidi", 0),
	}))

	require.NoError(t, store.DeleteTransactionsByStatement(ctx, "stmt-1"))

	rows, err := store.GetTransactionsByStatement(ctx, "stmt-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
