package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adesina-io/kudiflow/internal/cli"
	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "import-ofx <file>",
		Short: "Import an OFX/QFX bank export",
		Long: `Import-ofx reads a structured OFX/QFX export directly, skipping OCR and
document interpretation. Rows still flow through classification and
enrichment, so imported transactions are reviewed the same way as
document-extracted ones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOFX(cmd, args[0], ownerID)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "business scope that owns this statement (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runImportOFX(cmd *cobra.Command, path, ownerID string) error {
	ctx := cmd.Context()

	file, err := os.Open(path) // #nosec G304 -- user-supplied document path
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	parsed, err := ofx.NewParser().ParseFile(ctx, file)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pipeline, interpreter, err := buildPipeline(ctx, store)
	if err != nil {
		return err
	}
	defer func() { _ = interpreter.Close() }()

	stmt, err := pipeline.Submit(ctx, ownerID, path, model.DocumentBankStatement)
	if err != nil {
		return err
	}

	stmt.Kind = model.KindOFX
	stmt.AccountNumber = parsed.AccountNumber
	if err := store.UpdateStatement(ctx, stmt); err != nil {
		return err
	}

	completion, err := pipeline.ProcessRows(ctx, stmt.ID, parsed.Transactions)
	if err != nil {
		return err
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Imported %d transactions from %s in %s",
		cli.IconSuccess, completion.TransactionCount, path,
		completion.Elapsed.Round(time.Millisecond))))
	return nil
}
