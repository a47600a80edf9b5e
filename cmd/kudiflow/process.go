package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/adesina-io/kudiflow/internal/cli"
	"github.com/adesina-io/kudiflow/internal/engine"
	"github.com/adesina-io/kudiflow/internal/model"
	"github.com/adesina-io/kudiflow/internal/service"
)

func processCmd() *cobra.Command {
	var ownerID string
	var docType string

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process a bank statement document",
		Long: `Process ingests a statement document (PDF, JPEG, PNG or HEIC), extracts
its transactions, classifies and enriches them, and stores the result for
review.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, args[0], ownerID, docType)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "business scope that owns this statement (required)")
	cmd.Flags().StringVar(&docType, "type", string(model.DocumentBankStatement), "document type (bank_statement, invoice, receipt)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runProcess(cmd *cobra.Command, path, ownerID, docType string) error {
	ctx := cmd.Context()

	documentType := model.DocumentType(docType)
	if !model.ValidDocumentType(documentType) {
		return fmt.Errorf("unsupported document type: %s", docType)
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- user-supplied document path
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
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

	stmt, err := pipeline.Submit(ctx, ownerID, path, documentType)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("Processing " + filepath.Base(path)))
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  statement %s queued, expect about %s",
		stmt.ID, engine.EstimateDuration(stmt.PageCount))))

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("extracting and classifying"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	completion, procErr := pipeline.Process(ctx, stmt.ID, raw, mediaTypeOf(path))
	close(done)
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if procErr != nil {
		fmt.Println(cli.ErrorStyle.Render(cli.IconError + " " + engine.UserMessage(procErr)))
		return procErr
	}

	printCompletion(ctx, store, completion)
	return nil
}

func printCompletion(ctx context.Context, store service.Storage, completion *service.Completion) {
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Statement %s completed",
		cli.IconSuccess, completion.StatementID)))
	fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("  %d transactions in %s",
		completion.TransactionCount, completion.Elapsed.Round(time.Millisecond))))

	stmt, err := store.GetStatement(ctx, completion.StatementID)
	if err != nil {
		return
	}
	if stmt.BankName != "" {
		fmt.Println(cli.SubtleStyle.Render("  bank: " + stmt.BankName))
	}
	if stmt.AccountNumber != "" {
		fmt.Println(cli.SubtleStyle.Render("  account: " + stmt.AccountNumber))
	}
	for _, flag := range stmt.Flags {
		line := fmt.Sprintf("  %s %s", cli.IconFlag, flag)
		if ref := flag.StatutoryReference(); ref != "" {
			line += " (" + ref + ")"
		}
		fmt.Println(cli.WarningStyle.Render(line))
	}
}

// mediaTypeOf guesses the media type from the file extension; the normalizer
// also sniffs bytes, so a wrong guess is recoverable.
func mediaTypeOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".heic" || ext == ".heif" {
		return "image/heic"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
