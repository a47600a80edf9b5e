package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adesina-io/kudiflow/internal/cli"
	"github.com/adesina-io/kudiflow/internal/feedback"
	"github.com/adesina-io/kudiflow/internal/model"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review and correct classified transactions",
	}

	cmd.AddCommand(reviewListCmd())
	cmd.AddCommand(reviewConfirmCmd())
	cmd.AddCommand(reviewCorrectCmd())

	return cmd
}

func reviewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <statement-id>",
		Short: "List a statement's transactions and their predicted categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions, err := store.GetTransactionsByStatement(ctx, args[0])
			if err != nil {
				return err
			}
			if len(transactions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no transactions for this statement"))
				return nil
			}

			header := fmt.Sprintf("%-36s %-10s %12s %-24s %-8s %s",
				"ID", "DATE", "AMOUNT", "CATEGORY", "TIER", "STATUS")
			fmt.Println(cli.TableHeaderStyle.Render(header))

			for _, txn := range transactions {
				amount := fmt.Sprintf("%.2f", txn.Amount())
				if txn.IsDebit() {
					amount = "-" + amount
				}
				line := fmt.Sprintf("%-36s %-10s %12s %-24s %-8s %s",
					txn.ID,
					txn.Date.Format("2006-01-02"),
					amount,
					truncate(txn.Category, 24),
					txn.Source,
					txn.Review)
				if len(txn.Enrichment.Flags) > 0 {
					line += " " + cli.WarningStyle.Render(cli.IconFlag)
				}
				fmt.Println(cli.TableCellStyle.Render(line))
			}
			return nil
		},
	}
}

func reviewConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <transaction-id>",
		Short: "Confirm a predicted category as correct",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recorder := feedback.NewRecorder(store, nil, nil)
			record, err := recorder.Confirm(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Confirmed %q",
				cli.IconSuccess, record.FinalCategory)))
			return nil
		},
	}
}

func reviewCorrectCmd() *cobra.Command {
	var category string
	var debit, credit float64
	var dateStr string

	cmd := &cobra.Command{
		Use:   "correct <transaction-id>",
		Short: "Correct a transaction's category, amount or date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			correction := feedback.Correction{Category: category}
			if cmd.Flags().Changed("debit") {
				correction.Debit = &debit
			}
			if cmd.Flags().Changed("credit") {
				correction.Credit = &credit
			}
			if dateStr != "" {
				date, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr)
				}
				correction.Date = &date
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			recorder := feedback.NewRecorder(store, nil, nil)
			record, err := recorder.Correct(ctx, args[0], correction)
			if err != nil {
				return err
			}

			switch record.CorrectionType {
			case model.CorrectionConfirmation:
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Re-affirmed %q",
					cli.IconSuccess, record.FinalCategory)))
			default:
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s Corrected to %q (%s)",
					cli.IconSuccess, record.FinalCategory, record.CorrectionType)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "replacement category")
	cmd.Flags().Float64Var(&debit, "debit", 0, "corrected debit amount")
	cmd.Flags().Float64Var(&credit, "credit", 0, "corrected credit amount")
	cmd.Flags().StringVar(&dateStr, "date", "", "corrected date (YYYY-MM-DD)")

	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-1]) + "…"
}
