package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adesina-io/kudiflow/internal/cli"
)

func patternsCmd() *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show the learned classification patterns for a business",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			patterns, err := store.GetPatternsByScope(ctx, ownerID)
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no learned patterns yet; corrections create them"))
				return nil
			}

			header := fmt.Sprintf("%-40s %-24s %5s %10s %s",
				"PATTERN", "CATEGORY", "SEEN", "CONFIDENCE", "LAST USED")
			fmt.Println(cli.TableHeaderStyle.Render(header))

			for _, p := range patterns {
				fmt.Println(cli.TableCellStyle.Render(fmt.Sprintf("%-40s %-24s %5d %10.2f %s",
					truncate(p.Pattern, 40),
					truncate(p.Category, 24),
					p.Occurrences,
					p.Confidence,
					p.LastUsedAt.Format("2006-01-02"))))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "business scope to list patterns for (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
