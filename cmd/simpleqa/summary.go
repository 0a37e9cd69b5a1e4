package main

import (
	"github.com/spf13/cobra"

	"github.com/stellarlinkco/simpleqa-bench/internal/app"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <run-dir>",
		Short: "Recompute and print the summary of a run directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.SummarizeDir(args[0])
			if err != nil {
				return err
			}
			printSummaryTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}
