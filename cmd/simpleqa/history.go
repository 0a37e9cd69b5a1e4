package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/simpleqa-bench/internal/history"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <provider>",
		Short: "Show a provider's accuracy across past runs",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(st.cfg.Storage.HistoryPath)
			if path == "" {
				return fmt.Errorf("history: storage.history_path is not set in config")
			}

			hist, err := history.NewStore(path)
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()

			entries, err := hist.ProviderHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no runs recorded for %s\n", args[0])
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDATASET\tTOTAL\tCORRECT\tACCURACY\tRUN_DIR")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.3f\t%s\n",
					e.RunDate.Format("2006-01-02 15:04"),
					e.Dataset,
					e.Total,
					e.Correct,
					e.Accuracy,
					e.RunDir,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")

	return cmd
}
