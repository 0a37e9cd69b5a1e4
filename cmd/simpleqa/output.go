package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/stellarlinkco/simpleqa-bench/internal/store"
)

func printSummaryTable(w io.Writer, rows []store.SummaryRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tTOTAL\tCORRECT\tINCORRECT\tNOT_ATTEMPTED\tERRORS\tACCURACY\tNOTE")
	for _, row := range rows {
		note := row.Note
		if row.Degraded && note == "" {
			note = "degraded"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.3f\t%s\n",
			row.Provider,
			row.Total,
			row.Correct,
			row.Incorrect,
			row.NotAttempted,
			row.Errors,
			row.Accuracy,
			note,
		)
	}
	_ = tw.Flush()
}
