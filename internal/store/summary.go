package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const SummaryFile = "summary.csv"

var summaryHeader = []string{"provider", "total", "correct", "incorrect", "not_attempted", "errors", "accuracy", "timestamp"}

// SummaryRow is one provider's aggregate result. Derived data: always
// recomputed from the detailed rows, never updated incrementally.
type SummaryRow struct {
	Provider     string
	Total        int
	Correct      int
	Incorrect    int
	NotAttempted int
	Errors       int
	Accuracy     float64

	// Degraded marks providers whose run could not complete (for example a
	// corrupt results file); their numbers cover only what was readable.
	Degraded bool
	Note     string
}

// WriteSummary replaces the cross-provider summary file in dir.
func WriteSummary(dir string, rows []SummaryRow, now time.Time) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("store: missing output dir")
	}

	f, err := os.Create(filepath.Join(dir, SummaryFile))
	if err != nil {
		return fmt.Errorf("store: create summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		return fmt.Errorf("store: write summary header: %w", err)
	}

	ts := now.UTC().Format("2006-01-02 15:04:05")
	for _, row := range rows {
		rec := []string{
			row.Provider,
			strconv.Itoa(row.Total),
			strconv.Itoa(row.Correct),
			strconv.Itoa(row.Incorrect),
			strconv.Itoa(row.NotAttempted),
			strconv.Itoa(row.Errors),
			strconv.FormatFloat(row.Accuracy, 'f', 3, 64),
			ts,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("store: write summary row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("store: write summary: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("store: sync summary: %w", err)
	}
	return nil
}
