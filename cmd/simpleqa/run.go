package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stellarlinkco/simpleqa-bench/internal/app"
	"github.com/stellarlinkco/simpleqa-bench/internal/dataset"
	"github.com/stellarlinkco/simpleqa-bench/internal/history"
	"github.com/stellarlinkco/simpleqa-bench/internal/store"
)

type runOptions struct {
	dataset      string
	outputDir    string
	startIndex   int
	endIndex     int
	randomSample int
	seed         int64
	sequential   bool
	resume       bool
	gradingModel string
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate all configured providers over a question set",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataset, "dataset", "datasets/simple_qa_test_set.csv", "path to the question CSV")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "output", "directory for run results (a fresh run creates a timestamped subdirectory)")
	cmd.Flags().IntVar(&opts.startIndex, "start-index", 0, "first question index")
	cmd.Flags().IntVar(&opts.endIndex, "end-index", 0, "question index to stop before (0 = end of set)")
	cmd.Flags().IntVar(&opts.randomSample, "random-sample", 0, "evaluate a random sample of this size instead of an index range")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random sample seed")
	cmd.Flags().BoolVar(&opts.sequential, "sequential", false, "run providers one at a time instead of in parallel")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "continue an interrupted run (output-dir must be the run directory itself)")
	cmd.Flags().StringVar(&opts.gradingModel, "grading-model", "", "grading model name (overrides config)")

	return cmd
}

func runBenchmark(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	if m := strings.TrimSpace(opts.gradingModel); m != "" {
		st.cfg.Grading.Model = m
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	o, err := app.New(st.cfg, logger)
	if err != nil {
		return err
	}

	runDir := strings.TrimSpace(opts.outputDir)
	if !opts.resume {
		runDir = filepath.Join(runDir, time.Now().Format("20060102_150405"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, runErr := o.Run(ctx, app.RunOptions{
		DatasetPath: opts.dataset,
		Selection: dataset.Selection{
			StartIndex:   opts.startIndex,
			EndIndex:     opts.endIndex,
			RandomSample: opts.randomSample,
			Seed:         opts.seed,
		},
		OutputDir:  runDir,
		Sequential: opts.sequential,
		Resume:     opts.resume,
	})
	if summary == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Results written to %s\n\n", runDir)
	printSummaryTable(out, summary)

	if err := saveHistory(cmd.Context(), st, runDir, opts.dataset, summary); err != nil {
		logger.Warn("cannot save run history", zap.Error(err))
	}

	return runErr
}

func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("run: build logger: %w", err)
	}
	return logger, nil
}

// saveHistory records each provider's aggregate in the SQLite history store,
// when one is configured. Degraded providers are skipped: their numbers do
// not describe a full run.
func saveHistory(ctx context.Context, st *cliState, runDir, datasetPath string, summary []store.SummaryRow) error {
	path := strings.TrimSpace(st.cfg.Storage.HistoryPath)
	if path == "" {
		return nil
	}

	hist, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	now := time.Now().UTC()
	for _, row := range summary {
		if row.Degraded {
			continue
		}
		entry := &history.Entry{
			RunDir:       runDir,
			Provider:     row.Provider,
			Dataset:      datasetPath,
			Total:        row.Total,
			Correct:      row.Correct,
			Incorrect:    row.Incorrect,
			NotAttempted: row.NotAttempted,
			Errors:       row.Errors,
			Accuracy:     row.Accuracy,
			RunDate:      now,
		}
		if err := hist.Save(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
