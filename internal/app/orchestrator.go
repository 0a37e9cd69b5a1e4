package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/simpleqa-bench/internal/config"
	"github.com/stellarlinkco/simpleqa-bench/internal/dataset"
	"github.com/stellarlinkco/simpleqa-bench/internal/extract"
	"github.com/stellarlinkco/simpleqa-bench/internal/grader"
	"github.com/stellarlinkco/simpleqa-bench/internal/llm"
	"github.com/stellarlinkco/simpleqa-bench/internal/runner"
	"github.com/stellarlinkco/simpleqa-bench/internal/search"
	"github.com/stellarlinkco/simpleqa-bench/internal/store"
)

// ErrConfig marks a run that cannot start because its parameters are invalid
// or conflict with what an existing run directory records.
var ErrConfig = errors.New("app: invalid run configuration")

// Orchestrator runs the benchmark across all configured providers. One
// provider failing, returning garbage, or leaving a corrupt results file
// never stops the others.
type Orchestrator struct {
	Registry    *search.Registry
	Extractor   *extract.Extractor
	Grader      grader.Grader
	Concurrency map[string]int
	Logger      *zap.Logger
}

// New wires an orchestrator from the run config.
func New(cfg *config.Config, logger *zap.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfig)
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrConfig)
	}

	registry, err := search.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	judge, err := llm.NewGradingProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	concurrency := make(map[string]int, len(cfg.Providers))
	for name, pcfg := range cfg.Providers {
		concurrency[strings.ToLower(strings.TrimSpace(name))] = pcfg.Concurrency
	}

	return &Orchestrator{
		Registry:    registry,
		Extractor:   &extract.Extractor{Provider: judge},
		Grader:      &grader.LLMGrader{Provider: judge},
		Concurrency: concurrency,
		Logger:      logger,
	}, nil
}

// RunOptions are the per-invocation parameters of a benchmark run.
type RunOptions struct {
	DatasetPath string
	Selection   dataset.Selection
	OutputDir   string
	Sequential  bool
	Resume      bool
}

// Run evaluates every registered provider over the selected questions and
// writes the cross-provider summary into the output directory. It returns
// the summary rows it wrote.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) ([]store.SummaryRow, error) {
	if o == nil || o.Registry == nil || o.Extractor == nil || o.Grader == nil {
		return nil, errors.New("app: incomplete orchestrator")
	}
	if ctx == nil {
		return nil, errors.New("app: nil context")
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	providers := o.Registry.Names()
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers registered", ErrConfig)
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, fmt.Errorf("%w: missing output directory", ErrConfig)
	}
	if opts.Resume && opts.Selection.RandomSample > 0 {
		// A fresh seed would pick a different sample than the interrupted
		// run graded, silently mixing two question sets.
		return nil, fmt.Errorf("%w: cannot resume a random-sample run", ErrConfig)
	}

	questions, err := loadQuestions(opts.DatasetPath, opts.Selection)
	if err != nil {
		return nil, err
	}

	manifest := &store.Manifest{
		DatasetPath:   opts.DatasetPath,
		StartIndex:    opts.Selection.StartIndex,
		EndIndex:      opts.Selection.EndIndex,
		Providers:     providers,
		QuestionCount: len(questions),
	}
	if err := o.prepareDir(opts, manifest, providers); err != nil {
		return nil, err
	}

	logger.Info("starting benchmark",
		zap.String("dataset", opts.DatasetPath),
		zap.Int("questions", len(questions)),
		zap.Strings("providers", providers),
		zap.Bool("sequential", opts.Sequential),
		zap.Bool("resume", opts.Resume))

	summaries := make([]store.SummaryRow, len(providers))
	if opts.Sequential {
		for i, name := range providers {
			summaries[i] = o.runProvider(ctx, name, opts.OutputDir, questions, logger)
			if ctx.Err() != nil {
				break
			}
		}
	} else {
		var wg sync.WaitGroup
		for i, name := range providers {
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				summaries[i] = o.runProvider(ctx, name, opts.OutputDir, questions, logger)
			}(i, name)
		}
		wg.Wait()
	}

	// Sequential runs cut short by cancellation leave zero-value rows for
	// providers that never started.
	for i, row := range summaries {
		if row.Provider == "" {
			summaries[i] = store.SummaryRow{
				Provider: providers[i],
				Total:    len(questions),
				Degraded: true,
				Note:     "not started",
			}
		}
	}

	if err := store.WriteSummary(opts.OutputDir, summaries, time.Now()); err != nil {
		return summaries, err
	}

	if err := ctx.Err(); err != nil {
		return summaries, fmt.Errorf("app: run interrupted: %w", err)
	}
	return summaries, nil
}

// prepareDir validates the output directory against the run parameters. A
// resumed run must match the recorded manifest; a fresh run must not clobber
// an existing one.
func (o *Orchestrator) prepareDir(opts RunOptions, manifest *store.Manifest, providers []string) error {
	if opts.Resume {
		stored, err := store.ReadManifest(opts.OutputDir)
		if err != nil {
			return fmt.Errorf("%w: %q is not a resumable run directory: %v", ErrConfig, opts.OutputDir, err)
		}
		if err := store.CheckManifest(stored, manifest); err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		return nil
	}

	if _, err := store.ReadManifest(opts.OutputDir); err == nil {
		return fmt.Errorf("%w: %q already holds a run; pass resume to continue it", ErrConfig, opts.OutputDir)
	}
	for _, name := range providers {
		if store.Exists(opts.OutputDir, name) {
			return fmt.Errorf("%w: %q already holds results for %s; pass resume to continue", ErrConfig, opts.OutputDir, name)
		}
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("app: create output dir: %w", err)
	}
	if err := store.WriteManifest(opts.OutputDir, manifest); err != nil {
		return err
	}
	return nil
}

// runProvider runs one provider to completion and summarizes its durable
// rows. Failures degrade this provider's summary row instead of propagating.
func (o *Orchestrator) runProvider(ctx context.Context, name, dir string, questions []dataset.Question, logger *zap.Logger) store.SummaryRow {
	row := store.SummaryRow{Provider: name, Total: len(questions)}

	adapter, ok := o.Registry.Get(name)
	if !ok {
		row.Degraded = true
		row.Note = "no adapter registered"
		return row
	}

	s, err := store.Open(dir, name)
	if err != nil {
		logger.Error("cannot open results store", zap.String("provider", name), zap.Error(err))
		row.Degraded = true
		row.Note = err.Error()
		return row
	}
	defer s.Close()

	r := &runner.Runner{
		Adapter:     adapter,
		Extractor:   o.Extractor,
		Grader:      o.Grader,
		Store:       s,
		Logger:      logger,
		Concurrency: o.Concurrency[name],
	}
	if err := r.Run(ctx, questions); err != nil {
		logger.Error("provider run failed", zap.String("provider", name), zap.Error(err))
		row = Summarize(name, s.Rows(), len(questions))
		row.Degraded = true
		row.Note = err.Error()
		return row
	}

	return Summarize(name, s.Rows(), len(questions))
}

func loadQuestions(path string, sel dataset.Selection) ([]dataset.Question, error) {
	qs, err := dataset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	selected, err := dataset.Select(qs, sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return selected, nil
}

// Summarize aggregates graded rows for one provider. Accuracy is correct
// answers over the full selected set, so missing rows count against the
// provider rather than shrinking the denominator.
func Summarize(provider string, rows []store.Row, total int) store.SummaryRow {
	out := store.SummaryRow{Provider: provider, Total: total}
	for _, row := range rows {
		switch row.Grade {
		case grader.GradeCorrect:
			out.Correct++
		case grader.GradeIncorrect:
			out.Incorrect++
		case grader.GradeNotAttempted:
			out.NotAttempted++
		default:
			out.Errors++
		}
	}
	if total > 0 {
		out.Accuracy = float64(out.Correct) / float64(total)
	}
	return out
}

// SummarizeDir recomputes the summary of a finished or interrupted run from
// its durable files. Providers whose results cannot be read come back
// degraded.
func SummarizeDir(dir string) ([]store.SummaryRow, error) {
	manifest, err := store.ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a run directory: %v", ErrConfig, dir, err)
	}

	providers := append([]string(nil), manifest.Providers...)
	sort.Strings(providers)

	out := make([]store.SummaryRow, 0, len(providers))
	for _, name := range providers {
		rows, err := store.ReadAll(dir, name)
		if err != nil {
			out = append(out, store.SummaryRow{
				Provider: name,
				Total:    manifest.QuestionCount,
				Degraded: true,
				Note:     err.Error(),
			})
			continue
		}
		out = append(out, Summarize(name, rows, manifest.QuestionCount))
	}
	return out, nil
}
