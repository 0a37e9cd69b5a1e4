package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/stellarlinkco/simpleqa-bench/internal/dataset"
	"github.com/stellarlinkco/simpleqa-bench/internal/extract"
	"github.com/stellarlinkco/simpleqa-bench/internal/grader"
	"github.com/stellarlinkco/simpleqa-bench/internal/search"
	"github.com/stellarlinkco/simpleqa-bench/internal/store"
)

// Runner evaluates one provider over a question set. Answering, extraction
// and grading run concurrently up to Concurrency; all writes funnel through a
// single goroutine so the results file only ever has one writer.
type Runner struct {
	Adapter     search.Adapter
	Extractor   *extract.Extractor
	Grader      grader.Grader
	Store       *store.Store
	Logger      *zap.Logger
	Concurrency int
}

// Run grades every question not already recorded in the store. A failure on
// one question is recorded as an ERROR row and does not stop the run; only
// context cancellation or a store write failure does.
func (r *Runner) Run(ctx context.Context, questions []dataset.Question) error {
	if r == nil || r.Adapter == nil || r.Extractor == nil || r.Grader == nil || r.Store == nil {
		return errors.New("runner: incomplete runner")
	}
	if ctx == nil {
		return errors.New("runner: nil context")
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", r.Adapter.Name()))

	pending := r.pending(questions)
	if len(pending) == 0 {
		logger.Info("all questions already graded")
		return nil
	}
	logger.Info("starting evaluation",
		zap.Int("pending", len(pending)),
		zap.Int("skipped", len(questions)-len(pending)))

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make(chan store.Row, concurrency)

	// Single writer. On a write failure the run is cancelled: continuing
	// would grade questions whose results cannot be persisted.
	var writeErr error
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for row := range rows {
			if writeErr != nil {
				continue
			}
			if err := r.Store.Append(row); err != nil {
				writeErr = err
				cancel()
			}
		}
	}()

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, q := range pending {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(q dataset.Question) {
				defer wg.Done()
				defer func() { <-sem }()

				if row := r.gradeOne(ctx, q, logger); row != nil {
					rows <- *row
				}
			}(q)
		}
	}

	wg.Wait()
	close(rows)
	<-writerDone

	if writeErr != nil {
		return fmt.Errorf("runner: %w", writeErr)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	logger.Info("evaluation finished", zap.Int("graded", len(pending)))
	return nil
}

// pending filters out questions the store already holds a row for.
func (r *Runner) pending(questions []dataset.Question) []dataset.Question {
	done := r.Store.Completed()
	out := make([]dataset.Question, 0, len(questions))
	for _, q := range questions {
		if _, ok := done[q.ID]; ok {
			continue
		}
		out = append(out, q)
	}
	return out
}

// gradeOne runs one question end to end. It returns nil only when the
// context was cancelled mid-flight; provider and judge failures become
// ERROR rows instead.
func (r *Runner) gradeOne(ctx context.Context, q dataset.Question, logger *zap.Logger) *store.Row {
	row := store.Row{
		QuestionID:      q.ID,
		Question:        q.Problem,
		ReferenceAnswer: q.Answer,
	}

	answer, err := r.answer(ctx, q.Problem)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("provider failed", zap.Int("question_id", q.ID), zap.Error(err))
		row.Grade = grader.GradeError
		row.ErrorNote = err.Error()
		return &row
	}
	row.ProviderAnswer = answer

	verdict, err := r.Grader.Grade(ctx, q.Problem, q.Answer, answer)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("grading failed", zap.Int("question_id", q.ID), zap.Error(err))
		row.Grade = grader.GradeError
		row.ErrorNote = fmt.Sprintf("grade: %v", err)
		return &row
	}
	row.Grade = verdict

	logger.Info("graded question",
		zap.Int("question_id", q.ID),
		zap.String("grade", string(verdict)))
	return &row
}

// answer queries the provider and reduces its output to a final answer.
func (r *Runner) answer(ctx context.Context, question string) (string, error) {
	res, err := r.Adapter.Answer(ctx, question)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}

	final, err := r.Extractor.Extract(ctx, question, res)
	if err != nil {
		return "", fmt.Errorf("extract answer: %w", err)
	}
	return strings.TrimSpace(final), nil
}
