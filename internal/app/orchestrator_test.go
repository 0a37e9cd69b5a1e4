package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stellarlinkco/simpleqa-bench/internal/dataset"
	"github.com/stellarlinkco/simpleqa-bench/internal/extract"
	"github.com/stellarlinkco/simpleqa-bench/internal/grader"
	"github.com/stellarlinkco/simpleqa-bench/internal/llm"
	"github.com/stellarlinkco/simpleqa-bench/internal/search"
	"github.com/stellarlinkco/simpleqa-bench/internal/store"
)

// writeDataset writes a question set where the answer to "qN" is "aN".
func writeDataset(t *testing.T, n int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("problem,answer\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "q%d,a%d\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "questions.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

type stubAdapter struct {
	name   string
	calls  atomic.Int64
	answer func(query string) (*search.Result, error)
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Answer(_ context.Context, query string) (*search.Result, error) {
	a.calls.Add(1)
	return a.answer(query)
}

// goodAdapter answers "qN" with "aN"; badAdapter always answers wrongly.
func goodAdapter(name string) *stubAdapter {
	return &stubAdapter{name: name, answer: func(query string) (*search.Result, error) {
		return &search.Result{Answer: "a" + strings.TrimPrefix(query, "q"), Direct: true}, nil
	}}
}

func badAdapter(name string) *stubAdapter {
	return &stubAdapter{name: name, answer: func(query string) (*search.Result, error) {
		return &search.Result{Answer: "wrong", Direct: true}, nil
	}}
}

// passthroughLLM extracts the raw response embedded in the extraction prompt.
type passthroughLLM struct{}

func (passthroughLLM) Name() string { return "passthrough" }

func (passthroughLLM) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	_, rest, ok := strings.Cut(prompt, "Response:\n")
	if !ok {
		return &llm.Response{Text: prompt}, nil
	}
	body, _, _ := strings.Cut(rest, "\n\nNow return")
	return &llm.Response{Text: strings.TrimSpace(body)}, nil
}

// matchGrader grades by exact match against the reference answer.
type matchGrader struct{}

func (matchGrader) Grade(_ context.Context, _, reference, candidate string) (grader.Grade, error) {
	if strings.TrimSpace(candidate) == "" {
		return grader.GradeNotAttempted, nil
	}
	if strings.TrimSpace(candidate) == strings.TrimSpace(reference) {
		return grader.GradeCorrect, nil
	}
	return grader.GradeIncorrect, nil
}

func newOrchestrator(adapters ...search.Adapter) *Orchestrator {
	registry := search.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}
	return &Orchestrator{
		Registry:    registry,
		Extractor:   &extract.Extractor{Provider: passthroughLLM{}},
		Grader:      matchGrader{},
		Concurrency: map[string]int{},
	}
}

func summaryByProvider(rows []store.SummaryRow) map[string]store.SummaryRow {
	out := make(map[string]store.SummaryRow, len(rows))
	for _, row := range rows {
		out[row.Provider] = row
	}
	return out
}

func TestRun_WritesResultsAndSummary(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 6)
	dir := filepath.Join(t.TempDir(), "run")
	o := newOrchestrator(goodAdapter("alpha"), badAdapter("beta"))

	rows, err := o.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		OutputDir:   dir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	byName := summaryByProvider(rows)
	alpha := byName["alpha"]
	if alpha.Total != 6 || alpha.Correct != 6 || alpha.Accuracy != 1 {
		t.Fatalf("alpha summary = %+v", alpha)
	}
	beta := byName["beta"]
	if beta.Total != 6 || beta.Incorrect != 6 || beta.Accuracy != 0 {
		t.Fatalf("beta summary = %+v", beta)
	}

	for _, name := range []string{"alpha", "beta"} {
		got, err := store.ReadAll(dir, name)
		if err != nil {
			t.Fatalf("ReadAll(%s): %v", name, err)
		}
		if len(got) != 6 {
			t.Fatalf("%s rows = %d", name, len(got))
		}
	}
	if _, err := os.Stat(filepath.Join(dir, store.SummaryFile)); err != nil {
		t.Fatalf("summary file: %v", err)
	}
	if _, err := store.ReadManifest(dir); err != nil {
		t.Fatalf("manifest: %v", err)
	}
}

func TestRun_SequentialMatchesParallel(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 4)
	dir := filepath.Join(t.TempDir(), "run")
	o := newOrchestrator(goodAdapter("alpha"), badAdapter("beta"))

	rows, err := o.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		OutputDir:   dir,
		Sequential:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	byName := summaryByProvider(rows)
	if byName["alpha"].Correct != 4 || byName["beta"].Incorrect != 4 {
		t.Fatalf("summaries = %+v", rows)
	}
}

func TestRun_ResumeSkipsCompletedQuestions(t *testing.T) {
	t.Parallel()

	const n = 10
	datasetPath := writeDataset(t, n)
	dir := filepath.Join(t.TempDir(), "run")

	first := goodAdapter("alpha")
	o := newOrchestrator(first)
	if _, err := o.Run(context.Background(), RunOptions{DatasetPath: datasetPath, OutputDir: dir}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.calls.Load() != n {
		t.Fatalf("first run calls = %d", first.calls.Load())
	}

	// Drop three rows to simulate an interrupted run, then resume.
	rows, err := store.ReadAll(dir, "alpha")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if err := os.Remove(store.ResultsPath(dir, "alpha")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	s, err := store.Open(dir, "alpha")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, row := range rows[:n-3] {
		if err := s.Append(row); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := goodAdapter("alpha")
	o2 := newOrchestrator(second)
	summary, err := o2.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		OutputDir:   dir,
		Resume:      true,
	})
	if err != nil {
		t.Fatalf("resume Run: %v", err)
	}
	if second.calls.Load() != 3 {
		t.Fatalf("resume calls = %d, want 3", second.calls.Load())
	}
	if got := summaryByProvider(summary)["alpha"]; got.Correct != n || got.Accuracy != 1 {
		t.Fatalf("resumed summary = %+v", got)
	}
}

func TestRun_ResumeIsIdempotent(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 5)
	dir := filepath.Join(t.TempDir(), "run")

	o := newOrchestrator(goodAdapter("alpha"))
	firstSummary, err := o.Run(context.Background(), RunOptions{DatasetPath: datasetPath, OutputDir: dir})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	again := goodAdapter("alpha")
	o2 := newOrchestrator(again)
	secondSummary, err := o2.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		OutputDir:   dir,
		Resume:      true,
	})
	if err != nil {
		t.Fatalf("resume Run: %v", err)
	}
	if again.calls.Load() != 0 {
		t.Fatalf("resume of complete run made %d calls", again.calls.Load())
	}
	if summaryByProvider(firstSummary)["alpha"] != summaryByProvider(secondSummary)["alpha"] {
		t.Fatalf("summaries differ: %+v vs %+v", firstSummary, secondSummary)
	}
}

func TestRun_FreshRunRefusesExistingDir(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 3)
	dir := filepath.Join(t.TempDir(), "run")

	o := newOrchestrator(goodAdapter("alpha"))
	if _, err := o.Run(context.Background(), RunOptions{DatasetPath: datasetPath, OutputDir: dir}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	_, err := o.Run(context.Background(), RunOptions{DatasetPath: datasetPath, OutputDir: dir})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestRun_ResumeRejectsChangedParameters(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 6)
	dir := filepath.Join(t.TempDir(), "run")

	o := newOrchestrator(goodAdapter("alpha"))
	opts := RunOptions{
		DatasetPath: datasetPath,
		Selection:   dataset.Selection{StartIndex: 0, EndIndex: 4},
		OutputDir:   dir,
	}
	if _, err := o.Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	changed := opts
	changed.Selection.EndIndex = 6
	changed.Resume = true
	if _, err := o.Run(context.Background(), changed); !errors.Is(err, ErrConfig) {
		t.Fatalf("index change: err = %v, want ErrConfig", err)
	}

	other := newOrchestrator(goodAdapter("alpha"), goodAdapter("beta"))
	sameOpts := opts
	sameOpts.Resume = true
	if _, err := other.Run(context.Background(), sameOpts); !errors.Is(err, ErrConfig) {
		t.Fatalf("provider change: err = %v, want ErrConfig", err)
	}
}

func TestRun_ResumeMissingDirFails(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 3)
	dir := filepath.Join(t.TempDir(), "missing")

	o := newOrchestrator(goodAdapter("alpha"))
	_, err := o.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		OutputDir:   dir,
		Resume:      true,
	})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	// A failed resume must not leave partial files behind.
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("run dir was created: %v", err)
	}
}

func TestRun_RandomSampleCannotResume(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 10)
	o := newOrchestrator(goodAdapter("alpha"))

	_, err := o.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		Selection:   dataset.Selection{RandomSample: 3},
		OutputDir:   filepath.Join(t.TempDir(), "run"),
		Resume:      true,
	})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestRun_CorruptProviderIsIsolated(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 4)
	dir := filepath.Join(t.TempDir(), "run")

	o := newOrchestrator(goodAdapter("alpha"), goodAdapter("beta"))
	if _, err := o.Run(context.Background(), RunOptions{DatasetPath: datasetPath, OutputDir: dir}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Truncate alpha's file mid-record so it no longer parses.
	if err := os.WriteFile(store.ResultsPath(dir, "alpha"), []byte("question_id,question,reference_answer,provider_answer,grade,error_note\n0,\"bro"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	o2 := newOrchestrator(goodAdapter("alpha"), goodAdapter("beta"))
	rows, err := o2.Run(context.Background(), RunOptions{
		DatasetPath: datasetPath,
		OutputDir:   dir,
		Resume:      true,
	})
	if err != nil {
		t.Fatalf("resume Run: %v", err)
	}

	byName := summaryByProvider(rows)
	alpha := byName["alpha"]
	if !alpha.Degraded || !strings.Contains(alpha.Note, "corrupt") {
		t.Fatalf("alpha = %+v", alpha)
	}
	beta := byName["beta"]
	if beta.Degraded || beta.Correct != 4 {
		t.Fatalf("beta = %+v", beta)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	rows := []store.Row{
		{QuestionID: 0, Grade: grader.GradeCorrect},
		{QuestionID: 1, Grade: grader.GradeCorrect},
		{QuestionID: 2, Grade: grader.GradeIncorrect},
		{QuestionID: 3, Grade: grader.GradeNotAttempted},
		{QuestionID: 4, Grade: grader.GradeError},
	}

	got := Summarize("p", rows, 10)
	if got.Correct != 2 || got.Incorrect != 1 || got.NotAttempted != 1 || got.Errors != 1 {
		t.Fatalf("summary = %+v", got)
	}
	// Accuracy uses the full selected set, not just graded rows.
	if got.Accuracy != 0.2 {
		t.Fatalf("accuracy = %v", got.Accuracy)
	}
	if got.Total != 10 {
		t.Fatalf("total = %d", got.Total)
	}
}

func TestSummarizeDir(t *testing.T) {
	t.Parallel()

	datasetPath := writeDataset(t, 5)
	dir := filepath.Join(t.TempDir(), "run")

	o := newOrchestrator(goodAdapter("alpha"), badAdapter("beta"))
	want, err := o.Run(context.Background(), RunOptions{DatasetPath: datasetPath, OutputDir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := SummarizeDir(dir)
	if err != nil {
		t.Fatalf("SummarizeDir: %v", err)
	}
	wantBy, gotBy := summaryByProvider(want), summaryByProvider(got)
	for _, name := range []string{"alpha", "beta"} {
		if wantBy[name] != gotBy[name] {
			t.Fatalf("%s: %+v vs %+v", name, wantBy[name], gotBy[name])
		}
	}

	if _, err := SummarizeDir(t.TempDir()); !errors.Is(err, ErrConfig) {
		t.Fatalf("missing manifest: err = %v, want ErrConfig", err)
	}
}
