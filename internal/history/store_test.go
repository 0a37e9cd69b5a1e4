package history

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndProviderHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []*Entry{
		{RunDir: "runs/20250601_120000", Provider: "tavily", Dataset: "simple_qa_test_set.csv", Total: 10, Correct: 7, Incorrect: 2, NotAttempted: 1, Accuracy: 0.7, RunDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		{RunDir: "runs/20250602_120000", Provider: "tavily", Dataset: "simple_qa_test_set.csv", Total: 10, Correct: 8, Incorrect: 2, Accuracy: 0.8, RunDate: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)},
		{RunDir: "runs/20250602_120000", Provider: "exa", Dataset: "simple_qa_test_set.csv", Total: 10, Correct: 5, Incorrect: 4, Errors: 1, Accuracy: 0.5, RunDate: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save(%s): %v", e.Provider, err)
		}
		if e.ID == 0 {
			t.Fatalf("Save(%s): id not set", e.Provider)
		}
	}

	got, err := s.ProviderHistory(ctx, "tavily", 10)
	if err != nil {
		t.Fatalf("ProviderHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].RunDir != "runs/20250602_120000" || got[1].RunDir != "runs/20250601_120000" {
		t.Fatalf("order = %s, %s", got[0].RunDir, got[1].RunDir)
	}
	if got[0].Accuracy != 0.8 || got[0].Correct != 8 {
		t.Fatalf("entry = %+v", got[0])
	}
	if !got[1].RunDate.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("run date = %v", got[1].RunDate)
	}
}

func TestSave_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, nil); err == nil {
		t.Fatal("expected error for nil entry")
	}
	if err := s.Save(ctx, &Entry{Provider: "", Dataset: "d.csv"}); err == nil {
		t.Fatal("expected error for empty provider")
	}
	if err := s.Save(ctx, &Entry{Provider: "tavily", Dataset: "  "}); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}

func TestSave_DefaultsRunDate(t *testing.T) {
	s := newTestStore(t)

	e := &Entry{RunDir: "runs/x", Provider: "brave", Dataset: "d.csv", Total: 1, Correct: 1, Accuracy: 1}
	if err := s.Save(context.Background(), e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.RunDate.IsZero() {
		t.Fatal("run date not defaulted")
	}
}

func TestProviderHistory_Unknown(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ProviderHistory(context.Background(), "nope", 0)
	if err != nil {
		t.Fatalf("ProviderHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entries = %v", got)
	}
}
