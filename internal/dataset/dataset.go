package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
)

// Question is one benchmark item. ID is the ordinal position within the
// source file and is the identity used for resume matching.
type Question struct {
	ID      int
	Problem string
	Answer  string
}

// Load reads a question set from a CSV file. The file must carry a header
// row with "problem" and "answer" columns; extra columns are ignored.
func Load(path string) ([]Question, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("dataset: empty path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %q: %w", path, err)
	}

	problemCol, answerCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "problem", "question":
			if problemCol < 0 {
				problemCol = i
			}
		case "answer":
			if answerCol < 0 {
				answerCol = i
			}
		}
	}
	if problemCol < 0 || answerCol < 0 {
		return nil, fmt.Errorf("dataset: %q must contain 'problem' and 'answer' columns", path)
	}

	var out []Question
	for i := 0; ; i++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("dataset: read row %d of %q: %w", i, path, err)
		}
		if problemCol >= len(rec) || answerCol >= len(rec) {
			return nil, fmt.Errorf("dataset: row %d of %q: missing columns", i, path)
		}
		out = append(out, Question{
			ID:      i,
			Problem: rec[problemCol],
			Answer:  rec[answerCol],
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("dataset: %q has no questions", path)
	}
	return out, nil
}

// Selection narrows a question set to a contiguous slice or a random sample.
// RandomSample > 0 overrides the index bounds. EndIndex <= 0 means the end of
// the set.
type Selection struct {
	StartIndex   int
	EndIndex     int
	RandomSample int
	Seed         int64
}

// Select applies the selection to a full question set. Question IDs keep
// their original ordinal values so resume matching stays stable.
func Select(qs []Question, sel Selection) ([]Question, error) {
	if len(qs) == 0 {
		return nil, errors.New("dataset: empty question set")
	}

	if sel.RandomSample > 0 {
		n := sel.RandomSample
		if n > len(qs) {
			n = len(qs)
		}
		rng := rand.New(rand.NewSource(sel.Seed))
		picked := rng.Perm(len(qs))[:n]
		sort.Ints(picked)

		out := make([]Question, 0, n)
		for _, idx := range picked {
			out = append(out, qs[idx])
		}
		return out, nil
	}

	start := sel.StartIndex
	if start < 0 {
		start = 0
	}
	if start > len(qs)-1 {
		start = len(qs) - 1
	}

	end := sel.EndIndex
	if end <= 0 || end > len(qs) {
		end = len(qs)
	}
	if end <= start {
		end = start + 1
	}

	out := make([]Question, end-start)
	copy(out, qs[start:end])
	return out, nil
}
