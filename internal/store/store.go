package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/stellarlinkco/simpleqa-bench/internal/grader"
)

// ErrCorrupt marks a results file that exists but cannot be parsed. Callers
// must surface it instead of silently discarding prior results.
var ErrCorrupt = errors.New("store: corrupt results file")

var resultsHeader = []string{"question_id", "question", "reference_answer", "provider_answer", "grade", "error_note"}

// Row is one graded question, append-only once written.
type Row struct {
	QuestionID      int
	Question        string
	ReferenceAnswer string
	ProviderAnswer  string
	Grade           grader.Grade
	ErrorNote       string
}

// Store is a durable per-provider record of graded rows. Append is safe for
// concurrent callers; each row is flushed and synced before Append returns.
type Store struct {
	provider string
	path     string

	mu   sync.Mutex
	f    *os.File
	w    *csv.Writer
	rows []Row
	done map[int]struct{}
}

// ResultsPath returns the detailed-results file for a provider.
func ResultsPath(dir, provider string) string {
	return filepath.Join(dir, provider+"_results.csv")
}

// Exists reports whether a provider already has a results file in dir.
func Exists(dir, provider string) bool {
	_, err := os.Stat(ResultsPath(dir, provider))
	return err == nil
}

// Open opens or creates the results file for a provider. An existing file is
// read fully so completed question ids survive a restart; an unparsable file
// fails with ErrCorrupt.
func Open(dir, provider string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	provider = strings.TrimSpace(provider)
	if dir == "" || provider == "" {
		return nil, errors.New("store: missing output dir or provider")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create output dir: %w", err)
	}

	path := ResultsPath(dir, provider)
	s := &Store{
		provider: provider,
		path:     path,
		done:     make(map[int]struct{}),
	}

	existing, err := readRows(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	fresh := errors.Is(err, os.ErrNotExist)

	for _, row := range existing {
		s.rows = append(s.rows, row)
		s.done[row.QuestionID] = struct{}{}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	s.f = f
	s.w = csv.NewWriter(f)

	if fresh {
		if err := s.w.Write(resultsHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("store: write header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("store: write header: %w", err)
		}
	}

	return s, nil
}

// Provider returns the provider name this store belongs to.
func (s *Store) Provider() string {
	if s == nil {
		return ""
	}
	return s.provider
}

// Completed returns a copy of the set of graded question ids.
func (s *Store) Completed() map[int]struct{} {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]struct{}, len(s.done))
	for id := range s.done {
		out[id] = struct{}{}
	}
	return out
}

// Rows returns all graded rows ordered by question id.
func (s *Store) Rows() []Row {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// Append durably writes one row. Duplicate question ids are rejected so a
// question is never graded twice within a run.
func (s *Store) Append(row Row) error {
	if s == nil || s.w == nil || s.f == nil {
		return errors.New("store: nil store")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.done[row.QuestionID]; dup {
		return fmt.Errorf("store: duplicate row for question %d", row.QuestionID)
	}

	rec := []string{
		strconv.Itoa(row.QuestionID),
		row.Question,
		row.ReferenceAnswer,
		row.ProviderAnswer,
		string(row.Grade),
		row.ErrorNote,
	}
	if err := s.w.Write(rec); err != nil {
		return fmt.Errorf("store: append row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("store: append row: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("store: sync: %w", err)
	}

	s.rows = append(s.rows, row)
	s.done[row.QuestionID] = struct{}{}
	return nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	werr := s.w.Error()
	cerr := s.f.Close()
	s.f = nil
	s.w = nil
	if werr != nil {
		return fmt.Errorf("store: close: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("store: close: %w", cerr)
	}
	return nil
}

// ReadAll reads a provider's results file without opening it for writing.
func ReadAll(dir, provider string) ([]Row, error) {
	rows, err := readRows(ResultsPath(dir, provider))
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].QuestionID < rows[j].QuestionID })
	return rows, nil
}

func readRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("store: open %q: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(resultsHeader)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Created but never written: treat as empty.
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %q: %v", ErrCorrupt, path, err)
	}
	if !isResultsHeader(header) {
		return nil, fmt.Errorf("%w: %q: unexpected header %v", ErrCorrupt, path, header)
	}

	var out []Row
	seen := make(map[int]struct{})
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrCorrupt, path, err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: bad question id %q", ErrCorrupt, path, rec[0])
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %q: duplicate question id %d", ErrCorrupt, path, id)
		}
		seen[id] = struct{}{}

		out = append(out, Row{
			QuestionID:      id,
			Question:        rec[1],
			ReferenceAnswer: rec[2],
			ProviderAnswer:  rec[3],
			Grade:           grader.ParseGrade(rec[4]),
			ErrorNote:       rec[5],
		})
	}
	return out, nil
}

func isResultsHeader(header []string) bool {
	if len(header) != len(resultsHeader) {
		return false
	}
	for i, name := range resultsHeader {
		if strings.TrimSpace(header[i]) != name {
			return false
		}
	}
	return true
}
