package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const ManifestFile = "manifest.yaml"

// Manifest pins a run directory to the dataset and selection it was started
// with. Resume matches rows by question id only, so a changed dataset or
// slice must be rejected rather than silently realigned.
type Manifest struct {
	DatasetPath string   `yaml:"dataset_path"`
	StartIndex  int      `yaml:"start_index"`
	EndIndex    int      `yaml:"end_index"`
	Providers   []string `yaml:"providers"`

	// QuestionCount is the size of the selected question set. Accuracy is
	// always computed against this denominator, not against graded rows.
	QuestionCount int `yaml:"question_count"`
}

// WriteManifest writes the run manifest into dir.
func WriteManifest(dir string, m *Manifest) error {
	if m == nil {
		return errors.New("store: nil manifest")
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("store: missing output dir")
	}

	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("store: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), b, 0o644); err != nil {
		return fmt.Errorf("store: write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the run manifest from dir. A missing manifest returns
// os.ErrNotExist wrapped.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(strings.TrimSpace(dir), ManifestFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("store: parse manifest: %w", err)
	}
	return &m, nil
}

// CheckManifest compares the stored manifest against the current run
// parameters and returns a descriptive error on mismatch.
func CheckManifest(stored, current *Manifest) error {
	if stored == nil || current == nil {
		return errors.New("store: nil manifest")
	}
	if stored.DatasetPath != current.DatasetPath {
		return fmt.Errorf("store: manifest dataset mismatch: run started with %q, got %q", stored.DatasetPath, current.DatasetPath)
	}
	if stored.StartIndex != current.StartIndex || stored.EndIndex != current.EndIndex {
		return fmt.Errorf("store: manifest index range mismatch: run started with [%d,%d), got [%d,%d)",
			stored.StartIndex, stored.EndIndex, current.StartIndex, current.EndIndex)
	}
	if !sameNames(stored.Providers, current.Providers) {
		return fmt.Errorf("store: manifest provider set mismatch: run started with %v, got %v", stored.Providers, current.Providers)
	}
	return nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
