package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 50

// Store keeps per-provider accuracy for past benchmark runs in SQLite, so
// results stay comparable after the CSV output directories are cleaned up.
type Store struct {
	db *sql.DB
}

// Entry is one provider's aggregate result from one run.
type Entry struct {
	ID           int64
	RunDir       string
	Provider     string
	Dataset      string
	Total        int
	Correct      int
	Incorrect    int
	NotAttempted int
	Errors       int
	Accuracy     float64
	RunDate      time.Time
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("history: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("history: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("history: nil db")
	}

	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS run_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_dir TEXT NOT NULL,
			provider TEXT NOT NULL,
			dataset TEXT NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			not_attempted INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			run_date INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_entries_provider ON run_entries(provider)`,
		`CREATE INDEX IF NOT EXISTS idx_run_entries_run_date ON run_entries(run_date)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("history: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, entry *Entry) error {
	if s == nil || s.db == nil {
		return errors.New("history: nil store")
	}
	if ctx == nil {
		return errors.New("history: nil context")
	}
	if entry == nil {
		return errors.New("history: nil entry")
	}

	provider := strings.TrimSpace(entry.Provider)
	dataset := strings.TrimSpace(entry.Dataset)
	if provider == "" || dataset == "" {
		return errors.New("history: missing provider/dataset")
	}

	runDate := entry.RunDate
	if runDate.IsZero() {
		runDate = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO run_entries (
			run_dir, provider, dataset, total, correct, incorrect, not_attempted, errors, accuracy, run_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(entry.RunDir), provider, dataset,
		entry.Total, entry.Correct, entry.Incorrect, entry.NotAttempted, entry.Errors,
		entry.Accuracy, runDate.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("history: insert entry: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	entry.RunDate = runDate
	entry.Provider = provider
	entry.Dataset = dataset
	return nil
}

// ProviderHistory returns past entries for one provider, newest first.
func (s *Store) ProviderHistory(ctx context.Context, provider string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history: nil store")
	}
	if ctx == nil {
		return nil, errors.New("history: nil context")
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, errors.New("history: empty provider")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_dir, provider, dataset, total, correct, incorrect, not_attempted, errors, accuracy, run_date
		FROM run_entries
		WHERE provider = ?
		ORDER BY run_date DESC
		LIMIT ?
	`, provider, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query provider history: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var runDateMS int64
		if err := rows.Scan(
			&e.ID,
			&e.RunDir,
			&e.Provider,
			&e.Dataset,
			&e.Total,
			&e.Correct,
			&e.Incorrect,
			&e.NotAttempted,
			&e.Errors,
			&e.Accuracy,
			&runDateMS,
		); err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		e.RunDate = time.UnixMilli(runDateMS).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: scan rows: %w", err)
	}
	return out, nil
}
