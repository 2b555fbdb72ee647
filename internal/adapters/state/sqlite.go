// Package state persists audit runs to SQLite for the status command
// and the read-only API. The full run record travels as a JSON document
// with the queryable columns lifted out alongside it.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "embed"

	"github.com/google/renameio/v2"
	"github.com/sitescope/sitescope/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteRunStore implements core.RunStore on a local SQLite file.
type SQLiteRunStore struct {
	dbPath       string
	snapshotPath string
	db           *sql.DB
	mu           sync.RWMutex
}

// Option configures the store.
type Option func(*SQLiteRunStore)

// WithSnapshotPath makes every completed save also export the record as
// a JSON file, written atomically so readers never see a partial run.
func WithSnapshotPath(path string) Option {
	return func(s *SQLiteRunStore) {
		s.snapshotPath = path
	}
}

// NewSQLiteRunStore opens (creating if needed) the run database at
// dbPath and applies pending migrations.
func NewSQLiteRunStore(dbPath string, opts ...Option) (*SQLiteRunStore, error) {
	s := &SQLiteRunStore{dbPath: dbPath}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening run database: %w", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteRunStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteRunStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun upserts a run record. The same ID is saved once as running
// and again with its terminal status, replacing the first row.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, rec *core.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}

	overall := 0.0
	if rec.Report != nil {
		overall = rec.Report.OverallPercentage()
	}
	var completed any
	if rec.CompletedAt != nil {
		completed = rec.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, subject, website, status, error, overall_pct, record, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			overall_pct = excluded.overall_pct,
			record = excluded.record,
			completed_at = excluded.completed_at`,
		rec.ID, rec.Subject, rec.Website, string(rec.Status), rec.Error,
		overall, string(doc), rec.StartedAt.UTC().Format(time.RFC3339Nano), completed)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.ID, err)
	}

	if s.snapshotPath != "" && rec.Status != core.RunStatusRunning {
		if err := s.exportSnapshot(doc); err != nil {
			return fmt.Errorf("exporting run snapshot: %w", err)
		}
	}
	return nil
}

// exportSnapshot writes the latest terminal run record as JSON via an
// atomic rename, so a concurrent reader sees the old file or the new
// one, never a torn write.
func (s *SQLiteRunStore) exportSnapshot(doc []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o750); err != nil {
		return err
	}
	return renameio.WriteFile(s.snapshotPath, append(doc, '\n'), 0o644)
}

// LoadRun returns the run with the given ID.
func (s *SQLiteRunStore) LoadRun(ctx context.Context, id string) (*core.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT record FROM runs WHERE id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound("run", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return decodeRecord(doc)
}

// LatestRun returns the most recently started run.
func (s *SQLiteRunStore) LatestRun(ctx context.Context) (*core.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound("run", "latest")
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}
	return decodeRecord(doc)
}

// ListRuns returns summaries of all runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]core.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, website, status, overall_pct, started_at, completed_at
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.RunSummary
	for rows.Next() {
		var (
			sum       core.RunSummary
			status    string
			started   string
			completed sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.Subject, &sum.Website, &status, &sum.Overall, &started, &completed); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		sum.Status = core.RunStatus(status)
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			sum.StartedAt = t
		}
		if completed.Valid {
			if t, err := time.Parse(time.RFC3339Nano, completed.String); err == nil {
				sum.CompletedAt = &t
			}
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func decodeRecord(doc string) (*core.RunRecord, error) {
	var rec core.RunRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("decoding run record: %w", err)
	}
	return &rec, nil
}
