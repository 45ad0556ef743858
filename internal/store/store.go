// Package store persists scan history in SQLite: one row per scan run
// and one row per archive result, keyed by content hash so unchanged
// archives can be answered from cache.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store records scan runs and per-archive results.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Run is one recorded scan run.
type Run struct {
	ID           string
	Root         string
	StartedAt    time.Time
	FinishedAt   time.Time
	ArchiveCount int
	PatternCount int
}

// ArchiveRecord is one archive's result within a run.
type ArchiveRecord struct {
	RunID     string
	Path      string
	SHA256    string
	Patterns  []string
	ScannedAt time.Time
}

// New initializes the SQLite database at the given path. The path
// ":memory:" yields an ephemeral store.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS scan_runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		archive_count INTEGER DEFAULT 0,
		pattern_count INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at);
	`

	archivesTable := `
	CREATE TABLE IF NOT EXISTS archives (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		patterns TEXT NOT NULL,
		scanned_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_archives_run ON archives(run_id);
	CREATE INDEX IF NOT EXISTS idx_archives_path ON archives(path);
	CREATE INDEX IF NOT EXISTS idx_archives_hash ON archives(path, sha256);
	`

	for _, table := range []string{runsTable, archivesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// BeginRun inserts a new scan run for the given root label and returns
// its id.
func (s *Store) BeginRun(root string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if _, err := s.db.Exec("INSERT INTO scan_runs (id, root) VALUES (?, ?)", id, root); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run finished and records its totals.
func (s *Store) FinishRun(id string, archives, patterns int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"UPDATE scan_runs SET finished_at = CURRENT_TIMESTAMP, archive_count = ?, pattern_count = ? WHERE id = ?",
		archives, patterns, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecordArchive stores one archive's reduced pattern set.
func (s *Store) RecordArchive(runID, path, sha string, patterns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO archives (run_id, path, sha256, patterns) VALUES (?, ?, ?, ?)",
		runID, path, sha, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to record archive: %w", err)
	}
	return nil
}

// CachedPatterns returns the most recently recorded pattern set for
// the archive at path with the given content hash. The second return
// is false when no matching record exists.
func (s *Store) CachedPatterns(path, sha string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow(
		"SELECT patterns FROM archives WHERE path = ? AND sha256 = ? ORDER BY id DESC LIMIT 1",
		path, sha,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var patterns []string
	if err := json.Unmarshal([]byte(data), &patterns); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal patterns: %w", err)
	}
	return patterns, true, nil
}

// History returns the most recent runs, newest first.
func (s *Store) History(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, root, started_at, finished_at, archive_count, pattern_count
		 FROM scan_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.Root, &run.StartedAt, &finished,
			&run.ArchiveCount, &run.PatternCount); err != nil {
			return nil, err
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ArchiveHistory returns the recorded pattern sets for one archive
// path, newest first.
func (s *Store) ArchiveHistory(path string, limit int) ([]ArchiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT run_id, path, sha256, patterns, scanned_at
		 FROM archives WHERE path = ? ORDER BY id DESC LIMIT ?`, path, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ArchiveRecord
	for rows.Next() {
		var rec ArchiveRecord
		var data string
		if err := rows.Scan(&rec.RunID, &rec.Path, &rec.SHA256, &data, &rec.ScannedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &rec.Patterns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patterns: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns row counts per table.
func (s *Store) Stats() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int)
	for _, table := range []string{"scan_runs", "archives"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}
