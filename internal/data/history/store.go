package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Scan is one completed indexing pass over the search roots.
type Scan struct {
	ID           string
	WorkspaceKey string
	Timestamp    time.Time
	Files        int
	Modules      int
	Symbols      int
	Duration     time.Duration
}

// Store persists scan records so workspace growth can be inspected
// across sessions.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveScan(scan Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(scan.ID) == "" {
		return fmt.Errorf("scan id must not be empty")
	}
	if strings.TrimSpace(scan.WorkspaceKey) == "" {
		scan.WorkspaceKey = "default"
	}
	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now().UTC()
	}

	query := `
INSERT INTO scans (
  scan_id, workspace_key, schema_version, ts_utc, file_count, module_count, symbol_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(workspace_key, scan_id) DO UPDATE SET
  ts_utc=excluded.ts_utc,
  file_count=excluded.file_count,
  module_count=excluded.module_count,
  symbol_count=excluded.symbol_count,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("save scan", func() error {
		_, err := s.db.Exec(
			query,
			scan.ID,
			scan.WorkspaceKey,
			SchemaVersion,
			scan.Timestamp.UTC().Format(time.RFC3339Nano),
			scan.Files,
			scan.Modules,
			scan.Symbols,
			scan.Duration.Milliseconds(),
		)
		return err
	})
}

func (s *Store) LoadScans(workspaceKey string, since time.Time) ([]Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspaceKey = strings.TrimSpace(workspaceKey)
	if workspaceKey == "" {
		workspaceKey = "default"
	}

	base := `
SELECT scan_id, workspace_key, ts_utc, file_count, module_count, symbol_count, duration_ms
FROM scans
WHERE workspace_key = ?`
	args := make([]any, 0, 2)
	args = append(args, workspaceKey)
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC, scan_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load scans", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]Scan, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			scan       Scan
		)
		if err := rows.Scan(
			&scan.ID,
			&scan.WorkspaceKey,
			&tsRaw,
			&scan.Files,
			&scan.Modules,
			&scan.Symbols,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse scan timestamp %q: %w", tsRaw, err)
		}
		scan.Timestamp = ts.UTC()
		scan.Duration = time.Duration(durationMS) * time.Millisecond

		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan rows: %w", err)
	}

	return scans, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
