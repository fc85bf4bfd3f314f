// Package cache provides the incremental extraction cache: rendered snippet
// pages keyed by source path and content fingerprint, so unchanged snippets
// skip re-extraction across builds.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed snippet page cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the cache database. Use ":memory:" for an in-memory
// cache, or a file path for persistent storage.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snippet_pages (
		source_path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		page BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fingerprint ON snippet_pages(fingerprint);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint computes the content fingerprint used as the cache key.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached page for sourcePath when its fingerprint still
// matches. The second return is false on a miss.
func (s *Store) Lookup(ctx context.Context, sourcePath, fingerprint string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var page []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT page FROM snippet_pages WHERE source_path = ? AND fingerprint = ?",
		sourcePath, fingerprint,
	).Scan(&page)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}
	return page, true, nil
}

// Put stores (or replaces) the cached page for sourcePath.
func (s *Store) Put(ctx context.Context, sourcePath, fingerprint string, page []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snippet_pages (source_path, fingerprint, page, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
		   fingerprint = excluded.fingerprint,
		   page = excluded.page,
		   updated_at = excluded.updated_at`,
		sourcePath, fingerprint, page, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Prune removes entries whose source path is no longer among known paths.
func (s *Store) Prune(ctx context.Context, knownPaths []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(knownPaths))
	for _, p := range knownPaths {
		known[p] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT source_path FROM snippet_pages")
	if err != nil {
		return 0, fmt.Errorf("cache prune scan: %w", err)
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("cache prune scan: %w", err)
		}
		if _, ok := known[path]; !ok {
			stale = append(stale, path)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("cache prune scan: %w", err)
	}

	var removed int64
	for _, path := range stale {
		res, err := s.db.ExecContext(ctx, "DELETE FROM snippet_pages WHERE source_path = ?", path)
		if err != nil {
			return removed, fmt.Errorf("cache prune delete: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	return removed, nil
}
