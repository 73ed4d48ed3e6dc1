// Package storage persists the useful links recorded across runs in a
// single SQLite database. The store is append-mostly: links are upserted
// as they are discovered and queried back for export and inspection.
// Persistence never feeds back into in-run duplicate suppression; the
// accumulator keeps its own per-run set.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// LinkRecord is one persisted useful link.
type LinkRecord struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source"`
	RunID     string    `json:"run_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Hits      int       `json:"hits"`
}

// LinkStore is a SQLite-backed store of useful links.
type LinkStore struct {
	db *sql.DB
}

// NewLinkStore opens (creating if needed) the link database at dbPath.
func NewLinkStore(dbPath string) (*LinkStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("applying pragma %q: %w (close: %v)", pragma, err, cerr)
			}
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	store := &LinkStore{db: db}
	if err := store.initSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("initializing schema: %w (close: %v)", err, cerr)
		}
		return nil, err
	}
	return store, nil
}

func (s *LinkStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS links (
			url TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			run_id TEXT NOT NULL DEFAULT '',
			first_seen TIMESTAMP NOT NULL,
			last_seen TIMESTAMP NOT NULL,
			hits INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_links_run ON links(run_id);
		CREATE INDEX IF NOT EXISTS idx_links_last_seen ON links(last_seen DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func (s *LinkStore) Close() error {
	return s.db.Close()
}

// RecordLink upserts a link. A link seen again keeps its first-seen
// timestamp and original run, bumps the hit count, and refreshes last-seen.
func (s *LinkStore) RecordLink(url, title, source, runID string) error {
	if url == "" {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO links (url, title, source, run_id, first_seen, last_seen, hits)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(url) DO UPDATE SET
			last_seen = excluded.last_seen,
			hits = hits + 1
	`, url, title, source, runID, now, now)
	if err != nil {
		return fmt.Errorf("recording link %s: %w", url, err)
	}
	return nil
}

// Links returns up to limit links ordered by most recently seen. A
// non-positive limit returns everything.
func (s *LinkStore) Links(limit int) ([]LinkRecord, error) {
	query := `SELECT url, title, source, run_id, first_seen, last_seen, hits
		FROM links ORDER BY last_seen DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			fmt.Printf("Warning: failed to close rows: %v\n", err)
		}
	}()

	return scanLinks(rows)
}

// LinksForRun returns the links first recorded by the given run.
func (s *LinkStore) LinksForRun(runID string) ([]LinkRecord, error) {
	rows, err := s.db.Query(`
		SELECT url, title, source, run_id, first_seen, last_seen, hits
		FROM links WHERE run_id = ? ORDER BY first_seen ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying links for run %s: %w", runID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			fmt.Printf("Warning: failed to close rows: %v\n", err)
		}
	}()

	return scanLinks(rows)
}

// Count returns the number of persisted links.
func (s *LinkStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM links").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return n, nil
}

func scanLinks(rows *sql.Rows) ([]LinkRecord, error) {
	var links []LinkRecord
	for rows.Next() {
		var rec LinkRecord
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.Source, &rec.RunID,
			&rec.FirstSeen, &rec.LastSeen, &rec.Hits); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, rec)
	}
	return links, rows.Err()
}
