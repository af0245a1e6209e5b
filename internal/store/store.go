// Package store provides SQLite persistence for sift: fetched items
// and the filter decisions made about them, for the stats command and
// post-hoc inspection. The live document never depends on it.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/abelbrown/sift/internal/feed"
)

// Store handles SQLite persistence. Concrete type, not an interface.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Decision is one recorded hide/show outcome.
type Decision struct {
	ItemID     string
	Category   string
	Confidence float32
	Match      string
	Hidden     bool
	Generation int
	CreatedAt  time.Time
}

// Open creates a Store at the given database path, creating tables as
// needed. Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		channel TEXT,
		description TEXT,
		url TEXT UNIQUE,
		source_name TEXT,
		published_at DATETIME,
		fetched_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_items_published ON items(published_at DESC);

	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		category TEXT NOT NULL,
		confidence REAL NOT NULL,
		match_type TEXT NOT NULL,
		hidden INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_item ON decisions(item_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveItems stores items, returning the count of new rows. Duplicates
// (by id or URL) are silently ignored.
func (s *Store) SaveItems(items []feed.Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO items (id, title, channel, description, url, source_name, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, it := range items {
		// The id column is the primary key; an empty id would make
		// every id-less item collide on the same row.
		if it.ID == "" {
			it.ID = feed.NewItemID(it.URL)
		}
		res, err := stmt.Exec(it.ID, it.Title, it.Channel, it.Description, it.URL, it.SourceName, it.Published, it.Fetched)
		if err != nil {
			return saved, fmt.Errorf("insert item %s: %w", it.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return saved, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// RecordDecision persists one filter decision. Satisfies the pipeline's
// Recorder interface.
func (s *Store) RecordDecision(itemID, category string, confidence float32, match string, hidden bool, generation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO decisions (item_id, category, confidence, match_type, hidden, generation)
		VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, category, confidence, match, boolToInt(hidden), generation)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// RecentDecisions returns up to limit decisions, newest first.
func (s *Store) RecentDecisions(limit int) ([]Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT item_id, category, confidence, match_type, hidden, generation, created_at
		FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var hidden int
		if err := rows.Scan(&d.ItemID, &d.Category, &d.Confidence, &d.Match, &hidden, &d.Generation, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Hidden = hidden != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// CategoryCounts returns hide-decision counts grouped by category.
func (s *Store) CategoryCounts() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT category, COUNT(*) FROM decisions WHERE hidden = 1 GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

// ItemCount returns the number of stored items.
func (s *Store) ItemCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
