package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache keeps a single-row table holding the last-known-good document.
type SQLiteCache struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteCache opens (or creates) the cache database and runs migrations.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL plus a busy timeout: the pending queue may share this file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] rule cache opened: %s", dbPath)
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS rule_cache (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		document   TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create rule_cache: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Document() (string, error) {
	var doc string
	err := c.db.QueryRow(`SELECT document FROM rule_cache WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read cached document: %w", err)
	}
	return doc, nil
}

func (c *SQLiteCache) PutDocument(doc string, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(`INSERT INTO rule_cache (id, document, fetched_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, fetched_at = excluded.fetched_at`,
		doc, fetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write cached document: %w", err)
	}
	return nil
}

func (c *SQLiteCache) LastFetch() (time.Time, error) {
	var ms int64
	err := c.db.QueryRow(`SELECT fetched_at FROM rule_cache WHERE id = 1`).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last fetch: %w", err)
	}
	return time.UnixMilli(ms), nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
