package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCache_EmptyState(t *testing.T) {
	c := newTestCache(t)

	doc, err := c.Document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc != "" {
		t.Errorf("expected empty document, got %q", doc)
	}

	last, err := c.LastFetch()
	if err != nil {
		t.Fatalf("last fetch: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expected zero last fetch, got %v", last)
	}
}

func TestSQLiteCache_PutAndGet(t *testing.T) {
	c := newTestCache(t)

	fetchedAt := time.Now().Truncate(time.Millisecond)
	if err := c.PutDocument(`{"banks": []}`, fetchedAt); err != nil {
		t.Fatalf("put: %v", err)
	}

	doc, err := c.Document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc != `{"banks": []}` {
		t.Errorf("unexpected document: %q", doc)
	}

	last, err := c.LastFetch()
	if err != nil {
		t.Fatalf("last fetch: %v", err)
	}
	if !last.Equal(fetchedAt) {
		t.Errorf("expected last fetch %v, got %v", fetchedAt, last)
	}
}

func TestSQLiteCache_PutReplaces(t *testing.T) {
	c := newTestCache(t)

	if err := c.PutDocument("first", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("put: %v", err)
	}
	second := time.Now().Truncate(time.Millisecond)
	if err := c.PutDocument("second", second); err != nil {
		t.Fatalf("put: %v", err)
	}

	doc, _ := c.Document()
	if doc != "second" {
		t.Errorf("expected replacement, got %q", doc)
	}
	last, _ := c.LastFetch()
	if !last.Equal(second) {
		t.Errorf("expected updated fetch time, got %v", last)
	}
}

func TestSQLiteCache_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := c.PutDocument("persisted", time.Now()); err != nil {
		t.Fatalf("put: %v", err)
	}
	c.Close()

	reopened, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer reopened.Close()

	doc, err := reopened.Document()
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc != "persisted" {
		t.Errorf("expected document to survive reopen, got %q", doc)
	}
}
