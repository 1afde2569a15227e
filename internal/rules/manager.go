package rules

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"BankSentinel/internal/cache"
	"BankSentinel/internal/model"
)

// DefaultRefreshInterval is how long a cached rule set stays fresh.
const DefaultRefreshInterval = 6 * time.Hour

// Manager owns the live rule set. The snapshot is replaced atomically on a
// successful refresh, so a classification running concurrently always sees
// either the old or the new complete rule set, never a mix. Everything is
// fail-open: a bad fetch or a bad document leaves the previous rule set in
// effect.
type Manager struct {
	source   Source
	cache    cache.Cache
	interval time.Duration
	current  atomic.Pointer[model.RuleSet]
}

// NewManager creates a manager that starts with an empty rule set.
// interval <= 0 falls back to DefaultRefreshInterval.
func NewManager(source Source, c cache.Cache, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	m := &Manager{
		source:   source,
		cache:    c,
		interval: interval,
	}
	m.current.Store(model.EmptyRuleSet())
	return m
}

// Current returns the live rule set snapshot. Callers hold on to the
// returned pointer for the duration of one classification.
func (m *Manager) Current() *model.RuleSet {
	return m.current.Load()
}

// LoadCached parses the last cached document and makes it live. A stale
// rule set is better than none, so this runs before any network fetch.
// Returns false when the cache is empty.
func (m *Manager) LoadCached() (bool, error) {
	doc, err := m.cache.Document()
	if err != nil {
		return false, fmt.Errorf("read cache: %w", err)
	}
	if doc == "" {
		return false, nil
	}

	rs, err := ParseDocument([]byte(doc))
	if err != nil {
		return false, fmt.Errorf("parse cached document: %w", err)
	}

	m.current.Store(rs)
	log.Printf("[INFO] loaded cached rules: %d banks, %d ignore patterns", len(rs.Banks), len(rs.IgnorePatterns))
	return true, nil
}

// ShouldRefresh reports whether a refresh is due: no successful fetch has
// ever been recorded, or the refresh interval has elapsed since the last.
func (m *Manager) ShouldRefresh(now time.Time) bool {
	last, err := m.cache.LastFetch()
	if err != nil {
		log.Printf("[WARN] read last fetch time: %v", err)
		return true
	}
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > m.interval
}

// Refresh fetches the document from the remote source, and only if it
// parses does it swap the live rule set and persist the raw document with a
// new fetch timestamp. On any failure the previous rule set and cache stay
// untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	doc, err := m.source.FetchDocument(ctx)
	if err != nil {
		return fmt.Errorf("refresh rules: %w", err)
	}

	rs, err := ParseDocument([]byte(doc))
	if err != nil {
		return fmt.Errorf("refresh rules: %w", err)
	}

	m.current.Store(rs)
	if err := m.cache.PutDocument(doc, time.Now()); err != nil {
		// The fresh rule set is already live; losing the cache write only
		// costs a re-fetch on next startup.
		log.Printf("[WARN] cache rules document: %v", err)
	}

	log.Printf("[INFO] rules refreshed: %d banks, %d ignore patterns", len(rs.Banks), len(rs.IgnorePatterns))
	return nil
}
