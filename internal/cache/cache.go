// Package cache persists the last-known-good rule-set document so the
// service can classify immediately on startup, before any network fetch.
package cache

import "time"

// Cache stores the raw rule document together with the time it was last
// fetched successfully.
type Cache interface {
	// Document returns the cached raw document, or "" when none exists.
	Document() (string, error)
	// PutDocument replaces the cached document and records the fetch time.
	PutDocument(doc string, fetchedAt time.Time) error
	// LastFetch returns the last successful fetch time, or the zero time
	// when no fetch has ever succeeded.
	LastFetch() (time.Time, error)
	Close() error
}
