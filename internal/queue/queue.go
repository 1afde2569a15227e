// Package queue holds classified transactions until the consuming app reads
// them. The queue is the durability contract of the pipeline: a record is
// appended here before any live delivery is attempted.
package queue

import "BankSentinel/internal/model"

// Queue is an append-only pending store with at-least-once semantics.
// Records carry IDs so the consumer can de-duplicate.
type Queue interface {
	Append(rec *model.TransactionRecord) error
	Pending() ([]*model.TransactionRecord, error)
	// Clear removes all pending records and returns how many were removed.
	Clear() (int64, error)
	Close() error
}
