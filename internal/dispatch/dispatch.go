// Package dispatch hands classified records to their destinations: the
// durable pending queue always, an attached live listener when one exists.
package dispatch

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"BankSentinel/internal/model"
	"BankSentinel/internal/queue"
)

// LiveSink delivers a record to a currently attached listener. Delivery is
// best effort and may fail; it is never a substitute for the durable write.
type LiveSink interface {
	Push(ctx context.Context, rec *model.TransactionRecord) error
}

// Dispatcher persists first, then pushes. Live is nil when no listener is
// attached.
type Dispatcher struct {
	Queue queue.Queue
	Live  LiveSink
}

func New(q queue.Queue, live LiveSink) *Dispatcher {
	return &Dispatcher{Queue: q, Live: live}
}

// Dispatch appends the record to the pending queue and then attempts live
// delivery. A live delivery failure is logged and absorbed; by the time the
// push runs the record is already durable.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *model.TransactionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if err := d.Queue.Append(rec); err != nil {
		return fmt.Errorf("persist record: %w", err)
	}

	if d.Live == nil {
		log.Printf("[INFO] record %s saved to pending queue, no listener attached", rec.ID)
		return nil
	}
	if err := d.Live.Push(ctx, rec); err != nil {
		log.Printf("[WARN] live push failed for record %s (saved to pending): %v", rec.ID, err)
	} else {
		log.Printf("[INFO] record %s delivered live and saved to pending", rec.ID)
	}
	return nil
}
