package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"BankSentinel/internal/rules"
)

// refreshTimeout bounds one refresh attempt so a slow rules host can never
// pile up overlapping fetches.
const refreshTimeout = 30 * time.Second

// Scheduler owns the periodic rule-set refresh. The timer re-arms
// unconditionally after each run, success or failure: there is no backoff,
// a fixed interval guarantees forward progress.
type Scheduler struct {
	Cron    *cron.Cron
	Manager *rules.Manager
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler bound to the service context.
func NewScheduler(ctx context.Context, m *rules.Manager) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Manager: m,
		Ctx:     ctx,
	}
}

// Register schedules the refresh task at a fixed interval.
func (s *Scheduler) Register(interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] refresh scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] refresh scheduler stopped")
}

// RunNow executes a refresh immediately (startup catch-up, admin trigger).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	ctx, cancel := context.WithTimeout(s.Ctx, refreshTimeout)
	defer cancel()

	if err := s.Manager.Refresh(ctx); err != nil {
		// Fail-open: the previous rule set stays live, next firing retries.
		log.Printf("[ERROR] scheduled refresh: %v", err)
	}
}
