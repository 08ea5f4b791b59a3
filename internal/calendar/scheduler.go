package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// SyncNotifier receives the aggregate outcome of each engine run. The
// websocket broadcaster implements it; nil disables notifications.
type SyncNotifier interface {
	SyncCompleted(results []models.SyncResult)
	SyncFailed(err error)
}

// Scheduler triggers full reconciliation runs on a fixed interval and
// exposes a manual trigger. Manual and scheduled runs share the exact same
// engine path; the scheduler is only a timer around Engine.SyncAll.
type Scheduler struct {
	cron     *cron.Cron
	engine   *Engine
	notifier SyncNotifier
	interval time.Duration
	entryID  cron.EntryID
}

// NewScheduler creates a scheduler running the engine every interval.
// Intervals under a minute fall back to the two-hour default.
func NewScheduler(engine *Engine, notifier SyncNotifier, interval time.Duration) *Scheduler {
	if interval < time.Minute {
		interval = 2 * time.Hour
	}
	return &Scheduler{
		cron:     cron.New(),
		engine:   engine,
		notifier: notifier,
		interval: interval,
	}
}

// Start begins periodic syncing.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runOnce("scheduled")
	})
	if err != nil {
		return fmt.Errorf("scheduling sync job: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	log.Printf("Calendar sync scheduled every %s", s.interval)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Calendar sync scheduler stopped")
}

// NextRun returns the next scheduled run time, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// TriggerSync runs a full reconciliation immediately in the background.
func (s *Scheduler) TriggerSync() {
	go s.runOnce("manual")
}

// runOnce performs one full run. Panics and errors are contained so a single
// bad run can never kill the periodic timer.
func (s *Scheduler) runOnce(trigger string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Sync run panicked: %v", r)
		}
	}()

	log.Printf("Starting %s calendar sync...", trigger)
	results, err := s.engine.SyncAll(context.Background(), trigger)
	if err != nil {
		log.Printf("Calendar sync failed: %v", err)
		if s.notifier != nil {
			s.notifier.SyncFailed(err)
		}
		return
	}

	var processed, created, updated, removed, errCount int
	for _, r := range results {
		processed += r.Processed
		created += r.Created
		updated += r.Updated
		removed += r.Removed
		errCount += len(r.Errors)
	}
	log.Printf("Calendar sync completed: %d properties, %d events, %d created, %d updated, %d removed, %d errors",
		len(results), processed, created, updated, removed, errCount)

	if s.notifier != nil {
		s.notifier.SyncCompleted(results)
	}
}
