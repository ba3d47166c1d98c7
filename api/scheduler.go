/*
scheduler.go - Background overdue snapshot scheduler

PURPOSE:
  Periodically recomputes the school-wide overdue aggregate and caches it
  so the dashboard can serve /api/reports/overdue/latest without scanning
  every student per request.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each run passes the tick time into the core as the explicit reference
    date; the computation itself stays clock-free
  - The latest report is held under a mutex with its computation time

CONFIGURATION:
  - Interval: How often to recompute (default: 15 minutes)
  - Enabled:  Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewOverdueSnapshotScheduler(accounts)
  handler.AttachScheduler(scheduler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GetOverdueSnapshot endpoint
  - school/accounts.go: Report
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

// OverdueSnapshotScheduler recomputes the school-wide overdue report on a
// fixed interval.
type OverdueSnapshotScheduler struct {
	Accounts *school.AccountService
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup

	mu       sync.RWMutex
	latest   school.OverdueReport
	latestAt time.Time
	hasRun   bool
}

// NewOverdueSnapshotScheduler creates a scheduler with defaults.
func NewOverdueSnapshotScheduler(accounts *school.AccountService) *OverdueSnapshotScheduler {
	return &OverdueSnapshotScheduler{
		Accounts: accounts,
		Interval: 15 * time.Minute,
		Enabled:  true,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *OverdueSnapshotScheduler) Start() {
	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)
	go s.run()

	log.Printf("[Scheduler] Started with snapshot interval: %v", s.Interval)
}

// Stop stops the scheduler.
func (s *OverdueSnapshotScheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

// Latest returns the most recent snapshot, its computation time, and
// whether a snapshot exists yet.
func (s *OverdueSnapshotScheduler) Latest() (school.OverdueReport, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latestAt, s.hasRun
}

func (s *OverdueSnapshotScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.snapshot()

	for {
		select {
		case <-s.ticker.C:
			s.snapshot()
		case <-s.stop:
			return
		}
	}
}

// snapshot recomputes the school-wide report as of the tick time.
func (s *OverdueSnapshotScheduler) snapshot() {
	now := time.Now()
	report, err := s.Accounts.Report(context.Background(), "", fees.DateOf(now))
	if err != nil {
		log.Printf("[Scheduler] Snapshot failed: %v", err)
		return
	}

	s.mu.Lock()
	s.latest = report
	s.latestAt = now
	s.hasRun = true
	s.mu.Unlock()

	log.Printf("[Scheduler] Snapshot at %s: %d students, %v overdue across %d installments",
		fees.DateOf(now), len(report.Students),
		report.Total.TotalOverdueAmount, report.Total.OverdueCount)
}
