/*
scheduler.go - Automated recalculation scheduler

PURPOSE:
  Periodically checks whether the stored dataset has changed since the
  last calculation run and re-runs the engine when it has.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Compares the dataset version against the latest run's version
  - Recalculation is always a full fold over the dataset
  - A failed run still records its dataset version, so a broken dataset
    is not retried until something changes

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether scheduler is active (interval <= 0 disables it)

USAGE:
  scheduler := NewRecalcScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Calculate endpoint (manual recalculation)
  - store/store.go: DatasetVersion contract
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/commission-engine/config"
	"github.com/warp/commission-engine/logger"
	"github.com/warp/commission-engine/store"
)

// RecalcScheduler re-runs the engine whenever the dataset changes.
type RecalcScheduler struct {
	Store         store.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRecalcScheduler creates a new scheduler.
func NewRecalcScheduler(st store.Store, handler *Handler) *RecalcScheduler {
	interval := time.Minute
	if config.Cfg != nil {
		interval = config.Cfg.RecalcInterval
	}
	return &RecalcScheduler{
		Store:         st,
		Handler:       handler,
		CheckInterval: interval,
		Enabled:       interval > 0,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RecalcScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		logger.L.Info("scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	logger.L.Info("scheduler started", "check_interval", rs.CheckInterval.String())
}

// Stop stops the scheduler.
func (rs *RecalcScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		logger.L.Info("scheduler stopped")
	}
}

func (rs *RecalcScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RecalcScheduler) checkAndProcess() {
	ctx := context.Background()

	version, err := rs.Store.DatasetVersion(ctx)
	if err != nil {
		logger.L.Error("scheduler failed to read dataset version", "error", err)
		return
	}
	if version == 0 {
		// Nothing has been imported yet
		return
	}

	latest, err := rs.Store.LatestRun(ctx)
	if err != nil {
		logger.L.Error("scheduler failed to read latest run", "error", err)
		return
	}
	if latest != nil && latest.DatasetVersion >= version {
		// Latest run already covers the current dataset
		return
	}

	logger.L.Info("dataset changed, recalculating", "dataset_version", version)

	rec, _, err := rs.Handler.runCalculation(ctx)
	if err != nil {
		if rec != nil {
			logger.L.Warn("scheduled calculation rejected dataset",
				"run_id", rec.ID, "dataset_version", version, "error", err)
			return
		}
		logger.L.Error("scheduled calculation failed", "error", err)
		return
	}

	logger.L.Info("scheduled calculation completed",
		"run_id", rec.ID,
		"dataset_version", rec.DatasetVersion,
		"transactions", rec.TransactionCount,
		"agents", rec.AgentCount)
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *RecalcScheduler) RunNow() {
	rs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rs *RecalcScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(rs.CheckInterval)
}
