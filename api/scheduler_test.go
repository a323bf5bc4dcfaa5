/*
scheduler_test.go - Unit tests for the recalculation scheduler

Tests for:
- Staleness detection against the dataset version
- Idempotent checks when the latest run is already current
- Start/Stop lifecycle
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/warp/commission-engine/factory"
	"github.com/warp/commission-engine/store"
)

func TestScheduler_RecalculatesWhenStale(t *testing.T) {
	// GIVEN: A dataset with no runs yet
	h := setupTestHandler(t)
	seedFlatPlanDataset(t, h)
	ctx := context.Background()

	rs := NewRecalcScheduler(h.Store, h)

	// WHEN: The scheduler checks
	rs.RunNow()

	// THEN: A run covering the current dataset version exists
	latest, err := h.Store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("Failed to read latest run: %v", err)
	}
	if latest == nil {
		t.Fatal("Expected a run after the check")
	}
	if latest.Status != store.RunCompleted {
		t.Errorf("Expected a completed run, got %s", latest.Status)
	}

	version, _ := h.Store.DatasetVersion(ctx)
	if latest.DatasetVersion != version {
		t.Errorf("Expected run at version %d, got %d", version, latest.DatasetVersion)
	}

	// A second check with nothing changed does not add a run
	rs.RunNow()
	runs, err := h.Store.ListRuns(ctx, 50)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run after a no-op check, got %d", len(runs))
	}

	// A mutation makes the run stale, so the next check recalculates
	plan := factory.FlatSplitPlan("plan-extra", "Extra", 50)
	if err := h.saveScenarioPlan(ctx, plan); err != nil {
		t.Fatalf("Failed to save plan: %v", err)
	}

	rs.RunNow()
	runs, _ = h.Store.ListRuns(ctx, 50)
	if len(runs) != 2 {
		t.Errorf("Expected 2 runs after the dataset changed, got %d", len(runs))
	}
}

func TestScheduler_SkipsEmptyDataset(t *testing.T) {
	// GIVEN: A store nothing has been written to
	h := setupTestHandler(t)
	rs := NewRecalcScheduler(h.Store, h)

	// WHEN: The scheduler checks
	rs.RunNow()

	// THEN: No run is recorded
	latest, err := h.Store.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("Failed to read latest run: %v", err)
	}
	if latest != nil {
		t.Error("Expected no runs for an empty dataset")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	// GIVEN: A stale dataset and a running scheduler
	h := setupTestHandler(t)
	seedFlatPlanDataset(t, h)
	ctx := context.Background()

	rs := NewRecalcScheduler(h.Store, h)
	rs.CheckInterval = time.Hour // only the immediate check should fire

	rs.Start()
	defer rs.Stop()

	// THEN: The immediate check produces a run
	deadline := time.Now().Add(2 * time.Second)
	for {
		latest, err := h.Store.LatestRun(ctx)
		if err != nil {
			t.Fatalf("Failed to read latest run: %v", err)
		}
		if latest != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the scheduled run")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	h := setupTestHandler(t)

	rs := NewRecalcScheduler(h.Store, h)
	rs.Enabled = false

	// Start is a no-op and Stop is safe to call afterwards
	rs.Start()
	rs.Stop()

	latest, err := h.Store.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("Failed to read latest run: %v", err)
	}
	if latest != nil {
		t.Error("Disabled scheduler should not have produced a run")
	}
}
