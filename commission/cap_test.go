package commission_test

import (
	"errors"
	"testing"

	"github.com/warp/commission-engine/commission"
)

// Note: m, cappedPlan, and friends live in engine_test.go.

// =============================================================================
// CAP BOUNDARY REGIMES
// =============================================================================

func TestCap_ZeroCap_AlwaysPreCap(t *testing.T) {
	// GIVEN: capAmount 0 (uncapped) and a huge YTD
	// THEN: Still pre-cap at the normal split

	split, err := commission.ResolveCapSplit(standardPlan(), m(10000), m(9000000), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitPreCap {
		t.Errorf("expected pre-cap, got %s", split.Type)
	}
	if !split.BrokerageAmount.Equal(m(4000)) {
		t.Errorf("expected brokerage 4000, got %v", split.BrokerageAmount)
	}
}

func TestCap_UnderCap_PreCap(t *testing.T) {
	// GIVEN: plenty of room left
	// THEN: Pre-cap at the normal split

	split, err := commission.ResolveCapSplit(cappedPlan(500000), m(10000), m(100000), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitPreCap || !split.BrokerageAmount.Equal(m(4000)) {
		t.Errorf("expected pre-cap 4000, got %s %v", split.Type, split.BrokerageAmount)
	}
	if split.BrokeragePercent != 40 {
		t.Errorf("expected 40%%, got %v", split.BrokeragePercent)
	}
}

func TestCap_ExactlyFillsRoom_StaysPreCap(t *testing.T) {
	// GIVEN: a post-team amount exactly equal to the remaining room
	// THEN: The boundary is inclusive: pre-cap, not mixed

	split, err := commission.ResolveCapSplit(cappedPlan(500000), m(5000), m(495000), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitPreCap {
		t.Errorf("expected pre-cap at the inclusive boundary, got %s", split.Type)
	}
	if !split.BrokerageAmount.Equal(m(2000)) {
		t.Errorf("expected brokerage 2000, got %v", split.BrokerageAmount)
	}
}

func TestCap_AtCap_PostCap(t *testing.T) {
	// GIVEN: YTD exactly at the cap
	// THEN: Post-cap; with full retention the brokerage takes nothing

	split, err := commission.ResolveCapSplit(cappedPlan(500000), m(10000), m(500000), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitPostCap {
		t.Errorf("expected post-cap, got %s", split.Type)
	}
	if !split.BrokerageAmount.IsZero() {
		t.Errorf("expected zero brokerage, got %v", split.BrokerageAmount)
	}
	if split.BrokeragePercent != 0 {
		t.Errorf("expected 0%%, got %v", split.BrokeragePercent)
	}
}

func TestCap_PastCap_PartialRetention(t *testing.T) {
	// GIVEN: a capped agent on an 80% post-cap split
	// THEN: The brokerage keeps 20%

	plan := cappedPlan(500000)
	plan.PostCapSplit = 80

	split, err := commission.ResolveCapSplit(plan, m(10000), m(600000), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitPostCap || !split.BrokerageAmount.Equal(m(2000)) {
		t.Errorf("expected post-cap 2000, got %s %v", split.Type, split.BrokerageAmount)
	}
}

func TestCap_Straddle_MixedSlices(t *testing.T) {
	// GIVEN: $5,000 of room and a $10,000 post-team amount, full retention
	// THEN: room x 40% + overrun x 0% = 2,000, effective 20%

	split, err := commission.ResolveCapSplit(cappedPlan(500000), m(10000), m(495000), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitMixed {
		t.Fatalf("expected mixed, got %s", split.Type)
	}
	if !split.BrokerageAmount.Equal(m(2000)) {
		t.Errorf("expected brokerage 2000, got %v", split.BrokerageAmount)
	}
	if split.BrokeragePercent != 20 {
		t.Errorf("expected effective 20%%, got %v", split.BrokeragePercent)
	}
}

func TestCap_Straddle_PartialRetentionPricesBothSlices(t *testing.T) {
	// GIVEN: $600 of room, $1,000 post-team, 80% post-cap retention
	// THEN: 600 x 40% + 400 x 20% = 320, effective 32%

	plan := cappedPlan(1000)
	plan.PostCapSplit = 80

	split, err := commission.ResolveCapSplit(plan, m(1000), m(400), 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if split.Type != commission.SplitMixed {
		t.Fatalf("expected mixed, got %s", split.Type)
	}
	if !split.BrokerageAmount.Equal(m(320)) {
		t.Errorf("expected brokerage 320, got %v", split.BrokerageAmount)
	}
	if split.BrokeragePercent != 32 {
		t.Errorf("expected effective 32%%, got %v", split.BrokeragePercent)
	}
}

func TestCap_NegativeCap_Rejected(t *testing.T) {
	plan := cappedPlan(-100)

	_, err := commission.ResolveCapSplit(plan, m(1000), m(0), 60)
	if err == nil {
		t.Fatal("expected an error for a negative cap")
	}
	if !errors.Is(err, commission.ErrNegativeCap) {
		t.Errorf("expected ErrNegativeCap, got %v", err)
	}
	var nce *commission.NegativeCapError
	if !errors.As(err, &nce) {
		t.Fatalf("expected NegativeCapError, got %T", err)
	}
	if nce.PlanID != "plan-capped" {
		t.Errorf("expected the offending plan ID, got %s", nce.PlanID)
	}
}

func TestCap_Continuity_BrokerageNeverJumpsPastRoom(t *testing.T) {
	// GIVEN: a sequence of deals marching toward the cap
	// THEN: Each pre-cap/mixed step adds at most the remaining room

	plan := cappedPlan(10000)
	ytd := m(0)
	for i := 0; i < 6; i++ {
		split, err := commission.ResolveCapSplit(plan, m(8000), ytd, 60)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		room := plan.CapAmount.Sub(ytd)
		if split.BrokerageAmount.GreaterThan(room) {
			t.Fatalf("step %d: brokerage %v exceeds remaining room %v", i, split.BrokerageAmount, room)
		}
		ytd = ytd.Add(split.BrokerageAmount)
	}
}
