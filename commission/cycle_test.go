package commission_test

import (
	"testing"
	"time"

	"github.com/warp/commission-engine/commission"
)

// Note: day lives in engine_test.go.

// =============================================================================
// CYCLE BOUNDARIES
// =============================================================================

func TestCycle_NoAnniversary_CalendarYear(t *testing.T) {
	c := commission.CycleFor("", day(2025, time.June, 15))

	if !c.Start.Equal(day(2025, time.January, 1)) || !c.End.Equal(day(2025, time.December, 31)) {
		t.Errorf("expected calendar year 2025, got %s", c)
	}
}

func TestCycle_AfterAnniversary_CycleOpensThisYear(t *testing.T) {
	c := commission.CycleFor("03-15", day(2025, time.June, 1))

	if !c.Start.Equal(day(2025, time.March, 15)) {
		t.Errorf("expected start 2025-03-15, got %s", c.Start)
	}
	if !c.End.Equal(day(2026, time.March, 14)) {
		t.Errorf("expected end 2026-03-14, got %s", c.End)
	}
}

func TestCycle_BeforeAnniversary_CycleOpenedLastYear(t *testing.T) {
	c := commission.CycleFor("03-15", day(2025, time.February, 1))

	if !c.Start.Equal(day(2024, time.March, 15)) {
		t.Errorf("expected start 2024-03-15, got %s", c.Start)
	}
	if !c.End.Equal(day(2025, time.March, 14)) {
		t.Errorf("expected end 2025-03-14, got %s", c.End)
	}
}

func TestCycle_OnAnniversaryDay_NewCycleOpens(t *testing.T) {
	c := commission.CycleFor("03-15", day(2025, time.March, 15))

	if !c.Start.Equal(day(2025, time.March, 15)) {
		t.Errorf("the anniversary day belongs to the new cycle, got %s", c.Start)
	}
}

func TestCycle_MalformedAnniversary_FallsBackToCalendarYear(t *testing.T) {
	for _, bad := range []string{"13-01", "00-10", "03-40", "0315", "march-15", "-", "3"} {
		c := commission.CycleFor(bad, day(2025, time.June, 15))
		if !c.Start.Equal(day(2025, time.January, 1)) {
			t.Errorf("%q: expected calendar-year fallback, got %s", bad, c)
		}
	}
}

func TestCycle_Contains(t *testing.T) {
	c := commission.CycleFor("03-15", day(2025, time.June, 1))

	if !c.Contains(day(2025, time.March, 15)) || !c.Contains(day(2026, time.March, 14)) {
		t.Error("cycle must contain both endpoints")
	}
	if c.Contains(day(2025, time.March, 14)) || c.Contains(day(2026, time.March, 15)) {
		t.Error("cycle must exclude days outside [start, end]")
	}
}
