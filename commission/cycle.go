/*
cycle.go - YTD cycle boundaries

PURPOSE:
  Cap progress and YTD accumulators reset once a year, but not on the
  same day for everyone. Agents with an anniversary date (typically the
  day they joined the brokerage) run anniversary-to-anniversary cycles;
  everyone else runs calendar years.

CYCLE SELECTION:
  - AnniversaryDate "03-15", closing date 2025-06-01
      -> cycle [2025-03-15, 2026-03-14]
  - AnniversaryDate "03-15", closing date 2025-02-01
      -> cycle [2024-03-15, 2025-03-14]  (before this year's anniversary)
  - AnniversaryDate "" (or malformed)
      -> cycle [Jan 1, Dec 31] of the closing year

SEE ALSO:
  - engine.go: Resets per-agent YTD state when a closing date leaves the
    current cycle
*/
package commission

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CYCLE - One YTD accumulation window
// =============================================================================

type Cycle struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the cycle [Start, End].
func (c Cycle) Contains(d Date) bool {
	return d.AfterOrEqual(c.Start) && d.BeforeOrEqual(c.End)
}

func (c Cycle) String() string {
	return "[" + c.Start.String() + ", " + c.End.String() + "]"
}

// =============================================================================
// CYCLE CALCULATOR - Determines which cycle a closing date falls into
// =============================================================================

// CycleFor returns the YTD cycle containing the given date. anniversary is
// "MM-DD" for anniversary-anchored cycles; empty or malformed values fall
// back to the calendar year.
func CycleFor(anniversary string, date Date) Cycle {
	month, day, ok := parseAnniversary(anniversary)
	if !ok {
		return Cycle{
			Start: StartOfYear(date.Year()),
			End:   EndOfYear(date.Year()),
		}
	}

	start := NewDate(date.Year(), month, day)

	// If the date is before this year's anniversary, we're still in the
	// cycle that opened last year.
	if date.Before(start) {
		start = NewDate(date.Year()-1, month, day)
	}

	end := start.AddYears(1).AddDays(-1)
	return Cycle{Start: start, End: end}
}

// ValidAnniversary reports whether s is an anniversary the cycle calculator
// will honor: empty (calendar year) or a plausible "MM-DD".
func ValidAnniversary(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, _, ok := parseAnniversary(s)
	return ok
}

// parseAnniversary parses "MM-DD" into month and day. ok is false for
// anything that is not a plausible month/day pair.
func parseAnniversary(s string) (time.Month, int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false
	}

	return time.Month(month), day, true
}
