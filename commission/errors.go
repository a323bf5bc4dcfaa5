/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API handlers, the import pipeline) match on sentinels with
  errors.Is and unwrap structured errors for context.

ERROR CATEGORIES:
  1. Configuration errors - Invalid plans, tiers, or assignments
  2. Input errors - Unparseable dates and malformed transactions
  3. Lookup errors - References to plans/teams that do not exist

Missing agents and missing plan references found DURING a calculation run
are deliberately NOT errors: the engine skips the affected agent share and
reports it in Result.Skipped so one bad row never sinks a whole import.

SEE ALSO:
  - tier.go: Produces TierValidationError
  - cap.go: Produces ErrNegativeCap
  - engine.go: Collects skip diagnostics instead of failing
*/
package commission

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNegativeCap is returned when a plan's cap amount is negative.
	// Zero is valid (uncapped); negative is always a configuration bug.
	ErrNegativeCap = errors.New("cap amount cannot be negative")

	// ErrInvalidTiers is returned when a sliding-scale plan fails tier
	// validation. The engine refuses to run with an invalid scale.
	ErrInvalidTiers = errors.New("invalid tier configuration")

	// ErrPlanNotFound is returned when a referenced plan doesn't exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrTeamNotFound is returned when a referenced team doesn't exist.
	ErrTeamNotFound = errors.New("team not found")

	// ErrAssignmentNotFound is returned when no assignment exists for an agent.
	ErrAssignmentNotFound = errors.New("agent assignment not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TierValidationError reports every problem found in a sliding scale at
// once, so a misconfigured plan can be fixed in one pass.
type TierValidationError struct {
	PlanID PlanID
	Errors []string
}

func (e *TierValidationError) Error() string {
	return fmt.Sprintf("plan %s: %s", e.PlanID, strings.Join(e.Errors, "; "))
}

func (e *TierValidationError) Unwrap() error {
	return ErrInvalidTiers
}

// NegativeCapError identifies which plan carries the negative cap.
type NegativeCapError struct {
	PlanID PlanID
	Cap    Money
}

func (e *NegativeCapError) Error() string {
	return fmt.Sprintf("plan %s: cap amount %s is negative", e.PlanID, e.Cap)
}

func (e *NegativeCapError) Unwrap() error {
	return ErrNegativeCap
}

// DateParseError reports a date string none of the accepted layouts matched.
type DateParseError struct {
	Input string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date %q", e.Input)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError returns true if the error is due to invalid plan setup
// rather than bad transaction data.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidTiers) ||
		errors.Is(err, ErrNegativeCap)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}
