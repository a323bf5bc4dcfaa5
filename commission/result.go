/*
result.go - Calculation outputs

PURPOSE:
  A calculation run produces four artifacts: per-transaction breakdowns
  (the audit trail), per-agent YTD summaries (one per agent per cycle),
  tier transitions (sliding-scale agents crossing a threshold), and skip
  diagnostics (agent shares that could not be processed). Result bundles
  all four; nothing is dropped silently.

SEE ALSO:
  - calculator.go: Produces CommissionBreakdown
  - engine.go: Accumulates summaries, transitions, and skips
*/
package commission

// =============================================================================
// COMMISSION BREAKDOWN - Audit record for one agent share of one transaction
// =============================================================================

type BreakdownDeduction struct {
	Name   string
	Type   DeductionType
	Amount Money
}

type CommissionBreakdown struct {
	TransactionID TransactionID
	LoopName      string
	ClosingDate   Date
	AgentName     string

	PlanID   PlanID
	PlanName string
	TeamID   TeamID // zero value when the agent is not on a team
	TeamName string

	// Step 1: even share of the total commission.
	GrossCommission Money

	// Step 2: team split off the top.
	TeamSplitPercent float64
	TeamSplitAmount  Money
	AfterTeamSplit   Money

	// Step 3: cap-aware brokerage split.
	SplitType             SplitType
	BrokerageSplitAmount  Money
	BrokerageSplitPercent float64

	// Step 4: royalty on GCI.
	RoyaltyPercent float64
	RoyaltyAmount  Money

	// Step 5: plan deductions plus transaction adjustments, itemized.
	Deductions      []BreakdownDeduction
	TotalDeductions Money

	// Step 6: what the agent takes home.
	NetCommission Money

	// Step 7: cap progress around this transaction.
	YTDBefore    Money
	YTDAfter     Money
	CapAmount    Money
	PercentToCap float64
	IsCapped     bool
}

// =============================================================================
// AGENT YTD SUMMARY - One per agent per cycle
// =============================================================================

type AgentYTDSummary struct {
	AgentName string
	PlanID    PlanID
	PlanName  string
	TeamID    TeamID
	TeamName  string

	Cycle           Cycle
	AnniversaryDate string // "MM-DD", empty for calendar-year agents

	CompanyDollar    Money
	GrossCommission  Money
	NetCommission    Money
	TotalDeductions  Money
	TotalRoyalties   Money
	TransactionCount int

	CapAmount      Money
	RemainingToCap Money
	PercentToCap   float64
	IsCapped       bool
}

// =============================================================================
// TIER TRANSITION - Sliding-scale agent crossing a threshold
// =============================================================================

type TierTransition struct {
	AgentName     string
	TransactionID TransactionID
	LoopName      string
	ClosingDate   Date
	PlanID        PlanID

	FromTier         int
	ToTier           int
	FromSplitPercent float64
	ToSplitPercent   float64
	ToDescription    string

	// Company dollar that pushed the agent over the threshold.
	YTDAfter Money
}

// =============================================================================
// SKIP DIAGNOSTICS - Agent shares that could not be processed
// =============================================================================

type SkipReason string

const (
	// SkipUnmatchedAgent: the transaction names an agent with no plan
	// assignment. Their GCI share is computed but never paid out here.
	SkipUnmatchedAgent SkipReason = "unmatched_agent"

	// SkipMissingPlan: the agent's assignment references a plan that is
	// not in the input.
	SkipMissingPlan SkipReason = "missing_plan"

	// SkipMissingTeam: the agent's assignment references a team that is
	// not in the input.
	SkipMissingTeam SkipReason = "missing_team"
)

type SkippedAgent struct {
	TransactionID TransactionID
	LoopName      string
	AgentName     string // raw name as it appeared on the transaction
	Reason        SkipReason
}

// =============================================================================
// RESULT - Everything a run produced
// =============================================================================

type Result struct {
	Breakdowns  []CommissionBreakdown
	Summaries   []AgentYTDSummary
	Transitions []TierTransition
	Skipped     []SkippedAgent
}

// SummaryFor returns the most recent cycle's summary for an agent name
// (matched through normalization).
func (r *Result) SummaryFor(name string) (AgentYTDSummary, bool) {
	key := NormalizeAgentName(name)
	var found AgentYTDSummary
	ok := false
	for _, s := range r.Summaries {
		if NormalizeAgentName(s.AgentName) != key {
			continue
		}
		if !ok || s.Cycle.Start.After(found.Cycle.Start) {
			found = s
			ok = true
		}
	}
	return found, ok
}

// BreakdownsFor returns all breakdowns for an agent name in processing
// order (matched through normalization).
func (r *Result) BreakdownsFor(name string) []CommissionBreakdown {
	key := NormalizeAgentName(name)
	var out []CommissionBreakdown
	for _, b := range r.Breakdowns {
		if NormalizeAgentName(b.AgentName) == key {
			out = append(out, b)
		}
	}
	return out
}
