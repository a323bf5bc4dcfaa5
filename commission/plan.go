/*
plan.go - Commission plan, team, and assignment definitions

PURPOSE:
  Defines the ruleset that governs how an agent's commission is split with
  the brokerage: base split, sliding-scale tiers, annual cap, post-cap
  split, royalties, and recurring deductions. A CommissionPlan is the
  contract between the brokerage and an agent about who keeps what.

KEY CONCEPTS:
  - CommissionPlan: The complete split ruleset for a group of agents
  - CommissionTier: One rung of a sliding scale keyed by YTD company dollar
  - Team: An intra-team split taken before the brokerage split
  - AgentPlanAssignment: Binds one agent name to a plan, optional team,
    and optional anniversary date for the YTD cycle

SPLIT ORDER:
  For each agent share of a transaction the pipeline runs:
  1. GCI (even share of the total commission)
  2. Team split (percentage of GCI to the team)
  3. Brokerage split (cap-aware, on the post-team amount)
  4. Royalty (percentage of GCI, clamped to the royalty cap)
  5. Deductions (plan deductions plus transaction adjustments)

EXAMPLE:
  plan := CommissionPlan{
      ID:              "plan-standard",
      Name:            "Standard 60/40",
      SplitPercentage: 60,
      CapAmount:       NewMoney(500000),
      PostCapSplit:    100,
      Deductions: []Deduction{
          {Name: "E&O Insurance", Amount: 50, Type: DeductionFixed},
      },
  }

SEE ALSO:
  - tier.go: Sliding-scale tier resolution and validation
  - cap.go: Cap-aware brokerage split resolution
  - cycle.go: YTD cycle boundaries (anniversary or calendar year)
*/
package commission

// =============================================================================
// COMMISSION PLAN - Split rules for a group of agents
// =============================================================================

// CommissionPlan defines how commission is divided between an agent and the
// brokerage. When UseSliding is true the base SplitPercentage is replaced by
// the tier whose threshold the agent's YTD company dollar has reached.
type CommissionPlan struct {
	ID   PlanID
	Name string

	// Agent's share of the post-team amount, in percent (60 means the agent
	// keeps 60%, the brokerage 40%). Ignored when UseSliding is true.
	SplitPercentage float64

	// Annual company-dollar cap. Zero means uncapped: the normal split
	// applies to every transaction all year.
	CapAmount Money

	// Agent's share after the cap is reached, in percent. 100 means the
	// agent keeps everything post-cap.
	PostCapSplit float64

	// Royalty withheld as a percentage of GCI, clamped to RoyaltyCap per
	// transaction when RoyaltyCap is positive.
	RoyaltyPercentage float64
	RoyaltyCap        Money

	// Recurring per-transaction deductions (E&O, transaction fees).
	Deductions []Deduction

	// Sliding-scale configuration.
	UseSliding bool
	Tiers      []CommissionTier
}

// CommissionTier is one rung of a sliding scale. The tier applies once the
// agent's YTD company dollar is at or above Threshold; the engine always
// picks the highest qualifying rung.
type CommissionTier struct {
	Threshold       Money
	SplitPercentage float64
	Description     string
}

// =============================================================================
// TEAM - Intra-team split taken before the brokerage split
// =============================================================================

type Team struct {
	ID        TeamID
	Name      string
	LeadAgent string

	// Percentage of each member's GCI that goes to the team.
	SplitPercentage float64
}

// =============================================================================
// AGENT PLAN ASSIGNMENT - Binds an agent name to plan, team, and cycle
// =============================================================================

// AgentPlanAssignment is the authoritative record for one agent. AgentName
// is the canonical display form; matching against transaction agent strings
// is case-insensitive and whitespace-tolerant (see roster.go).
type AgentPlanAssignment struct {
	AgentName string
	PlanID    PlanID

	// TeamID is nil for agents not on a team. The distinction between
	// "no team" and "team X" is explicit so a forgotten lookup cannot be
	// mistaken for an independent agent.
	TeamID *TeamID

	// AnniversaryDate anchors the agent's YTD cycle, formatted "MM-DD"
	// (e.g. "03-15"). Empty means the cycle is the calendar year.
	AnniversaryDate string
}

// OnTeam reports whether the assignment carries a team reference.
func (a AgentPlanAssignment) OnTeam() bool { return a.TeamID != nil }

// =============================================================================
// CALCULATION INPUT - Everything the engine needs for one run
// =============================================================================

type CalculationInput struct {
	Plans        []CommissionPlan
	Teams        []Team
	Assignments  []AgentPlanAssignment
	Transactions []TransactionInput
}
