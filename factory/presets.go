/*
presets.go - Pre-built commission plan configurations

PURPOSE:
  Provides ready-to-use plan shapes for common brokerage compensation
  models. These are convenience functions that set up a CommissionPlan the
  way brokerages typically structure them; scenarios and tests build on
  them instead of hand-writing plan structs.

AVAILABLE PRESETS:
  FlatSplitPlan:     A fixed agent/brokerage split, no cap
  CappedSplitPlan:   Fixed split until the agent caps, then 100% retention
  FranchisePlan:     Capped split plus a capped franchise royalty
  SlidingScalePlan:  Split ladder keyed by YTD company dollar
  GraduatedTiers:    The common 60/65/70 ladder used by sliding plans
  StandardDeductions: E&O insurance and a flat transaction fee
  TeamOf:            A team with a lead and a team split

CUSTOMIZATION:
  These are starting points. Tweak fields on the returned struct:

    plan := factory.CappedSplitPlan("plan-1", "80/20 Cap", 80, 16000)
    plan.PostCapSplit = 95
    plan.Deductions = factory.StandardDeductions()

SEE ALSO:
  - registry.go: JSON-based registry creation
  - commission/plan.go: The types these presets build
*/
package factory

import "github.com/warp/commission-engine/commission"

// =============================================================================
// COMMON PLAN SHAPES
// =============================================================================

// FlatSplitPlan returns an uncapped plan where the agent keeps split percent
// of every dollar.
func FlatSplitPlan(id commission.PlanID, name string, split float64) commission.CommissionPlan {
	return commission.CommissionPlan{
		ID:              id,
		Name:            name,
		SplitPercentage: split,
		CapAmount:       commission.Zero(),
		PostCapSplit:    100,
	}
}

// CappedSplitPlan returns a plan where the split applies until the agent has
// paid cap dollars of company dollar in a cycle, then the agent keeps 100%.
func CappedSplitPlan(id commission.PlanID, name string, split, cap float64) commission.CommissionPlan {
	plan := FlatSplitPlan(id, name, split)
	plan.CapAmount = commission.NewMoney(cap)
	return plan
}

// FranchisePlan returns a capped plan with a franchise royalty on gross
// commission, itself clamped per transaction. This is the shape national
// franchise brokerages use.
func FranchisePlan(id commission.PlanID, name string, split, cap, royaltyPct, royaltyCap float64) commission.CommissionPlan {
	plan := CappedSplitPlan(id, name, split, cap)
	plan.RoyaltyPercentage = royaltyPct
	plan.RoyaltyCap = commission.NewMoney(royaltyCap)
	return plan
}

// SlidingScalePlan returns a plan whose split climbs the given ladder as the
// agent's YTD company dollar grows. The ladder must satisfy the tier
// validator; presets built on GraduatedTiers always do.
func SlidingScalePlan(id commission.PlanID, name string, tiers []commission.CommissionTier) commission.CommissionPlan {
	return commission.CommissionPlan{
		ID:           id,
		Name:         name,
		CapAmount:    commission.Zero(),
		PostCapSplit: 100,
		UseSliding:   true,
		Tiers:        tiers,
	}
}

// GraduatedTiers returns the common three-rung ladder: base split, +5 points
// at the mid threshold, +10 at the top threshold.
func GraduatedTiers(base float64, mid, top float64) []commission.CommissionTier {
	return []commission.CommissionTier{
		{Threshold: commission.Zero(), SplitPercentage: base, Description: "Base"},
		{Threshold: commission.NewMoney(mid), SplitPercentage: base + 5, Description: "Mid"},
		{Threshold: commission.NewMoney(top), SplitPercentage: base + 10, Description: "Top"},
	}
}

// StandardDeductions returns the per-transaction charges most plans carry.
func StandardDeductions() []commission.Deduction {
	return []commission.Deduction{
		{Name: "E&O Insurance", Amount: 40, Type: commission.DeductionFixed},
		{Name: "Transaction Fee", Amount: 25, Type: commission.DeductionFixed},
	}
}

// =============================================================================
// TEAMS
// =============================================================================

// TeamOf returns a team whose members pay split percent of their GCI to the
// team before any brokerage math.
func TeamOf(id commission.TeamID, name, lead string, split float64) commission.Team {
	return commission.Team{
		ID:              id,
		Name:            name,
		LeadAgent:       lead,
		SplitPercentage: split,
	}
}
