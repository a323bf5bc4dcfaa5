/*
engine.go - Chronological calculation across all transactions

PURPOSE:
  The engine is a fold over transactions in closing-date order. Each
  agent's YTD company dollar threads from one transaction to the next,
  which is what makes caps and sliding scales path-dependent: the same
  transaction can be pre-cap in March and post-cap in November.

ORDERING:
  The engine sorts a COPY of the input by closing date (stable, so equal
  dates keep input order) before folding. Callers never need to pre-sort
  and the input slice is never reordered under them.

STATE:
  Per agent: current cycle, YTD company dollar, and the summary being
  accumulated. A closing date outside the agent's current cycle opens a
  fresh cycle with YTD reset to zero; the finished cycle's summary stays
  in the result, so one agent can have several summaries per run.

FAILURE MODEL:
  Configuration problems (invalid sliding scale, negative cap) fail the
  whole run before any transaction is processed. Data problems (unknown
  agent names, dangling plan/team references) skip the affected agent
  share and are reported in Result.Skipped.

EXAMPLE:
  engine := commission.NewEngine()
  result, err := engine.Calculate(commission.CalculationInput{
      Plans:        plans,
      Teams:        teams,
      Assignments:  assignments,
      Transactions: transactions,
  })

SEE ALSO:
  - calculator.go: Per-share arithmetic
  - cycle.go: Cycle boundary resolution
  - result.go: Output shapes
*/
package commission

import (
	"sort"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// agentState is the running YTD position for one agent within one cycle.
type agentState struct {
	cycle   Cycle
	ytd     Money
	summary *AgentYTDSummary
}

// Calculate replays every transaction in closing-date order and returns the
// full set of breakdowns, summaries, tier transitions, and skip
// diagnostics. The input is not modified.
func (e *Engine) Calculate(input CalculationInput) (*Result, error) {
	plans := make(map[PlanID]CommissionPlan, len(input.Plans))
	for _, p := range input.Plans {
		if p.CapAmount.IsNegative() {
			return nil, &NegativeCapError{PlanID: p.ID, Cap: p.CapAmount}
		}
		if v := ValidateTiers(p); !v.Valid {
			return nil, &TierValidationError{PlanID: p.ID, Errors: v.Errors}
		}
		plans[p.ID] = p
	}

	teams := make(map[TeamID]Team, len(input.Teams))
	for _, t := range input.Teams {
		teams[t.ID] = t
	}

	roster := NewRoster(input.Assignments)

	txs := make([]TransactionInput, len(input.Transactions))
	copy(txs, input.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].ClosingDate.Before(txs[j].ClosingDate)
	})

	result := &Result{}
	states := make(map[AgentKey]*agentState)
	var summaries []*AgentYTDSummary

	for _, tx := range txs {
		for _, raw := range SplitAgents(tx.Agents) {
			if raw == "" {
				continue
			}

			assignment, ok := roster.Resolve(raw)
			if !ok {
				result.Skipped = append(result.Skipped, SkippedAgent{
					TransactionID: tx.ID, LoopName: tx.LoopName, AgentName: raw, Reason: SkipUnmatchedAgent,
				})
				continue
			}

			plan, ok := plans[assignment.PlanID]
			if !ok {
				result.Skipped = append(result.Skipped, SkippedAgent{
					TransactionID: tx.ID, LoopName: tx.LoopName, AgentName: raw, Reason: SkipMissingPlan,
				})
				continue
			}

			var team *Team
			if assignment.TeamID != nil {
				t, found := teams[*assignment.TeamID]
				if !found {
					result.Skipped = append(result.Skipped, SkippedAgent{
						TransactionID: tx.ID, LoopName: tx.LoopName, AgentName: raw, Reason: SkipMissingTeam,
					})
					continue
				}
				team = &t
			}

			key := NormalizeAgentName(raw)
			cycle := CycleFor(assignment.AnniversaryDate, tx.ClosingDate)

			st := states[key]
			if st == nil || !st.cycle.Start.Equal(cycle.Start) {
				summary := &AgentYTDSummary{
					AgentName:       assignment.AgentName,
					PlanID:          plan.ID,
					PlanName:        plan.Name,
					Cycle:           cycle,
					AnniversaryDate: assignment.AnniversaryDate,
					CapAmount:       plan.CapAmount,
					CompanyDollar:   Zero(),
					GrossCommission: Zero(),
					NetCommission:   Zero(),
					TotalDeductions: Zero(),
					TotalRoyalties:  Zero(),
					RemainingToCap:  remainingToCap(plan.CapAmount, Zero()),
				}
				if team != nil {
					summary.TeamID = team.ID
					summary.TeamName = team.Name
				}
				summary.PercentToCap, summary.IsCapped = capProgress(plan.CapAmount, Zero())

				st = &agentState{cycle: cycle, ytd: Zero(), summary: summary}
				states[key] = st
				summaries = append(summaries, summary)
			}

			before, _, sliding := ResolveTier(plan, st.ytd)

			bd, err := ComputeBreakdown(tx, assignment, plan, team, st.ytd)
			if err != nil {
				return nil, err
			}
			result.Breakdowns = append(result.Breakdowns, bd)

			if sliding {
				after, tier, _ := ResolveTier(plan, bd.YTDAfter)
				if after != before {
					sorted := SortTiers(plan.Tiers)
					result.Transitions = append(result.Transitions, TierTransition{
						AgentName:        assignment.AgentName,
						TransactionID:    tx.ID,
						LoopName:         tx.LoopName,
						ClosingDate:      tx.ClosingDate,
						PlanID:           plan.ID,
						FromTier:         before,
						ToTier:           after,
						FromSplitPercent: sorted[before].SplitPercentage,
						ToSplitPercent:   tier.SplitPercentage,
						ToDescription:    tier.Description,
						YTDAfter:         bd.YTDAfter,
					})
				}
			}

			st.ytd = bd.YTDAfter

			s := st.summary
			s.CompanyDollar = st.ytd
			s.GrossCommission = s.GrossCommission.Add(bd.GrossCommission)
			s.NetCommission = s.NetCommission.Add(bd.NetCommission)
			s.TotalDeductions = s.TotalDeductions.Add(bd.TotalDeductions)
			s.TotalRoyalties = s.TotalRoyalties.Add(bd.RoyaltyAmount)
			s.TransactionCount++
			s.PercentToCap, s.IsCapped = capProgress(plan.CapAmount, st.ytd)
			s.RemainingToCap = remainingToCap(plan.CapAmount, st.ytd)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].AgentName != summaries[j].AgentName {
			return summaries[i].AgentName < summaries[j].AgentName
		}
		return summaries[i].Cycle.Start.Before(summaries[j].Cycle.Start)
	})
	for _, s := range summaries {
		result.Summaries = append(result.Summaries, *s)
	}

	return result, nil
}

// remainingToCap is the company dollar still to contribute before the cap
// closes. Zero for uncapped plans and capped agents.
func remainingToCap(cap Money, ytd Money) Money {
	if !cap.IsPositive() {
		return Zero()
	}
	remaining := cap.Sub(ytd)
	if remaining.IsNegative() {
		return Zero()
	}
	return remaining
}
