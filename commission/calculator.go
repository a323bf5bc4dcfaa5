/*
calculator.go - Per-transaction calculation pipeline

PURPOSE:
  Computes the full CommissionBreakdown for ONE agent's share of ONE
  transaction, given the agent's YTD company dollar going in. The engine
  (engine.go) owns ordering and state; this file owns the arithmetic.

PIPELINE:
  1. totalCommission = salePrice x commissionRate%
  2. gross           = totalCommission / number of agent slots
  3. teamSplit       = gross x team%          (agents on a team only)
  4. brokerageSplit  = cap-aware share of (gross - teamSplit)
  5. royalty         = gross x royalty%, clamped to the royalty cap
  6. deductions      = plan deductions + transaction adjustments
  7. net             = afterTeamSplit - brokerage - royalty - deductions

  A zero-commission transaction (sale price or rate 0) produces an all-
  zero breakdown: fixed deductions are not charged against nothing.

SEE ALSO:
  - cap.go: Step 4
  - tier.go: Split resolution feeding step 4
  - engine.go: Chronological ordering and YTD threading
*/
package commission

// =============================================================================
// PER-SHARE CALCULATION
// =============================================================================

// ComputeBreakdown prices one agent's share of a transaction. team is nil
// for agents not on a team. ytdBefore is the agent's YTD company dollar at
// the start of the transaction, within the current cycle.
func ComputeBreakdown(tx TransactionInput, agent AgentPlanAssignment, plan CommissionPlan, team *Team, ytdBefore Money) (CommissionBreakdown, error) {
	totalCommission := tx.SalePrice.Percent(tx.CommissionRate)
	gross := totalCommission.DivInt(AgentCount(tx.Agents))

	b := CommissionBreakdown{
		TransactionID:   tx.ID,
		LoopName:        tx.LoopName,
		ClosingDate:     tx.ClosingDate,
		AgentName:       agent.AgentName,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		GrossCommission: gross,
		CapAmount:       plan.CapAmount,
		YTDBefore:       ytdBefore,
	}

	// Team split comes off the top of the agent's gross share.
	teamAmount := Zero()
	if team != nil {
		b.TeamID = team.ID
		b.TeamName = team.Name
		b.TeamSplitPercent = team.SplitPercentage
		teamAmount = gross.Percent(team.SplitPercentage)
	}
	b.TeamSplitAmount = teamAmount
	b.AfterTeamSplit = gross.Sub(teamAmount)

	// Brokerage split on the post-team amount, at the split the agent has
	// earned so far this cycle.
	split := ResolveSplit(plan, ytdBefore)
	capSplit, err := ResolveCapSplit(plan, b.AfterTeamSplit, ytdBefore, split)
	if err != nil {
		return CommissionBreakdown{}, err
	}
	b.SplitType = capSplit.Type
	b.BrokerageSplitAmount = capSplit.BrokerageAmount
	b.BrokerageSplitPercent = capSplit.BrokeragePercent

	// Royalty on gross, clamped per transaction.
	royalty := Zero()
	if plan.RoyaltyPercentage > 0 {
		royalty = gross.Percent(plan.RoyaltyPercentage)
		if plan.RoyaltyCap.IsPositive() && royalty.GreaterThan(plan.RoyaltyCap) {
			royalty = plan.RoyaltyCap
		}
	}
	b.RoyaltyPercent = plan.RoyaltyPercentage
	b.RoyaltyAmount = royalty

	// Deductions are only charged when there is commission to charge.
	total := Zero()
	if !gross.IsZero() {
		for _, d := range plan.Deductions {
			item := itemizeDeduction(d, gross)
			b.Deductions = append(b.Deductions, item)
			total = total.Add(item.Amount)
		}
		for _, d := range tx.Adjustments {
			item := itemizeDeduction(d, gross)
			b.Deductions = append(b.Deductions, item)
			total = total.Add(item.Amount)
		}
	}
	b.TotalDeductions = total

	b.NetCommission = b.AfterTeamSplit.
		Sub(b.BrokerageSplitAmount).
		Sub(b.RoyaltyAmount).
		Sub(b.TotalDeductions)

	b.YTDAfter = ytdBefore.Add(b.BrokerageSplitAmount)
	b.PercentToCap, b.IsCapped = capProgress(plan.CapAmount, b.YTDAfter)

	return b, nil
}

// itemizeDeduction prices one deduction against the agent's gross share.
// Percentage deductions are a share of gross; everything else is a flat
// dollar amount.
func itemizeDeduction(d Deduction, gross Money) BreakdownDeduction {
	amount := NewMoney(d.Amount)
	if d.Type == DeductionPercentage {
		amount = gross.Percent(d.Amount)
	}
	return BreakdownDeduction{Name: d.Name, Type: d.Type, Amount: amount}
}

// capProgress reports how far into the cap a YTD company dollar figure is.
// Uncapped plans always read 100% and never report capped.
func capProgress(cap Money, ytd Money) (float64, bool) {
	if !cap.IsPositive() {
		return 100, false
	}
	pct := ytd.Value.Div(cap.Value).Mul(oneHundred).InexactFloat64()
	if pct > 100 {
		pct = 100
	}
	return pct, ytd.GreaterThanOrEqual(cap)
}
