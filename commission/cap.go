/*
cap.go - Cap-aware brokerage split resolution

PURPOSE:
  Most plans cap how much company dollar the brokerage keeps per cycle.
  Before the cap the brokerage takes (100 - split)% of the post-team
  amount; after the cap it takes (100 - postCapSplit)%, typically zero.
  This file decides which regime a transaction falls in and prices the
  one that straddles the boundary.

THE THREE REGIMES:
  pre-cap:  The transaction fits inside the agent's remaining cap room.
            Brokerage share = afterTeamSplit x (100 - split)%.
  post-cap: The agent already reached the cap before this transaction.
            Brokerage share = afterTeamSplit x (100 - postCapSplit)%.
  mixed:    The post-team amount exceeds the remaining cap room. The
            amount is sliced: room-sized slice at the normal split, the
            remainder at the post-cap split. The reported percentage is
            recomputed from the blended dollar amount for audit display.

  A zero cap disables capping entirely: every transaction is pre-cap.

EXAMPLE:
  60/40 plan, $500,000 cap, 100% post-cap split, $495,000 already
  contributed, $10,000 post-team commission:
    room        = 5,000
    pre slice   = 5,000 x 40% = 2,000
    post slice  = 5,000 x  0% = 0
    brokerage   = 2,000 (mixed, effective 20%)

SEE ALSO:
  - calculator.go: Applies the resolved split inside the pipeline
  - cycle.go: YTD resets that reopen the cap each cycle
*/
package commission

// =============================================================================
// CAP SPLIT - Resolved brokerage share for one transaction
// =============================================================================

type CapSplit struct {
	Type SplitType

	// Dollar amount the brokerage keeps from the post-team commission.
	BrokerageAmount Money

	// Brokerage share of the post-team amount in percent. For mixed
	// splits this is recomputed from the blended amount.
	BrokeragePercent float64
}

// ResolveCapSplit prices the brokerage's share of afterTeamSplit given the
// agent's YTD company dollar at the start of the transaction.
// agentSplitPercent is the split already resolved for this transaction
// (flat or tier-based).
func ResolveCapSplit(plan CommissionPlan, afterTeamSplit Money, ytdBefore Money, agentSplitPercent float64) (CapSplit, error) {
	if plan.CapAmount.IsNegative() {
		return CapSplit{}, &NegativeCapError{PlanID: plan.ID, Cap: plan.CapAmount}
	}

	brokeragePercent := 100 - agentSplitPercent
	postCapPercent := 100 - plan.PostCapSplit

	// Uncapped plan: the normal split applies all year.
	if plan.CapAmount.IsZero() {
		return CapSplit{
			Type:             SplitPreCap,
			BrokerageAmount:  afterTeamSplit.Percent(brokeragePercent),
			BrokeragePercent: brokeragePercent,
		}, nil
	}

	// Already capped before this transaction.
	if ytdBefore.GreaterThanOrEqual(plan.CapAmount) {
		return CapSplit{
			Type:             SplitPostCap,
			BrokerageAmount:  afterTeamSplit.Percent(postCapPercent),
			BrokeragePercent: postCapPercent,
		}, nil
	}

	room := plan.CapAmount.Sub(ytdBefore)

	// Fits entirely inside the remaining cap room.
	if afterTeamSplit.LessThanOrEqual(room) {
		return CapSplit{
			Type:             SplitPreCap,
			BrokerageAmount:  afterTeamSplit.Percent(brokeragePercent),
			BrokeragePercent: brokeragePercent,
		}, nil
	}

	// Straddles the boundary: price each slice at its own split.
	preSlice := room
	postSlice := afterTeamSplit.Sub(room)
	brokerage := preSlice.Percent(brokeragePercent).Add(postSlice.Percent(postCapPercent))

	effective := brokerage.Value.Div(afterTeamSplit.Value).Mul(oneHundred).InexactFloat64()

	return CapSplit{
		Type:             SplitMixed,
		BrokerageAmount:  brokerage,
		BrokeragePercent: effective,
	}, nil
}
