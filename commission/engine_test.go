package commission_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// TEST HELPERS
// =============================================================================
// Shared across all test files in this package.

func m(n float64) commission.Money {
	return commission.NewMoney(n)
}

func day(year int, month time.Month, d int) commission.Date {
	return commission.NewDate(year, month, d)
}

// approxMoney checks two amounts are equal within a tenth of a cent.
func approxMoney(a, b commission.Money) bool {
	diff := a.Sub(b)
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	return diff.LessThan(commission.NewMoney(0.001))
}

func teamRef(id commission.TeamID) *commission.TeamID {
	return &id
}

// standardPlan: flat 60/40, uncapped.
func standardPlan() commission.CommissionPlan {
	return commission.CommissionPlan{
		ID:              "plan-standard",
		Name:            "Standard 60/40",
		SplitPercentage: 60,
		CapAmount:       m(0),
		PostCapSplit:    100,
	}
}

// cappedPlan: flat 60/40 with an annual cap and full post-cap retention.
func cappedPlan(cap float64) commission.CommissionPlan {
	p := standardPlan()
	p.ID = "plan-capped"
	p.Name = "Capped 60/40"
	p.CapAmount = m(cap)
	return p
}

// slidingPlan: 60% base, 65% from $50k company dollar, 70% from $100k.
func slidingPlan() commission.CommissionPlan {
	return commission.CommissionPlan{
		ID:           "plan-sliding",
		Name:         "Sliding Scale",
		CapAmount:    m(0),
		PostCapSplit: 100,
		UseSliding:   true,
		Tiers: []commission.CommissionTier{
			{Threshold: m(0), SplitPercentage: 60, Description: "Base"},
			{Threshold: m(50000), SplitPercentage: 65, Description: "Mid"},
			{Threshold: m(100000), SplitPercentage: 70, Description: "Top"},
		},
	}
}

func assign(name string, planID commission.PlanID) commission.AgentPlanAssignment {
	return commission.AgentPlanAssignment{AgentName: name, PlanID: planID}
}

func deal(id, agents string, closing commission.Date, salePrice, rate float64) commission.TransactionInput {
	return commission.TransactionInput{
		ID:             commission.TransactionID(id),
		LoopName:       "Loop " + id,
		Status:         "Sold",
		ClosingDate:    closing,
		Agents:         agents,
		SalePrice:      m(salePrice),
		CommissionRate: rate,
	}
}

func calculate(t *testing.T, input commission.CalculationInput) *commission.Result {
	t.Helper()
	result, err := commission.NewEngine().Calculate(input)
	if err != nil {
		t.Fatalf("unexpected calculation error: %v", err)
	}
	return result
}

// =============================================================================
// SINGLE AGENT, FLAT SPLIT
// =============================================================================

func TestEngine_FlatSplit_SingleAgent(t *testing.T) {
	// GIVEN: A 60/40 uncapped plan and one $500,000 sale at 2%
	// WHEN: Calculating
	// THEN: GCI 10,000 splits into 6,000 agent / 4,000 brokerage, pre-cap

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{standardPlan()},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-standard")},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.March, 15), 500000, 2)},
	})

	if len(result.Breakdowns) != 1 {
		t.Fatalf("expected 1 breakdown, got %d", len(result.Breakdowns))
	}
	bd := result.Breakdowns[0]

	if !bd.GrossCommission.Equal(m(10000)) {
		t.Errorf("expected gross 10000, got %v", bd.GrossCommission)
	}
	if !bd.BrokerageSplitAmount.Equal(m(4000)) {
		t.Errorf("expected brokerage 4000, got %v", bd.BrokerageSplitAmount)
	}
	if !bd.NetCommission.Equal(m(6000)) {
		t.Errorf("expected net 6000, got %v", bd.NetCommission)
	}
	if bd.SplitType != commission.SplitPreCap {
		t.Errorf("expected pre-cap, got %s", bd.SplitType)
	}
	if !bd.YTDAfter.Equal(m(4000)) {
		t.Errorf("expected YTD after 4000, got %v", bd.YTDAfter)
	}
	if bd.IsCapped {
		t.Error("uncapped plan must never report capped")
	}
	if bd.PercentToCap != 100 {
		t.Errorf("uncapped plan reports 100%% to cap, got %v", bd.PercentToCap)
	}

	if len(result.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(result.Summaries))
	}
	s := result.Summaries[0]
	if !s.CompanyDollar.Equal(m(4000)) {
		t.Errorf("expected company dollar 4000, got %v", s.CompanyDollar)
	}
	if !s.NetCommission.Equal(m(6000)) {
		t.Errorf("expected summary net 6000, got %v", s.NetCommission)
	}
	if s.TransactionCount != 1 {
		t.Errorf("expected 1 transaction, got %d", s.TransactionCount)
	}
	if !s.Cycle.Start.Equal(day(2025, time.January, 1)) || !s.Cycle.End.Equal(day(2025, time.December, 31)) {
		t.Errorf("expected calendar-year cycle, got %s", s.Cycle)
	}
}

// =============================================================================
// TEAM SPLIT
// =============================================================================

func TestEngine_TeamSplit_ComesOffTheTop(t *testing.T) {
	// GIVEN: A team taking 20% and a 60/40 plan, GCI 10,000
	// WHEN: Calculating
	// THEN: Team 2,000, brokerage 40% of the remaining 8,000 = 3,200, net 4,800

	team := commission.Team{ID: "team-1", Name: "Garcia Group", LeadAgent: "Amanda Garcia", SplitPercentage: 20}
	member := assign("Bob Lee", "plan-standard")
	member.TeamID = teamRef("team-1")

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{standardPlan()},
		Teams:        []commission.Team{team},
		Assignments:  []commission.AgentPlanAssignment{member},
		Transactions: []commission.TransactionInput{deal("t-1", "Bob Lee", day(2025, time.April, 1), 500000, 2)},
	})

	bd := result.Breakdowns[0]
	if !bd.TeamSplitAmount.Equal(m(2000)) {
		t.Errorf("expected team split 2000, got %v", bd.TeamSplitAmount)
	}
	if !bd.AfterTeamSplit.Equal(m(8000)) {
		t.Errorf("expected after-team 8000, got %v", bd.AfterTeamSplit)
	}
	if !bd.BrokerageSplitAmount.Equal(m(3200)) {
		t.Errorf("expected brokerage 3200, got %v", bd.BrokerageSplitAmount)
	}
	if !bd.NetCommission.Equal(m(4800)) {
		t.Errorf("expected net 4800, got %v", bd.NetCommission)
	}
	if bd.TeamID != "team-1" || bd.TeamName != "Garcia Group" {
		t.Errorf("expected team identity on the breakdown, got %q %q", bd.TeamID, bd.TeamName)
	}
}

// =============================================================================
// MULTI-AGENT SPLIT
// =============================================================================

func TestEngine_MultiAgent_EvenGCISplit(t *testing.T) {
	// GIVEN: Two agents on one $12,000-commission deal
	// WHEN: Calculating
	// THEN: Each agent's gross is exactly half

	result := calculate(t, commission.CalculationInput{
		Plans: []commission.CommissionPlan{standardPlan()},
		Assignments: []commission.AgentPlanAssignment{
			assign("Agent One", "plan-standard"),
			assign("Agent Two", "plan-standard"),
		},
		Transactions: []commission.TransactionInput{deal("t-1", "Agent One, Agent Two", day(2025, time.May, 1), 400000, 3)},
	})

	if len(result.Breakdowns) != 2 {
		t.Fatalf("expected 2 breakdowns, got %d", len(result.Breakdowns))
	}
	for _, bd := range result.Breakdowns {
		if !bd.GrossCommission.Equal(m(6000)) {
			t.Errorf("agent %s: expected gross 6000, got %v", bd.AgentName, bd.GrossCommission)
		}
	}
	if len(result.Skipped) != 0 {
		t.Errorf("expected no skips, got %d", len(result.Skipped))
	}
}

func TestEngine_GCIConservation_AcrossAgents(t *testing.T) {
	// GIVEN: A three-agent deal
	// THEN: Summed gross across breakdowns equals the total commission

	result := calculate(t, commission.CalculationInput{
		Plans: []commission.CommissionPlan{standardPlan()},
		Assignments: []commission.AgentPlanAssignment{
			assign("A One", "plan-standard"),
			assign("B Two", "plan-standard"),
			assign("C Three", "plan-standard"),
		},
		Transactions: []commission.TransactionInput{deal("t-1", "A One, B Two, C Three", day(2025, time.May, 1), 500000, 3)},
	})

	total := m(0)
	for _, bd := range result.Breakdowns {
		total = total.Add(bd.GrossCommission)
	}
	if !approxMoney(total, m(15000)) {
		t.Errorf("expected grosses to sum to 15000, got %v", total)
	}
}

// =============================================================================
// SLIDING SCALE
// =============================================================================

func TestEngine_SlidingScale_TierUpgradeMidYear(t *testing.T) {
	// GIVEN: Tiers 60% ($0) / 65% ($50k) / 70% ($100k), uncapped
	// WHEN: The first deal lands exactly $50,000 of company dollar
	// THEN: The second deal resolves at 65% and a transition is recorded

	// First deal: GCI 125,000, brokerage at 40% = 50,000 company dollar.
	first := deal("t-1", "Amanda Garcia", day(2025, time.March, 1), 6250000, 2)
	// Second deal: GCI 10,000 at the 65% tier -> brokerage 3,500.
	second := deal("t-2", "Amanda Garcia", day(2025, time.April, 1), 500000, 2)

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{slidingPlan()},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-sliding")},
		Transactions: []commission.TransactionInput{first, second},
	})

	if len(result.Breakdowns) != 2 {
		t.Fatalf("expected 2 breakdowns, got %d", len(result.Breakdowns))
	}
	bd := result.Breakdowns[1]
	if !bd.BrokerageSplitAmount.Equal(m(3500)) {
		t.Errorf("expected brokerage 3500 at the 65%% tier, got %v", bd.BrokerageSplitAmount)
	}
	if !bd.NetCommission.Equal(m(6500)) {
		t.Errorf("expected net 6500, got %v", bd.NetCommission)
	}

	if len(result.Transitions) != 1 {
		t.Fatalf("expected 1 tier transition, got %d", len(result.Transitions))
	}
	tr := result.Transitions[0]
	if tr.TransactionID != "t-1" {
		t.Errorf("transition should land on the deal that crossed the threshold, got %s", tr.TransactionID)
	}
	if tr.FromTier != 0 || tr.ToTier != 1 {
		t.Errorf("expected transition 0 -> 1, got %d -> %d", tr.FromTier, tr.ToTier)
	}
	if tr.FromSplitPercent != 60 || tr.ToSplitPercent != 65 {
		t.Errorf("expected split 60 -> 65, got %v -> %v", tr.FromSplitPercent, tr.ToSplitPercent)
	}
	if !tr.YTDAfter.Equal(m(50000)) {
		t.Errorf("expected transition at 50000 company dollar, got %v", tr.YTDAfter)
	}
}

func TestEngine_SlidingScale_SplitNeverDecreasesWithinCycle(t *testing.T) {
	// GIVEN: An agent on a sliding scale closing many deals in one cycle
	// THEN: The resolved agent split never goes down as YTD grows

	var txs []commission.TransactionInput
	for i := 0; i < 8; i++ {
		txs = append(txs, deal(
			fmt.Sprintf("t-%d", i), "Amanda Garcia",
			day(2025, time.January, 1+i), 2000000, 2.5,
		))
	}

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{slidingPlan()},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-sliding")},
		Transactions: txs,
	})

	prev := 0.0
	for i, bd := range result.Breakdowns {
		agentSplit := 100 - bd.BrokerageSplitPercent
		if agentSplit < prev {
			t.Fatalf("breakdown %d: split decreased from %v to %v", i, prev, agentSplit)
		}
		prev = agentSplit
	}
}

// =============================================================================
// CAP BEHAVIOR
// =============================================================================

func TestEngine_Cap_StraddlingDealSplitsAtBoundary(t *testing.T) {
	// GIVEN: A $10,000 cap, 60/40 split, full post-cap retention
	// WHEN: The second deal overruns the remaining room
	// THEN: Only the room-sized slice is billed at 40%

	result := calculate(t, commission.CalculationInput{
		Plans:       []commission.CommissionPlan{cappedPlan(10000)},
		Assignments: []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-capped")},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia", day(2025, time.February, 1), 400000, 2), // GCI 8,000: pre-cap
			deal("t-2", "Amanda Garcia", day(2025, time.March, 1), 400000, 2),    // GCI 8,000 vs room 6,800: mixed
		},
	})

	first := result.Breakdowns[0]
	if first.SplitType != commission.SplitPreCap || !first.BrokerageSplitAmount.Equal(m(3200)) {
		t.Errorf("expected first deal pre-cap at 3200, got %s %v", first.SplitType, first.BrokerageSplitAmount)
	}

	second := result.Breakdowns[1]
	if second.SplitType != commission.SplitMixed {
		t.Fatalf("expected mixed, got %s", second.SplitType)
	}
	// room 6,800 at 40% = 2,720; the 1,200 overrun is billed at 0%.
	if !second.BrokerageSplitAmount.Equal(m(2720)) {
		t.Errorf("expected brokerage 2720, got %v", second.BrokerageSplitAmount)
	}
	if !second.NetCommission.Equal(m(5280)) {
		t.Errorf("expected net 5280, got %v", second.NetCommission)
	}
	if !second.YTDAfter.Equal(m(5920)) {
		t.Errorf("expected YTD 5920, got %v", second.YTDAfter)
	}
	if second.IsCapped {
		t.Error("full post-cap retention keeps company dollar under the cap")
	}
}

func TestEngine_Cap_PostCapRegimeAfterCrossing(t *testing.T) {
	// GIVEN: A $2,000 cap, 50/50 split, 80% post-cap retention
	// WHEN: The first deal blows through the cap
	// THEN: The second deal is entirely post-cap at 20% brokerage

	plan := commission.CommissionPlan{
		ID:              "plan-lowcap",
		Name:            "Low Cap",
		SplitPercentage: 50,
		CapAmount:       m(2000),
		PostCapSplit:    80,
	}

	result := calculate(t, commission.CalculationInput{
		Plans:       []commission.CommissionPlan{plan},
		Assignments: []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-lowcap")},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia", day(2025, time.February, 1), 1000000, 2), // GCI 20,000
			deal("t-2", "Amanda Garcia", day(2025, time.March, 1), 500000, 2),     // GCI 10,000
		},
	})

	first := result.Breakdowns[0]
	// room 2,000 at 50% = 1,000; overrun 18,000 at 20% = 3,600.
	if first.SplitType != commission.SplitMixed || !first.BrokerageSplitAmount.Equal(m(4600)) {
		t.Errorf("expected mixed 4600, got %s %v", first.SplitType, first.BrokerageSplitAmount)
	}
	if !first.IsCapped {
		t.Error("expected the agent to be capped after overrunning the cap")
	}
	if first.PercentToCap != 100 {
		t.Errorf("percent to cap clamps at 100, got %v", first.PercentToCap)
	}

	second := result.Breakdowns[1]
	if second.SplitType != commission.SplitPostCap {
		t.Fatalf("expected post-cap, got %s", second.SplitType)
	}
	if !second.BrokerageSplitAmount.Equal(m(2000)) {
		t.Errorf("expected brokerage 2000 (20%% of 10000), got %v", second.BrokerageSplitAmount)
	}
	if !second.NetCommission.Equal(m(8000)) {
		t.Errorf("expected net 8000, got %v", second.NetCommission)
	}
}

// =============================================================================
// ROYALTIES AND DEDUCTIONS
// =============================================================================

func TestEngine_RoyaltyAndDeductions_FullPipeline(t *testing.T) {
	// GIVEN: 70/30 plan, 6% royalty capped at 3,000, $50 E&O, 1% franchise fee
	// WHEN: A 10,000 GCI deal closes
	// THEN: net = 10000 - 3000 - 600 - 150 = 6250

	plan := commission.CommissionPlan{
		ID:                "plan-franchise",
		Name:              "Franchise 70/30",
		SplitPercentage:   70,
		CapAmount:         m(0),
		PostCapSplit:      100,
		RoyaltyPercentage: 6,
		RoyaltyCap:        m(3000),
		Deductions: []commission.Deduction{
			{Name: "E&O Insurance", Amount: 50, Type: commission.DeductionFixed},
			{Name: "Franchise Fee", Amount: 1, Type: commission.DeductionPercentage},
		},
	}

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{plan},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-franchise")},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.June, 1), 500000, 2)},
	})

	bd := result.Breakdowns[0]
	if !bd.RoyaltyAmount.Equal(m(600)) {
		t.Errorf("expected royalty 600, got %v", bd.RoyaltyAmount)
	}
	if len(bd.Deductions) != 2 {
		t.Fatalf("expected 2 itemized deductions, got %d", len(bd.Deductions))
	}
	if !bd.Deductions[0].Amount.Equal(m(50)) || !bd.Deductions[1].Amount.Equal(m(100)) {
		t.Errorf("expected deductions 50 and 100, got %v and %v", bd.Deductions[0].Amount, bd.Deductions[1].Amount)
	}
	if !bd.TotalDeductions.Equal(m(150)) {
		t.Errorf("expected total deductions 150, got %v", bd.TotalDeductions)
	}
	if !bd.NetCommission.Equal(m(6250)) {
		t.Errorf("expected net 6250, got %v", bd.NetCommission)
	}
}

func TestEngine_RoyaltyClamp_Applies(t *testing.T) {
	// GIVEN: 6% royalty capped at 3,000 and a 100,000 GCI deal
	// THEN: Royalty clamps to the cap instead of 6,000

	plan := standardPlan()
	plan.RoyaltyPercentage = 6
	plan.RoyaltyCap = m(3000)

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{plan},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-standard")},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.June, 1), 5000000, 2)},
	})

	if !result.Breakdowns[0].RoyaltyAmount.Equal(m(3000)) {
		t.Errorf("expected clamped royalty 3000, got %v", result.Breakdowns[0].RoyaltyAmount)
	}
}

func TestEngine_TransactionAdjustments_AppendToDeductions(t *testing.T) {
	// GIVEN: A deal carrying a one-off $500 referral fee adjustment
	// THEN: The fee shows up after plan deductions and reduces net

	plan := standardPlan()
	plan.Deductions = []commission.Deduction{{Name: "E&O Insurance", Amount: 50, Type: commission.DeductionFixed}}

	tx := deal("t-1", "Amanda Garcia", day(2025, time.June, 1), 500000, 2)
	tx.Adjustments = []commission.Deduction{{Name: "Referral Fee", Amount: 500, Type: commission.DeductionFixed}}

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{plan},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-standard")},
		Transactions: []commission.TransactionInput{tx},
	})

	bd := result.Breakdowns[0]
	if len(bd.Deductions) != 2 {
		t.Fatalf("expected 2 deductions, got %d", len(bd.Deductions))
	}
	if bd.Deductions[0].Name != "E&O Insurance" || bd.Deductions[1].Name != "Referral Fee" {
		t.Errorf("plan deductions come before adjustments, got %q then %q", bd.Deductions[0].Name, bd.Deductions[1].Name)
	}
	// 10000 - 4000 - 0 - 550
	if !bd.NetCommission.Equal(m(5450)) {
		t.Errorf("expected net 5450, got %v", bd.NetCommission)
	}
}

// =============================================================================
// ORDERING AND DETERMINISM
// =============================================================================

func TestEngine_UnsortedInput_ProcessedInClosingDateOrder(t *testing.T) {
	// GIVEN: Transactions supplied Mar, Jan, Feb against a capped plan
	// WHEN: Calculating
	// THEN: YTD threads in closing-date order and the input slice is untouched

	jan := deal("t-jan", "Amanda Garcia", day(2025, time.January, 10), 500000, 2)
	feb := deal("t-feb", "Amanda Garcia", day(2025, time.February, 10), 500000, 2)
	mar := deal("t-mar", "Amanda Garcia", day(2025, time.March, 10), 500000, 2)

	input := []commission.TransactionInput{mar, jan, feb}
	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{cappedPlan(5000)},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-capped")},
		Transactions: input,
	})

	// GCI 10,000 each against a 5,000 cap with full post-cap retention:
	// Jan: mixed, brokerage = 5000 x 40% = 2000 (room 5000)
	// Feb: mixed, brokerage = 3000 x 40% = 1200 (room 3000)
	// Mar: mixed, brokerage = 1800 x 40% = 720  (room 1800)
	wantOrder := []commission.TransactionID{"t-jan", "t-feb", "t-mar"}
	wantBrokerage := []float64{2000, 1200, 720}
	for i, bd := range result.Breakdowns {
		if bd.TransactionID != wantOrder[i] {
			t.Errorf("breakdown %d: expected %s, got %s", i, wantOrder[i], bd.TransactionID)
		}
		if !bd.BrokerageSplitAmount.Equal(m(wantBrokerage[i])) {
			t.Errorf("breakdown %d: expected brokerage %v, got %v", i, wantBrokerage[i], bd.BrokerageSplitAmount)
		}
	}

	if input[0].ID != "t-mar" {
		t.Error("the engine must sort a copy, not the caller's slice")
	}
}

func TestEngine_Idempotent_SameInputSameOutput(t *testing.T) {
	// GIVEN: The same input calculated twice
	// THEN: Every derived number matches across runs

	input := commission.CalculationInput{
		Plans:       []commission.CommissionPlan{cappedPlan(8000), slidingPlan()},
		Assignments: []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-capped"), assign("Bob Lee", "plan-sliding")},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia, Bob Lee", day(2025, time.February, 1), 900000, 2.5),
			deal("t-2", "Bob Lee", day(2025, time.March, 1), 700000, 3),
			deal("t-3", "Amanda Garcia", day(2025, time.April, 1), 1200000, 2),
		},
	}

	first := calculate(t, input)
	second := calculate(t, input)

	if len(first.Breakdowns) != len(second.Breakdowns) {
		t.Fatalf("breakdown counts differ: %d vs %d", len(first.Breakdowns), len(second.Breakdowns))
	}
	for i := range first.Breakdowns {
		a, b := first.Breakdowns[i], second.Breakdowns[i]
		if !a.NetCommission.Equal(b.NetCommission) || !a.YTDAfter.Equal(b.YTDAfter) || a.SplitType != b.SplitType {
			t.Errorf("breakdown %d differs between runs", i)
		}
	}
	for i := range first.Summaries {
		a, b := first.Summaries[i], second.Summaries[i]
		if a.AgentName != b.AgentName || !a.CompanyDollar.Equal(b.CompanyDollar) {
			t.Errorf("summary %d differs between runs", i)
		}
	}
}

func TestEngine_NetIdentity_HoldsExactly(t *testing.T) {
	// THEN: net = afterTeamSplit - brokerage - royalty - deductions, exactly,
	// for every breakdown in a run that exercises teams, caps, and royalties.

	plan := cappedPlan(6000)
	plan.RoyaltyPercentage = 6
	plan.RoyaltyCap = m(3000)
	plan.Deductions = []commission.Deduction{{Name: "Transaction Fee", Amount: 295, Type: commission.DeductionFixed}}

	team := commission.Team{ID: "team-1", Name: "Garcia Group", SplitPercentage: 15}
	a1 := assign("Amanda Garcia", "plan-capped")
	a1.TeamID = teamRef("team-1")
	a2 := assign("Bob Lee", "plan-capped")

	result := calculate(t, commission.CalculationInput{
		Plans:       []commission.CommissionPlan{plan},
		Teams:       []commission.Team{team},
		Assignments: []commission.AgentPlanAssignment{a1, a2},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia, Bob Lee", day(2025, time.February, 1), 800000, 2.5),
			deal("t-2", "Amanda Garcia", day(2025, time.March, 1), 650000, 3),
			deal("t-3", "Bob Lee", day(2025, time.July, 15), 425000, 2.75),
		},
	})

	for i, bd := range result.Breakdowns {
		identity := bd.AfterTeamSplit.
			Sub(bd.BrokerageSplitAmount).
			Sub(bd.RoyaltyAmount).
			Sub(bd.TotalDeductions)
		if !bd.NetCommission.Equal(identity) {
			t.Errorf("breakdown %d: net %v != identity %v", i, bd.NetCommission, identity)
		}
	}
}

// =============================================================================
// IDENTITY NORMALIZATION
// =============================================================================

func TestEngine_AgentNameNormalization_OneAgentManySpellings(t *testing.T) {
	// GIVEN: Three deals naming the same agent with different spellings
	// THEN: One summary accumulates all three, under the canonical name

	result := calculate(t, commission.CalculationInput{
		Plans:       []commission.CommissionPlan{standardPlan()},
		Assignments: []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-standard")},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia", day(2025, time.March, 1), 500000, 2),
			deal("t-2", "amanda garcia", day(2025, time.April, 1), 500000, 2),
			deal("t-3", "  Amanda Garcia  ", day(2025, time.May, 1), 500000, 2),
		},
	})

	if len(result.Summaries) != 1 {
		t.Fatalf("expected a single summary, got %d", len(result.Summaries))
	}
	s := result.Summaries[0]
	if s.AgentName != "Amanda Garcia" {
		t.Errorf("expected canonical name, got %q", s.AgentName)
	}
	if s.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", s.TransactionCount)
	}
	if !s.CompanyDollar.Equal(m(12000)) {
		t.Errorf("expected accumulated company dollar 12000, got %v", s.CompanyDollar)
	}
	for _, bd := range result.Breakdowns {
		if bd.AgentName != "Amanda Garcia" {
			t.Errorf("breakdowns carry the canonical name, got %q", bd.AgentName)
		}
	}
}

// =============================================================================
// SKIP DIAGNOSTICS
// =============================================================================

func TestEngine_UnmatchedAgent_SkippedWithDiagnostic(t *testing.T) {
	// GIVEN: A two-agent deal where only one agent has an assignment
	// THEN: The known agent still gets half the GCI; the stranger is reported

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{standardPlan()},
		Assignments:  []commission.AgentPlanAssignment{assign("Known Agent", "plan-standard")},
		Transactions: []commission.TransactionInput{deal("t-1", "Known Agent, Mystery Guest", day(2025, time.March, 1), 500000, 2)},
	})

	if len(result.Breakdowns) != 1 {
		t.Fatalf("expected 1 breakdown, got %d", len(result.Breakdowns))
	}
	if !result.Breakdowns[0].GrossCommission.Equal(m(5000)) {
		t.Errorf("the divisor counts every slot: expected gross 5000, got %v", result.Breakdowns[0].GrossCommission)
	}

	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skip, got %d", len(result.Skipped))
	}
	skip := result.Skipped[0]
	if skip.Reason != commission.SkipUnmatchedAgent {
		t.Errorf("expected unmatched_agent, got %s", skip.Reason)
	}
	if skip.AgentName != "Mystery Guest" {
		t.Errorf("expected the raw name, got %q", skip.AgentName)
	}
	if skip.TransactionID != "t-1" {
		t.Errorf("expected transaction t-1, got %s", skip.TransactionID)
	}
}

func TestEngine_DanglingPlanReference_SkippedWithDiagnostic(t *testing.T) {
	// GIVEN: An assignment pointing at a plan that is not in the input
	// THEN: The share is skipped as missing_plan, not silently dropped

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{standardPlan()},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-ghost")},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.March, 1), 500000, 2)},
	})

	if len(result.Breakdowns) != 0 {
		t.Fatalf("expected no breakdowns, got %d", len(result.Breakdowns))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != commission.SkipMissingPlan {
		t.Fatalf("expected one missing_plan skip, got %+v", result.Skipped)
	}
}

func TestEngine_DanglingTeamReference_SkippedWithDiagnostic(t *testing.T) {
	// GIVEN: An assignment referencing a team that is not in the input
	// THEN: The share is skipped as missing_team

	member := assign("Amanda Garcia", "plan-standard")
	member.TeamID = teamRef("team-ghost")

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{standardPlan()},
		Assignments:  []commission.AgentPlanAssignment{member},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.March, 1), 500000, 2)},
	})

	if len(result.Skipped) != 1 || result.Skipped[0].Reason != commission.SkipMissingTeam {
		t.Fatalf("expected one missing_team skip, got %+v", result.Skipped)
	}
}

// =============================================================================
// CYCLES
// =============================================================================

func TestEngine_CalendarCycle_ResetsAtYearEnd(t *testing.T) {
	// GIVEN: Deals in December 2025 and January 2026
	// THEN: Two summaries, each with YTD starting from zero

	result := calculate(t, commission.CalculationInput{
		Plans:       []commission.CommissionPlan{standardPlan()},
		Assignments: []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-standard")},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia", day(2025, time.December, 20), 500000, 2),
			deal("t-2", "Amanda Garcia", day(2026, time.January, 5), 500000, 2),
		},
	})

	if len(result.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(result.Summaries))
	}
	for _, s := range result.Summaries {
		if !s.CompanyDollar.Equal(m(4000)) {
			t.Errorf("cycle %s: expected company dollar 4000, got %v", s.Cycle, s.CompanyDollar)
		}
		if s.TransactionCount != 1 {
			t.Errorf("cycle %s: expected 1 transaction, got %d", s.Cycle, s.TransactionCount)
		}
	}
	if result.Breakdowns[1].YTDBefore.IsPositive() {
		t.Error("January deal must start from a fresh YTD")
	}
}

func TestEngine_AnniversaryCycle_ResetsOnAnniversary(t *testing.T) {
	// GIVEN: An agent with a March 15 anniversary and deals either side of it
	// THEN: The deals land in different cycles

	agent := assign("Amanda Garcia", "plan-standard")
	agent.AnniversaryDate = "03-15"

	result := calculate(t, commission.CalculationInput{
		Plans:       []commission.CommissionPlan{standardPlan()},
		Assignments: []commission.AgentPlanAssignment{agent},
		Transactions: []commission.TransactionInput{
			deal("t-1", "Amanda Garcia", day(2025, time.March, 10), 500000, 2),
			deal("t-2", "Amanda Garcia", day(2025, time.March, 20), 500000, 2),
		},
	})

	if len(result.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(result.Summaries))
	}

	first, second := result.Summaries[0], result.Summaries[1]
	if !first.Cycle.Start.Equal(day(2024, time.March, 15)) || !first.Cycle.End.Equal(day(2025, time.March, 14)) {
		t.Errorf("expected cycle [2024-03-15, 2025-03-14], got %s", first.Cycle)
	}
	if !second.Cycle.Start.Equal(day(2025, time.March, 15)) {
		t.Errorf("expected second cycle to open on the anniversary, got %s", second.Cycle)
	}
	if result.Breakdowns[1].YTDBefore.IsPositive() {
		t.Error("crossing the anniversary must reset YTD")
	}
}

// =============================================================================
// EDGE CASES AND FAILURE MODES
// =============================================================================

func TestEngine_EmptyInput_EmptyResult(t *testing.T) {
	result := calculate(t, commission.CalculationInput{})

	if len(result.Breakdowns) != 0 || len(result.Summaries) != 0 ||
		len(result.Transitions) != 0 || len(result.Skipped) != 0 {
		t.Errorf("expected an empty result, got %+v", result)
	}
}

func TestEngine_ZeroCommission_AllOutputsZero(t *testing.T) {
	// GIVEN: A 0% commission rate and a plan with a fixed deduction
	// THEN: Everything is zero; the deduction is not charged against nothing

	plan := standardPlan()
	plan.Deductions = []commission.Deduction{{Name: "E&O Insurance", Amount: 50, Type: commission.DeductionFixed}}

	result := calculate(t, commission.CalculationInput{
		Plans:        []commission.CommissionPlan{plan},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-standard")},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.March, 1), 500000, 0)},
	})

	bd := result.Breakdowns[0]
	if !bd.GrossCommission.IsZero() || !bd.BrokerageSplitAmount.IsZero() ||
		!bd.TotalDeductions.IsZero() || !bd.NetCommission.IsZero() {
		t.Errorf("expected an all-zero breakdown, got %+v", bd)
	}
	if !bd.SplitType.Valid() {
		t.Errorf("split type must still be a valid enum value, got %q", bd.SplitType)
	}
}

func TestEngine_InvalidSlidingScale_FailsTheRun(t *testing.T) {
	// GIVEN: A sliding plan with no zero-threshold base tier
	// THEN: Calculate refuses to run

	plan := slidingPlan()
	plan.Tiers = []commission.CommissionTier{{Threshold: m(50000), SplitPercentage: 65, Description: "Mid"}}

	_, err := commission.NewEngine().Calculate(commission.CalculationInput{
		Plans:        []commission.CommissionPlan{plan},
		Assignments:  []commission.AgentPlanAssignment{assign("Amanda Garcia", "plan-sliding")},
		Transactions: []commission.TransactionInput{deal("t-1", "Amanda Garcia", day(2025, time.March, 1), 500000, 2)},
	})

	if err == nil {
		t.Fatal("expected an error for an invalid sliding scale")
	}
	if !errors.Is(err, commission.ErrInvalidTiers) {
		t.Errorf("expected ErrInvalidTiers, got %v", err)
	}
	var tve *commission.TierValidationError
	if !errors.As(err, &tve) {
		t.Fatalf("expected a TierValidationError, got %T", err)
	}
	if tve.PlanID != "plan-sliding" {
		t.Errorf("expected the offending plan ID, got %s", tve.PlanID)
	}
}

func TestEngine_NegativeCap_FailsTheRun(t *testing.T) {
	plan := standardPlan()
	plan.CapAmount = m(-1)

	_, err := commission.NewEngine().Calculate(commission.CalculationInput{
		Plans: []commission.CommissionPlan{plan},
	})

	if !errors.Is(err, commission.ErrNegativeCap) {
		t.Errorf("expected ErrNegativeCap, got %v", err)
	}
}
