/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	brokerage data for testing and demos. Each scenario creates plans,
	teams, assignments, and transactions that demonstrate specific engine
	features.

AVAILABLE SCENARIOS:

	small-brokerage:    Four agents on a flat 70/30 split with standard fees
	capped-team:        Team splits plus a producer blowing through the cap
	sliding-scale:      Graduated splits climbing with YTD company dollar
	franchise-royalty:  Capped split plus a capped franchise royalty
	anniversary-cycles: Cap cycles keyed to agent anniversaries

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create plans via factory presets
 3. Create teams and assignments
 4. Save a batch of closed transactions
 5. POST /api/calculate (or the scheduler) folds the dataset into a run

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "capped-team"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/presets.go: Plan preset builders
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/factory"
	"github.com/warp/commission-engine/store"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "small-brokerage",
		Name:        "Small Brokerage",
		Description: "Four agents on a flat 70/30 split with E&O and transaction fees",
		Category:    "splits",
	},
	{
		ID:          "capped-team",
		Name:        "Capped Team",
		Description: "80/20 split with a $16k cap; the team lead caps mid-year",
		Category:    "caps",
	},
	{
		ID:          "sliding-scale",
		Name:        "Sliding Scale",
		Description: "Graduated 60/65/70 splits climbing with YTD company dollar",
		Category:    "splits",
	},
	{
		ID:          "franchise-royalty",
		Name:        "Franchise Royalty",
		Description: "Capped split plus a 6% franchise royalty capped at $3,000",
		Category:    "caps",
	},
	{
		ID:          "anniversary-cycles",
		Name:        "Anniversary Cycles",
		Description: "Cap cycles keyed to each agent's anniversary instead of Jan 1",
		Category:    "cycles",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	// Find the scenario details
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.invalidateReports()
	h.currentScenario = "" // Clear current scenario on reset

	var err error
	switch req.ScenarioID {
	case "small-brokerage":
		err = h.loadSmallBrokerageScenario(ctx)
	case "capped-team":
		err = h.loadCappedTeamScenario(ctx)
	case "sliding-scale":
		err = h.loadSlidingScaleScenario(ctx)
	case "franchise-royalty":
		err = h.loadFranchiseRoyaltyScenario(ctx)
	case "anniversary-cycles":
		err = h.loadAnniversaryCyclesScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSmallBrokerageScenario(ctx context.Context) error {
	// Flat 70/30 split, no cap, standard per-transaction charges
	plan := factory.FlatSplitPlan("plan-70-30", "70/30 Split", 70)
	plan.Deductions = factory.StandardDeductions()
	if err := h.saveScenarioPlan(ctx, plan); err != nil {
		return err
	}

	// Four agents, all on calendar-year cycles
	agents := []string{"Amanda Garcia", "Sarah Miller", "James Wilson", "Emily Chen"}
	for _, name := range agents {
		record := store.AssignmentRecord{AgentName: name, PlanID: plan.ID}
		if err := h.Store.SaveAssignment(ctx, record); err != nil {
			return err
		}
	}

	// A spread of closings, including one co-listed sale that splits the
	// GCI evenly between two agents
	year := time.Now().Year()
	txs := []commission.TransactionInput{
		{
			ID: "loop-1001", LoopName: "123 Main St", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.January, 17),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(450000), CommissionRate: 3,
		},
		{
			ID: "loop-1002", LoopName: "456 Oak Ave", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.February, 3),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(380000), CommissionRate: 3,
		},
		{
			ID: "loop-1003", LoopName: "789 Pine Ln", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.February, 21),
			Agents:      "James Wilson",
			SalePrice:   commission.NewMoney(525000), CommissionRate: 2.5,
		},
		{
			ID: "loop-1004", LoopName: "321 Elm Dr", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.March, 14),
			Agents:      "Amanda Garcia, Sarah Miller",
			SalePrice:   commission.NewMoney(620000), CommissionRate: 3,
		},
		{
			ID: "loop-1005", LoopName: "654 Maple Ct", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.April, 8),
			Agents:      "Emily Chen",
			SalePrice:   commission.NewMoney(295000), CommissionRate: 3,
		},
		{
			ID: "loop-1006", LoopName: "987 Cedar Way", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.May, 30),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(710000), CommissionRate: 2.75,
		},
	}

	return h.Store.SaveTransactions(ctx, txs)
}

func (h *Handler) loadCappedTeamScenario(ctx context.Context) error {
	// 80/20 split until the agent has paid $16k of company dollar, then
	// 90/10 for the rest of the cycle
	plan := factory.CappedSplitPlan("plan-80-20-cap", "80/20 with $16k Cap", 80, 16000)
	plan.PostCapSplit = 90
	if err := h.saveScenarioPlan(ctx, plan); err != nil {
		return err
	}

	// Garcia Group takes 10% of member GCI before any brokerage math
	team := factory.TeamOf("team-garcia", "Garcia Group", "Amanda Garcia", 10)
	if err := h.Store.SaveTeam(ctx, store.TeamRecord{
		ID:              team.ID,
		Name:            team.Name,
		LeadAgent:       team.LeadAgent,
		SplitPercentage: team.SplitPercentage,
	}); err != nil {
		return err
	}

	assignments := []store.AssignmentRecord{
		{AgentName: "Amanda Garcia", PlanID: plan.ID, TeamID: team.ID},
		{AgentName: "Sarah Miller", PlanID: plan.ID, TeamID: team.ID},
		{AgentName: "James Wilson", PlanID: plan.ID},
	}
	for _, a := range assignments {
		if err := h.Store.SaveAssignment(ctx, a); err != nil {
			return err
		}
	}

	// Amanda runs all three split regimes. Her January condo stays pre-cap;
	// the March penthouse overruns the remaining cap room and carries her
	// past $16k of company dollar; the May closing is billed entirely at
	// the 10% post-cap rate
	year := time.Now().Year()
	txs := []commission.TransactionInput{
		{
			ID: "loop-2001", LoopName: "14 Harborview Ter", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.January, 24),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(550000), CommissionRate: 3,
		},
		{
			ID: "loop-2002", LoopName: "9 Summit Ridge Rd", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.March, 11),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(4750000), CommissionRate: 3,
		},
		{
			ID: "loop-2003", LoopName: "22 Lakeshore Blvd", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.May, 6),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(1200000), CommissionRate: 3,
		},
		{
			ID: "loop-2004", LoopName: "301 Birch Hollow", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.February, 18),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(480000), CommissionRate: 3,
		},
		{
			ID: "loop-2005", LoopName: "77 Foxglove Ln", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.April, 2),
			Agents:      "James Wilson",
			SalePrice:   commission.NewMoney(560000), CommissionRate: 2.5,
		},
	}

	return h.Store.SaveTransactions(ctx, txs)
}

func (h *Handler) loadSlidingScaleScenario(ctx context.Context) error {
	// 60% base split, 65% once YTD company dollar passes $10k, 70% past $25k
	plan := factory.SlidingScalePlan("plan-sliding", "Graduated 60/65/70",
		factory.GraduatedTiers(60, 10000, 25000))
	if err := h.saveScenarioPlan(ctx, plan); err != nil {
		return err
	}

	assignments := []store.AssignmentRecord{
		{AgentName: "Sarah Miller", PlanID: plan.ID},
		{AgentName: "Emily Chen", PlanID: plan.ID},
	}
	for _, a := range assignments {
		if err := h.Store.SaveAssignment(ctx, a); err != nil {
			return err
		}
	}

	// Sarah's first deal stays at the base tier. Her second carries YTD
	// company dollar past $10k, so the run records a tier transition on
	// it; her third opens on the 65% rung
	year := time.Now().Year()
	txs := []commission.TransactionInput{
		{
			ID: "loop-3001", LoopName: "18 Willow Bend", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.January, 9),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(500000), CommissionRate: 3,
		},
		{
			ID: "loop-3002", LoopName: "42 Juniper St", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.February, 27),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(600000), CommissionRate: 3,
		},
		{
			ID: "loop-3003", LoopName: "5 Copper Creek Dr", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.April, 15),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(700000), CommissionRate: 3,
		},
		{
			ID: "loop-3004", LoopName: "210 Garden Ct", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.March, 20),
			Agents:      "Emily Chen",
			SalePrice:   commission.NewMoney(340000), CommissionRate: 3,
		},
	}

	return h.Store.SaveTransactions(ctx, txs)
}

func (h *Handler) loadFranchiseRoyaltyScenario(ctx context.Context) error {
	// National franchise shape: 70/30 split capped at $23k of company
	// dollar, plus a 6% royalty on gross clamped to $3k per transaction
	plan := factory.FranchisePlan("plan-franchise", "Franchise 70/30", 70, 23000, 6, 3000)
	if err := h.saveScenarioPlan(ctx, plan); err != nil {
		return err
	}

	assignments := []store.AssignmentRecord{
		{AgentName: "James Wilson", PlanID: plan.ID},
		{AgentName: "Emily Chen", PlanID: plan.ID},
	}
	for _, a := range assignments {
		if err := h.Store.SaveAssignment(ctx, a); err != nil {
			return err
		}
	}

	// James pays $1,170 of royalty on the first closing. The second would
	// owe $3,240 but clamps to the $3k royalty cap; its gross also
	// overruns the remaining cap room, so its brokerage split goes mixed
	year := time.Now().Year()
	txs := []commission.TransactionInput{
		{
			ID: "loop-4001", LoopName: "830 Kingsbridge Ave", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.January, 31),
			Agents:      "James Wilson",
			SalePrice:   commission.NewMoney(650000), CommissionRate: 3,
		},
		{
			ID: "loop-4002", LoopName: "12 Beacon Hill Way", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.March, 19),
			Agents:      "James Wilson",
			SalePrice:   commission.NewMoney(1800000), CommissionRate: 3,
		},
		{
			ID: "loop-4003", LoopName: "67 Sycamore Pl", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.April, 22),
			Agents:      "Emily Chen",
			SalePrice:   commission.NewMoney(410000), CommissionRate: 3,
		},
	}

	return h.Store.SaveTransactions(ctx, txs)
}

func (h *Handler) loadAnniversaryCyclesScenario(ctx context.Context) error {
	// Cap cycles run anniversary-to-anniversary rather than Jan 1 to Dec 31
	plan := factory.CappedSplitPlan("plan-85-15-cap", "85/15 with $20k Cap", 85, 20000)
	if err := h.saveScenarioPlan(ctx, plan); err != nil {
		return err
	}

	assignments := []store.AssignmentRecord{
		{AgentName: "Amanda Garcia", PlanID: plan.ID, AnniversaryDate: "03-15"},
		{AgentName: "Sarah Miller", PlanID: plan.ID, AnniversaryDate: "09-01"},
	}
	for _, a := range assignments {
		if err := h.Store.SaveAssignment(ctx, a); err != nil {
			return err
		}
	}

	// Amanda's January closing lands in the cycle that started last March;
	// her April closing starts a fresh cycle with YTD back at zero
	year := time.Now().Year()
	txs := []commission.TransactionInput{
		{
			ID: "loop-5001", LoopName: "48 Province Rd", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.January, 12),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(520000), CommissionRate: 3,
		},
		{
			ID: "loop-5002", LoopName: "15 Cranberry Ln", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.April, 4),
			Agents:      "Amanda Garcia",
			SalePrice:   commission.NewMoney(585000), CommissionRate: 3,
		},
		{
			ID: "loop-5003", LoopName: "93 Thornton Cir", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.June, 26),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(445000), CommissionRate: 3,
		},
		{
			ID: "loop-5004", LoopName: "7 Old Mill Xing", Status: "Sold",
			ClosingDate: commission.NewDate(year, time.September, 10),
			Agents:      "Sarah Miller",
			SalePrice:   commission.NewMoney(610000), CommissionRate: 3,
		},
	}

	return h.Store.SaveTransactions(ctx, txs)
}

func (h *Handler) saveScenarioPlan(ctx context.Context, plan commission.CommissionPlan) error {
	cfg := h.Factory.PlanToJSON(plan)
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	return h.Store.SavePlan(ctx, store.PlanRecord{
		ID:         plan.ID,
		Name:       plan.Name,
		ConfigJSON: string(configJSON),
	})
}
