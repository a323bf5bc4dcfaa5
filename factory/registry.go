/*
Package factory provides JSON to Go commission-registry conversion.

PURPOSE:
  Converts JSON registry documents into commission plans, teams, and agent
  assignments. This enables commission configuration without code changes -
  a broker can define the whole compensation structure in JSON, and the
  factory creates the proper Go structs, applies defaults, and validates
  them before anything reaches the engine.

WHY JSON?
  - Non-developers can modify plans
  - Easy integration with an admin UI
  - Version control for compensation structures
  - Database storage of registry documents

JSON SCHEMA:
  {
    "plans": [{
      "id": "plan-franchise",
      "name": "70/30 Franchise",
      "split_percentage": 70,
      "cap_amount": 18000,
      "post_cap_split": 100,
      "royalty_percentage": 6,
      "royalty_cap": 3000,
      "deductions": [
        {"name": "E&O Insurance", "amount": 40, "type": "fixed"}
      ],
      "use_sliding": false,
      "tiers": []
    }],
    "teams": [
      {"id": "team-alpha", "name": "Alpha Group",
       "lead_agent": "Sarah Miller", "split_percentage": 10}
    ],
    "assignments": [
      {"agent_name": "Amanda Garcia", "plan_id": "plan-franchise",
       "team_id": "team-alpha", "anniversary_date": "03-15"}
    ]
  }

KEY FEATURES:
  - Validates structure before plans enter the registry
  - Sets sensible defaults (post_cap_split defaults to 100)
  - Rejects dangling plan/team references inside a document
  - Sliding scales go through the full tier validator

USAGE:
  factory := NewRegistryFactory()

  // From a JSON document
  reg, err := factory.ParseRegistry(jsonString)

  // Feed the engine
  result, err := commission.NewEngine().Calculate(reg.Input(transactions))

SEE ALSO:
  - commission/plan.go: Plan, team, and assignment definitions
  - commission/tier.go: The tier validator this factory runs
  - presets.go: Ready-made plan shapes for scenarios and tests
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RegistryJSON is the JSON representation of a full commission registry.
type RegistryJSON struct {
	Plans       []PlanJSON       `json:"plans"`
	Teams       []TeamJSON       `json:"teams,omitempty"`
	Assignments []AssignmentJSON `json:"assignments"`
}

// PlanJSON is the JSON representation of one commission plan.
type PlanJSON struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	SplitPercentage   float64         `json:"split_percentage"`
	CapAmount         float64         `json:"cap_amount,omitempty"`
	PostCapSplit      *float64        `json:"post_cap_split,omitempty"` // default 100
	RoyaltyPercentage float64         `json:"royalty_percentage,omitempty"`
	RoyaltyCap        float64         `json:"royalty_cap,omitempty"`
	Deductions        []DeductionJSON `json:"deductions,omitempty"`
	UseSliding        bool            `json:"use_sliding,omitempty"`
	Tiers             []TierJSON      `json:"tiers,omitempty"`
}

// TierJSON is one rung of a sliding scale.
type TierJSON struct {
	Threshold       float64 `json:"threshold"`
	SplitPercentage float64 `json:"split_percentage"`
	Description     string  `json:"description"`
}

// DeductionJSON is a recurring plan charge or a transaction adjustment.
type DeductionJSON struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"` // fixed (default) or percentage
}

// TeamJSON is the JSON representation of a team.
type TeamJSON struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	LeadAgent       string  `json:"lead_agent,omitempty"`
	SplitPercentage float64 `json:"split_percentage"`
}

// AssignmentJSON links an agent name to a plan and optionally a team.
type AssignmentJSON struct {
	AgentName       string `json:"agent_name"`
	PlanID          string `json:"plan_id"`
	TeamID          string `json:"team_id,omitempty"`
	AnniversaryDate string `json:"anniversary_date,omitempty"` // "MM-DD"
}

// =============================================================================
// REGISTRY - The parsed configuration bundle
// =============================================================================

// Registry is a validated set of plans, teams, and assignments ready for
// the engine.
type Registry struct {
	Plans       []commission.CommissionPlan
	Teams       []commission.Team
	Assignments []commission.AgentPlanAssignment
}

// Input pairs the registry with a transaction set for Engine.Calculate.
func (r *Registry) Input(transactions []commission.TransactionInput) commission.CalculationInput {
	return commission.CalculationInput{
		Plans:        r.Plans,
		Teams:        r.Teams,
		Assignments:  r.Assignments,
		Transactions: transactions,
	}
}

// =============================================================================
// REGISTRY FACTORY
// =============================================================================

// RegistryFactory converts JSON registries to Go structs.
type RegistryFactory struct{}

// NewRegistryFactory creates a new registry factory.
func NewRegistryFactory() *RegistryFactory {
	return &RegistryFactory{}
}

// ParseRegistry parses a JSON document into a validated Registry.
func (f *RegistryFactory) ParseRegistry(jsonStr string) (*Registry, error) {
	var rj RegistryJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse registry JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts RegistryJSON to a Registry. Every plan is validated on
// the way in; dangling references between assignments and plans/teams are
// rejected because a registry document is self-contained.
func (f *RegistryFactory) FromJSON(rj RegistryJSON) (*Registry, error) {
	reg := &Registry{}

	planIDs := map[commission.PlanID]bool{}
	for _, pj := range rj.Plans {
		plan, err := f.PlanFromJSON(pj)
		if err != nil {
			return nil, err
		}
		if planIDs[plan.ID] {
			return nil, fmt.Errorf("duplicate plan id: %s", plan.ID)
		}
		planIDs[plan.ID] = true
		reg.Plans = append(reg.Plans, plan)
	}

	teamIDs := map[commission.TeamID]bool{}
	for _, tj := range rj.Teams {
		team, err := f.TeamFromJSON(tj)
		if err != nil {
			return nil, err
		}
		if teamIDs[team.ID] {
			return nil, fmt.Errorf("duplicate team id: %s", team.ID)
		}
		teamIDs[team.ID] = true
		reg.Teams = append(reg.Teams, team)
	}

	for _, aj := range rj.Assignments {
		assignment, err := f.AssignmentFromJSON(aj)
		if err != nil {
			return nil, err
		}
		if !planIDs[assignment.PlanID] {
			return nil, fmt.Errorf("assignment for %q references unknown plan %s: %w",
				assignment.AgentName, assignment.PlanID, commission.ErrPlanNotFound)
		}
		if assignment.TeamID != nil && !teamIDs[*assignment.TeamID] {
			return nil, fmt.Errorf("assignment for %q references unknown team %s: %w",
				assignment.AgentName, *assignment.TeamID, commission.ErrTeamNotFound)
		}
		reg.Assignments = append(reg.Assignments, assignment)
	}

	return reg, nil
}

// ToJSON converts a Registry back to its JSON representation.
func (f *RegistryFactory) ToJSON(reg *Registry) RegistryJSON {
	rj := RegistryJSON{}
	for _, p := range reg.Plans {
		rj.Plans = append(rj.Plans, f.PlanToJSON(p))
	}
	for _, t := range reg.Teams {
		rj.Teams = append(rj.Teams, f.TeamToJSON(t))
	}
	for _, a := range reg.Assignments {
		rj.Assignments = append(rj.Assignments, f.AssignmentToJSON(a))
	}
	return rj
}

// =============================================================================
// PLAN CONVERSION
// =============================================================================

// PlanFromJSON converts one PlanJSON, applying defaults and running the
// same validation the engine would fail on later. Callers get the error at
// configuration time instead of calculation time.
func (f *RegistryFactory) PlanFromJSON(pj PlanJSON) (commission.CommissionPlan, error) {
	var zero commission.CommissionPlan

	if pj.ID == "" {
		return zero, fmt.Errorf("plan is missing an id")
	}
	if pj.SplitPercentage < 0 || pj.SplitPercentage > 100 {
		return zero, fmt.Errorf("plan %s: split_percentage %.2f out of range [0, 100]", pj.ID, pj.SplitPercentage)
	}
	if pj.RoyaltyPercentage < 0 || pj.RoyaltyPercentage > 100 {
		return zero, fmt.Errorf("plan %s: royalty_percentage %.2f out of range [0, 100]", pj.ID, pj.RoyaltyPercentage)
	}

	// Agents on capped plans typically keep everything once capped.
	postCap := 100.0
	if pj.PostCapSplit != nil {
		postCap = *pj.PostCapSplit
		if postCap < 0 || postCap > 100 {
			return zero, fmt.Errorf("plan %s: post_cap_split %.2f out of range [0, 100]", pj.ID, postCap)
		}
	}

	plan := commission.CommissionPlan{
		ID:                commission.PlanID(pj.ID),
		Name:              pj.Name,
		SplitPercentage:   pj.SplitPercentage,
		CapAmount:         commission.NewMoney(pj.CapAmount),
		PostCapSplit:      postCap,
		RoyaltyPercentage: pj.RoyaltyPercentage,
		RoyaltyCap:        commission.NewMoney(pj.RoyaltyCap),
		UseSliding:        pj.UseSliding,
	}

	if plan.CapAmount.IsNegative() {
		return zero, &commission.NegativeCapError{PlanID: plan.ID, Cap: plan.CapAmount}
	}

	for _, dj := range pj.Deductions {
		d, err := deductionFromJSON(dj)
		if err != nil {
			return zero, fmt.Errorf("plan %s: %w", pj.ID, err)
		}
		plan.Deductions = append(plan.Deductions, d)
	}

	for _, tj := range pj.Tiers {
		plan.Tiers = append(plan.Tiers, commission.CommissionTier{
			Threshold:       commission.NewMoney(tj.Threshold),
			SplitPercentage: tj.SplitPercentage,
			Description:     tj.Description,
		})
	}

	if validation := commission.ValidateTiers(plan); !validation.Valid {
		return zero, &commission.TierValidationError{PlanID: plan.ID, Errors: validation.Errors}
	}

	return plan, nil
}

// PlanToJSON converts a plan to its JSON representation.
func (f *RegistryFactory) PlanToJSON(p commission.CommissionPlan) PlanJSON {
	postCap := p.PostCapSplit
	pj := PlanJSON{
		ID:                string(p.ID),
		Name:              p.Name,
		SplitPercentage:   p.SplitPercentage,
		CapAmount:         p.CapAmount.Float64(),
		PostCapSplit:      &postCap,
		RoyaltyPercentage: p.RoyaltyPercentage,
		RoyaltyCap:        p.RoyaltyCap.Float64(),
		UseSliding:        p.UseSliding,
	}
	for _, d := range p.Deductions {
		pj.Deductions = append(pj.Deductions, DeductionJSON{
			Name:   d.Name,
			Amount: d.Amount,
			Type:   string(d.Type),
		})
	}
	for _, t := range p.Tiers {
		pj.Tiers = append(pj.Tiers, TierJSON{
			Threshold:       t.Threshold.Float64(),
			SplitPercentage: t.SplitPercentage,
			Description:     t.Description,
		})
	}
	return pj
}

// =============================================================================
// TEAM AND ASSIGNMENT CONVERSION
// =============================================================================

func (f *RegistryFactory) TeamFromJSON(tj TeamJSON) (commission.Team, error) {
	var zero commission.Team
	if tj.ID == "" {
		return zero, fmt.Errorf("team is missing an id")
	}
	if tj.SplitPercentage < 0 || tj.SplitPercentage > 100 {
		return zero, fmt.Errorf("team %s: split_percentage %.2f out of range [0, 100]", tj.ID, tj.SplitPercentage)
	}
	return commission.Team{
		ID:              commission.TeamID(tj.ID),
		Name:            tj.Name,
		LeadAgent:       tj.LeadAgent,
		SplitPercentage: tj.SplitPercentage,
	}, nil
}

func (f *RegistryFactory) TeamToJSON(t commission.Team) TeamJSON {
	return TeamJSON{
		ID:              string(t.ID),
		Name:            t.Name,
		LeadAgent:       t.LeadAgent,
		SplitPercentage: t.SplitPercentage,
	}
}

func (f *RegistryFactory) AssignmentFromJSON(aj AssignmentJSON) (commission.AgentPlanAssignment, error) {
	var zero commission.AgentPlanAssignment
	if aj.AgentName == "" {
		return zero, fmt.Errorf("assignment is missing an agent_name")
	}
	if aj.PlanID == "" {
		return zero, fmt.Errorf("assignment for %q is missing a plan_id", aj.AgentName)
	}
	if !commission.ValidAnniversary(aj.AnniversaryDate) {
		return zero, fmt.Errorf("assignment for %q: anniversary_date %q is not MM-DD", aj.AgentName, aj.AnniversaryDate)
	}

	assignment := commission.AgentPlanAssignment{
		AgentName:       aj.AgentName,
		PlanID:          commission.PlanID(aj.PlanID),
		AnniversaryDate: aj.AnniversaryDate,
	}
	if aj.TeamID != "" {
		teamID := commission.TeamID(aj.TeamID)
		assignment.TeamID = &teamID
	}
	return assignment, nil
}

func (f *RegistryFactory) AssignmentToJSON(a commission.AgentPlanAssignment) AssignmentJSON {
	aj := AssignmentJSON{
		AgentName:       a.AgentName,
		PlanID:          string(a.PlanID),
		AnniversaryDate: a.AnniversaryDate,
	}
	if a.TeamID != nil {
		aj.TeamID = string(*a.TeamID)
	}
	return aj
}

// =============================================================================
// DEDUCTION PARSING
// =============================================================================

func deductionFromJSON(dj DeductionJSON) (commission.Deduction, error) {
	var zero commission.Deduction
	if dj.Name == "" {
		return zero, fmt.Errorf("deduction is missing a name")
	}

	// Omitted type means a flat dollar charge.
	dtype := commission.DeductionType(dj.Type)
	if dj.Type == "" {
		dtype = commission.DeductionFixed
	}
	if !dtype.Valid() {
		return zero, fmt.Errorf("deduction %q: unknown type %q", dj.Name, dj.Type)
	}

	return commission.Deduction{
		Name:   dj.Name,
		Amount: dj.Amount,
		Type:   dtype,
	}, nil
}
