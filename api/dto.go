/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: Money becomes
  a JSON float, Date becomes "YYYY-MM-DD", and internal pointer fields
  (team references) flatten to optional strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Registry:
    PlanDTO, CreatePlanRequest, TeamDTO, CreateTeamRequest,
    AssignmentDTO, CreateAssignmentRequest

  Transactions:
    TransactionDTO, CreateTransactionsRequest, ImportResultDTO

  Calculation:
    RunDTO, ResultDTO, BreakdownDTO, SummaryDTO, TransitionDTO,
    SkippedAgentDTO, CalculateResponse

  Scenarios:
    ScenarioDTO

VALIDATION:
  Validation is done in handlers (via the factory), not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/registry.go: PlanJSON/TeamJSON/AssignmentJSON config types
*/
package api

import (
	"time"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/factory"
	"github.com/warp/commission-engine/ingest"
	"github.com/warp/commission-engine/store"
)

// =============================================================================
// REGISTRY TYPES
// =============================================================================

// PlanDTO represents a commission plan in API responses.
type PlanDTO struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Config    factory.PlanJSON `json:"config"`
	CreatedAt string           `json:"created_at,omitempty"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

// CreatePlanRequest is the request to create a plan.
type CreatePlanRequest struct {
	Config factory.PlanJSON `json:"config"`
}

// TeamDTO represents a team in API responses.
type TeamDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	LeadAgent       string  `json:"lead_agent,omitempty"`
	SplitPercentage float64 `json:"split_percentage"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// CreateTeamRequest is the request to create a team.
type CreateTeamRequest struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	LeadAgent       string  `json:"lead_agent,omitempty"`
	SplitPercentage float64 `json:"split_percentage"`
}

// AssignmentDTO represents an agent's plan assignment.
type AssignmentDTO struct {
	AgentName       string `json:"agent_name"`
	PlanID          string `json:"plan_id"`
	PlanName        string `json:"plan_name,omitempty"`
	TeamID          string `json:"team_id,omitempty"`
	TeamName        string `json:"team_name,omitempty"`
	AnniversaryDate string `json:"anniversary_date,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// CreateAssignmentRequest is the request to assign an agent to a plan.
type CreateAssignmentRequest struct {
	AgentName       string `json:"agent_name"`
	PlanID          string `json:"plan_id"`
	TeamID          string `json:"team_id,omitempty"`
	AnniversaryDate string `json:"anniversary_date,omitempty"` // "MM-DD"
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// DeductionDTO is a plan charge or transaction adjustment.
type DeductionDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"` // fixed or percentage
}

// TransactionDTO represents one closed transaction.
type TransactionDTO struct {
	ID              string         `json:"id"`
	LoopName        string         `json:"loop_name,omitempty"`
	Status          string         `json:"status,omitempty"`
	ClosingDate     string         `json:"closing_date"`
	Agents          string         `json:"agents"`
	SalePrice       float64        `json:"sale_price"`
	CommissionRate  float64        `json:"commission_rate"`
	BuySidePercent  float64        `json:"buy_side_percent,omitempty"`
	SellSidePercent float64        `json:"sell_side_percent,omitempty"`
	Adjustments     []DeductionDTO `json:"adjustments,omitempty"`
}

// CreateTransactionsRequest is the request to record transactions manually.
type CreateTransactionsRequest struct {
	Transactions []TransactionDTO `json:"transactions"`
}

// SkippedRowDTO is one CSV row that could not be imported.
type SkippedRowDTO struct {
	Line     int    `json:"line"`
	LoopID   string `json:"loop_id,omitempty"`
	LoopName string `json:"loop_name,omitempty"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// ImportResultDTO is the outcome of a CSV import.
type ImportResultDTO struct {
	Imported  int             `json:"imported"`
	Filtered  int             `json:"filtered"`
	TotalRows int             `json:"total_rows"`
	Skipped   []SkippedRowDTO `json:"skipped,omitempty"`
}

// =============================================================================
// CALCULATION TYPES
// =============================================================================

// RunDTO represents one calculation run.
type RunDTO struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	DatasetVersion   int64  `json:"dataset_version"`
	Stale            bool   `json:"stale"`
	TransactionCount int    `json:"transaction_count"`
	AgentCount       int    `json:"agent_count"`
	StartedAt        string `json:"started_at"`
	CompletedAt      string `json:"completed_at"`
	DurationMS       int64  `json:"duration_ms"`
}

// BreakdownDeductionDTO is one itemized charge on a breakdown.
type BreakdownDeductionDTO struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// BreakdownDTO is the audit record for one agent share of one transaction.
type BreakdownDTO struct {
	TransactionID string `json:"transaction_id"`
	LoopName      string `json:"loop_name,omitempty"`
	ClosingDate   string `json:"closing_date"`
	AgentName     string `json:"agent_name"`

	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`

	GrossCommission float64 `json:"gross_commission"`

	TeamSplitPercent float64 `json:"team_split_percent,omitempty"`
	TeamSplitAmount  float64 `json:"team_split_amount,omitempty"`
	AfterTeamSplit   float64 `json:"after_team_split"`

	SplitType             string  `json:"split_type"`
	BrokerageSplitAmount  float64 `json:"brokerage_split_amount"`
	BrokerageSplitPercent float64 `json:"brokerage_split_percent"`

	RoyaltyPercent float64 `json:"royalty_percent,omitempty"`
	RoyaltyAmount  float64 `json:"royalty_amount,omitempty"`

	Deductions      []BreakdownDeductionDTO `json:"deductions,omitempty"`
	TotalDeductions float64                 `json:"total_deductions"`

	NetCommission float64 `json:"net_commission"`

	YTDBefore    float64 `json:"ytd_before"`
	YTDAfter     float64 `json:"ytd_after"`
	CapAmount    float64 `json:"cap_amount,omitempty"`
	PercentToCap float64 `json:"percent_to_cap"`
	IsCapped     bool    `json:"is_capped"`
}

// SummaryDTO is one agent's YTD position for one cycle.
type SummaryDTO struct {
	AgentName string `json:"agent_name"`
	PlanID    string `json:"plan_id"`
	PlanName  string `json:"plan_name,omitempty"`
	TeamID    string `json:"team_id,omitempty"`
	TeamName  string `json:"team_name,omitempty"`

	CycleStart      string `json:"cycle_start"`
	CycleEnd        string `json:"cycle_end"`
	AnniversaryDate string `json:"anniversary_date,omitempty"`

	CompanyDollar    float64 `json:"company_dollar"`
	GrossCommission  float64 `json:"gross_commission"`
	NetCommission    float64 `json:"net_commission"`
	TotalDeductions  float64 `json:"total_deductions"`
	TotalRoyalties   float64 `json:"total_royalties"`
	TransactionCount int     `json:"transaction_count"`

	CapAmount      float64 `json:"cap_amount,omitempty"`
	RemainingToCap float64 `json:"remaining_to_cap"`
	PercentToCap   float64 `json:"percent_to_cap"`
	IsCapped       bool    `json:"is_capped"`
}

// TransitionDTO records a sliding-scale agent crossing a tier threshold.
type TransitionDTO struct {
	AgentName        string  `json:"agent_name"`
	TransactionID    string  `json:"transaction_id"`
	LoopName         string  `json:"loop_name,omitempty"`
	ClosingDate      string  `json:"closing_date"`
	PlanID           string  `json:"plan_id"`
	FromTier         int     `json:"from_tier"`
	ToTier           int     `json:"to_tier"`
	FromSplitPercent float64 `json:"from_split_percent"`
	ToSplitPercent   float64 `json:"to_split_percent"`
	ToDescription    string  `json:"to_description,omitempty"`
	YTDAfter         float64 `json:"ytd_after"`
}

// SkippedAgentDTO is one agent share the run could not process.
type SkippedAgentDTO struct {
	TransactionID string `json:"transaction_id"`
	LoopName      string `json:"loop_name,omitempty"`
	AgentName     string `json:"agent_name"`
	Reason        string `json:"reason"`
}

// ResultDTO bundles everything one run produced.
type ResultDTO struct {
	Breakdowns  []BreakdownDTO    `json:"breakdowns"`
	Summaries   []SummaryDTO      `json:"summaries"`
	Transitions []TransitionDTO   `json:"transitions"`
	Skipped     []SkippedAgentDTO `json:"skipped"`
}

// CalculateResponse is the response after triggering a calculation.
type CalculateResponse struct {
	Run    RunDTO    `json:"run"`
	Result ResultDTO `json:"result"`
}

// AgentSummaryResponse wraps a cached per-agent view of the latest run.
type AgentSummaryResponse struct {
	RunID          string     `json:"run_id"`
	DatasetVersion int64      `json:"dataset_version"`
	Stale          bool       `json:"stale"`
	Summary        SummaryDTO `json:"summary"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTransactionDTO(tx commission.TransactionInput) TransactionDTO {
	dto := TransactionDTO{
		ID:              string(tx.ID),
		LoopName:        tx.LoopName,
		Status:          tx.Status,
		ClosingDate:     tx.ClosingDate.String(),
		Agents:          tx.Agents,
		SalePrice:       tx.SalePrice.Float64(),
		CommissionRate:  tx.CommissionRate,
		BuySidePercent:  tx.BuySidePercent,
		SellSidePercent: tx.SellSidePercent,
	}
	for _, adj := range tx.Adjustments {
		dto.Adjustments = append(dto.Adjustments, DeductionDTO{
			Name:   adj.Name,
			Amount: adj.Amount,
			Type:   string(adj.Type),
		})
	}
	return dto
}

func toBreakdownDTO(b commission.CommissionBreakdown) BreakdownDTO {
	dto := BreakdownDTO{
		TransactionID: string(b.TransactionID),
		LoopName:      b.LoopName,
		ClosingDate:   b.ClosingDate.String(),
		AgentName:     b.AgentName,

		PlanID:   string(b.PlanID),
		PlanName: b.PlanName,
		TeamID:   string(b.TeamID),
		TeamName: b.TeamName,

		GrossCommission: b.GrossCommission.Float64(),

		TeamSplitPercent: b.TeamSplitPercent,
		TeamSplitAmount:  b.TeamSplitAmount.Float64(),
		AfterTeamSplit:   b.AfterTeamSplit.Float64(),

		SplitType:             string(b.SplitType),
		BrokerageSplitAmount:  b.BrokerageSplitAmount.Float64(),
		BrokerageSplitPercent: b.BrokerageSplitPercent,

		RoyaltyPercent: b.RoyaltyPercent,
		RoyaltyAmount:  b.RoyaltyAmount.Float64(),

		TotalDeductions: b.TotalDeductions.Float64(),
		NetCommission:   b.NetCommission.Float64(),

		YTDBefore:    b.YTDBefore.Float64(),
		YTDAfter:     b.YTDAfter.Float64(),
		CapAmount:    b.CapAmount.Float64(),
		PercentToCap: b.PercentToCap,
		IsCapped:     b.IsCapped,
	}
	for _, d := range b.Deductions {
		dto.Deductions = append(dto.Deductions, BreakdownDeductionDTO{
			Name:   d.Name,
			Type:   string(d.Type),
			Amount: d.Amount.Float64(),
		})
	}
	return dto
}

func toSummaryDTO(s commission.AgentYTDSummary) SummaryDTO {
	return SummaryDTO{
		AgentName: s.AgentName,
		PlanID:    string(s.PlanID),
		PlanName:  s.PlanName,
		TeamID:    string(s.TeamID),
		TeamName:  s.TeamName,

		CycleStart:      s.Cycle.Start.String(),
		CycleEnd:        s.Cycle.End.String(),
		AnniversaryDate: s.AnniversaryDate,

		CompanyDollar:    s.CompanyDollar.Float64(),
		GrossCommission:  s.GrossCommission.Float64(),
		NetCommission:    s.NetCommission.Float64(),
		TotalDeductions:  s.TotalDeductions.Float64(),
		TotalRoyalties:   s.TotalRoyalties.Float64(),
		TransactionCount: s.TransactionCount,

		CapAmount:      s.CapAmount.Float64(),
		RemainingToCap: s.RemainingToCap.Float64(),
		PercentToCap:   s.PercentToCap,
		IsCapped:       s.IsCapped,
	}
}

func toTransitionDTO(t commission.TierTransition) TransitionDTO {
	return TransitionDTO{
		AgentName:        t.AgentName,
		TransactionID:    string(t.TransactionID),
		LoopName:         t.LoopName,
		ClosingDate:      t.ClosingDate.String(),
		PlanID:           string(t.PlanID),
		FromTier:         t.FromTier,
		ToTier:           t.ToTier,
		FromSplitPercent: t.FromSplitPercent,
		ToSplitPercent:   t.ToSplitPercent,
		ToDescription:    t.ToDescription,
		YTDAfter:         t.YTDAfter.Float64(),
	}
}

func toSkippedAgentDTO(s commission.SkippedAgent) SkippedAgentDTO {
	return SkippedAgentDTO{
		TransactionID: string(s.TransactionID),
		LoopName:      s.LoopName,
		AgentName:     s.AgentName,
		Reason:        string(s.Reason),
	}
}

// toResultDTO keeps the slices non-nil so empty runs serialize as [] instead
// of null.
func toResultDTO(res *commission.Result) ResultDTO {
	dto := ResultDTO{
		Breakdowns:  make([]BreakdownDTO, 0, len(res.Breakdowns)),
		Summaries:   make([]SummaryDTO, 0, len(res.Summaries)),
		Transitions: make([]TransitionDTO, 0, len(res.Transitions)),
		Skipped:     make([]SkippedAgentDTO, 0, len(res.Skipped)),
	}
	for _, b := range res.Breakdowns {
		dto.Breakdowns = append(dto.Breakdowns, toBreakdownDTO(b))
	}
	for _, s := range res.Summaries {
		dto.Summaries = append(dto.Summaries, toSummaryDTO(s))
	}
	for _, t := range res.Transitions {
		dto.Transitions = append(dto.Transitions, toTransitionDTO(t))
	}
	for _, s := range res.Skipped {
		dto.Skipped = append(dto.Skipped, toSkippedAgentDTO(s))
	}
	return dto
}

func toRunDTO(rec store.RunRecord, currentVersion int64) RunDTO {
	return RunDTO{
		ID:               string(rec.ID),
		Status:           string(rec.Status),
		Error:            rec.Error,
		DatasetVersion:   rec.DatasetVersion,
		Stale:            rec.DatasetVersion < currentVersion,
		TransactionCount: rec.TransactionCount,
		AgentCount:       rec.AgentCount,
		StartedAt:        rec.StartedAt.Format(time.RFC3339),
		CompletedAt:      rec.CompletedAt.Format(time.RFC3339),
		DurationMS:       rec.CompletedAt.Sub(rec.StartedAt).Milliseconds(),
	}
}

func toSkippedRowDTOs(rows []ingest.SkippedRow) []SkippedRowDTO {
	dtos := make([]SkippedRowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = SkippedRowDTO{
			Line:     r.Line,
			LoopID:   r.LoopID,
			LoopName: r.LoopName,
			Reason:   string(r.Reason),
			Detail:   r.Detail,
		}
	}
	return dtos
}
