/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the commission engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Plans:
    GET    /api/plans                  List all plans
    POST   /api/plans                  Create plan from JSON config
    GET    /api/plans/{id}             Get plan details
    DELETE /api/plans/{id}             Delete plan

  Teams:
    GET    /api/teams                  List all teams
    POST   /api/teams                  Create team
    GET    /api/teams/{id}             Get team
    DELETE /api/teams/{id}             Delete team

  Assignments:
    GET    /api/assignments            List all assignments
    POST   /api/assignments            Assign an agent to a plan
    GET    /api/assignments/{name}     Get one agent's assignment
    DELETE /api/assignments/{name}     Remove an assignment

  Transactions:
    GET    /api/transactions           List imported transactions
    POST   /api/transactions           Record transactions manually
    POST   /api/transactions/import    Upload a dotloop CSV export

  Calculation:
    POST   /api/calculate              Run the engine, persist a run
    GET    /api/runs                   Run history (newest first)
    GET    /api/runs/{id}              One run
    GET    /api/runs/{id}/breakdowns   Per-transaction audit records
    GET    /api/runs/{id}/summaries    Per-agent YTD summaries
    GET    /api/agents/{name}/summary  Cached latest-run view for one agent

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: persistence (any store.Store implementation)
  - Factory: JSON config to domain conversion and validation
  - reports: go-cache for derived agent summaries

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input via the factory
  3. Call domain logic (engine, ingest, store)
  4. Serialize response
  5. Handle errors

CACHING:
  Agent summary responses are cached until the TTL expires or any dataset
  mutation flushes the cache. Runs themselves are read straight from the
  store; only derived per-agent views are cached.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, engine config rejection
  - 404: Resource not found
  - 413: CSV upload over the configured size limit
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - scheduler.go: Background recalculation
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/config"
	"github.com/warp/commission-engine/factory"
	"github.com/warp/commission-engine/ingest"
	"github.com/warp/commission-engine/logger"
	"github.com/warp/commission-engine/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

const (
	agentSummaryCacheKey = "agent_summary_%s"

	defaultReportTTL    = 5 * time.Minute
	defaultUploadLimit  = 10 << 20
	defaultRunListLimit = 20
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   store.Store
	Factory *factory.RegistryFactory

	// Cached derived reports (agent summaries), flushed on any mutation
	reports *cache.Cache

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(st store.Store) *Handler {
	ttl := defaultReportTTL
	if config.Cfg != nil && config.Cfg.ReportCacheTTL > 0 {
		ttl = config.Cfg.ReportCacheTTL
	}
	return &Handler{
		Store:   st,
		Factory: factory.NewRegistryFactory(),
		reports: cache.New(ttl, 2*ttl),
	}
}

// invalidateReports drops every cached derived view. Called after any
// dataset mutation and after each completed run.
func (h *Handler) invalidateReports() {
	h.reports.Flush()
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(records))
	for i, rec := range records {
		dtos[i] = toPlanDTO(rec)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan validates and stores a plan configuration.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	plan, err := h.Factory.PlanFromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan configuration", err)
		return
	}

	configJSON, _ := json.Marshal(req.Config)
	record := store.PlanRecord{
		ID:         plan.ID,
		Name:       plan.Name,
		ConfigJSON: string(configJSON),
	}

	if err := h.Store.SavePlan(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusCreated, PlanDTO{
		ID:     string(plan.ID),
		Name:   plan.Name,
		Config: req.Config,
	})
}

// GetPlan returns a single plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.Store.GetPlan(r.Context(), commission.PlanID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get plan", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Plan not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toPlanDTO(*record))
}

// DeletePlan removes a plan.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeletePlan(r.Context(), commission.PlanID(id)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete plan", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func toPlanDTO(rec store.PlanRecord) PlanDTO {
	var cfg factory.PlanJSON
	json.Unmarshal([]byte(rec.ConfigJSON), &cfg)

	dto := PlanDTO{
		ID:     string(rec.ID),
		Name:   rec.Name,
		Config: cfg,
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	if !rec.UpdatedAt.IsZero() {
		dto.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// TEAM HANDLERS
// =============================================================================

// ListTeams returns all teams.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListTeams(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list teams", err)
		return
	}

	dtos := make([]TeamDTO, len(records))
	for i, rec := range records {
		dtos[i] = TeamDTO{
			ID:              string(rec.ID),
			Name:            rec.Name,
			LeadAgent:       rec.LeadAgent,
			SplitPercentage: rec.SplitPercentage,
			CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateTeam validates and stores a team.
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	team, err := h.Factory.TeamFromJSON(factory.TeamJSON{
		ID:              req.ID,
		Name:            req.Name,
		LeadAgent:       req.LeadAgent,
		SplitPercentage: req.SplitPercentage,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid team configuration", err)
		return
	}

	record := store.TeamRecord{
		ID:              team.ID,
		Name:            team.Name,
		LeadAgent:       team.LeadAgent,
		SplitPercentage: team.SplitPercentage,
	}

	if err := h.Store.SaveTeam(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save team", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusCreated, TeamDTO{
		ID:              string(team.ID),
		Name:            team.Name,
		LeadAgent:       team.LeadAgent,
		SplitPercentage: team.SplitPercentage,
	})
}

// GetTeam returns a single team.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.Store.GetTeam(r.Context(), commission.TeamID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get team", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Team not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, TeamDTO{
		ID:              string(record.ID),
		Name:            record.Name,
		LeadAgent:       record.LeadAgent,
		SplitPercentage: record.SplitPercentage,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339),
	})
}

// DeleteTeam removes a team.
func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteTeam(r.Context(), commission.TeamID(id)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete team", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// ListAssignments returns all assignments, enriched with plan and team names.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.Store.ListAssignments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	planNames, teamNames := h.registryNames(ctx)

	dtos := make([]AssignmentDTO, len(records))
	for i, rec := range records {
		dtos[i] = AssignmentDTO{
			AgentName:       rec.AgentName,
			PlanID:          string(rec.PlanID),
			PlanName:        planNames[rec.PlanID],
			TeamID:          string(rec.TeamID),
			TeamName:        teamNames[rec.TeamID],
			AnniversaryDate: rec.AnniversaryDate,
			CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignment binds an agent to a plan (and optionally a team).
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	assignment, err := h.Factory.AssignmentFromJSON(factory.AssignmentJSON{
		AgentName:       req.AgentName,
		PlanID:          req.PlanID,
		TeamID:          req.TeamID,
		AnniversaryDate: req.AnniversaryDate,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment", err)
		return
	}

	ctx := r.Context()

	// The referenced plan and team must exist before the assignment lands,
	// mirroring the dangling-reference check on registry documents.
	plan, err := h.Store.GetPlan(ctx, assignment.PlanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check plan", err)
		return
	}
	if plan == nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown plan: %s", assignment.PlanID), nil)
		return
	}

	record := store.AssignmentRecord{
		AgentName:       assignment.AgentName,
		PlanID:          assignment.PlanID,
		AnniversaryDate: assignment.AnniversaryDate,
	}
	if assignment.TeamID != nil {
		team, err := h.Store.GetTeam(ctx, *assignment.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to check team", err)
			return
		}
		if team == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown team: %s", *assignment.TeamID), nil)
			return
		}
		record.TeamID = *assignment.TeamID
	}

	if err := h.Store.SaveAssignment(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusCreated, AssignmentDTO{
		AgentName:       record.AgentName,
		PlanID:          string(record.PlanID),
		PlanName:        plan.Name,
		TeamID:          string(record.TeamID),
		AnniversaryDate: record.AnniversaryDate,
	})
}

// GetAssignment returns one agent's assignment.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	name := agentParam(r)

	record, err := h.Store.GetAssignment(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assignment", err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Assignment not found", nil)
		return
	}

	planNames, teamNames := h.registryNames(r.Context())
	writeJSON(w, http.StatusOK, AssignmentDTO{
		AgentName:       record.AgentName,
		PlanID:          string(record.PlanID),
		PlanName:        planNames[record.PlanID],
		TeamID:          string(record.TeamID),
		TeamName:        teamNames[record.TeamID],
		AnniversaryDate: record.AnniversaryDate,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339),
	})
}

// DeleteAssignment removes an agent's assignment.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	name := agentParam(r)

	if err := h.Store.DeleteAssignment(r.Context(), name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete assignment", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// registryNames builds plan-ID and team-ID to display-name lookups for
// assignment enrichment. Lookup failures leave names blank.
func (h *Handler) registryNames(ctx context.Context) (map[commission.PlanID]string, map[commission.TeamID]string) {
	planNames := make(map[commission.PlanID]string)
	if plans, err := h.Store.ListPlans(ctx); err == nil {
		for _, p := range plans {
			planNames[p.ID] = p.Name
		}
	}
	teamNames := make(map[commission.TeamID]string)
	if teams, err := h.Store.ListTeams(ctx); err == nil {
		for _, t := range teams {
			teamNames[t.ID] = t.Name
		}
	}
	return planNames, teamNames
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns all imported transactions, oldest closing first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransactions records manually entered transactions as one batch.
func (h *Handler) CreateTransactions(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "At least one transaction is required", nil)
		return
	}

	txs := make([]commission.TransactionInput, 0, len(req.Transactions))
	for i, dto := range req.Transactions {
		tx, err := transactionFromDTO(dto)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Transaction %d: %v", i+1, err), nil)
			return
		}
		txs = append(txs, tx)
	}

	if err := h.Store.SaveTransactions(r.Context(), txs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save transactions", err)
		return
	}
	h.invalidateReports()

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  len(txs),
	})
}

func transactionFromDTO(dto TransactionDTO) (commission.TransactionInput, error) {
	var zero commission.TransactionInput

	if strings.TrimSpace(dto.Agents) == "" {
		return zero, errors.New("agents is required")
	}
	closing, err := commission.ParseDate(dto.ClosingDate)
	if err != nil {
		return zero, fmt.Errorf("invalid closing_date %q", dto.ClosingDate)
	}
	if dto.SalePrice < 0 {
		return zero, errors.New("sale_price cannot be negative")
	}

	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := dto.Status
	if status == "" {
		status = "Sold"
	}

	tx := commission.TransactionInput{
		ID:              commission.TransactionID(id),
		LoopName:        dto.LoopName,
		Status:          status,
		ClosingDate:     closing,
		Agents:          dto.Agents,
		SalePrice:       commission.NewMoney(dto.SalePrice),
		CommissionRate:  dto.CommissionRate,
		BuySidePercent:  dto.BuySidePercent,
		SellSidePercent: dto.SellSidePercent,
	}

	for _, adj := range dto.Adjustments {
		dtype := commission.DeductionType(adj.Type)
		if adj.Type == "" {
			dtype = commission.DeductionFixed
		}
		if !dtype.Valid() {
			return zero, fmt.Errorf("adjustment %q: unknown type %q", adj.Name, adj.Type)
		}
		tx.Adjustments = append(tx.Adjustments, commission.Deduction{
			Name:   adj.Name,
			Amount: adj.Amount,
			Type:   dtype,
		})
	}

	return tx, nil
}

// ImportTransactions parses an uploaded CSV export and stores the closed
// transactions it contains. Re-uploading the same export is idempotent.
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	maxUpload := int64(defaultUploadLimit)
	if config.Cfg != nil && config.Cfg.MaxUploadSizeBytes > 0 {
		maxUpload = config.Cfg.MaxUploadSizeBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Upload too large or malformed", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	source := r.FormValue("source")
	if source == "" {
		source = "dotloop"
	}
	parser, err := ingest.GetParser(source)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown import source", err)
		return
	}

	result, err := parser.Parse(file)
	if err != nil {
		if errors.Is(err, ingest.ErrNotExport) {
			writeError(w, http.StatusBadRequest, "File is not a recognized export", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse file", err)
		return
	}

	if len(result.Transactions) > 0 {
		if err := h.Store.SaveTransactions(r.Context(), result.Transactions); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save transactions", err)
			return
		}
		h.invalidateReports()
	}

	if len(result.Skipped) > 0 {
		logger.L.Warn("import skipped rows",
			"file", header.Filename,
			"imported", result.Imported(),
			"skipped", len(result.Skipped))
	}

	writeJSON(w, http.StatusOK, ImportResultDTO{
		Imported:  result.Imported(),
		Filtered:  result.Filtered(),
		TotalRows: result.TotalRows,
		Skipped:   toSkippedRowDTOs(result.Skipped),
	})
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate replays the whole dataset through the engine and persists the
// run. Recalculation is always a full fold, never incremental.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, res, err := h.runCalculation(ctx)
	if err != nil {
		if rec != nil {
			// Engine rejected the dataset; the failed run is on record.
			writeError(w, http.StatusBadRequest, "Calculation failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to run calculation", err)
		return
	}

	version, err := h.Store.DatasetVersion(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read dataset version", err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{
		Run:    toRunDTO(*rec, version),
		Result: toResultDTO(res),
	})
}

// runCalculation loads the dataset, runs the engine, and persists a run
// record. On engine rejection the failed run is persisted and returned
// alongside the error; on store failure no record exists.
func (h *Handler) runCalculation(ctx context.Context) (*store.RunRecord, *commission.Result, error) {
	version, err := h.Store.DatasetVersion(ctx)
	if err != nil {
		return nil, nil, err
	}
	registry, err := h.loadRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}
	txs, err := h.Store.ListTransactions(ctx)
	if err != nil {
		return nil, nil, err
	}

	rec := store.RunRecord{
		ID:               store.RunID(uuid.NewString()),
		DatasetVersion:   version,
		TransactionCount: len(txs),
		AgentCount:       len(registry.Assignments),
		StartedAt:        time.Now(),
	}

	result, calcErr := commission.NewEngine().Calculate(registry.Input(txs))
	rec.CompletedAt = time.Now()

	if calcErr != nil {
		rec.Status = store.RunFailed
		rec.Error = calcErr.Error()
		if err := h.Store.SaveRun(ctx, rec); err != nil {
			return nil, nil, err
		}
		return &rec, nil, calcErr
	}

	resultJSON, err := store.EncodeResult(result)
	if err != nil {
		return nil, nil, err
	}
	rec.Status = store.RunCompleted
	rec.ResultJSON = resultJSON

	if err := h.Store.SaveRun(ctx, rec); err != nil {
		return nil, nil, err
	}
	h.invalidateReports()

	return &rec, result, nil
}

// loadRegistry assembles the engine configuration from stored records.
// Plan rows that no longer decode are dropped with a warning; agents
// assigned to them surface as missing_plan diagnostics in the run.
func (h *Handler) loadRegistry(ctx context.Context) (*factory.Registry, error) {
	registry := &factory.Registry{}

	planRecords, err := h.Store.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range planRecords {
		var cfg factory.PlanJSON
		if err := json.Unmarshal([]byte(rec.ConfigJSON), &cfg); err != nil {
			logger.L.Warn("dropping undecodable plan config", "plan_id", rec.ID, "error", err)
			continue
		}
		plan, err := h.Factory.PlanFromJSON(cfg)
		if err != nil {
			logger.L.Warn("dropping invalid plan config", "plan_id", rec.ID, "error", err)
			continue
		}
		registry.Plans = append(registry.Plans, plan)
	}

	teamRecords, err := h.Store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range teamRecords {
		registry.Teams = append(registry.Teams, commission.Team{
			ID:              rec.ID,
			Name:            rec.Name,
			LeadAgent:       rec.LeadAgent,
			SplitPercentage: rec.SplitPercentage,
		})
	}

	assignmentRecords, err := h.Store.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range assignmentRecords {
		assignment := commission.AgentPlanAssignment{
			AgentName:       rec.AgentName,
			PlanID:          rec.PlanID,
			AnniversaryDate: rec.AnniversaryDate,
		}
		if rec.TeamID != "" {
			teamID := rec.TeamID
			assignment.TeamID = &teamID
		}
		registry.Assignments = append(registry.Assignments, assignment)
	}

	return registry, nil
}

// ListRuns returns run history, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultRunListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	version, err := h.Store.DatasetVersion(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read dataset version", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, rec := range runs {
		dtos[i] = toRunDTO(rec, version)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.Store.GetRun(ctx, store.RunID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	version, err := h.Store.DatasetVersion(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read dataset version", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunDTO(*rec, version))
}

// GetRunBreakdowns returns a run's per-transaction audit records.
// Supports ?agent= to filter to one agent's shares.
func (h *Handler) GetRunBreakdowns(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runResult(w, r)
	if !ok {
		return
	}

	breakdowns := res.Breakdowns
	if agent := r.URL.Query().Get("agent"); agent != "" {
		breakdowns = res.BreakdownsFor(agent)
	}

	dtos := make([]BreakdownDTO, len(breakdowns))
	for i, b := range breakdowns {
		dtos[i] = toBreakdownDTO(b)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetRunSummaries returns a run's per-agent YTD summaries.
func (h *Handler) GetRunSummaries(w http.ResponseWriter, r *http.Request) {
	res, ok := h.runResult(w, r)
	if !ok {
		return
	}

	dtos := make([]SummaryDTO, len(res.Summaries))
	for i, s := range res.Summaries {
		dtos[i] = toSummaryDTO(s)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// runResult fetches and decodes the run named in the URL, writing the
// error response itself when the run is missing or has no result.
func (h *Handler) runResult(w http.ResponseWriter, r *http.Request) (*commission.Result, bool) {
	rec, err := h.Store.GetRun(r.Context(), store.RunID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return nil, false
	}

	res, err := rec.DecodeResult()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode run result", err)
		return nil, false
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "Run has no result", nil)
		return nil, false
	}
	return res, true
}

// =============================================================================
// AGENT SUMMARY HANDLER
// =============================================================================

// GetAgentSummary returns the latest run's YTD summary for one agent.
// Responses are cached until the dataset changes or the TTL expires.
func (h *Handler) GetAgentSummary(w http.ResponseWriter, r *http.Request) {
	name := agentParam(r)
	key := fmt.Sprintf(agentSummaryCacheKey, commission.NormalizeAgentName(name))

	if cached, found := h.reports.Get(key); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()
	latest, err := h.Store.LatestRun(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get latest run", err)
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "No calculation runs yet", nil)
		return
	}

	res, err := latest.DecodeResult()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode run result", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "Latest run has no result", nil)
		return
	}

	summary, ok := res.SummaryFor(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No summary for agent %q", name), nil)
		return
	}

	version, err := h.Store.DatasetVersion(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read dataset version", err)
		return
	}

	resp := AgentSummaryResponse{
		RunID:          string(latest.ID),
		DatasetVersion: latest.DatasetVersion,
		Stale:          latest.DatasetVersion < version,
		Summary:        toSummaryDTO(summary),
	}
	h.reports.Set(key, resp, cache.DefaultExpiration)

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RESET
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.invalidateReports()
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// agentParam returns the {name} URL parameter with percent-encoding undone.
// Agent names routinely contain spaces.
func agentParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
