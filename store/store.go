/*
store.go - Persistence interface for the commission registry, transactions, and runs

PURPOSE:
  Defines the interface between the API layer and the database.
  The Store persists the three inputs of a calculation (plans, teams,
  assignments), the imported transactions, and the runs produced from
  them. Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  RegistryStore:    Plans, teams, and agent assignments (upsert semantics)
  TransactionStore: Imported transactions (atomic batch upsert)
  RunStore:         Calculation runs with their full serialized result
  Store:            All of the above plus dataset versioning

DATASET VERSIONING:
  Every mutation of the registry or the transaction set bumps a single
  monotonic version counter. Each run records the version it was computed
  against. A run whose DatasetVersion is behind the store's current
  version is stale; the scheduler uses this to decide when to recalculate.
  Saving a run never bumps the version.

UPSERT CONTRACT:
  SavePlan, SaveTeam, and SaveAssignment replace any existing row with
  the same key. An agent has at most one assignment; re-assigning them
  overwrites the previous one. SaveTransactions upserts by transaction
  ID so re-importing the same export is idempotent apart from the
  version bump.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - store/memory/memory.go: In-memory for testing

EXAMPLE:
  st, err := sqlite.New("./data.db")
  if err != nil { ... }
  defer st.Close()
  if err := st.SaveTransactions(ctx, imported.Transactions); err != nil { ... }

SEE ALSO:
  - commission/engine.go: Consumes the stored inputs
  - api/scheduler.go: Polls DatasetVersion against the latest run
*/
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// REGISTRY STORE - Plans, teams, assignments
// =============================================================================

// PlanRecord is a stored commission plan. ConfigJSON holds the full plan
// document (the factory's JSON schema); Name is duplicated out of it for
// listing without a decode.
type PlanRecord struct {
	ID         commission.PlanID
	Name       string
	ConfigJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TeamRecord is a stored team. Flat columns; teams have no nested config.
type TeamRecord struct {
	ID              commission.TeamID
	Name            string
	LeadAgent       string
	SplitPercentage float64
	CreatedAt       time.Time
}

// AssignmentRecord maps an agent name to their plan and optional team.
// AgentName is the key; TeamID and AnniversaryDate are empty when unused.
type AssignmentRecord struct {
	AgentName       string
	PlanID          commission.PlanID
	TeamID          commission.TeamID
	AnniversaryDate string
	CreatedAt       time.Time
}

// RegistryStore persists the calculation inputs that operators manage by
// hand. All Get methods return (nil, nil) when the row does not exist.
type RegistryStore interface {
	SavePlan(ctx context.Context, rec PlanRecord) error
	GetPlan(ctx context.Context, id commission.PlanID) (*PlanRecord, error)
	ListPlans(ctx context.Context) ([]PlanRecord, error)
	DeletePlan(ctx context.Context, id commission.PlanID) error

	SaveTeam(ctx context.Context, rec TeamRecord) error
	GetTeam(ctx context.Context, id commission.TeamID) (*TeamRecord, error)
	ListTeams(ctx context.Context) ([]TeamRecord, error)
	DeleteTeam(ctx context.Context, id commission.TeamID) error

	SaveAssignment(ctx context.Context, rec AssignmentRecord) error
	GetAssignment(ctx context.Context, agentName string) (*AssignmentRecord, error)
	ListAssignments(ctx context.Context) ([]AssignmentRecord, error)
	DeleteAssignment(ctx context.Context, agentName string) error
}

// =============================================================================
// TRANSACTION STORE - Imported deals
// =============================================================================

// TransactionStore persists imported transactions. The domain type is
// stored directly; there is no separate record shape.
type TransactionStore interface {
	// SaveTransactions upserts a batch atomically. Either all rows are
	// written or none are. Bumps the dataset version once per batch.
	SaveTransactions(ctx context.Context, txs []commission.TransactionInput) error

	// ListTransactions returns all transactions ordered by closing date,
	// oldest first.
	ListTransactions(ctx context.Context) ([]commission.TransactionInput, error)

	// CountTransactions returns the number of stored transactions.
	CountTransactions(ctx context.Context) (int, error)
}

// =============================================================================
// RUN STORE - Calculation runs and their results
// =============================================================================

type RunID string

func (id RunID) String() string { return string(id) }

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one calculation run. ResultJSON holds the engine's entire
// result for completed runs and is empty for failed ones; Error is the
// failure message for failed runs and empty otherwise.
type RunRecord struct {
	ID     RunID
	Status RunStatus
	Error  string

	// Dataset version the run was computed against.
	DatasetVersion int64

	TransactionCount int
	AgentCount       int
	ResultJSON       string

	StartedAt   time.Time
	CompletedAt time.Time
	CreatedAt   time.Time
}

// DecodeResult unmarshals the stored result. Returns (nil, nil) when the
// run carries no result, as failed runs do.
func (r RunRecord) DecodeResult() (*commission.Result, error) {
	if r.ResultJSON == "" {
		return nil, nil
	}
	var res commission.Result
	if err := json.Unmarshal([]byte(r.ResultJSON), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EncodeResult serializes an engine result for storage in a RunRecord.
func EncodeResult(res *commission.Result) (string, error) {
	if res == nil {
		return "", nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RunStore persists runs. Runs are append-only; a recalculation writes a
// new run rather than updating an old one.
type RunStore interface {
	SaveRun(ctx context.Context, rec RunRecord) error

	// GetRun returns (nil, nil) when no run has that ID.
	GetRun(ctx context.Context, id RunID) (*RunRecord, error)

	// ListRuns returns runs newest first, at most limit rows.
	// limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// LatestRun returns the most recent run, or (nil, nil) when no run
	// exists yet.
	LatestRun(ctx context.Context) (*RunRecord, error)
}

// =============================================================================
// STORE - Everything the API layer needs
// =============================================================================

type Store interface {
	RegistryStore
	TransactionStore
	RunStore

	// DatasetVersion returns the current version counter. Starts at 0 on
	// an empty store and increases by 1 on every registry or transaction
	// mutation.
	DatasetVersion(ctx context.Context) (int64, error)

	// Reset wipes all data and returns the version counter to 0.
	Reset(ctx context.Context) error

	Close() error
}
