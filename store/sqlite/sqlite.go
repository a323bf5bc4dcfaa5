/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements store.Store using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  plans:        Commission plan documents (config_json holds the plan JSON)
  teams:        Team splits
  assignments:  Agent-to-plan mapping, one row per agent
  transactions: Imported deals, upserted by ID
  runs:         Calculation runs with their serialized results
  dataset_meta: Single-row version counter

DATASET VERSIONING:
  Every registry or transaction mutation bumps dataset_meta's 'version'
  row inside the same SQL transaction as the mutation itself, so the
  counter can never drift from the data. Deletes that match no row do
  not bump.

MONEY AND DATES:
  Monetary amounts are stored as decimal strings (TEXT) to avoid float
  drift. Closing dates are stored as "YYYY-MM-DD" so lexicographic
  ordering is chronological ordering. Row timestamps are RFC3339; run
  timing uses RFC3339Nano so durations survive the round trip.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with WAL
  (Write-Ahead Logging) so readers don't block each other.

USAGE:
  st, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Commission plans. The full plan document lives in config_json;
	-- name is duplicated out for listing without a decode.
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Teams
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lead_agent TEXT,
		split_percentage REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Agent assignments. One row per agent; re-assigning overwrites.
	CREATE TABLE IF NOT EXISTS assignments (
		agent_name TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		team_id TEXT,
		anniversary_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_plan
		ON assignments(plan_id);

	-- Imported transactions. closing_date is "YYYY-MM-DD" so the index
	-- sorts chronologically; sale_price is a decimal string.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		loop_name TEXT,
		status TEXT,
		closing_date TEXT NOT NULL,
		agents TEXT NOT NULL,
		sale_price TEXT NOT NULL,
		commission_rate REAL NOT NULL,
		buy_side_percent REAL NOT NULL DEFAULT 0,
		sell_side_percent REAL NOT NULL DEFAULT 0,
		adjustments_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_closing
		ON transactions(closing_date);

	-- Calculation runs (append-only)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		error TEXT,
		dataset_version INTEGER NOT NULL,
		transaction_count INTEGER NOT NULL,
		agent_count INTEGER NOT NULL,
		result_json TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Single-row version counter, seeded below
	CREATE TABLE IF NOT EXISTS dataset_meta (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	_, err := s.db.Exec("INSERT OR IGNORE INTO dataset_meta (key, value) VALUES ('version', 0)")
	return err
}

// =============================================================================
// DATASET VERSIONING
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func bumpVersion(ctx context.Context, db execer) error {
	_, err := db.ExecContext(ctx, "UPDATE dataset_meta SET value = value + 1 WHERE key = 'version'")
	return err
}

// execBump runs a single mutation and bumps the dataset version in the
// same SQL transaction. Mutations that touch no rows (delete of a
// missing key) do not bump.
func (s *Store) execBump(ctx context.Context, query string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		if err := bumpVersion(ctx, tx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DatasetVersion returns the current version counter.
func (s *Store) DatasetVersion(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM dataset_meta WHERE key = 'version'",
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset version: %w", err)
	}
	return v, nil
}

// =============================================================================
// PLANS
// =============================================================================

// SavePlan inserts or replaces a plan.
func (s *Store) SavePlan(ctx context.Context, rec store.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO plans (id, name, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	return s.execBump(ctx, query, rec.ID, rec.Name, rec.ConfigJSON, now, now)
}

// GetPlan retrieves a plan by ID. Returns (nil, nil) when absent.
func (s *Store) GetPlan(ctx context.Context, id commission.PlanID) (*store.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec store.PlanRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, created_at, updated_at FROM plans WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Name, &rec.ConfigJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

// ListPlans returns all plans ordered by ID.
func (s *Store) ListPlans(ctx context.Context) ([]store.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, created_at, updated_at FROM plans ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []store.PlanRecord
	for rows.Next() {
		var rec store.PlanRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		plans = append(plans, rec)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan.
func (s *Store) DeletePlan(ctx context.Context, id commission.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execBump(ctx, "DELETE FROM plans WHERE id = ?", id)
}

// =============================================================================
// TEAMS
// =============================================================================

// SaveTeam inserts or replaces a team.
func (s *Store) SaveTeam(ctx context.Context, rec store.TeamRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO teams (id, name, lead_agent, split_percentage, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			lead_agent = excluded.lead_agent,
			split_percentage = excluded.split_percentage
	`

	now := time.Now().UTC().Format(time.RFC3339)
	return s.execBump(ctx, query, rec.ID, rec.Name, nullString(rec.LeadAgent), rec.SplitPercentage, now)
}

// GetTeam retrieves a team by ID. Returns (nil, nil) when absent.
func (s *Store) GetTeam(ctx context.Context, id commission.TeamID) (*store.TeamRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec store.TeamRecord
	var leadAgent sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, lead_agent, split_percentage, created_at FROM teams WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Name, &leadAgent, &rec.SplitPercentage, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.LeadAgent = leadAgent.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// ListTeams returns all teams ordered by ID.
func (s *Store) ListTeams(ctx context.Context) ([]store.TeamRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, lead_agent, split_percentage, created_at FROM teams ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []store.TeamRecord
	for rows.Next() {
		var rec store.TeamRecord
		var leadAgent sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &leadAgent, &rec.SplitPercentage, &createdAt); err != nil {
			return nil, err
		}
		rec.LeadAgent = leadAgent.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		teams = append(teams, rec)
	}
	return teams, rows.Err()
}

// DeleteTeam removes a team.
func (s *Store) DeleteTeam(ctx context.Context, id commission.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execBump(ctx, "DELETE FROM teams WHERE id = ?", id)
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// SaveAssignment inserts or replaces an agent's assignment.
func (s *Store) SaveAssignment(ctx context.Context, rec store.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO assignments (agent_name, plan_id, team_id, anniversary_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_name) DO UPDATE SET
			plan_id = excluded.plan_id,
			team_id = excluded.team_id,
			anniversary_date = excluded.anniversary_date
	`

	now := time.Now().UTC().Format(time.RFC3339)
	return s.execBump(ctx, query,
		rec.AgentName,
		rec.PlanID,
		nullString(string(rec.TeamID)),
		nullString(rec.AnniversaryDate),
		now,
	)
}

// GetAssignment retrieves an agent's assignment. Returns (nil, nil) when absent.
func (s *Store) GetAssignment(ctx context.Context, agentName string) (*store.AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec store.AssignmentRecord
	var teamID, anniversary sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT agent_name, plan_id, team_id, anniversary_date, created_at FROM assignments WHERE agent_name = ?",
		agentName,
	).Scan(&rec.AgentName, &rec.PlanID, &teamID, &anniversary, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.TeamID = commission.TeamID(teamID.String)
	rec.AnniversaryDate = anniversary.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// ListAssignments returns all assignments ordered by agent name.
func (s *Store) ListAssignments(ctx context.Context) ([]store.AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT agent_name, plan_id, team_id, anniversary_date, created_at FROM assignments ORDER BY agent_name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []store.AssignmentRecord
	for rows.Next() {
		var rec store.AssignmentRecord
		var teamID, anniversary sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.AgentName, &rec.PlanID, &teamID, &anniversary, &createdAt); err != nil {
			return nil, err
		}
		rec.TeamID = commission.TeamID(teamID.String)
		rec.AnniversaryDate = anniversary.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		assignments = append(assignments, rec)
	}
	return assignments, rows.Err()
}

// DeleteAssignment removes an agent's assignment.
func (s *Store) DeleteAssignment(ctx context.Context, agentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execBump(ctx, "DELETE FROM assignments WHERE agent_name = ?", agentName)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// SaveTransactions upserts a batch atomically and bumps the dataset
// version once. Either all rows are written or none are.
func (s *Store) SaveTransactions(ctx context.Context, txs []commission.TransactionInput) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, tx := range txs {
		if err := insertTransaction(ctx, sqlTx, tx); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, sqlTx); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func insertTransaction(ctx context.Context, db execer, tx commission.TransactionInput) error {
	var adjustmentsJSON sql.NullString
	if len(tx.Adjustments) > 0 {
		data, err := json.Marshal(tx.Adjustments)
		if err != nil {
			return fmt.Errorf("failed to encode adjustments for %s: %w", tx.ID, err)
		}
		adjustmentsJSON = nullString(string(data))
	}

	query := `
		INSERT INTO transactions
		(id, loop_name, status, closing_date, agents, sale_price, commission_rate,
		 buy_side_percent, sell_side_percent, adjustments_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			loop_name = excluded.loop_name,
			status = excluded.status,
			closing_date = excluded.closing_date,
			agents = excluded.agents,
			sale_price = excluded.sale_price,
			commission_rate = excluded.commission_rate,
			buy_side_percent = excluded.buy_side_percent,
			sell_side_percent = excluded.sell_side_percent,
			adjustments_json = excluded.adjustments_json
	`

	_, err := db.ExecContext(ctx, query,
		tx.ID,
		nullString(tx.LoopName),
		nullString(tx.Status),
		tx.ClosingDate.String(),
		tx.Agents,
		tx.SalePrice.String(),
		tx.CommissionRate,
		tx.BuySidePercent,
		tx.SellSidePercent,
		adjustmentsJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListTransactions returns all transactions ordered by closing date,
// oldest first.
func (s *Store) ListTransactions(ctx context.Context) ([]commission.TransactionInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, loop_name, status, closing_date, agents, sale_price, commission_rate,
		       buy_side_percent, sell_side_percent, adjustments_json
		FROM transactions
		ORDER BY closing_date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []commission.TransactionInput
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (commission.TransactionInput, error) {
	var tx commission.TransactionInput
	var loopName, status, adjustmentsJSON sql.NullString
	var closingDate, salePrice string

	err := rows.Scan(
		&tx.ID,
		&loopName,
		&status,
		&closingDate,
		&tx.Agents,
		&salePrice,
		&tx.CommissionRate,
		&tx.BuySidePercent,
		&tx.SellSidePercent,
		&adjustmentsJSON,
	)
	if err != nil {
		return tx, err
	}

	tx.LoopName = loopName.String
	tx.Status = status.String
	tx.ClosingDate, err = commission.ParseDate(closingDate)
	if err != nil {
		return tx, fmt.Errorf("bad closing_date for %s: %w", tx.ID, err)
	}
	tx.SalePrice = commission.MustParseMoney(salePrice)

	if adjustmentsJSON.Valid && adjustmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(adjustmentsJSON.String), &tx.Adjustments); err != nil {
			return tx, fmt.Errorf("bad adjustments_json for %s: %w", tx.ID, err)
		}
	}
	return tx, nil
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n)
	return n, err
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun persists a run. Runs are append-only and never bump the
// dataset version.
func (s *Store) SaveRun(ctx context.Context, rec store.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO runs
		(id, status, error, dataset_version, transaction_count, agent_count,
		 result_json, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Status,
		nullString(rec.Error),
		rec.DatasetVersion,
		rec.TransactionCount,
		rec.AgentCount,
		nullString(rec.ResultJSON),
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns (nil, nil) when absent.
func (s *Store) GetRun(ctx context.Context, id store.RunID) (*store.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRuns+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns runs newest first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// rowid order is insertion order, which is exactly "latest saved".
	query := selectRuns + " ORDER BY rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRuns(rows)
}

// LatestRun returns the most recently saved run, or (nil, nil) when no
// run exists yet.
func (s *Store) LatestRun(ctx context.Context) (*store.RunRecord, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

const selectRuns = `
	SELECT id, status, error, dataset_version, transaction_count, agent_count,
	       result_json, started_at, completed_at, created_at
	FROM runs`

func collectRuns(rows *sql.Rows) ([]store.RunRecord, error) {
	var runs []store.RunRecord
	for rows.Next() {
		var rec store.RunRecord
		var errMsg, resultJSON sql.NullString
		var startedAt, completedAt, createdAt string

		err := rows.Scan(
			&rec.ID,
			&rec.Status,
			&errMsg,
			&rec.DatasetVersion,
			&rec.TransactionCount,
			&rec.AgentCount,
			&resultJSON,
			&startedAt,
			&completedAt,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		rec.Error = errMsg.String
		rec.ResultJSON = resultJSON.String
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Reset wipes all data and returns the version counter to 0.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"runs", "transactions", "assignments", "teams", "plans"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, "UPDATE dataset_meta SET value = 0 WHERE key = 'version'")
	return err
}

// nullString converts empty strings to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
