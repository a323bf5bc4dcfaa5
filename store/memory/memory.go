// Package memory provides an in-memory Store implementation.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	plans        map[commission.PlanID]store.PlanRecord
	teams        map[commission.TeamID]store.TeamRecord
	assignments  map[string]store.AssignmentRecord
	transactions map[commission.TransactionID]commission.TransactionInput
	runs         []store.RunRecord
	version      int64
}

func NewMemory() *Memory {
	return &Memory{
		plans:        make(map[commission.PlanID]store.PlanRecord),
		teams:        make(map[commission.TeamID]store.TeamRecord),
		assignments:  make(map[string]store.AssignmentRecord),
		transactions: make(map[commission.TransactionID]commission.TransactionInput),
	}
}

// =============================================================================
// REGISTRY - Plans, teams, assignments
// =============================================================================

func (m *Memory) SavePlan(_ context.Context, rec store.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[rec.ID] = rec
	m.version++
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id commission.PlanID) (*store.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.plans[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) ListPlans(_ context.Context) ([]store.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]store.PlanRecord, 0, len(m.plans))
	for _, rec := range m.plans {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeletePlan(_ context.Context, id commission.PlanID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return nil
	}
	delete(m.plans, id)
	m.version++
	return nil
}

func (m *Memory) SaveTeam(_ context.Context, rec store.TeamRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[rec.ID] = rec
	m.version++
	return nil
}

func (m *Memory) GetTeam(_ context.Context, id commission.TeamID) (*store.TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.teams[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) ListTeams(_ context.Context) ([]store.TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]store.TeamRecord, 0, len(m.teams))
	for _, rec := range m.teams {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteTeam(_ context.Context, id commission.TeamID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return nil
	}
	delete(m.teams, id)
	m.version++
	return nil
}

func (m *Memory) SaveAssignment(_ context.Context, rec store.AssignmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[rec.AgentName] = rec
	m.version++
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, agentName string) (*store.AssignmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.assignments[agentName]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) ListAssignments(_ context.Context) ([]store.AssignmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]store.AssignmentRecord, 0, len(m.assignments))
	for _, rec := range m.assignments {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AgentName < result[j].AgentName })
	return result, nil
}

func (m *Memory) DeleteAssignment(_ context.Context, agentName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[agentName]; !ok {
		return nil
	}
	delete(m.assignments, agentName)
	m.version++
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// SaveTransactions upserts the batch. The map write cannot fail halfway,
// so atomicity is the lock itself.
func (m *Memory) SaveTransactions(_ context.Context, txs []commission.TransactionInput) error {
	if len(txs) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		m.transactions[tx.ID] = tx
	}
	m.version++
	return nil
}

func (m *Memory) ListTransactions(_ context.Context) ([]commission.TransactionInput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]commission.TransactionInput, 0, len(m.transactions))
	for _, tx := range m.transactions {
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ClosingDate.Equal(result[j].ClosingDate) {
			return result[i].ClosingDate.Before(result[j].ClosingDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) CountTransactions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions), nil
}

// =============================================================================
// RUNS
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, rec store.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id store.RunID) (*store.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			rec := m.runs[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]store.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]store.RunRecord, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, m.runs[i])
	}
	return result, nil
}

func (m *Memory) LatestRun(_ context.Context) (*store.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	rec := m.runs[len(m.runs)-1]
	return &rec, nil
}

// =============================================================================
// VERSIONING AND LIFECYCLE
// =============================================================================

func (m *Memory) DatasetVersion(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = make(map[commission.PlanID]store.PlanRecord)
	m.teams = make(map[commission.TeamID]store.TeamRecord)
	m.assignments = make(map[string]store.AssignmentRecord)
	m.transactions = make(map[commission.TransactionID]commission.TransactionInput)
	m.runs = nil
	m.version = 0
	return nil
}

func (m *Memory) Close() error { return nil }
