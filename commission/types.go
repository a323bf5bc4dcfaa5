/*
Package commission provides the core commission calculation engine.

PURPOSE:
  This package contains the types and algorithms for computing per-agent
  real-estate commission payouts. Given a set of plans, teams, agent
  assignments, and closed transactions, the engine replays the transactions
  in chronological order and produces a full audit trail: per-transaction
  breakdowns, per-agent YTD summaries, tier transitions, and skip
  diagnostics.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A dollar quantity backed by decimal.Decimal
  - TransactionInput: One closed deal as it arrives from the source system
  - Deduction: A fixed or percentage charge against an agent's commission
  - Plan/Team/Transaction IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so $0.01 never leaks to $0.0099999
  2. Determinism: Same inputs always produce byte-identical results
  3. Type Safety: Strong typing for IDs prevents mixing plan/team IDs
  4. Auditability: Every derived number is reported, not just the net

USAGE:
  tx := commission.TransactionInput{
      ID:             "loop-001",
      LoopName:       "123 Main St",
      ClosingDate:    commission.NewDate(2025, time.March, 15),
      Agents:         "Amanda Garcia",
      SalePrice:      commission.NewMoney(500000),
      CommissionRate: 2,
  }
  result, err := commission.NewEngine().Calculate(commission.CalculationInput{
      Plans:        plans,
      Assignments:  assignments,
      Transactions: []commission.TransactionInput{tx},
  })

SEE ALSO:
  - plan.go: Commission plan, team, and assignment definitions
  - calculator.go: The per-transaction calculation pipeline
  - engine.go: The chronological fold across all transactions
*/
package commission

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Dollar amount with exact decimal arithmetic
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

var oneHundred = decimal.NewFromInt(100)

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money               { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money               { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money     { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money     { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                      { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool                { return m.Value.IsNegative() }
func (m Money) IsZero() bool                    { return m.Value.IsZero() }
func (m Money) IsPositive() bool                { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool              { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool        { return m.Value.GreaterThan(b.Value) }
func (m Money) GreaterThanOrEqual(b Money) bool { return m.Value.GreaterThanOrEqual(b.Value) }
func (m Money) LessThan(b Money) bool           { return m.Value.LessThan(b.Value) }
func (m Money) LessThanOrEqual(b Money) bool    { return m.Value.LessThanOrEqual(b.Value) }
func (m Money) Round() Money                    { return Money{Value: m.Value.Round(2)} }
func (m Money) Float64() float64                { return m.Value.InexactFloat64() }
func (m Money) String() string                  { return m.Value.String() }

func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

func (m Money) Max(b Money) Money {
	if m.GreaterThan(b) {
		return m
	}
	return b
}

// Percent returns p percent of m, e.g. NewMoney(200).Percent(3) = 6.
func (m Money) Percent(p float64) Money {
	return Money{Value: m.Value.Mul(decimal.NewFromFloat(p)).Div(oneHundred)}
}

// DivInt splits m evenly into n shares. n must be positive.
func (m Money) DivInt(n int) Money {
	return Money{Value: m.Value.Div(decimal.NewFromInt(int64(n)))}
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Value.String()), nil
}

// UnmarshalJSON accepts bare numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		m.Value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.Value = d
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PlanID string
type TeamID string
type TransactionID string

// AgentKey is the normalized form of an agent name (trimmed, lowercased).
// All matching between transaction agent strings and plan assignments goes
// through AgentKey so "Amanda Garcia" and "  amanda garcia " are one agent.
type AgentKey string

// =============================================================================
// SPLIT TYPE - How a transaction relates to the agent's annual cap
// =============================================================================

type SplitType string

const (
	// SplitPreCap: the whole transaction is billed at the plan's normal split.
	SplitPreCap SplitType = "pre-cap"

	// SplitPostCap: the agent already reached the cap; the whole transaction
	// is billed at the post-cap split.
	SplitPostCap SplitType = "post-cap"

	// SplitMixed: the transaction straddles the cap boundary; part is billed
	// at the normal split and the rest at the post-cap split.
	SplitMixed SplitType = "mixed"
)

func (s SplitType) Valid() bool {
	return s == SplitPreCap || s == SplitPostCap || s == SplitMixed
}

// =============================================================================
// DEDUCTION - Per-transaction charge against an agent's commission
// =============================================================================

type DeductionType string

const (
	DeductionFixed      DeductionType = "fixed"      // flat dollar amount
	DeductionPercentage DeductionType = "percentage" // percent of the agent's GCI
)

// Deduction is a recurring charge attached to a plan (E&O insurance,
// transaction fees) or a one-off adjustment attached to a transaction.
// Amount is dollars for DeductionFixed and a percentage for DeductionPercentage.
type Deduction struct {
	Name   string
	Amount float64
	Type   DeductionType
}

func (d DeductionType) Valid() bool {
	return d == DeductionFixed || d == DeductionPercentage
}

// =============================================================================
// TRANSACTION INPUT - One closed deal from the source system
// =============================================================================

// TransactionInput is a closed transaction as imported from dotloop (or
// entered manually). Agents is the raw comma-separated agent string; GCI is
// split evenly across everyone named in it.
type TransactionInput struct {
	ID          TransactionID
	LoopName    string
	Status      string
	ClosingDate Date
	Agents      string

	SalePrice      Money
	CommissionRate float64 // percent of sale price

	// Side percentages as reported by the source. Informational; they do
	// not change the per-agent math.
	BuySidePercent  float64
	SellSidePercent float64

	// One-off adjustments applied after plan deductions (referral fees,
	// bonuses as negative fixed deductions).
	Adjustments []Deduction
}
