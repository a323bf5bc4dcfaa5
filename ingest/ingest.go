/*
Package ingest converts brokerage transaction exports into engine inputs.

PURPOSE:
  This package turns raw CSV exports from transaction-management systems
  (currently dotloop) into []commission.TransactionInput. It owns all of the
  source-format knowledge: column names, money and percent formatting, date
  layouts, and which rows count as closed business.

KEY CONCEPTS:
  - Parser: One implementation per source system, selected by GetParser
  - ImportResult: Parsed transactions plus row-level diagnostics
  - SkippedRow: A row that could not be imported, with a machine-readable
    reason and the offending raw value

DESIGN PRINCIPLES:
  1. Header-indexed: Columns are found by name, never by position, so
     reordered or extended exports keep working
  2. Row isolation: A bad row is reported and skipped; it never fails the
     whole file. Only a missing required column or unreadable CSV does.
  3. No logging: The package returns diagnostics; callers decide what to log

USAGE:
  parser, err := ingest.GetParser("dotloop")
  if err != nil { ... }
  result, err := parser.Parse(file)
  if err != nil { ... }
  // result.Transactions feed commission.Engine.Calculate;
  // result.Skipped and result.Filtered() feed the import report.

SEE ALSO:
  - dotloop.go: The dotloop export parser
  - commission/types.go: The TransactionInput this package produces
*/
package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// PARSER INTERFACE
// =============================================================================

// Parser reads one source system's CSV export into engine inputs.
type Parser interface {
	Parse(file io.Reader) (*ImportResult, error)
}

// GetParser returns the parser registered for the given source system.
func GetParser(source string) (Parser, error) {
	switch source {
	case "dotloop":
		return NewDotloopParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotExport reports a file whose header row lacks the columns the source
// format always carries. The wrapped message lists every missing column.
var ErrNotExport = errors.New("required export columns missing")

// =============================================================================
// IMPORT RESULT - Parsed transactions plus row diagnostics
// =============================================================================

// RowSkipReason identifies why an otherwise-closed row was not imported.
type RowSkipReason string

const (
	SkipMissingClosingDate RowSkipReason = "missing_closing_date"
	SkipInvalidClosingDate RowSkipReason = "invalid_closing_date"
	SkipNoAgents           RowSkipReason = "no_agents"
	SkipMissingSalePrice   RowSkipReason = "missing_sale_price"
	SkipMissingRate        RowSkipReason = "missing_commission_rate"
)

// SkippedRow records a closed row that could not be turned into a
// transaction. Line is the 1-based line number in the file (the header is
// line 1). Detail carries the raw value that failed to parse, when there
// is one.
type SkippedRow struct {
	Line     int
	LoopID   string
	LoopName string
	Reason   RowSkipReason
	Detail   string
}

// ImportResult is everything Parse learned from one file. Rows whose status
// is not closed are filtered, not skipped; they appear only in the counters.
type ImportResult struct {
	Transactions []commission.TransactionInput
	Skipped      []SkippedRow

	// TotalRows counts every data row in the file; SoldRows counts the ones
	// that passed the status filter (imported + skipped).
	TotalRows int
	SoldRows  int
}

func (r *ImportResult) Imported() int { return len(r.Transactions) }
func (r *ImportResult) Filtered() int { return r.TotalRows - r.SoldRows }
