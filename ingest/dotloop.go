package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// DOTLOOP COLUMNS
// =============================================================================

// Column names as they appear in a dotloop loop export. Exports carry many
// more columns (property, compliance, referral); everything not named here
// is ignored.
const (
	colLoopID      = "Loop ID"
	colLoopName    = "Loop Name"
	colLoopStatus  = "Loop Status"
	colClosingDate = "Closing Date"
	colAgents      = "Agents"
	colSalePrice   = "Financials / Purchase/Sale Price"
	colRate        = "Financials / Sale Commission Rate"
	colBuySidePct  = "Financials / Sale Commission Split % - Buy Side"
	colSellSidePct = "Financials / Sale Commission Split % - Sell Side"
	colTotal       = "Financials / Sale Commission Total"
)

// statusSold is the dotloop status for closed business. Everything else
// (Active Listings, Under Contract, Archived) is pipeline, not payout.
const statusSold = "Sold"

// requiredColumns must all be present in the header for the file to be
// treated as a dotloop export at all.
var requiredColumns = []string{colLoopStatus, colClosingDate, colAgents, colSalePrice}

// =============================================================================
// DOTLOOP PARSER
// =============================================================================

type DotloopParser struct{}

func NewDotloopParser() *DotloopParser {
	return &DotloopParser{}
}

// Parse reads a dotloop loop export and returns the closed transactions in
// it. Rows are matched to columns through the header, so column order does
// not matter. Non-Sold rows are filtered; Sold rows that cannot be parsed
// are reported in ImportResult.Skipped.
func (p *DotloopParser) Parse(file io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := indexColumns(header)
	if err := requireColumns(cols); err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	result := &ImportResult{}
	for i, record := range records {
		// Line 1 is the header row.
		line := i + 2
		result.TotalRows++

		r := row{cols: cols, record: record}
		if !strings.EqualFold(r.get(colLoopStatus), statusSold) {
			continue
		}
		result.SoldRows++

		tx, skipped := p.convertRow(line, r)
		if skipped != nil {
			result.Skipped = append(result.Skipped, *skipped)
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	return result, nil
}

// convertRow turns one Sold row into a TransactionInput, or reports why it
// cannot. A missing commission rate is backfilled from the commission total
// when the total and a positive sale price are both present.
func (p *DotloopParser) convertRow(line int, r row) (commission.TransactionInput, *SkippedRow) {
	loopID := r.get(colLoopID)
	loopName := r.get(colLoopName)

	skip := func(reason RowSkipReason, detail string) (commission.TransactionInput, *SkippedRow) {
		return commission.TransactionInput{}, &SkippedRow{
			Line:     line,
			LoopID:   loopID,
			LoopName: loopName,
			Reason:   reason,
			Detail:   detail,
		}
	}

	rawDate := r.get(colClosingDate)
	if rawDate == "" {
		return skip(SkipMissingClosingDate, "")
	}
	closing, err := commission.ParseDate(rawDate)
	if err != nil {
		return skip(SkipInvalidClosingDate, rawDate)
	}

	agents := r.get(colAgents)
	if agents == "" {
		return skip(SkipNoAgents, "")
	}

	price, ok := parseMoney(r.get(colSalePrice))
	if !ok {
		return skip(SkipMissingSalePrice, r.get(colSalePrice))
	}

	rate, ok := parsePercent(r.get(colRate))
	if !ok {
		total, totalOK := parseMoney(r.get(colTotal))
		if !totalOK || !price.IsPositive() {
			return skip(SkipMissingRate, r.get(colRate))
		}
		rate = total.Value.Div(price.Value).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	buyPct, _ := parsePercent(r.get(colBuySidePct))
	sellPct, _ := parsePercent(r.get(colSellSidePct))

	// Exports occasionally carry loops without an ID; the engine needs one
	// for the audit trail.
	id := loopID
	if id == "" {
		id = uuid.NewString()
	}

	return commission.TransactionInput{
		ID:              commission.TransactionID(id),
		LoopName:        loopName,
		Status:          r.get(colLoopStatus),
		ClosingDate:     closing,
		Agents:          agents,
		SalePrice:       price,
		CommissionRate:  rate,
		BuySidePercent:  buyPct,
		SellSidePercent: sellPct,
	}, nil
}

// =============================================================================
// HEADER INDEXING
// =============================================================================

// row reads one record through the header index. Records shorter than the
// header (FieldsPerRecord is -1) read as empty fields.
type row struct {
	cols   map[string]int
	record []string
}

func (r row) get(name string) string {
	idx, ok := r.cols[name]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}
	return cols
}

func requireColumns(cols map[string]int) error {
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNotExport, strings.Join(missing, ", "))
	}
	return nil
}

// =============================================================================
// VALUE PARSING
// =============================================================================

// parseMoney reads dotloop money formatting ("$1,234,567.89"). An empty cell
// reports ok=false so callers can tell absent from zero.
func parseMoney(s string) (commission.Money, bool) {
	cleaned := strings.ReplaceAll(s, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return commission.Zero(), false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return commission.Zero(), false
	}
	return commission.Money{Value: d}, true
}

// parsePercent reads "3%" or a bare "2.5".
func parsePercent(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
