// Package creditnotes parses the separate credit-note spreadsheet into a
// tax-id keyed aggregate used by the reconciliation merge.
package creditnotes

import (
	"fmt"

	"vendor-ledger-service/internal/models"
	"vendor-ledger-service/internal/workbook"
	"vendor-ledger-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Layout holds the fixed column offsets of the credit-note file. The first
// sheet is always used and its first row is assumed to be a header.
type Layout struct {
	TaxID      int
	NoteNumber int
	Amount     int
}

// DefaultLayout returns the agreed credit-note column mapping: tax id in
// column D, note number in column C, amount in column K.
func DefaultLayout() *Layout {
	return &Layout{TaxID: 3, NoteNumber: 2, Amount: 10}
}

// Stats summarizes one aggregation pass.
type Stats struct {
	RowsScanned int `json:"rowsScanned"`
	RowsKept    int `json:"rowsKept"`
	Vendors     int `json:"vendors"`
}

// String returns the aggregate one-liner logged after a pass.
func (s *Stats) String() string {
	return fmt.Sprintf("aggregated %d of %d credit-note rows across %d vendors",
		s.RowsKept, s.RowsScanned, s.Vendors)
}

// Aggregate walks the grid of the credit-note sheet, skipping the header
// row, and accumulates one CreditNoteAggregate per normalized tax id. Rows
// missing a tax id or note number are skipped; a zero or absent amount still
// counts as a note. Multiple rows for the same tax id fold into one
// aggregate, note numbers in row order.
func Aggregate(grid workbook.Grid, layout *Layout) (map[string]*models.CreditNoteAggregate, *Stats) {
	if layout == nil {
		layout = DefaultLayout()
	}
	log := logger.WithComponent("creditnotes")

	aggregates := make(map[string]*models.CreditNoteAggregate)
	stats := &Stats{}

	for i := 1; i < grid.Rows(); i++ {
		stats.RowsScanned++

		taxID := models.NormalizeTaxID(grid.Cell(i, layout.TaxID).String())
		number := grid.Cell(i, layout.NoteNumber).String()
		if taxID == "" || number == "" {
			continue
		}

		amount := decimal.Zero
		amountCell := grid.Cell(i, layout.Amount)
		if !amountCell.IsEmpty() {
			if parsed, err := amountCell.AsAmount(); err == nil {
				amount = parsed
			}
		}

		agg, ok := aggregates[taxID]
		if !ok {
			agg = &models.CreditNoteAggregate{TaxIDClean: taxID}
			aggregates[taxID] = agg
		}
		agg.Add(number, amount)
		stats.RowsKept++
	}

	stats.Vendors = len(aggregates)
	log.Infof("credit-note aggregation complete: %s", stats)
	return aggregates, stats
}
