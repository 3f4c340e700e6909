// Package extract walks the primary sheet and emits normalized invoice
// records.
//
// The extractor is a small state machine over rows: each row is either
// rejected by one of the validity gates or emitted as a complete
// models.Invoice; partial records are never produced. Row-level rejections
// are routine (the export interleaves summary and blank rows with real data)
// and are reported only as aggregate stats, never as errors.
package extract

import (
	"fmt"
	"strings"
	"time"

	"vendor-ledger-service/internal/cells"
	"vendor-ledger-service/internal/models"
	"vendor-ledger-service/internal/refdata"
	"vendor-ledger-service/internal/workbook"
	"vendor-ledger-service/pkg/logger"
)

// RejectReason labels why a row was dropped.
type RejectReason string

const (
	RejectVendorName  RejectReason = "vendor_name"
	RejectMissingCell RejectReason = "missing_due_or_amount"
	RejectBadAmount   RejectReason = "bad_amount"
	RejectBadDate     RejectReason = "bad_date"
	RejectGateFlag    RejectReason = "gate_flag"
	RejectGateNumeric RejectReason = "gate_numeric"
)

// Stats summarizes one extraction pass.
type Stats struct {
	HeaderRow   int                  `json:"headerRow"`
	RowsScanned int                  `json:"rowsScanned"`
	RowsKept    int                  `json:"rowsKept"`
	Rejections  map[RejectReason]int `json:"rejections"`
}

// String returns the aggregate one-liner logged after a pass.
func (s *Stats) String() string {
	return fmt.Sprintf("kept %d of %d rows (header at row %d)", s.RowsKept, s.RowsScanned, s.HeaderRow)
}

// denylist terms mark summary/placeholder rows interleaved in the export.
// Matched case-insensitively as substrings of the vendor-name cell.
var denylist = []string{
	"total", "saldo", "asiento", "header", "proveedor", "unnamed",
	"vendor", "facturas", "periodo", "sum", "importe", "grand total",
}

func matchesDenylist(vendorName string) bool {
	lowered := strings.ToLower(vendorName)
	for _, term := range denylist {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// Extractor turns the primary grid into normalized invoices.
type Extractor struct {
	layout   *Layout
	resolver *refdata.Resolver
	today    time.Time
	log      logger.Logger
}

// NewExtractor creates an Extractor. today anchors the overdue computation
// and is normally cells.Today(); tests pin it.
func NewExtractor(layout *Layout, resolver *refdata.Resolver, today time.Time) *Extractor {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &Extractor{
		layout:   layout,
		resolver: resolver,
		today:    cells.Midnight(today),
		log:      logger.WithComponent("extractor"),
	}
}

// Extract locates the header, validates the layout against a sample of the
// data, then walks every row after the header applying the validity gates in
// order. It returns the emitted invoices and the pass statistics.
func (e *Extractor) Extract(grid workbook.Grid) ([]*models.Invoice, *Stats, error) {
	headerRow, err := LocateHeader(grid)
	if err != nil {
		return nil, nil, err
	}

	layout := e.effectiveLayout(grid, headerRow)

	if err := layout.checkPlausibility(grid, headerRow); err != nil {
		return nil, nil, err
	}

	stats := &Stats{HeaderRow: headerRow, Rejections: make(map[RejectReason]int)}
	var invoices []*models.Invoice

	for i := headerRow + 1; i < grid.Rows(); i++ {
		stats.RowsScanned++
		inv, reason := e.extractRow(grid, i, layout)
		if inv == nil {
			stats.Rejections[reason]++
			continue
		}
		invoices = append(invoices, inv)
		stats.RowsKept++
	}

	e.log.WithFields(logger.Fields{
		"header_row":   headerRow,
		"rows_scanned": stats.RowsScanned,
		"rows_kept":    stats.RowsKept,
	}).Infof("extraction complete: %s", stats)

	return invoices, stats, nil
}

// effectiveLayout applies the header sniff for the block-status and
// business-area columns. Labels containing "BS" (but not "FUNC") or "BA"
// override the configured defaults; nothing else is ever derived from header
// text.
func (e *Extractor) effectiveLayout(grid workbook.Grid, headerRow int) *Layout {
	layout := *e.layout
	if !layout.SniffBlockColumns || headerRow >= grid.Rows() {
		return &layout
	}
	row := grid[headerRow]
	for idx, cell := range row {
		if cell.Kind != cells.KindText {
			continue
		}
		label := strings.ToUpper(cell.String())
		if strings.Contains(label, "BS") && !strings.Contains(label, "FUNC") {
			layout.BlockStatus = idx
		}
		if strings.Contains(label, "BA") {
			layout.BusinessArea = idx
		}
	}
	return &layout
}

// extractRow applies the validity gates to one row. It returns the emitted
// invoice, or nil and the reason the row was rejected. Gates are hard
// filters applied in order; the flag and numeric gates encode the business
// invariant that only fully-cleared, non-exception invoices are in scope, so
// they live here rather than in the view layer where a filter reset could
// re-surface excluded rows.
func (e *Extractor) extractRow(grid workbook.Grid, row int, layout *Layout) (*models.Invoice, RejectReason) {
	vendorName := grid.Cell(row, layout.VendorName).String()
	if vendorName == "" || matchesDenylist(vendorName) {
		return nil, RejectVendorName
	}

	dueCell := grid.Cell(row, layout.DueDate)
	amountCell := grid.Cell(row, layout.OpenAmount)
	if dueCell.IsEmpty() || amountCell.IsEmpty() {
		return nil, RejectMissingCell
	}

	amount, err := amountCell.AsAmount()
	if err != nil || !amount.IsPositive() {
		return nil, RejectBadAmount
	}

	dueDate, err := dueCell.AsDate()
	if err != nil {
		return nil, RejectBadDate
	}

	var flags [4]string
	for f, col := range layout.GateFlags {
		flags[f] = models.NormalizeFlag(grid.Cell(row, col).String())
		if flags[f] != models.FlagYes {
			return nil, RejectGateFlag
		}
	}

	gateCell := grid.Cell(row, layout.GateNumeric)
	if !gateCell.IsEmpty() {
		gate, err := gateCell.AsAmount()
		if err != nil || !gate.IsZero() {
			return nil, RejectGateNumeric
		}
	}

	taxID := grid.Cell(row, layout.TaxID).String()
	taxIDClean := models.NormalizeTaxID(taxID)
	country := e.resolver.Country(taxIDClean)
	overdue := cells.IsPast(dueDate, e.today)

	status := models.StatusNotOverdue
	if overdue {
		status = models.StatusOverdue
	}

	return &models.Invoice{
		ID:            fmt.Sprintf("row-%d", row),
		VendorName:    vendorName,
		TaxID:         taxID,
		TaxIDClean:    taxIDClean,
		DueDate:       cells.Midnight(dueDate),
		OpenAmount:    amount,
		InvoiceNumber: grid.Cell(row, layout.InvoiceNumber).String(),
		VendorEmail:   grid.Cell(row, layout.VendorEmail).String(),
		AccountEmail:  grid.Cell(row, layout.AccountEmail).String(),
		Flags:         flags,
		BlockStatus:   models.ClassifyBlockStatus(grid.Cell(row, layout.BlockStatus).String()),
		BusinessArea:  grid.Cell(row, layout.BusinessArea).String(),
		VendorType:    e.resolver.VendorType(taxIDClean),
		Country:       country,
		CountryClass:  models.ClassifyCountry(country),
		Status:        status,
		DaysOverdue:   cells.DaysPast(dueDate, e.today),
	}, ""
}
