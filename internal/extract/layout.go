package extract

import (
	"fmt"

	"vendor-ledger-service/internal/workbook"
	lederrors "vendor-ledger-service/pkg/errors"
)

// Layout is the single place that knows which column holds which field in
// the primary sheet. Offsets are zero-based absolute column indices agreed
// out-of-band with the data provider; the header row is only used to locate
// the start of data, never to map field names to columns. When the provider
// shifts a column, the fix is one line here.
type Layout struct {
	MainSheet string

	VendorName    int
	TaxID         int
	DueDate       int
	OpenAmount    int
	InvoiceNumber int
	VendorEmail   int
	AccountEmail  int
	GateFlags     [4]int
	GateNumeric   int
	BlockStatus   int
	BusinessArea  int

	// SniffBlockColumns enables the header sniff that relocates the
	// block-status and business-area columns from header labels. The export
	// has moved these two more than once; the sniff is the only defense.
	SniffBlockColumns bool
}

// DefaultLayout returns the last-known-good column mapping of the export.
func DefaultLayout() *Layout {
	return &Layout{
		MainSheet:         "Outstanding Invoices IB",
		VendorName:        0,
		TaxID:             1,
		DueDate:           4,
		OpenAmount:        6,
		InvoiceNumber:     8,
		VendorEmail:       29,
		AccountEmail:      30,
		GateFlags:         [4]int{31, 33, 35, 39},
		GateNumeric:       44,
		BlockStatus:       50,
		BusinessArea:      51,
		SniffBlockColumns: true,
	}
}

// Validate checks the layout for obviously broken offsets.
func (l *Layout) Validate() error {
	if l.MainSheet == "" {
		return fmt.Errorf("main sheet name cannot be empty")
	}
	offsets := []struct {
		name  string
		index int
	}{
		{"vendor name", l.VendorName},
		{"tax id", l.TaxID},
		{"due date", l.DueDate},
		{"open amount", l.OpenAmount},
		{"invoice number", l.InvoiceNumber},
		{"vendor email", l.VendorEmail},
		{"account email", l.AccountEmail},
		{"gate flag 1", l.GateFlags[0]},
		{"gate flag 2", l.GateFlags[1]},
		{"gate flag 3", l.GateFlags[2]},
		{"gate flag 4", l.GateFlags[3]},
		{"numeric gate", l.GateNumeric},
		{"block status", l.BlockStatus},
		{"business area", l.BusinessArea},
	}
	for _, o := range offsets {
		if o.index < 0 {
			return fmt.Errorf("%s column index cannot be negative: %d", o.name, o.index)
		}
	}
	return nil
}

// plausibilitySample is how many candidate data rows the load-time check
// inspects before deciding the tax-id column is wrong.
const plausibilitySample = 25

// checkPlausibility samples candidate data rows after the header and fails
// fast when the tax-id column is empty across the whole sample, which is the
// signature of a shifted layout. Joining on a garbage column would otherwise
// silently produce all-sentinel records.
func (l *Layout) checkPlausibility(grid workbook.Grid, headerRow int) error {
	sampled := 0
	withTaxID := 0
	for i := headerRow + 1; i < grid.Rows() && sampled < plausibilitySample; i++ {
		name := grid.Cell(i, l.VendorName).String()
		if name == "" || matchesDenylist(name) {
			continue
		}
		sampled++
		if grid.Cell(i, l.TaxID).String() != "" {
			withTaxID++
		}
	}
	if sampled > 0 && withTaxID == 0 {
		return lederrors.ImplausibleColumn("tax id", l.TaxID,
			fmt.Sprintf("empty for all %d sampled rows", sampled))
	}
	return nil
}
